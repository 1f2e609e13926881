package devto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/mosinatet/commspec/internal/config"
	"github.com/mosinatet/commspec/internal/service/platform"
	"github.com/mosinatet/commspec/pkg/util"
)

const defaultBaseURL = "https://dev.to/api"

// Client publishes articles and reads comments through the Dev.to
// (Forem) REST API. The public API cannot post comments, so Reply always
// fails with ErrUnsupported and comment replies on Dev.to escalate.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func New(cfg config.DevToConfig, logger *zap.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

func (c *Client) Name() string { return "devto" }

type articleRequest struct {
	Article struct {
		Title        string   `json:"title"`
		BodyMarkdown string   `json:"body_markdown"`
		Published    bool     `json:"published"`
		Tags         []string `json:"tags"`
	} `json:"article"`
}

type articleResponse struct {
	ID int64 `json:"id"`
}

func (c *Client) Publish(ctx context.Context, content string) (string, error) {
	if c.apiKey == "" {
		return "", &platform.Error{Platform: c.Name(), Op: "publish", Err: fmt.Errorf("api key not configured")}
	}

	var req articleRequest
	req.Article.Title, req.Article.BodyMarkdown = util.SplitTitleBody(content)
	req.Article.Published = true
	// Dev.to caps articles at four tags
	req.Article.Tags = util.ExtractHashtags(content, 4)

	payload, err := json.Marshal(req)
	if err != nil {
		return "", &platform.Error{Platform: c.Name(), Op: "publish", Err: err}
	}

	var resp articleResponse
	if err := c.do(ctx, http.MethodPost, "/articles", payload, http.StatusCreated, &resp); err != nil {
		return "", &platform.Error{Platform: c.Name(), Op: "publish", Err: err}
	}

	postID := strconv.FormatInt(resp.ID, 10)
	c.logger.Info("Dev.to article published", zap.String("article_id", postID))
	return postID, nil
}

type commentNode struct {
	ID        json.Number   `json:"id"`
	IDCode    string        `json:"id_code"`
	BodyHTML  string        `json:"body_html"`
	CreatedAt string        `json:"created_at"`
	User      struct {
		Username string `json:"username"`
	} `json:"user"`
	Children []commentNode `json:"children"`
}

func (c *Client) FetchComments(ctx context.Context, platformPostID string) ([]platform.RawComment, error) {
	if c.apiKey == "" {
		return nil, &platform.Error{Platform: c.Name(), Op: "fetch_comments", Err: fmt.Errorf("api key not configured")}
	}

	var nodes []commentNode
	path := "/comments?a_id=" + platformPostID
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &nodes); err != nil {
		return nil, &platform.Error{Platform: c.Name(), Op: "fetch_comments", Err: err}
	}

	var comments []platform.RawComment
	flattenComments(nodes, &comments)
	return comments, nil
}

// flattenComments walks the comment tree depth-first; Dev.to nests
// replies under children.
func flattenComments(nodes []commentNode, out *[]platform.RawComment) {
	for _, node := range nodes {
		id := node.ID.String()
		if id == "" || id == "0" {
			id = node.IDCode
		}
		ts, err := time.Parse(time.RFC3339, node.CreatedAt)
		if err != nil {
			ts = time.Now()
		}
		*out = append(*out, platform.RawComment{
			ID:        id,
			Author:    node.User.Username,
			Text:      node.BodyHTML,
			Timestamp: ts,
		})
		flattenComments(node.Children, out)
	}
}

func (c *Client) Reply(_ context.Context, commentID, _ string) (string, error) {
	// The Forem public API only reads comments; there is no endpoint to
	// create them.
	c.logger.Warn("Dev.to comment reply attempted", zap.String("comment_id", commentID))
	return "", &platform.Error{Platform: c.Name(), Op: "reply", Err: platform.ErrUnsupported}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, wantStatus int, out any) error {
	return retry.Do(
		func() error {
			var body io.Reader
			if payload != nil {
				body = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("api-key", c.apiKey)
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("%s %s: %w", method, path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != wantStatus {
				data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				err := fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, data)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return json.NewDecoder(resp.Body).Decode(out)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Dev.to request retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
}
