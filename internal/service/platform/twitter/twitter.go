package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/mosinatet/commspec/internal/config"
	"github.com/mosinatet/commspec/internal/service/platform"
)

const (
	baseURL       = "https://api.twitter.com/2"
	maxTweetChars = 280
)

// Client posts tweets and replies through the Twitter v2 API using
// bearer-token auth.
type Client struct {
	bearerToken string
	http        *http.Client
	logger      *zap.Logger
}

func New(cfg config.TwitterConfig, logger *zap.Logger) *Client {
	return &Client{
		bearerToken: cfg.BearerToken,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (c *Client) Name() string { return "twitter" }

type tweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func (c *Client) Publish(ctx context.Context, content string) (string, error) {
	id, err := c.createTweet(ctx, tweetRequest{Text: truncate(content)})
	if err != nil {
		return "", &platform.Error{Platform: c.Name(), Op: "publish", Err: err}
	}
	c.logger.Info("Tweet published", zap.String("tweet_id", id))
	return id, nil
}

// FetchComments returns no results: reading tweet replies requires the
// recent-search endpoint, which is gated behind elevated API access.
// Twitter monitoring still publishes and replies, it just never
// discovers new comments on its own.
func (c *Client) FetchComments(_ context.Context, _ string) ([]platform.RawComment, error) {
	return []platform.RawComment{}, nil
}

func (c *Client) Reply(ctx context.Context, commentID, text string) (string, error) {
	req := tweetRequest{Text: truncate(text)}
	req.Reply = &struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}{InReplyToTweetID: commentID}

	id, err := c.createTweet(ctx, req)
	if err != nil {
		return "", &platform.Error{Platform: c.Name(), Op: "reply", Err: err}
	}
	return id, nil
}

func (c *Client) createTweet(ctx context.Context, tweet tweetRequest) (string, error) {
	if c.bearerToken == "" {
		return "", fmt.Errorf("bearer token not configured")
	}

	payload, err := json.Marshal(tweet)
	if err != nil {
		return "", err
	}

	var resp tweetResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/tweets", bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+c.bearerToken)
			req.Header.Set("Content-Type", "application/json")

			httpResp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("POST /tweets: %w", err)
			}
			defer httpResp.Body.Close()

			if httpResp.StatusCode != http.StatusCreated {
				data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
				err := fmt.Errorf("POST /tweets: status %d: %s", httpResp.StatusCode, data)
				if httpResp.StatusCode >= 400 && httpResp.StatusCode < 500 && httpResp.StatusCode != http.StatusTooManyRequests {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return json.NewDecoder(httpResp.Body).Decode(&resp)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Twitter request retrying",
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	if err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTweetChars {
		return text
	}
	return string(runes[:maxTweetChars-3]) + "..."
}
