package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mosinatet/commspec/internal/models"
	"github.com/mosinatet/commspec/internal/service/platform"
	"github.com/mosinatet/commspec/pkg/util"
)

// CommentMonitor starts recurring comment polling after a successful
// publish. CommentService implements it.
type CommentMonitor interface {
	Start(postID, platformName string)
	StartUntil(postID, platformName string, until time.Time)
}

// PostService owns the post lifecycle: scheduling from a natural-language
// request, the one-shot publish timer, edits and cancellation while a
// post is still Scheduled, and timer restoration after a restart.
type PostService struct {
	store     Store
	scheduler *JobScheduler
	platforms *platform.Manager
	resolver  *EventResolver
	dates     DateResolver
	generator ContentGenerator
	monitor   CommentMonitor
	audit     *AuditService
	logger    *zap.Logger
	loc       *time.Location
}

func NewPostService(
	store Store,
	scheduler *JobScheduler,
	platforms *platform.Manager,
	resolver *EventResolver,
	dates DateResolver,
	generator ContentGenerator,
	monitor CommentMonitor,
	audit *AuditService,
	logger *zap.Logger,
	loc *time.Location,
) *PostService {
	return &PostService{
		store:     store,
		scheduler: scheduler,
		platforms: platforms,
		resolver:  resolver,
		dates:     dates,
		generator: generator,
		monitor:   monitor,
		audit:     audit,
		logger:    logger,
		loc:       loc,
	}
}

// ScheduleResult reports what a scheduling request produced: the resolved
// event, how confident resolution is, and one created post per platform.
type ScheduleResult struct {
	Event         *models.Event          `json:"event"`
	Confidence    float64                `json:"confidence"`
	Reasoning     string                 `json:"reasoning"`
	ScheduledTime time.Time              `json:"scheduled_time"`
	Immediate     bool                   `json:"immediate"`
	Posts         []models.ScheduledPost `json:"posts"`
}

// Schedule turns a natural-language request into one Scheduled post per
// target platform, each with its own armed publish timer. An empty
// platform list means every registered platform.
func (s *PostService) Schedule(ctx context.Context, prompt string, platformNames []string) (*ScheduleResult, error) {
	at, immediate, err := s.dates.ResolveDateTime(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schedule time: %w", err)
	}
	at = at.In(s.loc)

	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	resolution, err := s.resolver.Resolve(prompt, events)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetEvent(ctx, resolution.Event.EventID); errors.Is(err, ErrNotFound) {
		if err := s.store.SaveEvent(ctx, resolution.Event); err != nil {
			return nil, err
		}
	}

	if len(platformNames) == 0 {
		platformNames = s.platforms.Available()
	}

	result := &ScheduleResult{
		Event:         resolution.Event,
		Confidence:    resolution.Confidence,
		Reasoning:     resolution.Reasoning,
		ScheduledTime: at,
		Immediate:     immediate,
	}

	for _, name := range platformNames {
		adapter, err := s.platforms.Get(name)
		if err != nil {
			return nil, err
		}

		content, err := s.generator.Generate(ctx, adapter.Name(), resolution.Event)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s content: %w", adapter.Name(), err)
		}

		post := &models.ScheduledPost{
			PostID:        util.NewPostID(),
			Platform:      adapter.Name(),
			ScheduledTime: at,
			Content:       content,
			CampaignTag:   util.CampaignTag(resolution.Event.Title),
			Status:        models.PostStatusScheduled,
			EventID:       resolution.Event.EventID,
		}
		if err := s.store.CreatePost(ctx, post); err != nil {
			return nil, err
		}

		s.audit.Record(ctx, "post_scheduled", "post", post.PostID,
			fmt.Sprintf("platform=%s event=%s at=%s", post.Platform, post.EventID, at.Format(time.RFC3339)), true)
		s.armPublish(post.PostID, post.Platform, at)

		s.logger.Info("Post scheduled",
			zap.String("post_id", post.PostID),
			zap.String("platform", post.Platform),
			zap.String("event_id", post.EventID),
			zap.Time("scheduled_time", at),
			zap.Float64("confidence", resolution.Confidence))

		result.Posts = append(result.Posts, *post)
	}
	return result, nil
}

// UpdateRequest carries the editable fields of a Scheduled post. Nil
// fields are left untouched.
type UpdateRequest struct {
	Content       *string    `json:"content"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// Update edits a post that has not fired yet. Changing the time replaces
// the armed timer; the old one never fires.
func (s *PostService) Update(ctx context.Context, postID string, req UpdateRequest) (*models.ScheduledPost, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status.Terminal() {
		return nil, fmt.Errorf("cannot edit post %s: %w", postID, ErrPostTerminal)
	}

	if req.Content != nil {
		post.Content = *req.Content
	}
	rearm := false
	if req.ScheduledTime != nil {
		post.ScheduledTime = req.ScheduledTime.In(s.loc)
		rearm = true
	}
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	if rearm {
		s.armPublish(post.PostID, post.Platform, post.ScheduledTime)
	}

	s.audit.Record(ctx, "post_updated", "post", post.PostID,
		fmt.Sprintf("rescheduled=%t", rearm), true)
	return post, nil
}

// Cancel moves a Scheduled post to Cancelled and disarms its timer. Timer
// cancellation is best-effort; a publish already in flight sees the
// Cancelled row and no-ops.
func (s *PostService) Cancel(ctx context.Context, postID string) (*models.ScheduledPost, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status.Terminal() {
		return nil, fmt.Errorf("cannot cancel post %s: %w", postID, ErrPostTerminal)
	}

	post.Status = models.PostStatusCancelled
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	s.scheduler.Cancel(JobKey{Kind: JobPublish, PostID: post.PostID, Platform: post.Platform})

	s.audit.Record(ctx, "post_cancelled", "post", post.PostID, "", true)
	s.logger.Info("Post cancelled", zap.String("post_id", post.PostID))
	return post, nil
}

func (s *PostService) ListScheduled(ctx context.Context) ([]models.ScheduledPost, error) {
	return s.store.ListPostsByStatus(ctx, models.PostStatusScheduled)
}

func (s *PostService) Get(ctx context.Context, postID string) (*models.ScheduledPost, error) {
	return s.store.GetPostByID(ctx, postID)
}

// Publish is the one-shot timer handler. It re-reads the row and refuses
// to act on any terminal state, so a fired timer racing a cancel, or a
// duplicate firing after restart, cannot publish twice. A failed publish
// goes straight to Failed; there is no publish retry, re-scheduling is an
// operator decision.
func (s *PostService) Publish(ctx context.Context, postID, platformName string) error {
	post, err := s.store.GetPost(ctx, postID, platformName)
	if err != nil {
		s.logger.Error("Publish target missing", zap.String("post_id", postID), zap.Error(err))
		return err
	}
	if post.Status.Terminal() {
		s.logger.Info("Publish skipped, post already settled",
			zap.String("post_id", postID),
			zap.String("status", string(post.Status)))
		return nil
	}

	adapter, err := s.platforms.Get(platformName)
	if err != nil {
		return s.markFailed(ctx, post, err)
	}

	platformPostID, err := adapter.Publish(ctx, post.Content)
	if err != nil {
		return s.markFailed(ctx, post, err)
	}

	now := time.Now().In(s.loc)
	post.Status = models.PostStatusPublished
	post.PlatformPostID = &platformPostID
	post.PublishedAt = &now
	if err := s.store.UpdatePost(ctx, post); err != nil {
		s.logger.Error("Failed to persist published post",
			zap.String("post_id", post.PostID), zap.Error(err))
		return err
	}

	s.audit.Record(ctx, "post_published", "post", post.PostID,
		fmt.Sprintf("platform=%s platform_post_id=%s", post.Platform, platformPostID), true)
	s.logger.Info("Post published",
		zap.String("post_id", post.PostID),
		zap.String("platform", post.Platform),
		zap.String("platform_post_id", platformPostID))

	s.monitor.Start(post.PostID, post.Platform)
	return nil
}

func (s *PostService) markFailed(ctx context.Context, post *models.ScheduledPost, cause error) error {
	post.Status = models.PostStatusFailed
	if err := s.store.UpdatePost(ctx, post); err != nil {
		s.logger.Error("Failed to mark post as failed",
			zap.String("post_id", post.PostID), zap.Error(err))
	}
	s.audit.Record(ctx, "post_publish_failed", "post", post.PostID, cause.Error(), false)
	s.logger.Error("Publish failed",
		zap.String("post_id", post.PostID),
		zap.String("platform", post.Platform),
		zap.Error(cause))
	return cause
}

// RestoreJobs re-arms timers from database state after a restart:
// Scheduled posts get publish timers (past-due ones fire immediately),
// and recently Published posts get their remaining monitoring window
// back.
func (s *PostService) RestoreJobs(ctx context.Context, monitorWindow time.Duration) error {
	scheduled, err := s.store.ListPostsByStatus(ctx, models.PostStatusScheduled)
	if err != nil {
		return err
	}
	for _, post := range scheduled {
		s.armPublish(post.PostID, post.Platform, post.ScheduledTime)
	}

	published, err := s.store.ListPostsByStatus(ctx, models.PostStatusPublished)
	if err != nil {
		return err
	}
	restored := 0
	now := time.Now().In(s.loc)
	for _, post := range published {
		if post.PublishedAt == nil {
			continue
		}
		until := post.PublishedAt.Add(monitorWindow)
		if !until.After(now) {
			continue
		}
		s.monitor.StartUntil(post.PostID, post.Platform, until)
		restored++
	}

	s.logger.Info("Jobs restored",
		zap.Int("publish_timers", len(scheduled)),
		zap.Int("monitors", restored))
	return nil
}

func (s *PostService) armPublish(postID, platformName string, at time.Time) {
	key := JobKey{Kind: JobPublish, PostID: postID, Platform: platformName}
	s.scheduler.ScheduleOnce(key, at, func(ctx context.Context) {
		_ = s.Publish(ctx, postID, platformName)
	})
}
