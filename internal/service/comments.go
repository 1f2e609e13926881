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

const maxResponseAttempts = 3

// CommentService polls published posts for new comments and pushes each
// one through classify, respond, reply. Monitoring is bounded: a monitor
// runs on a fixed interval and expires a window after the post was
// published, rather than living forever.
type CommentService struct {
	store      Store
	scheduler  *JobScheduler
	platforms  *platform.Manager
	classifier Classifier
	responder  Responder
	audit      *AuditService
	logger     *zap.Logger
	loc        *time.Location
	interval   time.Duration
	window     time.Duration
}

func NewCommentService(
	store Store,
	scheduler *JobScheduler,
	platforms *platform.Manager,
	classifier Classifier,
	responder Responder,
	audit *AuditService,
	logger *zap.Logger,
	loc *time.Location,
	interval, window time.Duration,
) *CommentService {
	return &CommentService{
		store:      store,
		scheduler:  scheduler,
		platforms:  platforms,
		classifier: classifier,
		responder:  responder,
		audit:      audit,
		logger:     logger,
		loc:        loc,
		interval:   interval,
		window:     window,
	}
}

// Start begins monitoring a freshly published post for the full window.
func (s *CommentService) Start(postID, platformName string) {
	s.StartUntil(postID, platformName, time.Now().In(s.loc).Add(s.window))
}

// StartUntil begins monitoring with an explicit expiry, used when a
// restart restores a monitor that has part of its window left.
func (s *CommentService) StartUntil(postID, platformName string, until time.Time) {
	key := JobKey{Kind: JobMonitor, PostID: postID, Platform: platformName}
	s.scheduler.ScheduleEvery(key, s.interval, until, func(ctx context.Context) {
		if err := s.Monitor(ctx, postID, platformName); err != nil {
			s.logger.Error("Comment monitoring cycle failed",
				zap.String("post_id", postID),
				zap.String("platform", platformName),
				zap.Error(err))
		}
	})
	s.logger.Info("Comment monitoring started",
		zap.String("post_id", postID),
		zap.String("platform", platformName),
		zap.Time("until", until))
}

// Stop cancels the monitor for a post, if one is running.
func (s *CommentService) Stop(postID, platformName string) bool {
	return s.scheduler.Cancel(JobKey{Kind: JobMonitor, PostID: postID, Platform: platformName})
}

// Monitor runs one polling cycle: fetch the platform's comments for the
// post and handle each one. Per-comment failures are recorded on the
// comment row and never abort the cycle.
func (s *CommentService) Monitor(ctx context.Context, postID, platformName string) error {
	post, err := s.store.GetPost(ctx, postID, platformName)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusPublished || post.PlatformPostID == nil {
		s.logger.Debug("Monitor skipped, post not published",
			zap.String("post_id", postID),
			zap.String("status", string(post.Status)))
		return nil
	}

	adapter, err := s.platforms.Get(platformName)
	if err != nil {
		return err
	}

	raw, err := adapter.FetchComments(ctx, *post.PlatformPostID)
	if err != nil {
		return fmt.Errorf("failed to fetch comments for post %s: %w", postID, err)
	}

	var event *models.Event
	if post.EventID != "" {
		if event, err = s.store.GetEvent(ctx, post.EventID); err != nil {
			s.logger.Warn("Event lookup failed during monitoring",
				zap.String("event_id", post.EventID), zap.Error(err))
			event = nil
		}
	}

	handled := 0
	for _, rc := range raw {
		if s.handleComment(ctx, post, adapter, event, rc) {
			handled++
		}
	}
	if handled > 0 {
		s.logger.Info("Monitoring cycle completed",
			zap.String("post_id", postID),
			zap.Int("fetched", len(raw)),
			zap.Int("handled", handled))
	}
	return nil
}

// handleComment runs one comment through the pipeline. It reports whether
// the comment required any work this cycle.
func (s *CommentService) handleComment(ctx context.Context, post *models.ScheduledPost, adapter platform.Adapter, event *models.Event, rc platform.RawComment) bool {
	text := util.HTMLToText(rc.Text)
	if text == "" {
		return false
	}

	comment, err := s.store.GetComment(ctx, rc.ID)
	switch {
	case err != nil && !errors.Is(err, ErrNotFound):
		s.logger.Error("Comment lookup failed", zap.String("comment_id", rc.ID), zap.Error(err))
		return false
	case err == nil:
		if comment.ResponseStatus.Terminal() {
			return false
		}
		// A previously failed comment that exhausted its attempts goes to
		// a human instead of looping forever.
		if comment.RetryCount >= maxResponseAttempts {
			comment.ResponseStatus = models.ResponseStatusEscalated
			s.saveComment(ctx, comment, "comment_escalated",
				fmt.Sprintf("retries=%d", comment.RetryCount))
			return true
		}
		comment.ResponseStatus = models.ResponseStatusPending
		comment.RetryCount++
	default:
		comment = &models.Comment{
			CommentID:      rc.ID,
			PostID:         post.PostID,
			UserName:       rc.Author,
			Text:           text,
			Timestamp:      rc.Timestamp.In(s.loc),
			ResponseStatus: models.ResponseStatusPending,
			RetryCount:     1,
		}
	}

	classification, confidence, err := s.classifier.Classify(ctx, text, event)
	if err != nil {
		comment.ResponseStatus = models.ResponseStatusFailed
		s.saveComment(ctx, comment, "comment_classification_failed", err.Error())
		return true
	}
	comment.Classification = classification

	reply, err := s.responder.Respond(ctx, text, classification, event)
	if err != nil {
		comment.ResponseStatus = models.ResponseStatusFailed
		s.saveComment(ctx, comment, "comment_response_failed", err.Error())
		return true
	}

	if _, err := adapter.Reply(ctx, comment.CommentID, reply); err != nil {
		comment.ResponseStatus = models.ResponseStatusFailed
		s.saveComment(ctx, comment, "comment_reply_failed", err.Error())
		return true
	}

	comment.ResponseStatus = models.ResponseStatusResponded
	s.saveComment(ctx, comment, "comment_responded",
		fmt.Sprintf("classification=%s confidence=%.2f", classification, confidence))
	return true
}

func (s *CommentService) saveComment(ctx context.Context, comment *models.Comment, action, details string) {
	if err := s.store.SaveComment(ctx, comment); err != nil {
		s.logger.Error("Failed to save comment",
			zap.String("comment_id", comment.CommentID), zap.Error(err))
		return
	}
	ok := comment.ResponseStatus == models.ResponseStatusResponded ||
		comment.ResponseStatus == models.ResponseStatusEscalated
	s.audit.Record(ctx, action, "comment", comment.CommentID, details, ok)
}

func (s *CommentService) ListPending(ctx context.Context) ([]models.Comment, error) {
	return s.store.ListCommentsByStatus(ctx, models.ResponseStatusPending)
}
