package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mosinatet/commspec/internal/models"
)

// Store is the persistence boundary for the scheduler and the comment
// pipeline. The gorm implementation is the production store; tests use
// in-memory fakes.
type Store interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	SaveEvent(ctx context.Context, event *models.Event) error

	CreatePost(ctx context.Context, post *models.ScheduledPost) error
	GetPost(ctx context.Context, postID, platform string) (*models.ScheduledPost, error)
	GetPostByID(ctx context.Context, postID string) (*models.ScheduledPost, error)
	UpdatePost(ctx context.Context, post *models.ScheduledPost) error
	ListPostsByStatus(ctx context.Context, status models.PostStatus) ([]models.ScheduledPost, error)

	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	SaveComment(ctx context.Context, comment *models.Comment) error
	ListCommentsByStatus(ctx context.Context, status models.ResponseStatus) ([]models.Comment, error)

	AppendAudit(ctx context.Context, entry *models.AuditLog) error

	ListTemplates(ctx context.Context) ([]models.ResponseTemplate, error)
	CreateTemplate(ctx context.Context, tpl *models.ResponseTemplate) error

	PostStatusCounts(ctx context.Context) (map[models.PostStatus]int64, error)
	CommentStats(ctx context.Context) (*CommentStats, error)
}

// CommentStats is the aggregate view over comment triage state.
type CommentStats struct {
	Total           int64            `json:"total_comments"`
	Pending         int64            `json:"pending_comments"`
	Responded       int64            `json:"responded_comments"`
	Failed          int64            `json:"failed_comments"`
	Escalated       int64            `json:"escalated_comments"`
	Classifications map[string]int64 `json:"classifications"`
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.db.WithContext(ctx).Order("start_time DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *GormStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, wrapNotFound(err, "event %s", eventID)
	}
	return &event, nil
}

func (s *GormStore) SaveEvent(ctx context.Context, event *models.Event) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save event %s: %w", event.EventID, err)
	}
	return nil
}

func (s *GormStore) CreatePost(ctx context.Context, post *models.ScheduledPost) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post %s: %w", post.PostID, err)
	}
	return nil
}

func (s *GormStore) GetPost(ctx context.Context, postID, platform string) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	if err := s.db.WithContext(ctx).Where("post_id = ? AND platform = ?", postID, platform).First(&post).Error; err != nil {
		return nil, wrapNotFound(err, "post %s for %s", postID, platform)
	}
	return &post, nil
}

func (s *GormStore) GetPostByID(ctx context.Context, postID string) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).First(&post).Error; err != nil {
		return nil, wrapNotFound(err, "post %s", postID)
	}
	return &post, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, post *models.ScheduledPost) error {
	if err := s.db.WithContext(ctx).Save(post).Error; err != nil {
		return fmt.Errorf("failed to update post %s: %w", post.PostID, err)
	}
	return nil
}

func (s *GormStore) ListPostsByStatus(ctx context.Context, status models.PostStatus) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	if err := s.db.WithContext(ctx).Where("status = ?", status).Order("scheduled_time").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s posts: %w", status, err)
	}
	return posts, nil
}

func (s *GormStore) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Where("comment_id = ?", commentID).First(&comment).Error; err != nil {
		return nil, wrapNotFound(err, "comment %s", commentID)
	}
	return &comment, nil
}

func (s *GormStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to save comment %s: %w", comment.CommentID, err)
	}
	return nil
}

func (s *GormStore) ListCommentsByStatus(ctx context.Context, status models.ResponseStatus) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Where("response_status = ?", status).Order("timestamp").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s comments: %w", status, err)
	}
	return comments, nil
}

func (s *GormStore) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *GormStore) ListTemplates(ctx context.Context) ([]models.ResponseTemplate, error) {
	var templates []models.ResponseTemplate
	if err := s.db.WithContext(ctx).Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list response templates: %w", err)
	}
	return templates, nil
}

func (s *GormStore) CreateTemplate(ctx context.Context, tpl *models.ResponseTemplate) error {
	if err := s.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return fmt.Errorf("failed to create response template: %w", err)
	}
	return nil
}

func (s *GormStore) PostStatusCounts(ctx context.Context) (map[models.PostStatus]int64, error) {
	counts := make(map[models.PostStatus]int64)
	for _, status := range []models.PostStatus{
		models.PostStatusScheduled,
		models.PostStatusPublished,
		models.PostStatusFailed,
		models.PostStatusCancelled,
	} {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.ScheduledPost{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s posts: %w", status, err)
		}
		counts[status] = n
	}
	return counts, nil
}

func (s *GormStore) CommentStats(ctx context.Context) (*CommentStats, error) {
	stats := &CommentStats{Classifications: make(map[string]int64)}

	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	for status, dst := range map[models.ResponseStatus]*int64{
		models.ResponseStatusPending:   &stats.Pending,
		models.ResponseStatusResponded: &stats.Responded,
		models.ResponseStatusFailed:    &stats.Failed,
		models.ResponseStatusEscalated: &stats.Escalated,
	} {
		if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("response_status = ?", status).Count(dst).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s comments: %w", status, err)
		}
	}

	rows, err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("classification, count(*) as n").
		Group("classification").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to group classifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var classification string
		var n int64
		if err := rows.Scan(&classification, &n); err != nil {
			return nil, fmt.Errorf("failed to scan classification row: %w", err)
		}
		stats.Classifications[classification] = n
	}
	return stats, rows.Err()
}

func wrapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
