package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mosinatet/commspec/internal/models"
	"github.com/mosinatet/commspec/internal/service/platform"
)

// memStore is an in-memory Store for exercising the services without a
// database.
type memStore struct {
	mu        sync.Mutex
	events    map[string]models.Event
	posts     map[string]models.ScheduledPost
	comments  map[string]models.Comment
	audits    []models.AuditLog
	templates []models.ResponseTemplate
}

func newMemStore() *memStore {
	return &memStore{
		events:   make(map[string]models.Event),
		posts:    make(map[string]models.ScheduledPost),
		comments: make(map[string]models.Comment),
	}
}

func (m *memStore) ListEvents(context.Context) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Event
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) GetEvent(_ context.Context, eventID string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return &e, nil
}

func (m *memStore) SaveEvent(_ context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.EventID] = *event
	return nil
}

func (m *memStore) CreatePost(_ context.Context, post *models.ScheduledPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.PostID] = *post
	return nil
}

func (m *memStore) GetPost(_ context.Context, postID, platformName string) (*models.ScheduledPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok || p.Platform != platformName {
		return nil, fmt.Errorf("post %s for %s: %w", postID, platformName, ErrNotFound)
	}
	return &p, nil
}

func (m *memStore) GetPostByID(_ context.Context, postID string) (*models.ScheduledPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return &p, nil
}

func (m *memStore) UpdatePost(_ context.Context, post *models.ScheduledPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.PostID] = *post
	return nil
}

func (m *memStore) ListPostsByStatus(_ context.Context, status models.PostStatus) ([]models.ScheduledPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduledPost
	for _, p := range m.posts {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetComment(_ context.Context, commentID string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	return &c, nil
}

func (m *memStore) SaveComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[comment.CommentID] = *comment
	return nil
}

func (m *memStore) ListCommentsByStatus(_ context.Context, status models.ResponseStatus) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Comment
	for _, c := range m.comments {
		if c.ResponseStatus == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) AppendAudit(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, *entry)
	return nil
}

func (m *memStore) ListTemplates(context.Context) ([]models.ResponseTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ResponseTemplate(nil), m.templates...), nil
}

func (m *memStore) CreateTemplate(_ context.Context, tpl *models.ResponseTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = append(m.templates, *tpl)
	return nil
}

func (m *memStore) PostStatusCounts(context.Context) (map[models.PostStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.PostStatus]int64)
	for _, p := range m.posts {
		counts[p.Status]++
	}
	return counts, nil
}

func (m *memStore) CommentStats(context.Context) (*CommentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &CommentStats{Classifications: make(map[string]int64)}
	for _, c := range m.comments {
		stats.Total++
		switch c.ResponseStatus {
		case models.ResponseStatusPending:
			stats.Pending++
		case models.ResponseStatusResponded:
			stats.Responded++
		case models.ResponseStatusFailed:
			stats.Failed++
		case models.ResponseStatusEscalated:
			stats.Escalated++
		}
		if c.Classification != "" {
			stats.Classifications[string(c.Classification)]++
		}
	}
	return stats, nil
}

func (m *memStore) getComment(commentID string) models.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comments[commentID]
}

func (m *memStore) getPost(postID string) models.ScheduledPost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[postID]
}

// fakeAdapter scripts platform behavior per test.
type fakeAdapter struct {
	mu           sync.Mutex
	name         string
	publishErr   error
	publishCalls int
	comments     []platform.RawComment
	fetchErr     error
	fetchCalls   int
	replyErr     error
	replies      map[string]string
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{name: name, replies: make(map[string]string)}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Publish(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishCalls++
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return fmt.Sprintf("%s-%d", f.name, f.publishCalls), nil
}

func (f *fakeAdapter) FetchComments(context.Context, string) ([]platform.RawComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]platform.RawComment(nil), f.comments...), nil
}

func (f *fakeAdapter) Reply(_ context.Context, commentID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return "", f.replyErr
	}
	f.replies[commentID] = text
	return "reply-" + commentID, nil
}

func (f *fakeAdapter) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.publishCalls
}

// fakeMonitor records monitor start requests without any polling.
type fakeMonitor struct {
	mu     sync.Mutex
	starts []string
	untils []time.Time
}

func (f *fakeMonitor) Start(postID, platformName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, postID+"/"+platformName)
}

func (f *fakeMonitor) StartUntil(postID, platformName string, until time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, postID+"/"+platformName)
	f.untils = append(f.untils, until)
}

func (f *fakeMonitor) started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.starts...)
}

type fakeDates struct {
	at        time.Time
	immediate bool
	err       error
}

func (f *fakeDates) ResolveDateTime(context.Context, string) (time.Time, bool, error) {
	return f.at, f.immediate, f.err
}

type fakeClassifier struct {
	mu             sync.Mutex
	classification models.Classification
	confidence     float64
	err            error
	calls          int
}

func (f *fakeClassifier) Classify(context.Context, string, *models.Event) (models.Classification, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.classification, f.confidence, f.err
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResponder struct {
	reply string
	err   error
}

func (f *fakeResponder) Respond(context.Context, string, models.Classification, *models.Event) (string, error) {
	return f.reply, f.err
}

type fakeGenerator struct {
	err error
}

func (f *fakeGenerator) Generate(_ context.Context, platformName string, event *models.Event) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("%s content for %s", platformName, event.Title), nil
}
