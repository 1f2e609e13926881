package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mosinatet/commspec/internal/models"
	"github.com/mosinatet/commspec/internal/service/platform"
)

type postFixture struct {
	svc     *PostService
	store   *memStore
	sched   *JobScheduler
	adapter *fakeAdapter
	monitor *fakeMonitor
}

func newPostFixture(t *testing.T, dates *fakeDates) *postFixture {
	t.Helper()
	logger := zap.NewNop()

	store := newMemStore()
	sched := NewJobScheduler(2, logger)
	t.Cleanup(sched.Shutdown)

	adapter := newFakeAdapter("devto")
	manager := platform.NewManager(logger)
	require.NoError(t, manager.Register(adapter))

	monitor := &fakeMonitor{}
	audit := NewAuditService(store, logger)
	svc := NewPostService(store, sched, manager, NewEventResolver(time.UTC),
		dates, &fakeGenerator{}, monitor, audit, logger, time.UTC)

	return &postFixture{svc: svc, store: store, sched: sched, adapter: adapter, monitor: monitor}
}

func seedEvent(t *testing.T, store *memStore) *models.Event {
	t.Helper()
	event := &models.Event{
		EventID:          "EVT001",
		Title:            "Go Concurrency Webinar",
		Description:      "goroutines and channels in production",
		StartTime:        time.Now().Add(24 * time.Hour),
		RegistrationLink: "https://example.com/register",
		IsRecorded:       true,
	}
	require.NoError(t, store.SaveEvent(context.Background(), event))
	return event
}

func seedScheduledPost(t *testing.T, store *memStore, postID string) *models.ScheduledPost {
	t.Helper()
	post := &models.ScheduledPost{
		PostID:        postID,
		Platform:      "devto",
		ScheduledTime: time.Now().Add(time.Hour),
		Content:       "# Go Concurrency Webinar\n\nJoin us!",
		Status:        models.PostStatusScheduled,
		EventID:       "EVT001",
	}
	require.NoError(t, store.CreatePost(context.Background(), post))
	return post
}

func TestScheduleCreatesPostAndArmsTimer(t *testing.T) {
	at := time.Now().Add(2 * time.Hour).UTC()
	f := newPostFixture(t, &fakeDates{at: at})
	seedEvent(t, f.store)

	result, err := f.svc.Schedule(context.Background(), "post about the go concurrency webinar EVT001", nil)
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	require.Equal(t, "EVT001", result.Event.EventID)
	require.Equal(t, 0.9, result.Confidence)

	post := result.Posts[0]
	require.Equal(t, models.PostStatusScheduled, post.Status)
	require.Equal(t, "devto", post.Platform)
	require.Equal(t, "#GoConcurrencyWebinar", post.CampaignTag)
	require.Equal(t, at, post.ScheduledTime)
	require.Nil(t, post.PlatformPostID)

	require.True(t, f.sched.Has(JobKey{Kind: JobPublish, PostID: post.PostID, Platform: "devto"}))
}

func TestScheduleUnknownPlatformRejected(t *testing.T) {
	f := newPostFixture(t, &fakeDates{at: time.Now().Add(time.Hour)})
	seedEvent(t, f.store)

	_, err := f.svc.Schedule(context.Background(), "post about the webinar", []string{"myspace"})
	require.Error(t, err)
}

func TestScheduleWithoutEventsFails(t *testing.T) {
	f := newPostFixture(t, &fakeDates{at: time.Now().Add(time.Hour)})

	_, err := f.svc.Schedule(context.Background(), "post about the webinar", nil)
	require.ErrorIs(t, err, ErrNoEvents)
}

func TestPublishSetsTerminalStateOnce(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	post := seedScheduledPost(t, f.store, "P00000001")

	require.NoError(t, f.svc.Publish(context.Background(), post.PostID, "devto"))
	// A duplicate firing must be a no-op.
	require.NoError(t, f.svc.Publish(context.Background(), post.PostID, "devto"))

	require.Equal(t, 1, f.adapter.publishCount())

	stored := f.store.getPost(post.PostID)
	require.Equal(t, models.PostStatusPublished, stored.Status)
	require.NotNil(t, stored.PlatformPostID)
	require.Equal(t, "devto-1", *stored.PlatformPostID)
	require.NotNil(t, stored.PublishedAt)

	require.Equal(t, []string{"P00000001/devto"}, f.monitor.started())
}

func TestPublishFailureMarksFailedWithoutRetry(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	f.adapter.publishErr = errors.New("api down")
	post := seedScheduledPost(t, f.store, "P00000001")

	err := f.svc.Publish(context.Background(), post.PostID, "devto")
	require.Error(t, err)

	stored := f.store.getPost(post.PostID)
	require.Equal(t, models.PostStatusFailed, stored.Status)
	require.Nil(t, stored.PlatformPostID)
	require.Nil(t, stored.PublishedAt)
	require.Empty(t, f.monitor.started())
	require.Equal(t, 1, f.adapter.publishCount())
}

func TestCancelBeatsPublish(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	post := seedScheduledPost(t, f.store, "P00000001")

	_, err := f.svc.Cancel(context.Background(), post.PostID)
	require.NoError(t, err)

	// The timer may still fire after a best-effort cancel; the handler
	// must see the Cancelled row and do nothing.
	require.NoError(t, f.svc.Publish(context.Background(), post.PostID, "devto"))

	stored := f.store.getPost(post.PostID)
	require.Equal(t, models.PostStatusCancelled, stored.Status)
	require.Nil(t, stored.PlatformPostID)
	require.Equal(t, 0, f.adapter.publishCount())
}

func TestCancelPublishedPostRejected(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	post := seedScheduledPost(t, f.store, "P00000001")
	require.NoError(t, f.svc.Publish(context.Background(), post.PostID, "devto"))

	_, err := f.svc.Cancel(context.Background(), post.PostID)
	require.ErrorIs(t, err, ErrPostTerminal)
}

func TestUpdateReschedulesTimer(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	post := seedScheduledPost(t, f.store, "P00000001")

	newTime := time.Now().Add(3 * time.Hour).UTC()
	newContent := "updated announcement"
	updated, err := f.svc.Update(context.Background(), post.PostID, UpdateRequest{
		Content:       &newContent,
		ScheduledTime: &newTime,
	})
	require.NoError(t, err)
	require.Equal(t, models.PostStatusScheduled, updated.Status)
	require.Equal(t, newContent, updated.Content)
	require.Equal(t, newTime, updated.ScheduledTime)
	require.True(t, f.sched.Has(JobKey{Kind: JobPublish, PostID: post.PostID, Platform: "devto"}))
}

func TestUpdateContentOnlyKeepsTimerUntouched(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	post := seedScheduledPost(t, f.store, "P00000001")

	newContent := "better copy"
	_, err := f.svc.Update(context.Background(), post.PostID, UpdateRequest{Content: &newContent})
	require.NoError(t, err)
	require.False(t, f.sched.Has(JobKey{Kind: JobPublish, PostID: post.PostID, Platform: "devto"}))
}

func TestUpdateTerminalPostRejected(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	post := seedScheduledPost(t, f.store, "P00000001")
	require.NoError(t, f.svc.Publish(context.Background(), post.PostID, "devto"))

	content := "too late"
	_, err := f.svc.Update(context.Background(), post.PostID, UpdateRequest{Content: &content})
	require.ErrorIs(t, err, ErrPostTerminal)
}

func TestRestoreJobsReArmsState(t *testing.T) {
	f := newPostFixture(t, &fakeDates{})
	seedScheduledPost(t, f.store, "P00000001")

	publishedAt := time.Now().Add(-time.Hour)
	platformPostID := "12345"
	require.NoError(t, f.store.CreatePost(context.Background(), &models.ScheduledPost{
		PostID:         "P00000002",
		Platform:       "devto",
		Status:         models.PostStatusPublished,
		PlatformPostID: &platformPostID,
		PublishedAt:    &publishedAt,
	}))
	stalePublishedAt := time.Now().Add(-48 * time.Hour)
	require.NoError(t, f.store.CreatePost(context.Background(), &models.ScheduledPost{
		PostID:         "P00000003",
		Platform:       "devto",
		Status:         models.PostStatusPublished,
		PlatformPostID: &platformPostID,
		PublishedAt:    &stalePublishedAt,
	}))

	require.NoError(t, f.svc.RestoreJobs(context.Background(), 24*time.Hour))

	require.True(t, f.sched.Has(JobKey{Kind: JobPublish, PostID: "P00000001", Platform: "devto"}))
	// Only the post still inside its monitoring window comes back.
	require.Equal(t, []string{"P00000002/devto"}, f.monitor.started())
}
