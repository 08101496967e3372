package channels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/models"
)

type countingSource struct {
	calls    int
	profiles map[string]models.ChannelProfile
	err      error
}

func (s *countingSource) ChannelProfile(_ context.Context, userName, _ string) (models.ChannelProfile, error) {
	s.calls++
	if s.err != nil {
		return models.ChannelProfile{}, s.err
	}
	return s.profiles[userName], nil
}

func TestCachingProfileSourceCachesWithinTTL(t *testing.T) {
	source := &countingSource{profiles: map[string]models.ChannelProfile{
		"ada": {ID: "user-1", UserName: "ada", SubscriberCount: 2},
	}}
	cache := NewCachingProfileSource(source, time.Minute)

	first, err := cache.ChannelProfile(context.Background(), "ada", "viewer-1")
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	second, err := cache.ChannelProfile(context.Background(), "ada", "viewer-1")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	if source.calls != 1 {
		t.Fatalf("expected 1 backing call, got %d", source.calls)
	}
	if first != second {
		t.Fatalf("expected identical cached profile, got %+v vs %+v", first, second)
	}
}

func TestCachingProfileSourceKeysPerViewer(t *testing.T) {
	source := &countingSource{profiles: map[string]models.ChannelProfile{
		"ada": {UserName: "ada"},
	}}
	cache := NewCachingProfileSource(source, time.Minute)

	if _, err := cache.ChannelProfile(context.Background(), "ada", "viewer-1"); err != nil {
		t.Fatalf("lookup viewer-1: %v", err)
	}
	if _, err := cache.ChannelProfile(context.Background(), "ada", "viewer-2"); err != nil {
		t.Fatalf("lookup viewer-2: %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected a backing call per viewer, got %d", source.calls)
	}
}

func TestCachingProfileSourceExpires(t *testing.T) {
	source := &countingSource{profiles: map[string]models.ChannelProfile{
		"ada": {UserName: "ada"},
	}}
	cache := NewCachingProfileSource(source, time.Millisecond)

	if _, err := cache.ChannelProfile(context.Background(), "ada", "viewer-1"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := cache.ChannelProfile(context.Background(), "ada", "viewer-1"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected expired entry to refetch, got %d calls", source.calls)
	}
}

func TestCachingProfileSourceInvalidate(t *testing.T) {
	source := &countingSource{profiles: map[string]models.ChannelProfile{
		"ada":   {UserName: "ada"},
		"grace": {UserName: "grace"},
	}}
	cache := NewCachingProfileSource(source, time.Minute)

	for _, viewer := range []string{"viewer-1", "viewer-2"} {
		if _, err := cache.ChannelProfile(context.Background(), "ada", viewer); err != nil {
			t.Fatalf("lookup ada for %s: %v", viewer, err)
		}
	}
	if _, err := cache.ChannelProfile(context.Background(), "grace", "viewer-1"); err != nil {
		t.Fatalf("lookup grace: %v", err)
	}

	cache.Invalidate("ada")

	if _, err := cache.ChannelProfile(context.Background(), "ada", "viewer-1"); err != nil {
		t.Fatalf("lookup ada after invalidate: %v", err)
	}
	if _, err := cache.ChannelProfile(context.Background(), "grace", "viewer-1"); err != nil {
		t.Fatalf("lookup grace after invalidate: %v", err)
	}

	// ada was refetched, grace stayed cached.
	if source.calls != 4 {
		t.Fatalf("expected 4 backing calls, got %d", source.calls)
	}
}

func TestCachingProfileSourceDoesNotCacheErrors(t *testing.T) {
	source := &countingSource{err: errors.New("backend down")}
	cache := NewCachingProfileSource(source, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.ChannelProfile(context.Background(), "ada", "viewer-1"); err == nil {
			t.Fatal("expected error from backing source")
		}
	}

	if source.calls != 2 {
		t.Fatalf("expected errors to bypass the cache, got %d calls", source.calls)
	}
}
