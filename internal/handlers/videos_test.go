package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type inMemoryVideoStore struct {
	videos map[string]models.Video
	views  map[string]int
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video), views: make(map[string]int)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	if _, exists := s.videos[video.ID]; exists {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) ListFeed(_ context.Context, limit int) ([]models.Video, error) {
	var feed []models.Video
	for _, video := range s.videos {
		if video.Published && video.AssetStatus == models.AssetStatusReady {
			feed = append(feed, video)
		}
	}
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}

func (s *inMemoryVideoStore) RecordView(_ context.Context, _, videoID string) error {
	if _, exists := s.videos[videoID]; !exists {
		return repositories.ErrNotFound
	}
	s.views[videoID]++
	return nil
}

type capturingIngestor struct {
	jobs []media.IngestJob
	err  error
}

func (c *capturingIngestor) Enqueue(_ context.Context, job media.IngestJob) error {
	if c.err != nil {
		return c.err
	}
	c.jobs = append(c.jobs, job)
	return nil
}

func TestVideoHandlerPublish(t *testing.T) {
	videos := newInMemoryVideoStore()
	ingestor := &capturingIngestor{}
	handler := VideoHandler{Videos: videos, Media: newInMemoryMediaStore(), Ingest: ingestor}

	body, contentType := registerForm(t, map[string]string{
		"title":       "Analytical Engines 101",
		"description": "A gentle introduction.",
	}, map[string]string{"thumbnail": "cover.png", "videoFile": "lecture.mp4"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{ID: "owner-1"}))
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created models.Video
	decodeEnvelope(t, rec.Body, &created)
	if created.Title != "Analytical Engines 101" || created.OwnerID != "owner-1" {
		t.Fatalf("unexpected video: %+v", created)
	}
	if created.AssetStatus != models.AssetStatusPending {
		t.Fatalf("expected pending asset status, got %q", created.AssetStatus)
	}
	if created.ThumbnailURL == "" {
		t.Fatal("expected thumbnail to be uploaded synchronously")
	}

	if len(ingestor.jobs) != 1 {
		t.Fatalf("expected 1 ingest job, got %d", len(ingestor.jobs))
	}
	job := ingestor.jobs[0]
	if job.VideoID != created.ID {
		t.Fatalf("expected job for video %s, got %s", created.ID, job.VideoID)
	}
	if _, err := os.Stat(job.FilePath); err != nil {
		t.Fatalf("expected staged file to exist: %v", err)
	}
	_ = os.Remove(job.FilePath)
}

func TestVideoHandlerPublishValidation(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore(), Media: newInMemoryMediaStore(), Ingest: &capturingIngestor{}}

	body, contentType := registerForm(t, map[string]string{"description": "no title"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{ID: "owner-1"}))
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestVideoHandlerFeed(t *testing.T) {
	videos := newInMemoryVideoStore()
	videos.videos["v-ready"] = models.Video{ID: "v-ready", Published: true, AssetStatus: models.AssetStatusReady}
	videos.videos["v-pending"] = models.Video{ID: "v-pending", Published: true, AssetStatus: models.AssetStatusPending}
	handler := VideoHandler{Videos: videos}

	req := authedRequest(http.MethodGet, "/api/v1/videos/feed", "viewer-1")
	rec := httptest.NewRecorder()

	handler.Feed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var feed []models.Video
	decodeEnvelope(t, rec.Body, &feed)
	if len(feed) != 1 || feed[0].ID != "v-ready" {
		t.Fatalf("expected only the ready video in the feed, got %+v", feed)
	}
}

func TestVideoHandlerFeedInvalidLimit(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore()}

	req := authedRequest(http.MethodGet, "/api/v1/videos/feed?limit=zero", "viewer-1")
	rec := httptest.NewRecorder()

	handler.Feed(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestVideoHandlerView(t *testing.T) {
	videos := newInMemoryVideoStore()
	videos.videos["v-1"] = models.Video{ID: "v-1", Published: true, AssetStatus: models.AssetStatusReady}
	handler := VideoHandler{Videos: videos}

	req := authedRequest(http.MethodPost, "/api/v1/videos/v-1/view", "viewer-1")
	req.SetPathValue("id", "v-1")
	rec := httptest.NewRecorder()

	handler.View(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if videos.views["v-1"] != 1 {
		t.Fatalf("expected 1 view recorded, got %d", videos.views["v-1"])
	}
}

func TestVideoHandlerViewUnknownVideo(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore()}

	req := authedRequest(http.MethodPost, "/api/v1/videos/ghost/view", "viewer-1")
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()

	handler.View(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}
