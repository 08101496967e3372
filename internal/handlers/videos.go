package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler implements video publishing, the feed, and view recording.
type VideoHandler struct {
	Videos  VideoStore
	Media   MediaStorage
	Ingest  VideoAssetIngestor
	NowFunc func() time.Time
}

// Publish handles POST /api/v1/videos. The thumbnail uploads synchronously;
// the video file is staged to disk and handed to the background ingestor, so
// the response returns a pending record.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		RespondError(ctx, w, apperrors.Validation("invalid multipart request body"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		RespondError(ctx, w, apperrors.Validation("title is required"))
		return
	}

	videoID := uuid.NewString()

	thumbnailFile, thumbnailHeader, err := r.FormFile("thumbnail")
	if err != nil {
		RespondError(ctx, w, apperrors.Validation("thumbnail file is required"))
		return
	}
	defer thumbnailFile.Close()

	thumbnailKey := path.Join("thumbnails", videoID, uploadFileName(thumbnailHeader))
	thumbnailURL, err := h.Media.Save(ctx, thumbnailKey, thumbnailHeader.Header.Get("Content-Type"), thumbnailFile)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		RespondError(ctx, w, apperrors.Validation("videoFile is required"))
		return
	}
	defer videoFile.Close()

	stagedPath, err := stageUpload(videoFile, videoHeader.Filename)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	now := h.now()
	video := models.Video{
		ID:           videoID,
		OwnerID:      identity.ID,
		Title:        title,
		Description:  description,
		ThumbnailURL: thumbnailURL,
		Published:    true,
		AssetStatus:  models.AssetStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		_ = os.Remove(stagedPath)
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	job := media.IngestJob{
		VideoID:     videoID,
		FilePath:    stagedPath,
		ContentType: videoHeader.Header.Get("Content-Type"),
	}
	if err := h.Ingest.Enqueue(ctx, job); err != nil {
		_ = os.Remove(stagedPath)
		logger.Error("enqueue video asset", "videoId", videoID, "error", err)
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	logger.Info("video published", "videoId", videoID, "ownerId", identity.ID)
	respondData(ctx, w, http.StatusCreated, video, "video published; asset processing")
}

// Feed handles GET /api/v1/videos/feed.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if _, ok := auth.IdentityFromContext(ctx); !ok {
		RespondError(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(ctx, w, apperrors.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	videos, err := h.Videos.ListFeed(ctx, limit)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	respondData(ctx, w, http.StatusOK, videos, "video feed fetched successfully")
}

// View handles POST /api/v1/videos/{id}/view, counting the view and
// appending the video to the caller's watch history.
func (h VideoHandler) View(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
		return
	}

	videoID := strings.TrimSpace(r.PathValue("id"))
	if videoID == "" {
		RespondError(ctx, w, apperrors.Validation("video id is required"))
		return
	}

	if err := h.Videos.RecordView(ctx, identity.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			RespondError(ctx, w, apperrors.NotFound("video not found"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "view recorded successfully")
}

// stageUpload copies a multipart file to a temp file the ingestor can read
// after the request body is gone.
func stageUpload(src io.Reader, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	tmp, err := os.CreateTemp("", "vidtube-asset-*"+ext)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
