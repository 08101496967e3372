package handlers

import (
	"context"
	"io"

	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentity(ctx context.Context, emailOrUserName string) (models.User, error)
	FindByUserName(ctx context.Context, userName string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

// TokenService issues, rotates, and revokes authentication token pairs.
type TokenService interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// MediaStorage persists uploaded media and returns its public location.
type MediaStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ProfileSource resolves channel profiles for the channel handlers.
type ProfileSource interface {
	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
}

// ProfileInvalidator drops cached channel views after a mutation.
type ProfileInvalidator interface {
	Invalidate(userName string)
}

// SubscriptionStore toggles subscriber→channel edges.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// VideoStore captures persistence for video publishing and viewing.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	ListFeed(ctx context.Context, limit int) ([]models.Video, error)
	RecordView(ctx context.Context, viewerID, videoID string) error
}

// VideoAssetIngestor schedules background persistence of staged video files.
type VideoAssetIngestor interface {
	Enqueue(ctx context.Context, job media.IngestJob) error
}
