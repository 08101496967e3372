package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users, including the
// refresh-token lifecycle and the derived channel/history views.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentity(ctx context.Context, emailOrUserName string) (models.User, error)
	FindByUserName(ctx context.Context, userName string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id, token string) error
	SwapRefreshToken(ctx context.Context, id, old, new string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) error
	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

// VideoRepository defines persistence for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListFeed(ctx context.Context, limit int) ([]models.Video, error)
	MarkAssetReady(ctx context.Context, id, mediaURL string, duration float64, size int64) error
	MarkAssetFailed(ctx context.Context, id string) error
	RecordView(ctx context.Context, viewerID, videoID string) error
}

// SubscriptionRepository manages the subscriber→channel edges backing the
// channel profile aggregation.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}
