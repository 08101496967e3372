package models

import "time"

// User represents an account within the VidTube platform. Password always
// holds a bcrypt hash; RefreshToken holds the single currently valid refresh
// token and is empty when the user has no active session.
type User struct {
	ID            string
	UserName      string
	Email         string
	FullName      string
	Password      string
	RefreshToken  string
	AvatarURL     string
	CoverImageURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the projection of a user that may leave the service. It never
// carries the password hash or the refresh token.
type PublicUser struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Public strips the credential fields from a user record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		UserName:      u.UserName,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// Video stores an uploaded video along with its asset ingestion state.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	ThumbnailURL string    `json:"thumbnail"`
	MediaURL     string    `json:"mediaUrl"`
	Views        int64     `json:"views"`
	Published    bool      `json:"isPublished"`
	AssetStatus  string    `json:"assetStatus"`
	AssetSize    int64     `json:"assetSize"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// Subscription is a directed edge: the subscriber follows the channel.
type Subscription struct {
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// ChannelProfile is the derived channel view joined from users and their
// subscription edges in both directions.
type ChannelProfile struct {
	ID              string `json:"id"`
	UserName        string `json:"userName"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	AvatarURL       string `json:"avatar"`
	CoverImageURL   string `json:"coverImage,omitempty"`
	SubscriberCount int64  `json:"subscriberCount"`
	SubscribedCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed    bool   `json:"isSubscribed"`
}

// VideoOwner is the public projection of a video's owning user used by the
// watch history view.
type VideoOwner struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// WatchHistoryEntry is one video in a user's watch history joined with its
// owner. Entries are listed in stored history order.
type WatchHistoryEntry struct {
	Video     Video      `json:"video"`
	Owner     VideoOwner `json:"owner"`
	WatchedAt time.Time  `json:"watchedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
