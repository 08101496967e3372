package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/models"
)

// ChannelProfile builds the derived channel view for userName as seen by
// viewerID: subscription edges are aggregated in both directions and the
// viewer's own membership is projected as isSubscribed.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            u.id, u.user_name, u.full_name, u.email,
            u.avatar_url, COALESCE(u.cover_image_url, ''),
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_count,
            EXISTS (
                SELECT 1 FROM subscriptions s
                WHERE s.channel_id = u.id AND s.subscriber_id = $2
            ) AS is_subscribed
        FROM users u
        WHERE lower(u.user_name) = lower($1)
    `, userName, viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(
		&profile.ID, &profile.UserName, &profile.FullName, &profile.Email,
		&profile.AvatarURL, &profile.CoverImageURL,
		&profile.SubscriberCount, &profile.SubscribedCount, &profile.IsSubscribed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// WatchHistory returns the user's watched videos joined with their owners'
// public profiles, in stored history order.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id, v.owner_id, v.title, v.description, v.duration_seconds,
            v.thumbnail_url, COALESCE(v.media_url, ''), v.views, v.is_published,
            v.asset_status, v.asset_size, v.created_at, v.updated_at,
            o.id, o.user_name, o.full_name, o.avatar_url,
            h.watched_at
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE h.user_id = $1
        ORDER BY h.position
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var entry models.WatchHistoryEntry
		if err := rows.Scan(
			&entry.Video.ID, &entry.Video.OwnerID, &entry.Video.Title, &entry.Video.Description, &entry.Video.Duration,
			&entry.Video.ThumbnailURL, &entry.Video.MediaURL, &entry.Video.Views, &entry.Video.Published,
			&entry.Video.AssetStatus, &entry.Video.AssetSize, &entry.Video.CreatedAt, &entry.Video.UpdatedAt,
			&entry.Owner.ID, &entry.Owner.UserName, &entry.Owner.FullName, &entry.Owner.AvatarURL,
			&entry.WatchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}
