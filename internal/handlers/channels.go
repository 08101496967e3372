package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ChannelHandler implements the channel profile, watch history, and
// subscription endpoints.
type ChannelHandler struct {
	Users         UserStore
	Profiles      ProfileSource
	ProfileCache  ProfileInvalidator
	Subscriptions SubscriptionStore
}

// Profile handles GET /api/v1/users/channel/{userName}.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
		return
	}

	userName := strings.TrimSpace(r.PathValue("userName"))
	if userName == "" {
		RespondError(ctx, w, apperrors.Validation("userName is required"))
		return
	}

	profile, err := h.Profiles.ChannelProfile(ctx, userName, identity.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			RespondError(ctx, w, apperrors.NotFound("channel not found"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel profile fetched successfully")
}

// History handles GET /api/v1/users/history.
func (h ChannelHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
		return
	}

	entries, err := h.Users.WatchHistory(ctx, identity.ID)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}
	if entries == nil {
		entries = []models.WatchHistoryEntry{}
	}

	respondData(ctx, w, http.StatusOK, entries, "watch history fetched successfully")
}

// Subscribe handles POST /api/v1/channels/{userName}/subscribe, toggling the
// caller's subscription to the named channel.
func (h ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
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

	userName := strings.TrimSpace(r.PathValue("userName"))
	if userName == "" {
		RespondError(ctx, w, apperrors.Validation("userName is required"))
		return
	}

	channel, err := h.Users.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			RespondError(ctx, w, apperrors.NotFound("channel not found"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	if channel.ID == identity.ID {
		RespondError(ctx, w, apperrors.Validation("you cannot subscribe to your own channel"))
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, identity.ID, channel.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			RespondError(ctx, w, apperrors.NotFound("channel not found"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	if h.ProfileCache != nil {
		h.ProfileCache.Invalidate(channel.UserName)
	}

	logger.Info("subscription toggled", "subscriberId", identity.ID, "channelId", channel.ID, "subscribed", subscribed)
	respondData(ctx, w, http.StatusOK, map[string]bool{"subscribed": subscribed}, "subscription updated successfully")
}
