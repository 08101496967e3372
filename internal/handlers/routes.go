package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	DB            Pinger
	Users         UserStore
	Tokens        TokenService
	Media         MediaStorage
	Profiles      ProfileSource
	ProfileCache  ProfileInvalidator
	Subscriptions SubscriptionStore
	Videos        VideoStore
	Ingest        VideoAssetIngestor

	Cookies       CookieSettings
	LoginLimiter  RateLimiter
	SignupLimiter RateLimiter

	// RequireAuth wraps handlers that need an authenticated session.
	RequireAuth func(http.Handler) http.Handler
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	users := UserHandler{
		Users:         deps.Users,
		Tokens:        deps.Tokens,
		Media:         deps.Media,
		Cookies:       deps.Cookies,
		LoginLimiter:  deps.LoginLimiter,
		SignupLimiter: deps.SignupLimiter,
	}
	channels := ChannelHandler{
		Users:         deps.Users,
		Profiles:      deps.Profiles,
		ProfileCache:  deps.ProfileCache,
		Subscriptions: deps.Subscriptions,
	}
	videos := VideoHandler{
		Videos: deps.Videos,
		Media:  deps.Media,
		Ingest: deps.Ingest,
	}

	requireAuth := deps.RequireAuth
	if requireAuth == nil {
		requireAuth = func(next http.Handler) http.Handler { return next }
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/users/register", users.Register)
	mux.HandleFunc("/api/v1/users/login", users.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", users.Refresh)
	mux.Handle("/api/v1/users/logout", protected(users.Logout))
	mux.Handle("/api/v1/users/change-password", protected(users.ChangePassword))
	mux.Handle("/api/v1/users/current-user", protected(users.CurrentUser))
	mux.Handle("/api/v1/users/update-account", protected(users.UpdateAccount))
	mux.Handle("/api/v1/users/update-avatar", protected(users.UpdateAvatar))
	mux.Handle("/api/v1/users/update-coverImage", protected(users.UpdateCoverImage))
	mux.Handle("/api/v1/users/channel/{userName}", protected(channels.Profile))
	mux.Handle("/api/v1/users/history", protected(channels.History))

	mux.Handle("/api/v1/channels/{userName}/subscribe", protected(channels.Subscribe))

	mux.Handle("/api/v1/videos", protected(videos.Publish))
	mux.Handle("/api/v1/videos/feed", protected(videos.Feed))
	mux.Handle("/api/v1/videos/{id}/view", protected(videos.View))
}
