package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	// RefreshTokenCookie carries the refresh token between refresh calls.
	RefreshTokenCookie = "refreshToken"
	accessTokenCookie  = "accessToken"

	maxMultipartMemory = 32 << 20
	minPasswordLength  = 8
)

// CookieSettings controls how auth cookies are issued.
type CookieSettings struct {
	Secure bool
	Domain string
}

// UserHandler implements the /api/v1/users endpoints.
type UserHandler struct {
	Users         UserStore
	Tokens        TokenService
	Media         MediaStorage
	Cookies       CookieSettings
	LoginLimiter  RateLimiter
	SignupLimiter RateLimiter
	NowFunc       func() time.Time
}

// Register handles POST /api/v1/users/register. The request is multipart: a
// required avatar file, an optional cover image, and the account form fields.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.SignupLimiter, r, "register") {
		RespondError(ctx, w, &apperrors.Error{Status: http.StatusTooManyRequests, Message: "too many registration attempts"})
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		RespondError(ctx, w, apperrors.Validation("invalid multipart request body"))
		return
	}

	userName := strings.TrimSpace(r.FormValue("userName"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirmPassword")

	var problems []string
	if userName == "" {
		problems = append(problems, "userName is required")
	}
	if fullName == "" {
		problems = append(problems, "fullName is required")
	}
	if email == "" {
		problems = append(problems, "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		problems = append(problems, "email address is invalid")
	}
	if password == "" {
		problems = append(problems, "password is required")
	} else if len(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if password != confirmPassword {
		problems = append(problems, "password and confirm password must match")
	}
	if len(problems) > 0 {
		RespondError(ctx, w, apperrors.Validation("invalid registration request", problems...))
		return
	}

	for _, identity := range []string{userName, email} {
		if _, err := h.Users.FindByIdentity(ctx, identity); err == nil {
			RespondError(ctx, w, apperrors.Conflict("user already exists with the same username or email"))
			return
		} else if !errors.Is(err, repositories.ErrNotFound) {
			RespondError(ctx, w, apperrors.Internal(err))
			return
		}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	userID := uuid.NewString()

	avatarURL, err := h.uploadFormImage(r, "avatar", path.Join("avatars", userID))
	if err != nil {
		RespondError(ctx, w, err)
		return
	}

	coverImageURL, err := h.uploadFormImage(r, "coverImage", path.Join("covers", userID))
	if err != nil {
		var appErr *apperrors.Error
		// The cover image is optional; only its absence is tolerated.
		if !errors.As(err, &appErr) || appErr.Status != http.StatusBadRequest {
			RespondError(ctx, w, err)
			return
		}
		coverImageURL = ""
	}

	now := h.now()
	user := models.User{
		ID:            userID,
		UserName:      userName,
		Email:         email,
		FullName:      fullName,
		Password:      hashed,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			RespondError(ctx, w, apperrors.Conflict("user already exists with the same username or email"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	logger.Info("user registered", "userId", user.ID, "userName", user.UserName)
	respondData(ctx, w, http.StatusCreated, user.Public(), "user created successfully")
}

// Login handles POST /api/v1/users/login with an email-or-username plus
// password, setting the auth cookies on success.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.LoginLimiter, r, "login") {
		RespondError(ctx, w, &apperrors.Error{Status: http.StatusTooManyRequests, Message: "too many login attempts"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(ctx, w, apperrors.Validation("invalid request body"))
		return
	}

	identity := strings.TrimSpace(req.Email)
	if identity == "" {
		identity = strings.TrimSpace(req.UserName)
	}
	if identity == "" || req.Password == "" {
		RespondError(ctx, w, apperrors.Validation("email or username and password are required"))
		return
	}

	user, err := h.Users.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			RespondError(ctx, w, apperrors.Unauthorized("invalid credentials"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		logger.Warn("login password mismatch", "userId", user.ID)
		RespondError(ctx, w, apperrors.Unauthorized("invalid credentials"))
		return
	}

	tokens, err := h.Tokens.Issue(ctx, user.ID)
	if err != nil {
		RespondError(ctx, w, err)
		return
	}

	h.setAuthCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, loginResponse{
		User:         user.Public(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout, revoking the stored refresh token
// and clearing both auth cookies.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Tokens.Revoke(ctx, identity.ID); err != nil {
		RespondError(ctx, w, err)
		return
	}

	h.clearAuthCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "user logged out successfully")
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token comes
// from the cookie when present, otherwise from the JSON body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}
	if presented == "" {
		RespondError(ctx, w, apperrors.Unauthorized("refresh token not found"))
		return
	}

	tokens, err := h.Tokens.Rotate(ctx, presented)
	if err != nil {
		RespondError(ctx, w, err)
		return
	}

	h.setAuthCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "access token refreshed successfully")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
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

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(ctx, w, apperrors.Validation("invalid request body"))
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		RespondError(ctx, w, apperrors.Validation("old and new passwords are required"))
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		RespondError(ctx, w, apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength)))
		return
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	if !auth.CheckPassword(user.Password, req.OldPassword) {
		RespondError(ctx, w, apperrors.Unauthorized("current password is incorrect"))
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			RespondError(ctx, w, apperrors.NotFound("user not found"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(ctx, w, apperrors.Validation("invalid request body"))
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if fullName == "" && email == "" {
		RespondError(ctx, w, apperrors.Validation("fullName or email is required"))
		return
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			RespondError(ctx, w, apperrors.Validation("email address is invalid"))
			return
		}
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	if fullName != "" {
		user.FullName = fullName
	}
	if email != "" {
		user.Email = email
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			RespondError(ctx, w, apperrors.Conflict("email is already in use"))
			return
		}
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "account updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/update-avatar with a single file.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/update-coverImage with a single file.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", h.Users.UpdateCoverImage)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, prefix string, persist func(ctx context.Context, id, url string) error) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, w, apperrors.Unauthorized("please log in to access this resource"))
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		RespondError(ctx, w, apperrors.Validation("invalid multipart request body"))
		return
	}

	location, err := h.uploadFormImage(r, field, path.Join(prefix, identity.ID))
	if err != nil {
		RespondError(ctx, w, err)
		return
	}

	if err := persist(ctx, identity.ID, location); err != nil {
		RespondError(ctx, w, apperrors.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]string{field: location}, field+" updated successfully")
}

// uploadFormImage streams a multipart image file to the media host and
// returns its public location.
func (h UserHandler) uploadFormImage(r *http.Request, field, prefix string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", apperrors.Validation(field + " file is required")
		}
		return "", apperrors.Validation("invalid " + field + " upload")
	}
	defer file.Close()

	key := path.Join(prefix, uploadFileName(header))
	contentType := header.Header.Get("Content-Type")

	location, err := h.Media.Save(r.Context(), key, contentType, file)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	return location, nil
}

func uploadFileName(header *multipart.FileHeader) string {
	name := path.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return uuid.NewString()
	}
	return name
}

func (h UserHandler) setAuthCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Domain:   h.Cookies.Domain,
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Domain:   h.Cookies.Domain,
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
	})
}

func (h UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   h.Cookies.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.Cookies.Secure,
		})
	}
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type loginRequest struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
