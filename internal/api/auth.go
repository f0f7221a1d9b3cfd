package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/zafiri/cms-core/internal/auth"
)

// loginRequest is the request body for POST /api/login/.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /api/login/. The field names
// match what the admin console expects.
type loginResponse struct {
	Access  string     `json:"access"`
	Refresh string     `json:"refresh"`
	User    *auth.User `json:"user"`
}

// refreshRequest is the request body for POST /api/token/refresh/.
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse is the response body for POST /api/token/refresh/.
// Refresh tokens rotate: the returned refresh token replaces the consumed one.
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// handleLogin authenticates an administrator and issues a token pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	ctx := r.Context()

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("login user lookup failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "invalid credentials")
		return
	}
	if !user.IsActive {
		writeUnauthorized(w, "account is disabled")
		return
	}

	access, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("access token generation failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	rawRefresh, err := auth.GenerateRefreshToken()
	if err != nil {
		s.logger.Error("refresh token generation failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	// Each login starts a fresh token family.
	refresh := &auth.RefreshToken{
		UserID:    user.ID,
		TokenHash: auth.HashToken(rawRefresh),
		ExpiresAt: time.Now().Add(s.refreshTTL()),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		s.logger.Error("refresh token persistence failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)

	writeJSON(w, http.StatusOK, loginResponse{
		Access:  access,
		Refresh: rawRefresh,
		User:    user,
	})
}

// handleTokenRefresh exchanges a valid refresh token for a new access token,
// rotating the refresh token in the same family. Reuse of an already-rotated
// token is treated as theft and revokes the whole family.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Refresh == "" {
		writeBadRequest(w, "refresh token is required")
		return
	}

	ctx := r.Context()

	stored, err := s.tokens.GetByTokenHash(ctx, auth.HashToken(req.Refresh))
	if err != nil {
		writeUnauthorized(w, "invalid refresh token")
		return
	}

	if stored.Revoked {
		// Rotated-token reuse: revoke every token in the family.
		if err := s.tokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
			s.logger.Error("family revocation failed", "family_id", stored.FamilyID, "error", err)
		}
		s.logger.Warn("revoked refresh token reused, family revoked",
			"user_id", stored.UserID, "family_id", stored.FamilyID)
		writeUnauthorized(w, "invalid refresh token")
		return
	}

	if stored.IsExpired() {
		writeUnauthorized(w, "refresh token expired")
		return
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		writeUnauthorized(w, "invalid refresh token")
		return
	}

	access, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("access token generation failed", "error", err)
		writeInternalError(w, "token refresh failed")
		return
	}

	rawNext, err := auth.GenerateRefreshToken()
	if err != nil {
		s.logger.Error("refresh token generation failed", "error", err)
		writeInternalError(w, "token refresh failed")
		return
	}

	next := &auth.RefreshToken{
		UserID:    stored.UserID,
		FamilyID:  stored.FamilyID,
		TokenHash: auth.HashToken(rawNext),
		ExpiresAt: time.Now().Add(s.refreshTTL()),
	}
	if err := s.tokens.Rotate(ctx, stored.ID, next); err != nil {
		s.logger.Error("refresh token rotation failed", "error", err)
		writeInternalError(w, "token refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Access:  access,
		Refresh: rawNext,
	})
}

// handleGetProfile returns the authenticated user's profile. The console
// uses this both for the header display and to validate a restored session.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "not authenticated")
		return
	}

	user, err := s.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "account no longer exists")
			return
		}
		s.logger.Error("profile lookup failed", "error", err)
		writeInternalError(w, "profile lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// updateProfileRequest is the request body for PUT /api/profile/.
type updateProfileRequest struct {
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// handleUpdateProfile updates the authenticated user's mutable fields.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "not authenticated")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		writeUnauthorized(w, "account no longer exists")
		return
	}

	user.Email = req.Email
	user.PictureURL = req.Picture
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("profile update failed", "error", err)
		writeInternalError(w, "profile update failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// changePasswordRequest is the request body for POST /api/profile/password/.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// handleChangePassword changes the authenticated user's password and
// revokes every outstanding refresh token for the account.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeValidationError(w, "new password must be at least 8 characters")
		return
	}

	ctx := r.Context()
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		writeUnauthorized(w, "account no longer exists")
		return
	}

	ok, err = auth.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		writeInternalError(w, "password change failed")
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("password update failed", "error", err)
		writeInternalError(w, "password change failed")
		return
	}

	// Existing sessions must re-authenticate with the new password.
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		s.logger.Error("token revocation after password change failed", "error", err)
	}

	s.logger.Info("password changed", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// defaultRefreshTTL is used when no refresh TTL is configured (24 hours).
const defaultRefreshTTL = 24 * time.Hour

func (s *Server) refreshTTL() time.Duration {
	if s.secCfg.JWT.RefreshTokenTTL > 0 {
		return time.Duration(s.secCfg.JWT.RefreshTokenTTL) * time.Minute
	}
	return defaultRefreshTTL
}
