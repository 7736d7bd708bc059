package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"authapi/internal/config"
	"authapi/internal/metrics"
	mw "authapi/internal/middleware"
	"authapi/internal/models"
	"authapi/internal/repository"
	"authapi/internal/services"
)

// Returned on every reset request, known email or not, so the endpoint
// cannot be used to probe which addresses are registered.
const resetRequestMessage = "If the email exists in our system, a password reset link has been sent"

type AuthHandler struct {
	db     *sql.DB
	users  repository.UserRepository
	tokens repository.TokenRepository
	resets repository.PasswordResetRepository
	mailer services.EmailSender
	cfg    *config.Config
	v      *validator.Validate
}

func NewAuthHandler(db *sql.DB, cfg *config.Config, mailer services.EmailSender) *AuthHandler {
	return &AuthHandler{
		db:     db,
		users:  repository.NewUserRepository(db),
		tokens: repository.NewTokenRepository(db),
		resets: repository.NewPasswordResetRepository(db),
		mailer: mailer,
		cfg:    cfg,
		v:      validator.New(),
	}
}

// @Tags Auth
// @Summary Register a new user
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.PublicUser
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/auth/user/create [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "registration_failed", "Failed to create user")
		return
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			writeJSONError(w, http.StatusConflict, "email_taken", "Email is already registered")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "registration_failed", "Failed to create user")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u.Public())
}

// @Tags Auth
// @Summary Log in with a credential form and receive a bearer token
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email address"
// @Param password formData string true "Password"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), username)
	if err != nil {
		metrics.LoginFailures.WithLabelValues("unknown_user").Inc()
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONError(w, http.StatusBadRequest, "user_not_found", "User does not exist")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.LoginFailures.WithLabelValues("bad_password").Inc()
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Passwords do not match")
		return
	}

	opaque, err := generateOpaqueToken()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "login_failed", "Failed to login")
		return
	}

	// Sessions are unbounded per user; each login gets its own row.
	token := &models.Token{
		Token:     opaque,
		UserID:    u.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.tokens.Create(r.Context(), token); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "login_failed", "Failed to login")
		return
	}
	metrics.TokensIssued.Inc()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.TokenResponse{
		AccessToken: token.Token,
		TokenType:   "bearer",
	})
}

// @Tags Auth
// @Summary Revoke the presented bearer token
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/logout [delete]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(mw.CtxToken).(string)
	if token == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
		return
	}

	if err := h.tokens.Delete(r.Context(), token); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "logout_failed", "Failed to logout")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Tags Auth
// @Summary Current user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(mw.CtxUserID).(string)
	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "get_user_failed", "Failed to get user")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u.Public())
}

// @Tags Auth
// @Summary Request a password reset email
// @Accept json
// @Produce json
// @Param body body models.PasswordResetRequest true "Reset request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/auth/password-reset/request [post]
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeJSONMessage(w, http.StatusOK, resetRequestMessage)
		return
	}

	opaque, err := generateOpaqueToken()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_request_failed", "Failed to process request")
		return
	}

	prt := &models.PasswordResetToken{
		ID:      uuid.NewString(),
		Token:   opaque,
		UserID:  u.ID,
		Created: time.Now().UTC(),
		Used:    false,
	}
	if err := h.resets.Create(r.Context(), prt); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_request_failed", "Failed to process request")
		return
	}

	// Delivery failures do not change the response; the counter and the
	// log line are the only signal.
	if err := h.mailer.Send(r.Context(), u.Email, "Password Reset Request", h.resetEmailBody(opaque)); err != nil {
		metrics.ResetEmailFailures.Inc()
		log.Printf("Failed to send password reset email to %s: %v", u.Email, err)
	}

	writeJSONMessage(w, http.StatusOK, resetRequestMessage)
}

// @Tags Auth
// @Summary Confirm a password reset
// @Accept json
// @Produce json
// @Param body body models.PasswordResetConfirm true "Reset confirmation"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	// Checked before the token so a weak password gets its own error no
	// matter what token came with it.
	if len(req.NewPassword) < 8 {
		writeJSONError(w, http.StatusBadRequest, "password_too_short", "Password must be at least 8 characters long")
		return
	}

	cutoff := h.resetTokenCutoff()
	prt, err := h.resets.GetValid(r.Context(), req.Token, cutoff)
	if err != nil {
		// Unknown, spent and expired tokens are indistinguishable here.
		writeJSONError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}

	// The hash update and the token consumption commit together or not
	// at all. Consume re-checks used=FALSE, so of two concurrent
	// confirmations only one can commit.
	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}
	defer tx.Rollback()

	users := repository.NewUserRepository(tx)
	resets := repository.NewPasswordResetRepository(tx)

	if err := users.UpdatePasswordHash(r.Context(), prt.UserID, string(hash)); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}
	if err := resets.Consume(r.Context(), req.Token, cutoff); err != nil {
		if errors.Is(err, repository.ErrResetTokenSpent) {
			writeJSONError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}
	if err := tx.Commit(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}

	writeJSONMessage(w, http.StatusOK, "Password has been reset successfully")
}

func (h *AuthHandler) resetTokenCutoff() time.Time {
	ttl := time.Duration(h.cfg.ResetTokenTTLMinutes) * time.Minute
	return time.Now().UTC().Add(-ttl)
}

func (h *AuthHandler) resetEmailBody(token string) string {
	resetURL := h.cfg.FrontendBaseURL + "/reset-password?token=" + url.QueryEscape(token)
	return fmt.Sprintf(`
		<h2>Password Reset Request</h2>
		<p>You have requested to reset your password.</p>
		<p>Please click on the link below to reset your password:</p>
		<p><a href="%s">Reset Password</a></p>
		<p>This link will expire in %d minutes.</p>
		<p>If you did not request this password reset, please ignore this email.</p>
	`, resetURL, h.cfg.ResetTokenTTLMinutes)
}

// generateOpaqueToken returns 32 bytes of CSPRNG output, URL-safe
// base64 without padding. Used for both bearer and reset tokens.
func generateOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
