package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/notifications"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
)

const sessionTTL = 8 * time.Hour

type Handler struct {
	DB     *pgxpool.Pool
	Secret string
	Crypto *cryptoutil.Service
	Notify *notifications.Service
}

func NewHandler(db *pgxpool.Pool, secret string, crypto *cryptoutil.Service, notify *notifications.Service) *Handler {
	return &Handler{DB: db, Secret: secret, Crypto: crypto, Notify: notify}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.HandleSignup)
	r.Post("/auth/verify-otp", h.HandleVerifyOTP)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/mfa/setup", h.HandleMFASetup)
	r.Post("/auth/mfa/enable", h.HandleMFAEnable)
	r.Post("/auth/mfa/disable", h.HandleMFADisable)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

// HandleSignup registers an inactive employee account and emails a one-time
// verification code. Accounts stay unusable until the code is confirmed.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var payload signupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		api.Fail(w, http.StatusBadRequest, "validation_error", "a valid email is required", requestctx.GetRequestID(r.Context()))
		return
	}
	if len(payload.Password) < 8 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "password must be at least 8 characters", requestctx.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to register", requestctx.GetRequestID(r.Context()))
		return
	}
	otpSecret, err := auth.NewOTPSecret(email)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "otp_error", "failed to register", requestctx.GetRequestID(r.Context()))
		return
	}

	var userID string
	err = h.DB.QueryRow(r.Context(), `
    INSERT INTO users (email, password_hash, role, is_active, otp_secret)
    VALUES ($1, $2, $3, false, $4)
    RETURNING id
  `, email, hash, auth.RoleEmployee, otpSecret).Scan(&userID)
	if err != nil {
		// Do not reveal whether the email is taken.
		api.Success(w, map[string]string{"status": "verification_sent"}, requestctx.GetRequestID(r.Context()))
		return
	}

	code, err := auth.GenerateOTPCode(otpSecret, time.Now())
	if err != nil {
		slog.Warn("signup code generation failed", "userId", userID, "err", err)
	} else if h.Notify != nil {
		h.Notify.Email(r.Context(), userID, "Verify your account",
			"Your verification code is "+code+". It expires in 10 minutes.")
	}

	api.Created(w, map[string]string{"status": "verification_sent"}, requestctx.GetRequestID(r.Context()))
}

// HandleVerifyOTP activates the account when the emailed code checks out.
func (h *Handler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var payload verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	var userID, otpSecret string
	var isActive bool
	err := h.DB.QueryRow(r.Context(), `
    SELECT id, otp_secret, is_active FROM users WHERE email = $1
  `, email).Scan(&userID, &otpSecret, &isActive)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_code", "invalid or expired code", requestctx.GetRequestID(r.Context()))
		return
	}
	if isActive {
		api.Success(w, map[string]string{"status": "already_verified"}, requestctx.GetRequestID(r.Context()))
		return
	}
	if otpSecret == "" || !auth.ValidateOTPCode(payload.Code, otpSecret, time.Now()) {
		api.Fail(w, http.StatusBadRequest, "invalid_code", "invalid or expired code", requestctx.GetRequestID(r.Context()))
		return
	}

	if _, err := h.DB.Exec(r.Context(), "UPDATE users SET is_active = true WHERE id = $1", userID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to verify account", requestctx.GetRequestID(r.Context()))
		return
	}
	if h.Notify != nil {
		_ = h.Notify.Create(r.Context(), userID, notifications.TypeAccountActivated,
			"Account activated", "Your account is active. You can now sign in.")
	}
	api.Success(w, map[string]string{"status": "verified"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	var id, role, hash string
	var mfaEnabled bool
	var mfaSecretEnc []byte
	err := h.DB.QueryRow(r.Context(), `
    SELECT id, role, password_hash, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE email = $1 AND is_active = true
  `, email).Scan(&id, &role, &hash, &mfaEnabled, &mfaSecretEnc)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := auth.CheckPassword(hash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestctx.GetRequestID(r.Context()))
		return
	}

	if mfaEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestctx.GetRequestID(r.Context()))
			return
		}
		secret, err := h.mfaSecret(mfaSecretEnc)
		if err != nil || secret == "" || !totp.Validate(payload.MFACode, secret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestctx.GetRequestID(r.Context()))
			return
		}
	}

	sessionID, err := generateToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}
	if _, err := h.DB.Exec(r.Context(), `
    INSERT INTO sessions (user_id, refresh_token, expires_at)
    VALUES ($1,$2,$3)
  `, id, auth.HashToken(sessionID), time.Now().Add(sessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", requestctx.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: id, Role: role, SessionID: sessionID}, sessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}

	if _, err := h.DB.Exec(r.Context(), "UPDATE users SET last_login = now() WHERE id = $1", id); err != nil {
		slog.Warn("update last_login failed", "userId", id, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]string{"id": id, "role": role},
	}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok && user.SessionID != "" {
		if _, err := h.DB.Exec(r.Context(), "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND refresh_token = $2", user.UserID, auth.HashToken(user.SessionID)); err != nil {
			slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	claims, err := auth.ParseToken(h.Secret, parts[1])
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}

	var count int
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COUNT(1)
    FROM sessions
    WHERE user_id = $1 AND refresh_token = $2 AND expires_at > now() AND revoked_at IS NULL
  `, claims.UserID, auth.HashToken(claims.SessionID)).Scan(&count); err != nil || count == 0 {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", requestctx.GetRequestID(r.Context()))
		return
	}

	newSessionID, err := generateToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to rotate session", requestctx.GetRequestID(r.Context()))
		return
	}
	if _, err := h.DB.Exec(r.Context(), `
    UPDATE sessions
    SET refresh_token = $1, expires_at = $2, rotated_at = now()
    WHERE user_id = $3 AND refresh_token = $4
  `, auth.HashToken(newSessionID), time.Now().Add(sessionTTL), claims.UserID, auth.HashToken(claims.SessionID)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", requestctx.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:    claims.UserID,
		Role:      claims.Role,
		SessionID: newSessionID,
	}, sessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"token": token}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	if h.Crypto == nil || !h.Crypto.Configured() {
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", requestctx.GetRequestID(r.Context()))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "HRMS",
		AccountName: user.UserID,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", requestctx.GetRequestID(r.Context()))
		return
	}
	secret := key.Secret()
	encrypted, err := h.Crypto.EncryptString(secret)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", requestctx.GetRequestID(r.Context()))
		return
	}
	if _, err := h.DB.Exec(r.Context(), `
    UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2
  `, encrypted, user.UserID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"secret": secret, "otpauthUrl": key.URL()}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.setMFAEnabled(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.setMFAEnabled(w, r, false)
}

func (h *Handler) setMFAEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return
	}
	if h.Crypto == nil || !h.Crypto.Configured() {
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", requestctx.GetRequestID(r.Context()))
		return
	}
	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	var secretEnc []byte
	if err := h.DB.QueryRow(r.Context(), "SELECT mfa_secret_enc FROM users WHERE id = $1", user.UserID).Scan(&secretEnc); err != nil {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestctx.GetRequestID(r.Context()))
		return
	}
	secret, err := h.Crypto.DecryptString(secretEnc)
	if err != nil || secret == "" || !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestctx.GetRequestID(r.Context()))
		return
	}

	if _, err := h.DB.Exec(r.Context(), "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, user.UserID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_update_failed", "failed to update mfa", requestctx.GetRequestID(r.Context()))
		return
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	api.Success(w, map[string]string{"status": status}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) mfaSecret(secretEnc []byte) (string, error) {
	if h.Crypto != nil && h.Crypto.Configured() {
		return h.Crypto.DecryptString(secretEnc)
	}
	return string(secretEnc), nil
}

func generateToken() (string, error) {
	buff := make([]byte, 32)
	if _, err := rand.Read(buff); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buff), nil
}
