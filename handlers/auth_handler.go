package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bermelken20/university-canteen-sub001/config"
	"github.com/bermelken20/university-canteen-sub001/database"
	"github.com/bermelken20/university-canteen-sub001/models"
)

/* ====================== Handler & ctor ====================== */

type AuthHandler struct {
	Cfg *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

func (h *AuthHandler) signJWT(sub, role, name string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"name": name,
		"exp":  time.Now().Add(h.Cfg.JWTTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tk.SignedString([]byte(h.Cfg.JWTSecret))
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

type loginOutcome int

const (
	loginOK loginOutcome = iota
	loginLocked
	loginBadPassword
)

// decideLogin applies the lockout gate before the password is ever
// compared: a locked identifier stays locked even when the submitted
// secret is correct. remaining is only meaningful for loginBadPassword.
func (h *AuthHandler) decideLogin(hash, password string, attempts []time.Time, now time.Time) (loginOutcome, int) {
	recent := models.CountRecentAttempts(attempts, now, h.Cfg.LockoutWindow)
	if recent >= h.Cfg.MaxLoginAttempts {
		return loginLocked, 0
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		remaining := h.Cfg.MaxLoginAttempts - recent - 1
		if remaining < 0 {
			remaining = 0
		}
		return loginBadPassword, remaining
	}
	return loginOK, 0
}

/* ====================== Validation ====================== */

var (
	authReEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	authRePhone = regexp.MustCompile(`^[0-9\- ]{7,15}$`)
	authReName  = regexp.MustCompile(`^[\p{L}\s\.\-]{2,120}$`)
)

var validRanks = map[string]bool{
	"instructor":           true,
	"assistant":            true,
	"associate":            true,
	"professor":            true,
	"university_professor": true,
}

/* ====================== DTOs ====================== */

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	College  string `json:"college"`
	Rank     string `json:"rank"`
}

func (p *RegisterReq) normalize() {
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.College = strings.TrimSpace(p.College)
	p.Rank = strings.ToLower(strings.TrimSpace(p.Rank))
}

func (p *RegisterReq) validate() map[string]string {
	errs := map[string]string{}
	if !authReName.MatchString(p.Name) {
		errs["name"] = "name must be 2-120 letters"
	}
	if !authReEmail.MatchString(p.Email) {
		errs["email"] = "invalid email"
	}
	if p.Phone != "" && !authRePhone.MatchString(p.Phone) {
		errs["phone"] = "invalid phone"
	}
	if len(p.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	}
	if p.Rank != "" && !validRanks[p.Rank] {
		errs["rank"] = "unknown teaching rank"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

type LoginReq struct {
	Identifier string `json:"identifier"` // user_id, email or admin username
	Password   string `json:"password"`
}

type ResetRequestReq struct {
	Email string `json:"email"`
}

type ResetConfirmReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

/* ====================== Identity resolution ====================== */

// identity is the common view over the User and AdminUser tables.
type identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
	Hash   string
}

// findIdentity resolves an identifier against users first, then
// admin_users. Both tables share one user_id namespace so no
// disambiguation is attempted beyond "find anywhere". A missing row is
// gorm.ErrRecordNotFound; anything else is a real database failure and
// must not be mistaken for bad credentials.
func findIdentity(identifier string) (*identity, error) {
	var u models.User
	err := database.DB.
		Where("user_id = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&u).Error
	if err == nil {
		return &identity{UserID: u.UserID, Name: u.Name, Email: u.Email, Role: "user", Hash: u.Password}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var a models.AdminUser
	err = database.DB.
		Where("user_id = ? OR username = ? OR email = ?", identifier, identifier, strings.ToLower(identifier)).
		First(&a).Error
	if err == nil {
		return &identity{UserID: a.UserID, Name: a.Name, Email: a.Email, Role: "admin", Hash: a.Password}, nil
	}
	return nil, err
}

func userIDTaken(id string) bool {
	var n int64
	database.DB.Model(&models.User{}).Where("user_id = ?", id).Count(&n)
	if n > 0 {
		return true
	}
	database.DB.Model(&models.AdminUser{}).Where("user_id = ?", id).Count(&n)
	return n > 0
}

/* ====================== Handlers ====================== */

// POST /auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.normalize()
	if errs := req.validate(); errs != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "fields": errs})
	}

	var dup models.User
	if err := database.DB.Where("email = ?", req.Email).First(&dup).Error; err == nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "EMAIL_EXISTS"})
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "HASH_FAILED"})
	}

	rec := models.User{
		UserID:   models.GenerateUserID(req.Rank, userIDTaken),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: hash,
		College:  req.College,
		Rank:     req.Rank,
	}
	if err := database.DB.Create(&rec).Error; err != nil {
		c.Logger().Errorf("register: create user: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, map[string]any{"user_id": rec.UserID})
}

// POST /auth/login
//
// Lockout is checked before the password: once an identifier is locked a
// correct password does not unlock it early; only the attempts aging out
// of the window (or a completed password reset) clears the counter.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	id, err := findIdentity(req.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// unknown identifiers do not write an attempt row, so lockout
			// state cannot be used to probe for account existence
			return c.JSON(http.StatusUnauthorized, map[string]any{"error": "INVALID_CREDENTIALS"})
		}
		c.Logger().Errorf("login: identity lookup: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	var rows []models.LoginAttempt
	if err := database.DB.Where("user_id = ?", id.UserID).Find(&rows).Error; err != nil {
		c.Logger().Errorf("login: load attempts: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	times := make([]time.Time, len(rows))
	for i, r := range rows {
		times[i] = r.AttemptTime
	}

	switch outcome, remaining := h.decideLogin(id.Hash, req.Password, times, time.Now()); outcome {
	case loginLocked:
		return c.JSON(http.StatusLocked, map[string]any{"error": "ACCOUNT_LOCKED"})
	case loginBadPassword:
		if err := database.DB.Create(&models.LoginAttempt{
			UserID:      id.UserID,
			AttemptTime: time.Now(),
		}).Error; err != nil {
			c.Logger().Errorf("login: record attempt: %v", err)
		}
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"error":              "INVALID_CREDENTIALS",
			"remaining_attempts": remaining,
		})
	}

	// success resets the counter
	if err := database.DB.Where("user_id = ?", id.UserID).
		Delete(&models.LoginAttempt{}).Error; err != nil {
		c.Logger().Errorf("login: clear attempts: %v", err)
	}

	token, err := h.signJWT(id.UserID, id.Role, id.Name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "TOKEN_GEN_FAILED"})
	}

	h.rememberLogin(c, id)

	return c.JSON(http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"user_id": id.UserID,
			"role":    id.Role,
			"name":    id.Name,
			"email":   id.Email,
		},
	})
}

// GET /auth/check-email?email=...
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	email := strings.TrimSpace(strings.ToLower(c.QueryParam("email")))
	if email == "" {
		return c.JSON(http.StatusOK, map[string]bool{"exists": false})
	}
	var u models.User
	err := database.DB.Where("email = ?", email).First(&u).Error
	return c.JSON(http.StatusOK, map[string]bool{"exists": err == nil})
}

// POST /auth/password-reset
//
// Always answers the same way so the endpoint cannot be used to probe
// for accounts. Lockout attempts are NOT cleared here; that happens
// only when the reset completes.
func (h *AuthHandler) PasswordResetRequest(c echo.Context) error {
	var req ResetRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !authReEmail.MatchString(email) {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR", "fields": map[string]string{"email": "invalid email"}})
	}

	id, err := findIdentity(email)
	switch {
	case err == nil:
		rec := models.PasswordReset{
			UserID:    id.UserID,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		if err := database.DB.Create(&rec).Error; err != nil {
			c.Logger().Errorf("password reset: create token: %v", err)
		}
		// TODO: send rec.Token by email once the campus SMTP relay is available
	case !errors.Is(err, gorm.ErrRecordNotFound):
		c.Logger().Errorf("password reset: identity lookup: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// POST /auth/password-reset/confirm
func (h *AuthHandler) PasswordResetConfirm(c echo.Context) error {
	var req ResetConfirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	var pr models.PasswordReset
	err := database.DB.Where("token = ? AND used = false AND expires_at > ?", req.Token, time.Now()).
		First(&pr).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_TOKEN"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "HASH_FAILED"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("user_id = ?", pr.UserID).Update("password", hash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Model(&models.AdminUser{}).Where("user_id = ?", pr.UserID).
				Update("password", hash).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.PasswordReset{}).Where("id = ?", pr.ID).
			Update("used", true).Error; err != nil {
			return err
		}
		// completing the reset clears the lockout counter
		return tx.Where("user_id = ?", pr.UserID).Delete(&models.LoginAttempt{}).Error
	})
	if err != nil {
		c.Logger().Errorf("password reset: confirm: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_UPDATE_FAILED"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

/* ====================== Recent logins cookie ====================== */

const (
	recentLoginsCookie = "recent_logins"
	recentLoginsCap    = 5
)

type recentLogin struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	LastLogin string `json:"last_login"`
}

// rememberLogin refreshes the client-side "recent logins" list. Pure
// convenience for the sign-in form; it carries no security role.
func (h *AuthHandler) rememberLogin(c echo.Context, id *identity) {
	entries := readRecentLogins(c)

	updated := []recentLogin{{
		UserID:    id.UserID,
		Name:      id.Name,
		Email:     id.Email,
		LastLogin: time.Now().UTC().Format(time.RFC3339),
	}}
	for _, e := range entries {
		if e.UserID == id.UserID {
			continue
		}
		updated = append(updated, e)
		if len(updated) == recentLoginsCap {
			break
		}
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:    recentLoginsCookie,
		Value:   url.QueryEscape(string(raw)),
		Path:    "/",
		Expires: time.Now().Add(30 * 24 * time.Hour),
	})
}

func readRecentLogins(c echo.Context) []recentLogin {
	ck, err := c.Cookie(recentLoginsCookie)
	if err != nil {
		return nil
	}
	raw, err := url.QueryUnescape(ck.Value)
	if err != nil {
		return nil
	}
	var entries []recentLogin
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}
