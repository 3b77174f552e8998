package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// Lockout parameters for the failed-login counter.
const (
	maxFailedLogins = 5
	lockoutWindow   = 15 * time.Minute
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	FullName     string  `json:"full_name"`
	UniversityID string  `json:"university_id"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	DepartmentID *uint64 `json:"department_id"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func (h *AuthHandler) issuePair(u *model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTAccessSecret, u.ID, string(u.Role), u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTRefreshSecret, u.ID, string(u.Role), u.Email, h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: string(u.Role)},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Token, Expires: refresh.Exp},
	}, nil
}

// Register creates a student account and returns a fresh token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid body"))
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case req.FullName == "" || req.UniversityID == "" || req.Email == "":
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "full_name, university_id and email are required"))
	case !strings.Contains(req.Email, "@"):
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid email"))
	case len(req.Password) < 8:
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "password must be at least 8 characters"))
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "hash password failed"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := model.User{
		FullName:     req.FullName,
		UniversityID: req.UniversityID,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleStudent,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
	}
	id, err := h.Users.Create(ctx, &u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return c.JSON(http.StatusConflict, utils.Fail(utils.CodeDuplicateUser, "email or university id already registered"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "create user failed"))
	}
	u.ID = id

	resp, err := h.issuePair(&u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "issue tokens failed"))
	}
	return c.JSON(http.StatusCreated, utils.OK(resp))
}

// Login verifies credentials and returns a fresh token pair.  The checks
// run in a fixed order: unknown email, disabled account, active lockout,
// then the password itself.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid body"))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "email and password are required"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same answer as a wrong password, no user enumeration.
			return c.JSON(http.StatusUnauthorized, utils.Fail(utils.CodeInvalidCreds, "invalid email or password"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "query failed"))
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, utils.Fail(utils.CodeAccountDisabled, "account is deactivated"))
	}
	if u.LockedUntil != nil && time.Now().Before(*u.LockedUntil) {
		mins := int(time.Until(*u.LockedUntil).Minutes()) + 1
		return c.JSON(http.StatusLocked, utils.Fail(utils.CodeAccountLocked,
			fmt.Sprintf("account locked, try again in %d minutes", mins)))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		failed := u.FailedLogins + 1
		var lockedUntil *time.Time
		if failed >= maxFailedLogins {
			t := time.Now().Add(lockoutWindow)
			lockedUntil = &t
		}
		_ = h.Users.RecordLoginFailure(ctx, u.ID, failed, lockedUntil)
		return c.JSON(http.StatusUnauthorized, utils.Fail(utils.CodeInvalidCreds, "invalid email or password"))
	}

	if err := h.Users.RecordLoginSuccess(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "update login state failed"))
	}

	resp, err := h.issuePair(&u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "issue tokens failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(resp))
}

// Refresh rotates a refresh token: the presented token is denylisted and a
// brand-new pair is issued, so each refresh token redeems at most once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "refresh_token required"))
	}
	raw := strings.TrimSpace(req.RefreshToken)

	claims, err := utils.ParseToken(h.Cfg.JWTRefreshSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, utils.Fail(utils.CodeTokenInvalid, "invalid refresh token"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash := utils.HashToken(raw)
	revoked, err := h.Tokens.IsDenylisted(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "token lookup failed"))
	}
	if revoked {
		return c.JSON(http.StatusUnauthorized, utils.Fail(utils.CodeTokenRevoked, "refresh token already used"))
	}

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, utils.Fail(utils.CodeTokenInvalid, "invalid refresh token"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load user failed"))
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, utils.Fail(utils.CodeAccountDisabled, "account is deactivated"))
	}

	// Burn the presented token before issuing the replacement pair.
	if err := h.Tokens.Denylist(ctx, hash, claims.ExpiresAt.Time); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "revoke token failed"))
	}

	resp, err := h.issuePair(&u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "issue tokens failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(resp))
}

// Logout revokes the presented refresh token.  Best-effort: a malformed or
// already-expired token is already unusable, so logout still succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		if claims, err := utils.ParseToken(h.Cfg.JWTRefreshSecret, raw); err == nil {
			_ = h.Tokens.Denylist(ctx, utils.HashToken(raw), claims.ExpiresAt.Time)
		}
	}
	// Denylist the access token too so it dies with the session.
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw := strings.TrimPrefix(auth, "Bearer ")
		if claims, err := utils.ParseToken(h.Cfg.JWTAccessSecret, raw); err == nil {
			_ = h.Tokens.Denylist(ctx, utils.HashToken(raw), claims.ExpiresAt.Time)
		}
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "logged out"}))
}

// Profile returns the authenticated user's profile.
func (h *AuthHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Users.GetProfile(ctx, currentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "profile not found"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load profile failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(p))
}

// ChangePassword verifies the current password before storing a new hash.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid body"))
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "new password must be at least 8 characters"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load user failed"))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeWrongPassword, "current password is incorrect"))
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "hash password failed"))
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "update password failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "password updated"}))
}
