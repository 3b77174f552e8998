package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/queue"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// AdminHandler covers account administration and reference-data upkeep.
// Every route behind it is gated to the admin role by the router.
type AdminHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	Departments *repository.DepartmentRepo
	Categories  *repository.CategoryRepo
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo, d *repository.DepartmentRepo, cat *repository.CategoryRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: u, Departments: d, Categories: cat}
}

// ListUsers returns a page of accounts, optionally filtered by a search
// term against name or email.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, limit := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Users.List(ctx, strings.TrimSpace(c.QueryParam("search")), limit, (page-1)*limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "list users failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	}))
}

type createStaffReq struct {
	FullName     string `json:"full_name"`
	UniversityID string `json:"university_id"`
	Email        string `json:"email"`
	DepartmentID uint64 `json:"department_id"`
}

// CreateStaff provisions a staff account with a generated temporary
// password, mailed to the new account.
func (h *AdminHandler) CreateStaff(c echo.Context) error {
	var req createStaffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid body"))
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.UniversityID == "" || req.Email == "" || req.DepartmentID == 0 {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "full_name, university_id, email and department_id are required"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	exists, err := h.Departments.Exists(ctx, req.DepartmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "department lookup failed"))
	}
	if !exists {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "unknown department"))
	}

	tempPassword, err := randomPassword()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "generate password failed"))
	}
	hash, err := utils.HashPassword(tempPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "hash password failed"))
	}

	u := model.User{
		FullName:     req.FullName,
		UniversityID: req.UniversityID,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleStaff,
		DepartmentID: &req.DepartmentID,
		IsActive:     true,
	}
	id, err := h.Users.Create(ctx, &u)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return c.JSON(http.StatusConflict, utils.Fail(utils.CodeDuplicateUser, "email or university id already registered"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "create user failed"))
	}

	_ = queue.PublishEmail(ctx, queue.EmailEvent{
		Kind:         queue.EmailKindWelcome,
		To:           u.Email,
		Name:         u.FullName,
		TempPassword: tempPassword,
	})

	return c.JSON(http.StatusCreated, utils.OK(echo.Map{
		"id":        id,
		"full_name": u.FullName,
		"email":     u.Email,
		"role":      string(u.Role),
	}))
}

type updateRoleReq struct {
	Role string `json:"role"`
}

// UpdateRole changes an account's role.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "invalid user id"))
	}
	var req updateRoleReq
	if err := c.Bind(&req); err != nil || !model.ValidRole(req.Role) {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "role must be student, staff or admin"))
	}
	if id == currentUserID(c) {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "cannot change own role"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, model.Role(req.Role)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "user not found"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "update role failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "role updated"}))
}

// SetActive activates or deactivates an account.  Deactivation is the
// system's soft delete; rows are never removed.
func (h *AdminHandler) SetActive(active bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := pathID(c, "id")
		if id == 0 {
			return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "invalid user id"))
		}
		if !active && id == currentUserID(c) {
			return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "cannot deactivate own account"))
		}

		ctx, cancel := reqCtx(c)
		defer cancel()

		if err := h.Users.SetActive(ctx, id, active); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "user not found"))
			}
			return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "update account failed"))
		}
		return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "account updated"}))
	}
}

// ListDepartments returns all departments.  Available to any
// authenticated user; students need it for the complaint form.
func (h *AdminHandler) ListDepartments(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Departments.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "list departments failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(items))
}

// ListCategories returns active categories with department names.
func (h *AdminHandler) ListCategories(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Categories.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "list categories failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(items))
}

type createCategoryReq struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DepartmentID uint64 `json:"department_id"`
}

// CreateCategory adds a routing category under a department.
func (h *AdminHandler) CreateCategory(c echo.Context) error {
	var req createCategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid body"))
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.DepartmentID == 0 {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "name and department_id are required"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	exists, err := h.Departments.Exists(ctx, req.DepartmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "department lookup failed"))
	}
	if !exists {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "unknown department"))
	}

	id, err := h.Categories.Create(ctx, req.Name, strings.TrimSpace(req.Description), req.DepartmentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "create category failed"))
	}
	return c.JSON(http.StatusCreated, utils.OK(echo.Map{"id": id, "name": req.Name}))
}

type updateCategoryReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateCategory applies a partial update to a category.
func (h *AdminHandler) UpdateCategory(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "invalid category id"))
	}
	var req updateCategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid body"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Categories.Update(ctx, id, repository.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "category not found"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "update category failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "category updated"}))
}

// randomPassword returns a 16-character urlsafe temporary password.
func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
