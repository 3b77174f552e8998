package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// NotificationHandler exposes the per-user notification inbox.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

// List returns the caller's newest notifications plus the unread count.
func (h *NotificationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	uid := currentUserID(c)

	items, err := h.Notifications.ListRecent(ctx, uid, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "list notifications failed"))
	}
	unread, err := h.Notifications.UnreadCount(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "count notifications failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{
		"items":  items,
		"unread": unread,
	}))
}

// UnreadCount returns only the unread tally, for badge polling.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	unread, err := h.Notifications.UnreadCount(ctx, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "count notifications failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"unread": unread}))
}

// MarkRead marks one owned notification as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "invalid notification id"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, currentUserID(c)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "notification not found"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "mark read failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "marked read"}))
}

// MarkAllRead marks every unread notification the caller owns.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkAllRead(ctx, currentUserID(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "mark all read failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "all marked read"}))
}
