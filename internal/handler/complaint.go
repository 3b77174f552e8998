package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/policy"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/queue"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

// ticketRetries bounds the create loop when two requests race to the same
// per-year sequence number.
const ticketRetries = 3

// allowedUploadTypes is the attachment MIME whitelist.
var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// ComplaintHandler bundles dependencies for the complaint endpoints.
type ComplaintHandler struct {
	Cfg        config.Config
	DB         *sql.DB
	Complaints *repository.ComplaintRepo
	Categories *repository.CategoryRepo
	Users      *repository.UserRepo
	Remarks    *repository.RemarkRepo
}

func NewComplaintHandler(cfg config.Config, db *sql.DB, cr *repository.ComplaintRepo, cat *repository.CategoryRepo, u *repository.UserRepo, rr *repository.RemarkRepo) *ComplaintHandler {
	return &ComplaintHandler{Cfg: cfg, DB: db, Complaints: cr, Categories: cat, Users: u, Remarks: rr}
}

// Create files a new complaint from a multipart form, saving any uploads
// and inserting the complaint, attachments, and creation history entry in
// one transaction.  Ticket numbers are counted per calendar year; on a
// collision the whole transaction retries with a fresh count.
func (h *ComplaintHandler) Create(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	description := strings.TrimSpace(c.FormValue("description"))
	categoryID, _ := strconv.ParseUint(c.FormValue("category_id"), 10, 64)
	switch {
	case title == "" || description == "":
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "title and description are required"))
	case len(title) > 200:
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "title too long"))
	case categoryID == 0:
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "category_id is required"))
	}
	var location *string
	if loc := strings.TrimSpace(c.FormValue("location")); loc != "" {
		location = &loc
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cat, err := h.Categories.GetActive(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeInvalidCategory, "unknown or inactive category"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "category lookup failed"))
	}

	submitter := currentUserID(c)
	files, apiErr := h.saveUploads(c, submitter)
	if apiErr != nil {
		return c.JSON(http.StatusUnprocessableEntity, *apiErr)
	}

	var created model.Complaint
	year := time.Now().UTC().Year()
	for attempt := 0; ; attempt++ {
		count, err := h.Complaints.CountForYear(ctx, year)
		if err != nil {
			h.removeUploads(files)
			return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "ticket sequence failed"))
		}

		cm := model.Complaint{
			TicketNumber: utils.FormatTicketNumber(year, count+1),
			Title:        title,
			Description:  description,
			CategoryID:   cat.ID,
			SubmittedBy:  submitter,
			DepartmentID: cat.DepartmentID,
			Location:     location,
		}

		tx, err := h.DB.BeginTx(ctx, nil)
		if err != nil {
			h.removeUploads(files)
			return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "begin transaction failed"))
		}
		err = h.Complaints.CreateTx(ctx, tx, &cm)
		if err == nil {
			err = h.Complaints.AddAttachmentsTx(ctx, tx, cm.ID, files)
		}
		if err == nil {
			err = h.Complaints.AddHistoryTx(ctx, tx, cm.ID, submitter, nil, model.StatusOpen, nil)
		}
		if err == nil {
			err = tx.Commit()
		} else {
			_ = tx.Rollback()
		}
		if err == nil {
			created = cm
			break
		}
		if errors.Is(err, repository.ErrDuplicateTicket) && attempt < ticketRetries-1 {
			continue
		}
		h.removeUploads(files)
		if errors.Is(err, repository.ErrDuplicateTicket) {
			return c.JSON(http.StatusConflict, utils.Fail(utils.CodeConflict, "could not allocate a ticket number, retry"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "create complaint failed"))
	}

	h.announceCreated(c, &created)

	return c.JSON(http.StatusCreated, utils.OK(created))
}

// announceCreated fans out the post-commit side effects of a new
// complaint: an in-app notification for each active staff member of the
// owning department and a receipt mail to the submitter.  All best-effort.
func (h *ComplaintHandler) announceCreated(c echo.Context, cm *model.Complaint) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	staff, err := h.Users.ActiveStaffIDs(ctx, cm.DepartmentID)
	if err == nil {
		for _, id := range staff {
			_ = queue.PublishNotification(ctx, queue.NotificationEvent{
				UserID:      id,
				Title:       "New complaint " + cm.TicketNumber,
				Message:     cm.Title,
				Type:        model.NotifTypeNewComplaint,
				ReferenceID: &cm.ID,
			})
		}
	}
	if u, err := h.Users.GetByID(ctx, cm.SubmittedBy); err == nil {
		_ = queue.PublishEmail(ctx, queue.EmailEvent{
			Kind:         queue.EmailKindComplaintReceived,
			To:           u.Email,
			Name:         u.FullName,
			TicketNumber: cm.TicketNumber,
			Title:        cm.Title,
		})
	}
}

func (h *ComplaintHandler) saveUploads(c echo.Context, uploadedBy uint64) ([]model.Attachment, *utils.APIResponse) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil // no multipart body, plain form fields only
	}
	headers := form.File["attachments"]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > 5 {
		resp := utils.Fail(utils.CodeValidation, "at most 5 attachments")
		return nil, &resp
	}

	var saved []model.Attachment
	for _, fh := range headers {
		if fh.Size > h.Cfg.MaxFileSizeByte {
			h.removeUploads(saved)
			resp := utils.Fail(utils.CodeValidation, fmt.Sprintf("file %s exceeds size limit", fh.Filename))
			return nil, &resp
		}
		mime := fh.Header.Get("Content-Type")
		if !allowedUploadTypes[mime] {
			h.removeUploads(saved)
			resp := utils.Fail(utils.CodeValidation, fmt.Sprintf("file type %s not allowed", mime))
			return nil, &resp
		}
		stored := uuid.NewString() + filepath.Ext(fh.Filename)
		if err := h.writeUpload(fh, stored); err != nil {
			h.removeUploads(saved)
			resp := utils.Fail(utils.CodeInternal, "store attachment failed")
			return nil, &resp
		}
		saved = append(saved, model.Attachment{
			OriginalName: fh.Filename,
			StoredName:   stored,
			MimeType:     mime,
			FileSize:     fh.Size,
			UploadedBy:   uploadedBy,
		})
	}
	return saved, nil
}

func (h *ComplaintHandler) writeUpload(fh *multipart.FileHeader, storedName string) error {
	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return err
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(h.Cfg.UploadDir, storedName))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// removeUploads deletes stored files after a failed create.
func (h *ComplaintHandler) removeUploads(files []model.Attachment) {
	for _, f := range files {
		_ = os.Remove(filepath.Join(h.Cfg.UploadDir, f.StoredName))
	}
}

// List returns the caller's visible complaints with optional filters.
// Scoping is part of the query itself: students see their own, staff their
// department, admins everything.
func (h *ComplaintHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, err := actorFor(ctx, c, h.Users)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load actor failed"))
	}
	scope := policy.ScopeFor(actor, queryUint(c, "department_id"))

	var f repository.ListFilters
	if raw := c.QueryParam("status"); raw != "" {
		if !model.ValidStatus(raw) {
			return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "unknown status"))
		}
		s := model.Status(raw)
		f.Status = &s
	}
	f.CategoryID = queryUint(c, "category_id")
	if raw := c.QueryParam("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			f.From = &t
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			end := t.Add(24 * time.Hour)
			f.To = &end
		}
	}
	f.Sort = c.QueryParam("sort")
	f.Order = c.QueryParam("order")
	f.Page, f.Limit = pageParams(c)

	items, total, err := h.Complaints.List(ctx, scope, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "list complaints failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{
		"items": items,
		"total": total,
		"page":  f.Page,
		"limit": f.Limit,
	}))
}

// load fetches the complaint and enforces read access for the caller.
// The bool reports whether a response was already written.
func (h *ComplaintHandler) load(c echo.Context) (repository.Detail, policy.Actor, bool) {
	id := pathID(c, "id")
	if id == 0 {
		_ = c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "invalid complaint id"))
		return repository.Detail{}, policy.Actor{}, false
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "complaint not found"))
		} else {
			_ = c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load complaint failed"))
		}
		return repository.Detail{}, policy.Actor{}, false
	}
	actor, err := actorFor(ctx, c, h.Users)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load actor failed"))
		return repository.Detail{}, policy.Actor{}, false
	}
	if err := policy.CanRead(actor, &d.Complaint); err != nil {
		_ = c.JSON(http.StatusForbidden, utils.Fail(utils.CodeForbidden, "not allowed to access this complaint"))
		return repository.Detail{}, policy.Actor{}, false
	}
	return d, actor, true
}

// Get returns one complaint with attachments and joined names.
func (h *ComplaintHandler) Get(c echo.Context) error {
	d, _, ok := h.load(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, utils.OK(d))
}

type updateStatusReq struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

// UpdateStatus drives the lifecycle state machine.  The transition is
// validated against the policy table, then applied with the expected prior
// status in the WHERE clause so a concurrent transition loses cleanly
// instead of overwriting.
func (h *ComplaintHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "invalid body"))
	}

	d, actor, ok := h.load(c)
	if !ok {
		return nil
	}

	target := model.Status(req.Status)
	if err := policy.CheckTransition(d.Status, target, actor.Role); err != nil {
		switch {
		case errors.Is(err, policy.ErrUnknownStatus):
			return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "unknown status"))
		case errors.Is(err, policy.ErrInvalidTransition):
			return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeInvalidTransition,
				fmt.Sprintf("cannot move from %s to %s", d.Status, target)))
		default:
			return c.JSON(http.StatusForbidden, utils.Fail(utils.CodeForbidden, "role may not perform this transition"))
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "begin transaction failed"))
	}
	applied, err := h.Complaints.UpdateStatusTx(ctx, tx, d.ID, d.Status, target)
	if err == nil && applied {
		from := d.Status
		err = h.Complaints.AddHistoryTx(ctx, tx, d.ID, actor.UserID, &from, target, req.Note)
	}
	if err == nil && applied {
		err = tx.Commit()
	} else {
		_ = tx.Rollback()
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "update status failed"))
	}
	if !applied {
		// Someone else transitioned the complaint first.
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeInvalidTransition, "complaint status changed concurrently, reload and retry"))
	}

	h.announceStatus(c, &d, target)

	return c.JSON(http.StatusOK, utils.OK(echo.Map{
		"id":     d.ID,
		"status": target,
	}))
}

// announceStatus emits the post-commit side effects of a transition: the
// submitter gets an in-app notification for in_progress and resolved, and
// a status mail.  Best-effort.
func (h *ComplaintHandler) announceStatus(c echo.Context, d *repository.Detail, target model.Status) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if target == model.StatusInProgress || target == model.StatusResolved {
		_ = queue.PublishNotification(ctx, queue.NotificationEvent{
			UserID:      d.SubmittedBy,
			Title:       "Complaint " + d.TicketNumber + " updated",
			Message:     fmt.Sprintf("Your complaint is now %s", strings.ReplaceAll(string(target), "_", " ")),
			Type:        model.NotifTypeStatusUpdate,
			ReferenceID: &d.ID,
		})
	}
	_ = queue.PublishEmail(ctx, queue.EmailEvent{
		Kind:         queue.EmailKindStatusUpdate,
		To:           d.SubmitterEmail,
		Name:         d.SubmitterName,
		TicketNumber: d.TicketNumber,
		Status:       string(target),
	})
}

type addRemarkReq struct {
	Content string `json:"content"`
}

// AddRemark appends a staff/admin note to a complaint.
func (h *ComplaintHandler) AddRemark(c echo.Context) error {
	var req addRemarkReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusUnprocessableEntity, utils.Fail(utils.CodeValidation, "content is required"))
	}

	d, actor, ok := h.load(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	row, err := h.Remarks.Add(ctx, d.ID, actor.UserID, strings.TrimSpace(req.Content))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "add remark failed"))
	}
	return c.JSON(http.StatusCreated, utils.OK(row))
}

// ListRemarks returns a complaint's remarks, oldest first.
func (h *ComplaintHandler) ListRemarks(c echo.Context) error {
	d, _, ok := h.load(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Remarks.ListByComplaint(ctx, d.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "list remarks failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(rows))
}

// History returns the complaint's audit trail in chronological order.
func (h *ComplaintHandler) History(c echo.Context) error {
	d, _, ok := h.load(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Complaints.History(ctx, d.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load history failed"))
	}
	return c.JSON(http.StatusOK, utils.OK(rows))
}

// Delete removes a complaint and its dependent rows.  Admin only.
func (h *ComplaintHandler) Delete(c echo.Context) error {
	d, actor, ok := h.load(c)
	if !ok {
		return nil
	}
	if err := policy.CanDelete(actor); err != nil {
		return c.JSON(http.StatusForbidden, utils.Fail(utils.CodeForbidden, "only admins may delete complaints"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// Resolve stored file names before the rows cascade away.
	var stored []string
	for _, a := range d.Attachments {
		if att, err := h.Complaints.GetAttachment(ctx, a.ID); err == nil {
			stored = append(stored, att.StoredName)
		}
	}
	if err := h.Complaints.Delete(ctx, d.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "delete complaint failed"))
	}
	// Files go last; a leftover file is harmless, a dangling row is not.
	for _, name := range stored {
		_ = os.Remove(filepath.Join(h.Cfg.UploadDir, name))
	}
	return c.JSON(http.StatusOK, utils.OK(echo.Map{"message": "complaint deleted"}))
}

// DownloadAttachment streams a stored file under its original name.  The
// complaint's read policy applies.
func (h *ComplaintHandler) DownloadAttachment(c echo.Context) error {
	d, _, ok := h.load(c)
	if !ok {
		return nil
	}
	attID := pathID(c, "attachmentId")
	if attID == 0 {
		return c.JSON(http.StatusBadRequest, utils.Fail(utils.CodeBadRequest, "invalid attachment id"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	att, err := h.Complaints.GetAttachment(ctx, attID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "attachment not found"))
		}
		return c.JSON(http.StatusInternalServerError, utils.Fail(utils.CodeInternal, "load attachment failed"))
	}
	if att.ComplaintID != d.ID {
		return c.JSON(http.StatusNotFound, utils.Fail(utils.CodeNotFound, "attachment not found"))
	}
	return c.Attachment(filepath.Join(h.Cfg.UploadDir, att.StoredName), att.OriginalName)
}
