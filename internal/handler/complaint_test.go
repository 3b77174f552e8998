package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

func newComplaintHandler(t *testing.T) (*ComplaintHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	h := NewComplaintHandler(testCfg(), db,
		repository.NewComplaintRepo(db),
		repository.NewCategoryRepo(db),
		repository.NewUserRepo(db),
		repository.NewRemarkRepo(db))
	return h, mock, func() { db.Close() }
}

var detailCols = []string{
	"id", "ticket_number", "title", "description", "status",
	"category_id", "submitted_by", "assigned_to", "department_id",
	"location", "resolved_at", "created_at", "updated_at",
	"cat_name", "dept_name", "submitter_name", "submitter_email", "assignee_name",
}

func complaintRow(id uint64, status string, submittedBy, departmentID uint64) *sqlmock.Rows {
	return sqlmock.NewRows(detailCols).AddRow(
		id, "ASTU-2026-00042", "Broken projector", "Room 204 projector dead", status,
		3, submittedBy, nil, departmentID,
		nil, nil, time.Now(), time.Now(),
		"Classroom Maintenance", "Facilities Management", "Abebe Kebede", "abebe@astu.edu.et", nil)
}

// expectLoad queues the queries h.load issues: the complaint join, its
// attachments, and the staff actor's department lookup.
func expectLoad(mock sqlmock.Sqlmock, status string, submittedBy, complaintDept uint64, actorID uint64, actorRole string, actorDept interface{}) {
	mock.ExpectQuery("SELECT (.+) FROM complaints c").
		WillReturnRows(complaintRow(42, status, submittedBy, complaintDept))
	mock.ExpectQuery("SELECT (.+) FROM complaint_attachments WHERE complaint_id=").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_name", "mime_type", "file_size", "created_at"}))
	if actorRole == "staff" {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
			WillReturnRows(sqlmock.NewRows(strings.Split(userCols, ", ")).
				AddRow(actorID, "Staff Member", "STF-1", "staff@astu.edu.et", "x", actorRole,
					actorDept, true, 0, nil, nil, time.Now(), time.Now()))
	}
}

func doStatusUpdate(t *testing.T, h *ComplaintHandler, userID uint64, role, body string) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/complaints/42/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", userID)
	c.Set("role", role)
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var env utils.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, rec.Body.String())
	}
	return rec, env
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	h, mock, done := newComplaintHandler(t)
	defer done()

	// resolved -> in_progress is not in the table for any role.
	expectLoad(mock, "resolved", 7, 2, 9, "staff", 2)

	rec, env := doStatusUpdate(t, h, 9, "staff", `{"status":"in_progress"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != utils.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION, got %+v", env.Error)
	}
}

func TestUpdateStatusRoleGate(t *testing.T) {
	h, mock, done := newComplaintHandler(t)
	defer done()

	// open -> closed is a legal edge, but only for admins.
	expectLoad(mock, "open", 7, 2, 9, "staff", 2)

	rec, env := doStatusUpdate(t, h, 9, "staff", `{"status":"closed"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != utils.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %+v", env.Error)
	}
}

func TestUpdateStatusUnknownTarget(t *testing.T) {
	h, mock, done := newComplaintHandler(t)
	defer done()

	expectLoad(mock, "open", 7, 2, 9, "staff", 2)

	rec, env := doStatusUpdate(t, h, 9, "staff", `{"status":"escalated"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != utils.CodeBadRequest {
		t.Fatalf("expected BAD_REQUEST, got %+v", env.Error)
	}
}

func TestUpdateStatusOtherDepartmentForbidden(t *testing.T) {
	h, mock, done := newComplaintHandler(t)
	defer done()

	// Complaint lives in department 2, the staff actor in department 5.
	expectLoad(mock, "open", 7, 2, 9, "staff", 5)

	rec, env := doStatusUpdate(t, h, 9, "staff", `{"status":"in_progress"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != utils.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %+v", env.Error)
	}
}

func TestUpdateStatusConcurrentChangeConflicts(t *testing.T) {
	h, mock, done := newComplaintHandler(t)
	defer done()

	expectLoad(mock, "open", 7, 2, 9, "staff", 2)
	// The conditional WHERE status=? matches zero rows: someone else moved
	// the complaint between the read and the write.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE complaints SET status=").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rec, env := doStatusUpdate(t, h, 9, "staff", `{"status":"in_progress"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != utils.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION, got %+v", env.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetComplaintStudentOwnOnly(t *testing.T) {
	h, mock, done := newComplaintHandler(t)
	defer done()

	// Submitted by user 7, requested by student 8.
	expectLoad(mock, "open", 7, 2, 8, "student", nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/complaints/42", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", uint64(8))
	c.Set("role", "student")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}
