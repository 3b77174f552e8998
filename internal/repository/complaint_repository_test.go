package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/policy"
)

// Creation writes the complaint and its NULL->open history row inside one
// transaction; both statements commit together.
func TestComplaintCreateWithHistoryTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO complaints").
		WithArgs("ASTU-2026-00042", "Broken projector", "Room 204 projector dead", uint64(3), uint64(10), uint64(2), nil).
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectExec("INSERT INTO complaint_history").
		WithArgs(uint64(55), uint64(10), nil, "open", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewComplaintRepo(db)
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	c := &model.Complaint{
		TicketNumber: "ASTU-2026-00042",
		Title:        "Broken projector",
		Description:  "Room 204 projector dead",
		CategoryID:   3,
		SubmittedBy:  10,
		DepartmentID: 2,
	}
	if err := repo.CreateTx(ctx, tx, c); err != nil {
		t.Fatalf("CreateTx: %v", err)
	}
	if c.ID != 55 || c.Status != model.StatusOpen {
		t.Fatalf("complaint not populated: %+v", c)
	}
	note := "Complaint submitted"
	if err := repo.AddHistoryTx(ctx, tx, c.ID, 10, nil, model.StatusOpen, &note); err != nil {
		t.Fatalf("AddHistoryTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestComplaintCreateTicketCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO complaints").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ASTU-2026-00042'"))
	mock.ExpectRollback()

	repo := NewComplaintRepo(db)
	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)
	err = repo.CreateTx(ctx, tx, &model.Complaint{TicketNumber: "ASTU-2026-00042"})
	if err != ErrDuplicateTicket {
		t.Fatalf("expected ErrDuplicateTicket, got %v", err)
	}
	_ = tx.Rollback()
}

// The conditional update carries the expected prior status; a concurrent
// transition makes it affect zero rows and the caller sees false.
func TestComplaintUpdateStatusTxConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE complaints SET status=.+ WHERE id=.+ AND status=").
		WithArgs("in_progress", nil, uint64(5), "open").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE complaints SET status=.+ WHERE id=.+ AND status=").
		WithArgs("resolved", sqlmock.AnyArg(), uint64(5), "open").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewComplaintRepo(db)
	ctx := context.Background()
	tx, _ := db.BeginTx(ctx, nil)

	ok, err := repo.UpdateStatusTx(ctx, tx, 5, model.StatusOpen, model.StatusInProgress)
	if err != nil || !ok {
		t.Fatalf("expected applied transition, got ok=%v err=%v", ok, err)
	}
	// Second write with a stale expected status: zero rows affected.
	ok, err = repo.UpdateStatusTx(ctx, tx, 5, model.StatusOpen, model.StatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatusTx: %v", err)
	}
	if ok {
		t.Fatal("stale precondition must not report success")
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// The list query embeds the policy scope in the WHERE clause.
func TestComplaintListScopedToSubmitter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	uid := uint64(42)
	mock.ExpectQuery("SELECT COUNT.+ FROM complaints c WHERE 1=1 AND c.submitted_by=").
		WithArgs(uid).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT c.id, c.ticket_number.+ AND c.submitted_by=.+ ORDER BY c.created_at DESC").
		WithArgs(uid, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "ticket_number", "title", "status", "cat", "dept", "submitter", "attachments", "resolved_at", "created_at", "updated_at",
		}).AddRow(1, "ASTU-2026-00001", "Wifi down", "open", "Internet", "ICT", "Abebe", 0, nil, time.Now(), time.Now()))

	repo := NewComplaintRepo(db)
	scope := policy.ListScope{SubmittedBy: &uid}
	out, total, err := repo.List(context.Background(), scope, ListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(out) != 1 || out[0].TicketNumber != "ASTU-2026-00001" {
		t.Fatalf("unexpected result: total=%d rows=%+v", total, out)
	}
}

// A staff member with no department has an empty scope and an empty page,
// with no query issued at all.
func TestComplaintListEmptyScope(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewComplaintRepo(db)
	out, total, err := repo.List(context.Background(), policy.ListScope{Empty: true}, ListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 || out != nil {
		t.Fatalf("empty scope must return nothing, got total=%d rows=%v", total, out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run for an empty scope: %v", err)
	}
}
