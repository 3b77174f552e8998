package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

func TestUserRepoCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("Abebe Kebede", "ASTU/1234/14", "abebe@astu.edu.et", "hash", "student", nil).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), &model.User{
		FullName:     "Abebe Kebede",
		UniversityID: "ASTU/1234/14",
		Email:        "Abebe@astu.edu.et", // normalized to lowercase before the insert
		PasswordHash: "hash",
		Role:         model.RoleStudent,
	})
	if err != ErrDuplicateUser {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepoGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs("missing@astu.edu.et").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewUserRepo(db)
	_, err = repo.GetByEmail(context.Background(), "missing@astu.edu.et")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepoLoginCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	lock := time.Now().UTC().Add(15 * time.Minute)
	mock.ExpectExec("UPDATE users SET failed_logins=.+ locked_until=").
		WithArgs(5, &lock, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET failed_logins=0, locked_until=NULL, last_login=NOW").
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	if err := repo.RecordLoginFailure(context.Background(), 9, 5, &lock); err != nil {
		t.Fatalf("RecordLoginFailure: %v", err)
	}
	if err := repo.RecordLoginSuccess(context.Background(), 9); err != nil {
		t.Fatalf("RecordLoginSuccess: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepoUpdateRoleMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE users SET role=").
		WithArgs("staff", uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	if err := repo.UpdateRole(context.Background(), 77, model.RoleStaff); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
