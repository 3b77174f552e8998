package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/config"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/repository"
	"github.com/fahamijemal/astu-smart-complaints-backend/internal/utils"
)

func testCfg() config.Config {
	return config.Config{
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTTLMin:     15,
		RefreshTTLDays:   7,
		BcryptCost:       4,
	}
}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db), repository.NewTokenRepo(db))
	return h, mock, func() { db.Close() }
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var env utils.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, rec.Body.String())
	}
	return rec, env
}

const userCols = "id, full_name, university_id, email, password_hash, role, department_id, is_active, failed_logins, locked_until, last_login, created_at, updated_at"

func userRow(id uint64, email, hash, role string, active bool, failed int, lockedUntil interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(userCols, ", ")).
		AddRow(id, "Test User", "UGR-1234", email, hash, role, nil, active, failed, lockedUntil, nil, time.Now(), time.Now())
}

func TestLoginWrongPasswordTriggersLockout(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := utils.HashPassword("right-password", 4)
	// Fifth consecutive failure: the counter reaches the threshold and the
	// lockout expiry must be stored.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("s@astu.edu.et").
		WillReturnRows(userRow(7, "s@astu.edu.et", hash, "student", true, 4, nil))
	mock.ExpectExec("UPDATE users SET failed_logins=").
		WithArgs(5, sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login",
		`{"email":"s@astu.edu.et","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != utils.CodeInvalidCreds {
		t.Fatalf("expected INVALID_CREDENTIALS, got %+v", env.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLoginLockedAccountRejectsCorrectPassword(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := utils.HashPassword("right-password", 4)
	until := time.Now().Add(10 * time.Minute)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(userRow(7, "s@astu.edu.et", hash, "student", true, 5, until))

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login",
		`{"email":"s@astu.edu.et","password":"right-password"}`)
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != utils.CodeAccountLocked {
		t.Fatalf("expected ACCOUNT_LOCKED, got %+v", env.Error)
	}
	if !strings.Contains(env.Error.Message, "minutes") {
		t.Fatalf("lockout message should report remaining minutes: %q", env.Error.Message)
	}
}

func TestLoginDisabledBeforeLockout(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := utils.HashPassword("right-password", 4)
	until := time.Now().Add(10 * time.Minute)
	// Disabled and locked at once: the disabled answer wins.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(userRow(7, "s@astu.edu.et", hash, "student", false, 5, until))

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login",
		`{"email":"s@astu.edu.et","password":"right-password"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != utils.CodeAccountDisabled {
		t.Fatalf("expected ACCOUNT_DISABLED, got %+v", env.Error)
	}
}

func TestLoginUnknownEmailMatchesWrongPasswordAnswer(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(sqlmock.NewRows(strings.Split(userCols, ", ")))

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login",
		`{"email":"ghost@astu.edu.et","password":"whatever"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != utils.CodeInvalidCreds {
		t.Fatalf("expected INVALID_CREDENTIALS, got %+v", env.Error)
	}
}

func TestLoginSuccessResetsCounters(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := utils.HashPassword("right-password", 4)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(userRow(7, "s@astu.edu.et", hash, "student", true, 3, nil))
	mock.ExpectExec("UPDATE users SET failed_logins=0").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/v1/auth/login",
		`{"email":"s@astu.edu.et","password":"right-password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !env.Success || env.Data == nil {
		t.Fatalf("expected token pair in envelope, got %+v", env)
	}
	data := env.Data.(map[string]interface{})
	for _, part := range []string{"access", "refresh", "user"} {
		if _, ok := data[part]; !ok {
			t.Fatalf("response missing %q", part)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRefreshRotatesOnce(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	refresh, err := utils.NewRefreshToken(testCfg().JWTRefreshSecret, 7, "student", "s@astu.edu.et", 7)
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	body := fmt.Sprintf(`{"refresh_token":%q}`, refresh.Token)

	// First redemption: not denylisted, user active, old token burned.
	mock.ExpectQuery("SELECT 1 FROM token_denylist WHERE token_hash=").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	hash, _ := utils.HashPassword("x", 4)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(7, "s@astu.edu.et", hash, "student", true, 0, nil))
	mock.ExpectExec("INSERT IGNORE INTO token_denylist").
		WithArgs(utils.HashToken(refresh.Token), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, env := doJSON(t, h.Refresh, http.MethodPost, "/api/v1/auth/refresh", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("first refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("first refresh should succeed: %+v", env)
	}

	// Replay: the hash is now in the denylist.
	mock.ExpectQuery("SELECT 1 FROM token_denylist WHERE token_hash=").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec, env = doJSON(t, h.Refresh, http.MethodPost, "/api/v1/auth/refresh", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh: expected 401, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != utils.CodeTokenRevoked {
		t.Fatalf("expected TOKEN_REVOKED, got %+v", env.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestChangePasswordWrongCurrentLeavesHashAlone(t *testing.T) {
	h, mock, done := newAuthHandler(t)
	defer done()

	hash, _ := utils.HashPassword("actual-password", 4)
	// Only the lookup is expected; no UPDATE may follow.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(7, "s@astu.edu.et", hash, "student", true, 0, nil))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password",
		strings.NewReader(`{"current_password":"guess","new_password":"longenough1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", "student")
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var env utils.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Error == nil || env.Error.Code != utils.CodeWrongPassword {
		t.Fatalf("expected WRONG_PASSWORD, got %+v", env.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements ran: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h, _, done := newAuthHandler(t)
	defer done()

	// Signed with the access secret, so the refresh parser must refuse it.
	access, err := utils.NewAccessToken(testCfg().JWTAccessSecret, 7, "student", "s@astu.edu.et", 15)
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	rec, env := doJSON(t, h.Refresh, http.MethodPost, "/api/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, access.Token))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != utils.CodeTokenInvalid {
		t.Fatalf("expected TOKEN_INVALID, got %+v", env.Error)
	}
}
