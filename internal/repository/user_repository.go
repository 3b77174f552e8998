package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// UserRepo persists user accounts, credentials and the login-lockout
// counters.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, full_name, university_id, email, password_hash, role, department_id, is_active, failed_logins, locked_until, last_login, created_at, updated_at"

// Create inserts a user and returns its ID.  Email is normalized to
// lowercase; uniqueness of email and university id is enforced by the
// schema, surfacing here as ErrDuplicateUser.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, university_id, email, password_hash, role, department_id) VALUES (?,?,?,?,?,?)",
		u.FullName, u.UniversityID, u.Email, u.PasswordHash, string(u.Role), u.DepartmentID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicateUser
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByEmail fetches a user by normalized email.  Returns ErrNotFound when
// no account exists so callers can keep the invalid-credentials message
// identical for unknown email and wrong password.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u           model.User
		role        string
		deptID      sql.NullInt64
		lockedUntil sql.NullTime
		lastLogin   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FullName, &u.UniversityID, &u.Email, &u.PasswordHash,
		&role, &deptID, &u.IsActive, &u.FailedLogins, &lockedUntil, &lastLogin,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if deptID.Valid {
		d := uint64(deptID.Int64)
		u.DepartmentID = &d
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// RecordLoginFailure bumps the failed counter and, once the threshold is
// reached, stores the lockout expiry computed by the caller.
func (r *UserRepo) RecordLoginFailure(ctx context.Context, userID uint64, failed int, lockedUntil *time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_logins=?, locked_until=? WHERE id=?",
		failed, lockedUntil, userID)
	return err
}

// RecordLoginSuccess clears the lockout state and stamps last_login.
func (r *UserRepo) RecordLoginSuccess(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_logins=0, locked_until=NULL, last_login=NOW() WHERE id=?", userID)
	return err
}

// UpdatePassword replaces the stored credential hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, userID)
	return err
}

// UpdateRole changes a user's role.  Returns ErrNotFound when the user does
// not exist.
func (r *UserRepo) UpdateRole(ctx context.Context, userID uint64, role model.Role) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", string(role), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetActive flips the is_active flag; accounts are never physically
// deleted.
func (r *UserRepo) SetActive(ctx context.Context, userID uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// UserSummary is the admin listing projection joined with the department
// name.
type UserSummary struct {
	ID             uint64     `json:"id"`
	FullName       string     `json:"full_name"`
	UniversityID   string     `json:"university_id"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	DepartmentName *string    `json:"department_name,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// List returns a page of users matching the search term against name or
// email, newest first, plus the unpaged total.
func (r *UserRepo) List(ctx context.Context, search string, limit, offset int) ([]UserSummary, int, error) {
	pattern := "%" + search + "%"

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE (full_name LIKE ? OR email LIKE ?)",
		pattern, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT u.id, u.full_name, u.university_id, u.email, u.role, u.is_active,
		       d.name, u.last_login, u.created_at
		FROM users u LEFT JOIN departments d ON d.id = u.department_id
		WHERE (u.full_name LIKE ? OR u.email LIKE ?)
		ORDER BY u.created_at DESC LIMIT ? OFFSET ?`,
		pattern, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []UserSummary
	for rows.Next() {
		var (
			s         UserSummary
			deptName  sql.NullString
			lastLogin sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.FullName, &s.UniversityID, &s.Email, &s.Role,
			&s.IsActive, &deptName, &lastLogin, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		if deptName.Valid {
			n := deptName.String
			s.DepartmentName = &n
		}
		if lastLogin.Valid {
			t := lastLogin.Time
			s.LastLogin = &t
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Profile is the self-view of an account including the department name.
type Profile struct {
	ID             uint64     `json:"id"`
	FullName       string     `json:"full_name"`
	UniversityID   string     `json:"university_id"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	DepartmentID   *uint64    `json:"department_id,omitempty"`
	DepartmentName *string    `json:"department_name,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// GetProfile returns the active user's profile or ErrNotFound for missing
// or deactivated accounts.
func (r *UserRepo) GetProfile(ctx context.Context, userID uint64) (Profile, error) {
	var (
		p         Profile
		deptID    sql.NullInt64
		deptName  sql.NullString
		lastLogin sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.full_name, u.university_id, u.email, u.role,
		       u.department_id, d.name, u.last_login, u.created_at
		FROM users u LEFT JOIN departments d ON d.id = u.department_id
		WHERE u.id = ? AND u.is_active = TRUE`, userID).
		Scan(&p.ID, &p.FullName, &p.UniversityID, &p.Email, &p.Role,
			&deptID, &deptName, &lastLogin, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if deptID.Valid {
		d := uint64(deptID.Int64)
		p.DepartmentID = &d
	}
	if deptName.Valid {
		n := deptName.String
		p.DepartmentName = &n
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLogin = &t
	}
	return p, nil
}

// ActiveStaffIDs returns the ids of active staff members in a department,
// used for creation fan-out.
func (r *UserRepo) ActiveStaffIDs(ctx context.Context, departmentID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id FROM users WHERE department_id=? AND role='staff' AND is_active=TRUE", departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
