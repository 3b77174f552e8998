package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo is the refresh-token denylist.  A row holds the SHA-256 hash of
// a revoked token together with the token's own expiry; a matching,
// non-expired row means the token must be rejected even though its
// signature still verifies.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Denylist records a revoked token hash.  Re-revoking the same token is a
// no-op (INSERT IGNORE), which keeps logout idempotent.
func (r *TokenRepo) Denylist(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO token_denylist (token_hash, expires_at) VALUES (?,?)",
		tokenHash, expiresAt)
	return err
}

// IsDenylisted reports whether a non-expired denylist row exists for the
// hash.  Expired rows are invisible here, so purging them never changes
// observable behavior.
func (r *TokenRepo) IsDenylisted(ctx context.Context, tokenHash string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM token_denylist WHERE token_hash=? AND expires_at > NOW() LIMIT 1",
		tokenHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired deletes rows whose expiry has passed.  Housekeeping only.
func (r *TokenRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM token_denylist WHERE expires_at <= NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
