package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tirgul/core/session"
)

type sessionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	RevokedAt null.Time `db:"revoked_at"`
}

func (r sessionRow) session() session.Session {
	s := session.Session{
		ID:        r.ID,
		UserID:    r.UserID,
		Email:     r.Email,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.RevokedAt.Valid {
		at := r.RevokedAt.Time.UTC()
		s.RevokedAt = &at
	}
	return s
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s session.Session) (session.Session, error) {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO user_session (id, user_id, email, created_at, revoked_at) VALUES ($1, $2, $3, $4, $5)",
		s.ID, s.UserID, s.Email, s.CreatedAt.UTC(), null.TimeFromPtr(s.RevokedAt))
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (session.Session, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row, "SELECT id, user_id, email, created_at, revoked_at FROM user_session WHERE id = $1", id)
	if err != nil {
		return session.Session{}, trapNoRowsErr(err, session.ErrNotFound, "getting session")
	}
	return row.session(), nil
}

func (repo *sessionRepository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx, "UPDATE user_session SET revoked_at = COALESCE(revoked_at, $1) WHERE id = $2", at.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "revoking session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (repo *sessionRepository) RevokeUserSessions(ctx context.Context, userID, exceptID string, at time.Time) (int64, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE user_session SET revoked_at = $1 WHERE user_id = $2 AND id <> $3 AND revoked_at IS NULL",
		at.UTC(), userID, exceptID)
	if err != nil {
		return 0, errors.Wrap(err, "revoking sessions")
	}
	return res.RowsAffected()
}
