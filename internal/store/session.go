package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"practice-scheduler/internal/model"
)

const sessionCols = `s.id, s.client_id, s.session_date, COALESCE(s.location,''), COALESCE(s.focus,''),
	COALESCE(s.notes,''), s.progress_score, s.price_cents, s.paid_cents, s.created_at, s.updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(
		&s.ID, &s.ClientID, &s.Date, &s.Location, &s.Focus,
		&s.Notes, &s.ProgressScore, &s.PriceCents, &s.PaidCents, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSession inserts sess for a client owned by userID. A new session is unpaid.
func (s *Store) CreateSession(ctx context.Context, userID string, sess *model.Session) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	sess.PaidCents = 0
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions
		   (id, client_id, session_date, location, focus, notes, progress_score, price_cents)
		 SELECT $1, c.id, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), $7, $8
		 FROM clients c WHERE c.id = $2 AND c.user_id = $9
		 RETURNING created_at, updated_at`,
		sess.ID, sess.ClientID, sess.Date, sess.Location, sess.Focus, sess.Notes,
		sess.ProgressScore, sess.PriceCents, userID,
	).Scan(&sess.CreatedAt, &sess.UpdatedAt)
	return notFound(err)
}

// ListSessions returns a client's sessions oldest first.
func (s *Store) ListSessions(ctx context.Context, userID, clientID string) ([]model.Session, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionCols+`
		 FROM sessions s JOIN clients c ON c.id = s.client_id
		 WHERE s.client_id = $1 AND c.user_id = $2
		 ORDER BY s.session_date, s.created_at`,
		clientID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// UpdateSession rewrites the editable fields and leaves paid_cents alone.
// sess is refreshed from the stored row.
func (s *Store) UpdateSession(ctx context.Context, userID string, sess *model.Session) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	got, err := scanSession(s.pool.QueryRow(ctx,
		`UPDATE sessions s SET
		   session_date = $3, location = NULLIF($4,''), focus = NULLIF($5,''), notes = NULLIF($6,''),
		   progress_score = $7, price_cents = $8, updated_at = NOW()
		 FROM clients c
		 WHERE s.id = $1 AND c.id = s.client_id AND c.user_id = $2
		 RETURNING `+sessionCols,
		sess.ID, userID, sess.Date, sess.Location, sess.Focus, sess.Notes,
		sess.ProgressScore, sess.PriceCents,
	))
	if err != nil {
		return notFound(err)
	}
	*sess = *got
	return nil
}

// MarkSessionPaid settles a session in full: paid_cents becomes price_cents.
func (s *Store) MarkSessionPaid(ctx context.Context, userID, id string) (*model.Session, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	sess, err := scanSession(s.pool.QueryRow(ctx,
		`UPDATE sessions s SET paid_cents = s.price_cents, updated_at = NOW()
		 FROM clients c
		 WHERE s.id = $1 AND c.id = s.client_id AND c.user_id = $2
		 RETURNING `+sessionCols,
		id, userID,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, userID, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions s USING clients c
		 WHERE s.id = $1 AND c.id = s.client_id AND c.user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
