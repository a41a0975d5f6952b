package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"practice-scheduler/internal/model"
)

const apptCols = `a.id, a.client_id, a.starts_at, a.duration_min, COALESCE(a.notes,''), a.status,
	a.confirm_token, a.cancel_token, a.reschedule_token,
	a.confirmed_at, a.cancelled_at, a.rescheduled_at, a.reminder_sent_at,
	a.created_at, a.updated_at, COALESCE(c.name,''), COALESCE(c.email,'')`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(
		&a.ID, &a.ClientID, &a.StartsAt, &a.DurationMin, &a.Notes, &a.Status,
		&a.ConfirmToken, &a.CancelToken, &a.RescheduleToken,
		&a.ConfirmedAt, &a.CancelledAt, &a.RescheduledAt, &a.ReminderSentAt,
		&a.CreatedAt, &a.UpdatedAt, &a.ClientName, &a.ClientEmail,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAppointment inserts a with its tokens. A token clash is not retried.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments
		   (id, client_id, starts_at, duration_min, notes, status,
		    confirm_token, cancel_token, reschedule_token)
		 VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8,$9)
		 RETURNING created_at, updated_at`,
		a.ID, a.ClientID, a.StartsAt, a.DurationMin, a.Notes, a.Status,
		a.ConfirmToken, a.CancelToken, a.RescheduleToken,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if name, dup := uniqueConstraint(err); dup {
		if strings.Contains(name, "token") {
			return ErrTokenCollision
		}
		return ErrDuplicate
	}
	return err
}

// AppointmentByToken matches token against all three token columns.
func (s *Store) AppointmentByToken(ctx context.Context, token string) (*model.Appointment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+apptCols+`
		 FROM appointments a LEFT JOIN clients c ON c.id = a.client_id
		 WHERE a.confirm_token = $1 OR a.cancel_token = $1 OR a.reschedule_token = $1`,
		token,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ApplyChange writes one transition. Timestamps already on the row are kept
// unless the change sets them again.
func (s *Store) ApplyChange(ctx context.Context, id string, ch model.Change) (*model.Appointment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`WITH u AS (
		   UPDATE appointments SET
		     status         = $2,
		     confirmed_at   = COALESCE($3::timestamptz, confirmed_at),
		     cancelled_at   = COALESCE($4::timestamptz, cancelled_at),
		     rescheduled_at = COALESCE($5::timestamptz, rescheduled_at),
		     starts_at      = COALESCE($6::timestamptz, starts_at),
		     updated_at     = NOW()
		   WHERE id = $1
		   RETURNING *
		 )
		 SELECT `+apptCols+` FROM u a LEFT JOIN clients c ON c.id = a.client_id`,
		id, ch.Status, ch.ConfirmedAt, ch.CancelledAt, ch.RescheduledAt, ch.StartsAt,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// DueForReminder lists unsent, not cancelled appointments starting in [from, to].
func (s *Store) DueForReminder(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+apptCols+`
		 FROM appointments a LEFT JOIN clients c ON c.id = a.client_id
		 WHERE a.starts_at >= $1 AND a.starts_at <= $2
		   AND a.reminder_sent_at IS NULL
		   AND a.status <> $3
		 ORDER BY a.starts_at`,
		from, to, model.StatusCancelled,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET reminder_sent_at = $2, updated_at = NOW() WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextAppointment is the earliest appointment of a client starting at or after now.
func (s *Store) NextAppointment(ctx context.Context, userID, clientID string, now time.Time) (*model.Appointment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+apptCols+`
		 FROM appointments a JOIN clients c ON c.id = a.client_id
		 WHERE a.client_id = $1 AND c.user_id = $2 AND a.starts_at >= $3
		 ORDER BY a.starts_at
		 LIMIT 1`,
		clientID, userID, now,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// DeleteAppointment removes the row for good. Ownership goes through the client.
func (s *Store) DeleteAppointment(ctx context.Context, id, userID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM appointments a USING clients c
		 WHERE a.id = $1 AND c.id = a.client_id AND c.user_id = $2`,
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
