package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"practice-scheduler/internal/model"
)

const clientCols = `id, user_id, name, COALESCE(email,''), COALESCE(phone,''),
	COALESCE(goals,''), COALESCE(notes,''), created_at`

func scanClient(row pgx.Row) (*model.Client, error) {
	c := &model.Client{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Goals, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *model.Client) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.pool.QueryRow(ctx,
		`INSERT INTO clients (id, user_id, name, email, phone, goals, notes)
		 VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),NULLIF($6,''),NULLIF($7,''))
		 RETURNING created_at`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Goals, c.Notes,
	).Scan(&c.CreatedAt)
}

func (s *Store) ListClients(ctx context.Context, userID string) ([]model.Client, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+clientCols+` FROM clients WHERE user_id = $1 ORDER BY name`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetClient only returns clients owned by userID.
func (s *Store) GetClient(ctx context.Context, userID, id string) (*model.Client, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	c, err := scanClient(s.pool.QueryRow(ctx,
		`SELECT `+clientCols+` FROM clients WHERE id = $1 AND user_id = $2`, id, userID,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// UpdateClient overwrites every editable field of a client owned by c.UserID.
// Empty optional fields are stored as NULL.
func (s *Store) UpdateClient(ctx context.Context, c *model.Client) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx,
		`UPDATE clients SET name = $3, email = NULLIF($4,''), phone = NULLIF($5,''),
		   goals = NULLIF($6,''), notes = NULLIF($7,'')
		 WHERE id = $1 AND user_id = $2
		 RETURNING created_at`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Goals, c.Notes,
	).Scan(&c.CreatedAt)
	return notFound(err)
}

// DeleteClient removes the client with its appointments and sessions.
func (s *Store) DeleteClient(ctx context.Context, userID, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
