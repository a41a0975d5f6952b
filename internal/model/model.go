package model

import "time"

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusConfirmed   Status = "CONFIRMED"
	StatusCancelled   Status = "CANCELLED"
	StatusRescheduled Status = "RESCHEDULED"
)

// DefaultClientName is used in projections and mails when a client has no name.
const DefaultClientName = "Kunde"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Client optional fields are empty when unset; the store keeps them NULL.
type Client struct {
	ID        string
	UserID    string
	Name      string
	Email     string
	Phone     string
	Goals     string
	Notes     string
	CreatedAt time.Time
}

// SessionDateLayout is the wire and storage form of Session.Date.
const SessionDateLayout = "2006-01-02"

// Session is one treatment held for a client, with its price and what was paid.
type Session struct {
	ID            string
	ClientID      string
	Date          time.Time
	Location      string
	Focus         string
	Notes         string
	ProgressScore *int // 0..10, nil when not rated
	PriceCents    int
	PaidCents     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OpenCents is what is still owed for the session, never negative.
func (s *Session) OpenCents() int {
	return max(s.PriceCents-s.PaidCents, 0)
}

// OpenBalance sums OpenCents over sessions.
func OpenBalance(sessions []Session) int {
	total := 0
	for i := range sessions {
		total += sessions[i].OpenCents()
	}
	return total
}

type Appointment struct {
	ID          string
	ClientID    string
	StartsAt    time.Time
	DurationMin int
	Notes       string
	Status      Status

	ConfirmToken    string
	CancelToken     string
	RescheduleToken string

	ConfirmedAt    *time.Time
	CancelledAt    *time.Time
	RescheduledAt  *time.Time
	ReminderSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// joined from clients; empty when the client has none
	ClientName  string
	ClientEmail string
}

// Projection is what the public action endpoint returns.
type Projection struct {
	ID          string    `json:"id"`
	StartsAt    time.Time `json:"starts_at"`
	DurationMin int       `json:"duration_min"`
	Status      Status    `json:"status"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
}

func (a *Appointment) Project() Projection {
	name := a.ClientName
	if name == "" {
		name = DefaultClientName
	}
	return Projection{
		ID:          a.ID,
		StartsAt:    a.StartsAt,
		DurationMin: a.DurationMin,
		Status:      a.Status,
		ClientName:  name,
		ClientEmail: a.ClientEmail,
	}
}
