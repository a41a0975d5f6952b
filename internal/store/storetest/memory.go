// Package storetest holds an in-memory store with the same semantics as the
// postgres store, for handler and sweeper tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"practice-scheduler/internal/model"
	"practice-scheduler/internal/store"
)

type Memory struct {
	mu      sync.Mutex
	users   map[string]model.User
	clients map[string]model.Client
	appts   map[string]model.Appointment
	order   []string
	sess    map[string]model.Session

	// Err, when set, is returned by every call.
	Err error
	// Writes counts successful mutations of appointment rows.
	Writes int
}

func NewMemory() *Memory {
	return &Memory{
		users:   map[string]model.User{},
		clients: map[string]model.Client{},
		appts:   map[string]model.Appointment{},
		sess:    map[string]model.Session{},
	}
}

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) CreateClient(_ context.Context, c *model.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c.CreatedAt = time.Now()
	m.clients[c.ID] = *c
	return nil
}

func (m *Memory) ListClients(_ context.Context, userID string) ([]model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.Client
	for _, c := range m.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetClient(_ context.Context, userID, id string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.clients[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) UpdateClient(_ context.Context, c *model.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	old, ok := m.clients[c.ID]
	if !ok || old.UserID != c.UserID {
		return store.ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	m.clients[c.ID] = *c
	return nil
}

// DeleteClient cascades to the client's appointments and sessions.
func (m *Memory) DeleteClient(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c, ok := m.clients[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.clients, id)
	for aid, a := range m.appts {
		if a.ClientID == id {
			delete(m.appts, aid)
		}
	}
	for sid, s := range m.sess {
		if s.ClientID == id {
			delete(m.sess, sid)
		}
	}
	return nil
}

func (m *Memory) ownsClient(userID, clientID string) bool {
	c, ok := m.clients[clientID]
	return ok && c.UserID == userID
}

func (m *Memory) CreateSession(_ context.Context, userID string, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if !m.ownsClient(userID, s.ClientID) {
		return store.ErrNotFound
	}
	s.PaidCents = 0
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	m.sess[s.ID] = *s
	return nil
}

func (m *Memory) ListSessions(_ context.Context, userID, clientID string) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if !m.ownsClient(userID, clientID) {
		return nil, nil
	}
	var out []model.Session
	for _, s := range m.sess {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateSession(_ context.Context, userID string, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	old, ok := m.sess[s.ID]
	if !ok || !m.ownsClient(userID, old.ClientID) {
		return store.ErrNotFound
	}
	s.ClientID = old.ClientID
	s.PaidCents = old.PaidCents
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = time.Now()
	m.sess[s.ID] = *s
	return nil
}

func (m *Memory) MarkSessionPaid(_ context.Context, userID, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.sess[id]
	if !ok || !m.ownsClient(userID, s.ClientID) {
		return nil, store.ErrNotFound
	}
	s.PaidCents = s.PriceCents
	s.UpdatedAt = time.Now()
	m.sess[id] = s
	return &s, nil
}

func (m *Memory) DeleteSession(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s, ok := m.sess[id]
	if !ok || !m.ownsClient(userID, s.ClientID) {
		return store.ErrNotFound
	}
	delete(m.sess, id)
	return nil
}

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.appts {
		if existing.ConfirmToken == a.ConfirmToken ||
			existing.CancelToken == a.CancelToken ||
			existing.RescheduleToken == a.RescheduleToken {
			return store.ErrTokenCollision
		}
	}
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	row := *a
	row.ClientName, row.ClientEmail = "", ""
	m.appts[a.ID] = row
	m.order = append(m.order, a.ID)
	m.Writes++
	return nil
}

func (m *Memory) withClient(a model.Appointment) *model.Appointment {
	if c, ok := m.clients[a.ClientID]; ok {
		a.ClientName, a.ClientEmail = c.Name, c.Email
	}
	return &a
}

func (m *Memory) AppointmentByToken(_ context.Context, token string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.appts {
		if a.ConfirmToken == token || a.CancelToken == token || a.RescheduleToken == token {
			return m.withClient(a), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ApplyChange(_ context.Context, id string, ch model.Change) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	ch.Apply(&a)
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	m.Writes++
	return m.withClient(a), nil
}

func (m *Memory) DueForReminder(_ context.Context, from, to time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.Appointment
	for _, id := range m.order {
		a, ok := m.appts[id]
		if !ok {
			continue
		}
		if a.StartsAt.Before(from) || a.StartsAt.After(to) {
			continue
		}
		if a.ReminderSentAt != nil || a.Status == model.StatusCancelled {
			continue
		}
		out = append(out, *m.withClient(a))
	}
	return out, nil
}

func (m *Memory) MarkReminderSent(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.appts[id]
	if !ok {
		return store.ErrNotFound
	}
	a.ReminderSentAt = &at
	m.appts[id] = a
	m.Writes++
	return nil
}

func (m *Memory) NextAppointment(_ context.Context, userID, clientID string, now time.Time) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.clients[clientID]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	var best *model.Appointment
	for _, a := range m.appts {
		if a.ClientID != clientID || a.StartsAt.Before(now) {
			continue
		}
		if best == nil || a.StartsAt.Before(best.StartsAt) {
			best = m.withClient(a)
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.appts[id]
	if !ok {
		return store.ErrNotFound
	}
	if c, ok := m.clients[a.ClientID]; !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.appts, id)
	m.Writes++
	return nil
}

// Appointment returns a copy of the stored row, for assertions.
func (m *Memory) Appointment(id string) (model.Appointment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return model.Appointment{}, false
	}
	return *m.withClient(a), true
}

// Session returns a copy of the stored session, for assertions.
func (m *Memory) Session(id string) (model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sess[id]
	return s, ok
}

// SeedSessions inserts sessions directly, bypassing Err.
func (m *Memory) SeedSessions(sessions ...model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		m.sess[s.ID] = s
	}
}

// Seed inserts rows directly, bypassing Err.
func (m *Memory) Seed(c model.Client, appts ...model.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	for _, a := range appts {
		m.appts[a.ID] = a
		m.order = append(m.order, a.ID)
	}
}
