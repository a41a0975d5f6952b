package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"practice-scheduler/internal/api"
	"practice-scheduler/internal/auth"
	"practice-scheduler/internal/handler"
	"practice-scheduler/internal/middleware"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/notify"
	"practice-scheduler/internal/reminder"
	"practice-scheduler/internal/store/storetest"
)

const (
	secret     = "test-secret"
	triggerKey = "trigger-key"
	baseURL    = "https://praxis.example.com"
	userID     = "3f1c2a8e-5b7d-4e39-9a61-0c2d4b6f8e10"
	clientID   = "9b0e7c1d-2a44-4f6e-8d53-71a2b3c4d5e6"
)

func init() { gin.SetMode(gin.TestMode) }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingMailer struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type env struct {
	t      *testing.T
	st     *storetest.Memory
	mailer *recordingMailer
	clock  *clock
	router *gin.Engine
}

func newEnv(t *testing.T, configure ...func(*handler.Options)) *env {
	t.Helper()
	e := &env{
		t:      t,
		st:     storetest.NewMemory(),
		mailer: &recordingMailer{},
		clock:  &clock{t: time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC)},
	}
	sender := notify.NewSender(e.mailer, "praxis@example.com", time.UTC, time.Second)
	sweeper := reminder.New(e.st, sender, baseURL, reminder.WithNow(e.clock.Now))

	opts := handler.Options{
		JWTSecret:  secret,
		BaseURL:    baseURL,
		TokenBytes: auth.DefaultTokenBytes,
		Policy:     model.LatestWins,
		Now:        e.clock.Now,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	limiter := middleware.NewRateLimiter(0, 0)
	t.Cleanup(limiter.Close)

	h := handler.New(e.st, sender, sweeper, opts)
	e.router = api.NewRouter(h, api.Options{JWTSecret: secret, TriggerKey: triggerKey, Limiter: limiter})
	return e
}

func (e *env) do(method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) bearer(uid string) map[string]string {
	e.t.Helper()
	tok, err := auth.MakeToken(uid, secret)
	require.NoError(e.t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func (e *env) action(body any) (int, actionResponse) {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/public/appointment-actions", body, nil)
	var out actionResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

type projection struct {
	ID          string    `json:"id"`
	StartsAt    time.Time `json:"starts_at"`
	DurationMin int       `json:"duration_min"`
	Status      string    `json:"status"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
}

type actionResponse struct {
	Appointment *projection `json:"appointment"`
	Error       string      `json:"error"`
}

func seedPending(e *env, name, email string) model.Appointment {
	a := model.Appointment{
		ID:              "a0000000-0000-4000-8000-000000000001",
		ClientID:        clientID,
		StartsAt:        time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		DurationMin:     30,
		Status:          model.StatusPending,
		ConfirmToken:    "confirm-token-0001",
		CancelToken:     "cancel-token-0001",
		RescheduleToken: "reschedule-token-0001",
		CreatedAt:       time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
	}
	e.st.Seed(model.Client{ID: clientID, UserID: userID, Name: name, Email: email}, a)
	return a
}

func TestConfirmThenCancelKeepsBothTimestamps(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "Anna", "anna@example.com")

	code, res := e.action(map[string]string{"action": "get", "token": a.ConfirmToken})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, projection{
		ID:          a.ID,
		StartsAt:    a.StartsAt,
		DurationMin: 30,
		Status:      "PENDING",
		ClientName:  "Anna",
		ClientEmail: "anna@example.com",
	}, *res.Appointment)

	confirmedAt := e.clock.Now()
	code, res = e.action(map[string]string{"action": "confirm", "token": a.ConfirmToken})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "CONFIRMED", res.Appointment.Status)
	require.Equal(t, "Anna", res.Appointment.ClientName)

	row, _ := e.st.Appointment(a.ID)
	require.NotNil(t, row.ConfirmedAt)
	require.Equal(t, confirmedAt, *row.ConfirmedAt)

	e.clock.Set(confirmedAt.Add(time.Hour))
	code, res = e.action(map[string]string{"action": "cancel", "token": a.CancelToken})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "CANCELLED", res.Appointment.Status)

	row, _ = e.st.Appointment(a.ID)
	require.Equal(t, model.StatusCancelled, row.Status)
	require.Equal(t, confirmedAt, *row.ConfirmedAt)
	require.Equal(t, confirmedAt.Add(time.Hour), *row.CancelledAt)
	require.Zero(t, e.mailer.count(), "actions never send mail")
}

func TestAnyTokenAuthorizesAnyAction(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "Anna", "anna@example.com")

	code, res := e.action(map[string]string{"action": "cancel", "token": a.RescheduleToken})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "CANCELLED", res.Appointment.Status)
}

func TestGetIsSameForEveryToken(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "Anna", "anna@example.com")

	want := projection{
		ID:          a.ID,
		StartsAt:    a.StartsAt,
		DurationMin: 30,
		Status:      "PENDING",
		ClientName:  "Anna",
		ClientEmail: "anna@example.com",
	}
	for _, tok := range []string{a.ConfirmToken, a.CancelToken, a.RescheduleToken} {
		code, res := e.action(map[string]string{"action": "get", "token": tok})
		require.Equal(t, http.StatusOK, code, tok)
		require.NotNil(t, res.Appointment, tok)
		require.Equal(t, want, *res.Appointment, tok)
	}
	require.Equal(t, 0, e.st.Writes)
}

func TestGetDefaultsClientName(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "", "")

	code, res := e.action(map[string]string{"action": "get", "token": a.CancelToken})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Kunde", res.Appointment.ClientName)
	require.Equal(t, "", res.Appointment.ClientEmail)
	require.Equal(t, 0, e.st.Writes)
}

func TestConfirmIsRepeatable(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "Anna", "anna@example.com")

	code, _ := e.action(map[string]string{"action": "confirm", "token": a.ConfirmToken})
	require.Equal(t, http.StatusOK, code)

	later := e.clock.Now().Add(10 * time.Minute)
	e.clock.Set(later)
	code, res := e.action(map[string]string{"action": "confirm", "token": a.ConfirmToken})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "CONFIRMED", res.Appointment.Status)

	row, _ := e.st.Appointment(a.ID)
	require.Equal(t, later, *row.ConfirmedAt)
	require.Equal(t, 2, e.st.Writes)
}

func TestRescheduleSetsStart(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "Anna", "anna@example.com")

	code, res := e.action(map[string]string{
		"action": "reschedule", "token": a.RescheduleToken, "starts_at": "2024-01-12T14:30:00+01:00",
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "RESCHEDULED", res.Appointment.Status)
	require.True(t, res.Appointment.StartsAt.Equal(time.Date(2024, 1, 12, 13, 30, 0, 0, time.UTC)))

	row, _ := e.st.Appointment(a.ID)
	require.Equal(t, e.clock.Now(), *row.RescheduledAt)
}

func TestActionRejections(t *testing.T) {
	cases := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"missing token", map[string]string{"action": "get"}, http.StatusBadRequest, "Missing token"},
		{"blank token", map[string]string{"action": "get", "token": "  "}, http.StatusBadRequest, "Missing token"},
		{"unknown token", map[string]string{"action": "get", "token": "nope"}, http.StatusNotFound, "Appointment not found"},
		{"invalid action", map[string]string{"action": "delete", "token": "confirm-token-0001"}, http.StatusBadRequest, "Invalid action"},
		{"missing starts_at", map[string]string{"action": "reschedule", "token": "confirm-token-0001"}, http.StatusBadRequest, "Missing starts_at"},
		{"invalid starts_at", map[string]string{"action": "reschedule", "token": "confirm-token-0001", "starts_at": "tomorrow"}, http.StatusBadRequest, "Invalid starts_at"},
		{"unknown field", map[string]string{"action": "get", "token": "confirm-token-0001", "status": "CONFIRMED"}, http.StatusBadRequest, "Invalid JSON body"},
		{"malformed json", `{"action":`, http.StatusBadRequest, "Invalid JSON body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			a := seedPending(e, "Anna", "anna@example.com")

			code, res := e.action(tc.body)
			require.Equal(t, tc.status, code)
			require.Equal(t, tc.msg, res.Error)
			require.Nil(t, res.Appointment)

			require.Equal(t, 0, e.st.Writes, "no mutation")
			row, _ := e.st.Appointment(a.ID)
			require.Equal(t, model.StatusPending, row.Status)
			require.Equal(t, a.StartsAt, row.StartsAt)
		})
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "Anna", "anna@example.com")

	body := `{"action":"confirm","token":"` + a.ConfirmToken + `","starts_at":"` + strings.Repeat("9", 70_000) + `"}`
	code, res := e.action(body)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Invalid JSON body", res.Error)
	require.Equal(t, 0, e.st.Writes)

	row, _ := e.st.Appointment(a.ID)
	require.Equal(t, model.StatusPending, row.Status)
}

func TestMissingTokenSkipsLookup(t *testing.T) {
	e := newEnv(t)
	e.st.Err = errors.New("must not be reached")

	code, res := e.action(map[string]string{"action": "confirm"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "Missing token", res.Error)
}

func TestStoreFailureSurfacesMessage(t *testing.T) {
	e := newEnv(t)
	a := seedPending(e, "Anna", "anna@example.com")
	e.st.Err = errors.New("connection refused")

	code, res := e.action(map[string]string{"action": "confirm", "token": a.ConfirmToken})
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "connection refused", res.Error)
}

func TestStrictPolicyKeepsCancelledFinal(t *testing.T) {
	e := newEnv(t, func(o *handler.Options) { o.Policy = model.Strict })
	a := seedPending(e, "Anna", "anna@example.com")

	code, _ := e.action(map[string]string{"action": "cancel", "token": a.CancelToken})
	require.Equal(t, http.StatusOK, code)

	code, res := e.action(map[string]string{"action": "confirm", "token": a.ConfirmToken})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "Appointment is cancelled", res.Error)

	// reading is still allowed
	code, res = e.action(map[string]string{"action": "get", "token": a.ConfirmToken})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "CANCELLED", res.Appointment.Status)
	require.Equal(t, 1, e.st.Writes)
}

func TestExpiredLink(t *testing.T) {
	e := newEnv(t, func(o *handler.Options) { o.TokenTTL = 24 * time.Hour })
	a := seedPending(e, "Anna", "anna@example.com")

	// created 24h before the clock: exactly at the limit still works
	code, _ := e.action(map[string]string{"action": "get", "token": a.ConfirmToken})
	require.Equal(t, http.StatusOK, code)

	e.clock.Set(e.clock.Now().Add(time.Second))
	code, res := e.action(map[string]string{"action": "confirm", "token": a.ConfirmToken})
	require.Equal(t, http.StatusGone, code)
	require.Equal(t, "Link expired", res.Error)
	require.Equal(t, 0, e.st.Writes)
}

func TestActionPreflight(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodOptions, "/api/public/appointment-actions", nil, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

type mailResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (e *env) mail(body any) mailResult {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/notifications/appointment-mail", body, e.bearer(userID))
	require.Equal(e.t, http.StatusOK, w.Code, "mail endpoint always answers 200")
	var out mailResult
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSendMail(t *testing.T) {
	e := newEnv(t)

	res := e.mail(map[string]any{
		"type":         "reminder",
		"client_name":  "Anna",
		"client_email": "anna@example.com",
		"starts_at":    "2024-01-10T10:00:00Z",
		"duration_min": 30,
	})
	require.Equal(t, mailResult{OK: true}, res)
	require.Equal(t, 1, e.mailer.count())
	require.Equal(t, "Termin-Erinnerung", e.mailer.msgs[0].Subject)
}

func TestSendMailRejections(t *testing.T) {
	e := newEnv(t)

	require.Equal(t, mailResult{Error: "Missing fields"},
		e.mail(map[string]any{"type": "confirmation", "starts_at": "2024-01-10T10:00:00Z"}))
	require.Equal(t, mailResult{Error: "Missing fields"},
		e.mail(map[string]any{"type": "confirmation", "client_email": "anna@example.com"}))
	require.Equal(t, mailResult{Error: "Invalid starts_at"},
		e.mail(map[string]any{"client_email": "anna@example.com", "starts_at": "soon"}))
	require.Equal(t, mailResult{Error: "Invalid client_email"},
		e.mail(map[string]any{"client_email": "not-an-address", "starts_at": "2024-01-10T10:00:00Z"}))
	require.Equal(t, mailResult{Error: "Invalid JSON body"}, e.mail("{"))
	require.Zero(t, e.mailer.count(), "no outbound call")
}

func TestSendMailProviderFailure(t *testing.T) {
	e := newEnv(t)
	e.mailer.err = errors.New(`{"message":"domain not verified"}`)

	res := e.mail(map[string]any{"client_email": "anna@example.com", "starts_at": "2024-01-10T10:00:00Z"})
	require.Equal(t, mailResult{Error: `{"message":"domain not verified"}`}, res)
	require.Equal(t, 1, e.mailer.count())
}

func TestSendMailRequiresLogin(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/api/notifications/appointment-mail", map[string]any{}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRunReminders(t *testing.T) {
	e := newEnv(t)
	now := e.clock.Now()
	e.st.Seed(model.Client{ID: clientID, UserID: userID, Name: "Anna", Email: "anna@example.com"},
		model.Appointment{
			ID: "a1", ClientID: clientID, StartsAt: now.Add(23*time.Hour + 30*time.Minute), DurationMin: 30,
			Status: model.StatusConfirmed, ConfirmToken: "c1", CancelToken: "x1", RescheduleToken: "r1",
		},
		model.Appointment{
			ID: "a2", ClientID: clientID, StartsAt: now.Add(48 * time.Hour), DurationMin: 30,
			Status: model.StatusPending, ConfirmToken: "c2", CancelToken: "x2", RescheduleToken: "r2",
		},
	)

	require.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/reminders/run", nil, nil).Code)

	hdr := map[string]string{"Authorization": "Bearer " + triggerKey}
	w := e.do(http.MethodPost, "/api/reminders/run", nil, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"ok":true,"sent":1,"failed":0}`, w.Body.String())

	w = e.do(http.MethodPost, "/api/reminders/run", nil, hdr)
	require.JSONEq(t, `{"ok":true,"sent":0,"failed":0}`, w.Body.String())
	require.Equal(t, 1, e.mailer.count())
}

func TestRunRemindersQueryFailure(t *testing.T) {
	e := newEnv(t)
	e.st.Err = errors.New("relation \"appointments\" does not exist")

	w := e.do(http.MethodPost, "/api/reminders/run", nil, map[string]string{"X-Trigger-Key": triggerKey})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "does not exist")
}

func TestReminderRouteNeedsKey(t *testing.T) {
	st := storetest.NewMemory()
	h := handler.New(st, nil, nil, handler.Options{JWTSecret: secret})
	r := api.NewRouter(h, api.Options{JWTSecret: secret})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reminders/run", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

var hexToken = regexp.MustCompile(`/manage/([0-9a-f]{32})\?action=`)

func TestPracticeFlow(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "Dr.Berg@Example.com", "password": "short", "name": "Dr. Berg",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "Dr.Berg@Example.com", "password": "correct horse", "name": "Dr. Berg",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "dr.berg@example.com", "password": "correct horse", "name": "Again",
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "dr.berg@example.com", "password": "wrong password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "dr.berg@example.com", "password": "correct horse",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.Equal(t, "Dr. Berg", login.Name)
	hdr := map[string]string{"Authorization": "Bearer " + login.Token}

	require.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/clients", nil, nil).Code)

	w = e.do(http.MethodPost, "/api/clients", map[string]string{"name": "Anna", "email": "bad"}, hdr)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/clients", map[string]string{"name": "Anna", "email": "anna@example.com"}, hdr)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Client struct {
			ID string `json:"id"`
		} `json:"client"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = e.do(http.MethodGet, "/api/clients", nil, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "anna@example.com")

	apptPath := "/api/clients/" + created.Client.ID + "/appointments"
	w = e.do(http.MethodPost, apptPath, map[string]any{"starts_at": "2024-01-10T10:00:00Z"}, hdr)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var appt struct {
		Appointment struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			DurationMin int    `json:"duration_min"`
			Links       struct {
				Confirm    string `json:"confirm"`
				Cancel     string `json:"cancel"`
				Reschedule string `json:"reschedule"`
			} `json:"links"`
		} `json:"appointment"`
		Mail mailResult `json:"mail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appt))
	require.Equal(t, "PENDING", appt.Appointment.Status)
	require.Equal(t, 30, appt.Appointment.DurationMin)
	require.True(t, appt.Mail.OK)

	tokens := map[string]bool{}
	for _, link := range []string{appt.Appointment.Links.Confirm, appt.Appointment.Links.Cancel, appt.Appointment.Links.Reschedule} {
		m := hexToken.FindStringSubmatch(link)
		require.Len(t, m, 2, link)
		tokens[m[1]] = true
	}
	require.Len(t, tokens, 3, "three distinct tokens")

	require.Equal(t, 1, e.mailer.count())
	msg := e.mailer.msgs[0]
	require.Equal(t, []string{"anna@example.com"}, msg.To)
	require.Contains(t, msg.HTML, appt.Appointment.Links.Confirm)

	// the mailed link works against the public endpoint
	m := hexToken.FindStringSubmatch(appt.Appointment.Links.Confirm)
	code, res := e.action(map[string]string{"action": "confirm", "token": m[1]})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "CONFIRMED", res.Appointment.Status)

	w = e.do(http.MethodGet, apptPath+"/next", nil, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), appt.Appointment.ID)

	other := e.bearer("0d9c8b7a-6f5e-4d3c-8b2a-19f8e7d6c5b4")
	require.Equal(t, http.StatusNotFound, e.do(http.MethodGet, apptPath+"/next", nil, other).Code)
	require.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/api/appointments/"+appt.Appointment.ID, nil, other).Code)

	require.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, "/api/appointments/"+appt.Appointment.ID, nil, hdr).Code)
	require.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/api/appointments/"+appt.Appointment.ID, nil, hdr).Code)
	require.Equal(t, http.StatusNotFound, e.do(http.MethodGet, apptPath+"/next", nil, hdr).Code)
}

func TestCreateAppointmentKeepsRowWhenMailFails(t *testing.T) {
	e := newEnv(t)
	e.st.Seed(model.Client{ID: clientID, UserID: userID, Name: "Anna"})

	w := e.do(http.MethodPost, "/api/clients/"+clientID+"/appointments",
		map[string]any{"starts_at": "2024-01-10T10:00:00Z", "duration_min": 45}, e.bearer(userID))
	require.Equal(t, http.StatusCreated, w.Code)

	var out struct {
		Mail mailResult `json:"mail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, mailResult{Error: "Missing fields"}, out.Mail)
	require.Equal(t, 1, e.st.Writes)
}

func TestCreateAppointmentValidation(t *testing.T) {
	e := newEnv(t)
	e.st.Seed(model.Client{ID: clientID, UserID: userID, Name: "Anna"})
	hdr := e.bearer(userID)
	path := "/api/clients/" + clientID + "/appointments"

	require.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, path, map[string]any{}, hdr).Code)
	require.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, path, map[string]any{"starts_at": "10.01.2024"}, hdr).Code)
	require.Equal(t, http.StatusBadRequest,
		e.do(http.MethodPost, path, map[string]any{"starts_at": "2024-01-10T10:00:00Z", "duration_min": -5}, hdr).Code)
	require.Equal(t, http.StatusNotFound,
		e.do(http.MethodPost, "/api/clients/not-a-uuid/appointments", map[string]any{"starts_at": "2024-01-10T10:00:00Z"}, hdr).Code)
	require.Equal(t, 0, e.st.Writes)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/healthz", nil, nil).Code)

	e.st.Err = errors.New("down")
	require.Equal(t, http.StatusServiceUnavailable, e.do(http.MethodGet, "/healthz", nil, nil).Code)
}
