package notify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"practice-scheduler/internal/logger"
	"practice-scheduler/internal/metrics"
)

const ErrMissingFields = "Missing fields"

// Result is reported in-band: callers must check OK.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Sender struct {
	mailer  Mailer
	from    string
	loc     *time.Location
	timeout time.Duration
	log     *zap.Logger
}

func NewSender(m Mailer, from string, loc *time.Location, timeout time.Duration) *Sender {
	if loc == nil {
		loc = time.UTC
	}
	return &Sender{
		mailer:  m,
		from:    from,
		loc:     loc,
		timeout: timeout,
		log:     logger.WithModule("notify"),
	}
}

// Send renders n and hands it to the mailer once. It never returns an error:
// failures come back as Result{OK: false}.
func (s *Sender) Send(ctx context.Context, n Notification) Result {
	kind := string(KindConfirmation)
	if n.Type == KindReminder {
		kind = string(KindReminder)
	}

	if strings.TrimSpace(n.ClientEmail) == "" || n.StartsAt.IsZero() {
		metrics.Mails.WithLabelValues(kind, "invalid").Inc()
		return Result{Error: ErrMissingFields}
	}

	subject, html, err := Render(n, s.loc)
	if err != nil {
		metrics.Mails.WithLabelValues(kind, "invalid").Inc()
		return Result{Error: err.Error()}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err = s.mailer.Send(ctx, Message{
		From:    s.from,
		To:      []string{n.ClientEmail},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		metrics.Mails.WithLabelValues(kind, "failed").Inc()
		s.log.Warn("mail send failed", zap.String("type", kind), zap.Error(err))
		return Result{Error: err.Error()}
	}

	metrics.Mails.WithLabelValues(kind, "ok").Inc()
	s.log.Debug("mail sent", zap.String("type", kind))
	return Result{OK: true}
}
