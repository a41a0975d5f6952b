package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"practice-scheduler/internal/model"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
)

// Notification is one appointment mail. Any Type other than reminder renders
// as a confirmation.
type Notification struct {
	Type          Kind
	ClientName    string
	ClientEmail   string
	StartsAt      time.Time
	DurationMin   int
	ConfirmURL    string
	CancelURL     string
	RescheduleURL string
}

const (
	subjectReminder     = "Termin-Erinnerung"
	subjectConfirmation = "Terminbestätigung – bitte bestätigen"
)

var body = template.Must(template.New("appointment").Parse(`
<div style="font-family:Arial,sans-serif;line-height:1.5;color:#0b1c2d;">
  <h2 style="margin:0 0 8px;">Hallo {{.Name}},</h2>
  <p>Ihr Termin ist am <b>{{.Start}}</b>.</p>
  {{- if .Duration}}
  <p>Dauer: {{.Duration}} Min.</p>
  {{- end}}
  {{- if .Reminder}}
  <p>Dies ist Ihre 24h-Erinnerung.</p>
  {{- else}}
  <p>Bitte bestätigen Sie den Termin oder verschieben/absagen Sie ihn.</p>
  <div style="margin-top:16px;">
    <a href="{{.ConfirmURL}}" style="display:inline-block;padding:10px 16px;border-radius:8px;background:#0b1c2d;color:#fff;text-decoration:none;font-weight:600;">Termin bestätigen</a>
    <a href="{{.RescheduleURL}}" style="display:inline-block;padding:10px 16px;border-radius:8px;border:1px solid #d5dbe3;color:#0b1c2d;text-decoration:none;font-weight:600;margin-left:8px;">Verschieben</a>
    <a href="{{.CancelURL}}" style="display:inline-block;padding:10px 16px;border-radius:8px;border:1px solid #f2c2c2;color:#b91c1c;text-decoration:none;font-weight:600;margin-left:8px;">Absagen</a>
  </div>
  {{- end}}
  <p style="margin-top:18px;font-size:12px;color:#6b7280;">Diese E-Mail wurde automatisch von der Praxis gesendet.</p>
</div>
`))

type view struct {
	Name          string
	Start         string
	Duration      int
	Reminder      bool
	ConfirmURL    string
	CancelURL     string
	RescheduleURL string
}

// Render returns subject and HTML body, with the start shown in loc.
func Render(n Notification, loc *time.Location) (subject, html string, err error) {
	if loc == nil {
		loc = time.UTC
	}
	reminder := n.Type == KindReminder
	subject = subjectConfirmation
	if reminder {
		subject = subjectReminder
	}

	name := n.ClientName
	if name == "" {
		name = model.DefaultClientName
	}

	var buf bytes.Buffer
	err = body.Execute(&buf, view{
		Name:          name,
		Start:         FormatGerman(n.StartsAt.In(loc)),
		Duration:      n.DurationMin,
		Reminder:      reminder,
		ConfirmURL:    n.ConfirmURL,
		CancelURL:     n.CancelURL,
		RescheduleURL: n.RescheduleURL,
	})
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", n.Type, err)
	}
	return subject, buf.String(), nil
}

var (
	weekdays = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}
	months   = [...]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli",
		"August", "September", "Oktober", "November", "Dezember"}
)

// FormatGerman renders t like "Mittwoch, 10. Januar 2024 um 11:00".
func FormatGerman(t time.Time) string {
	return fmt.Sprintf("%s, %d. %s %d um %02d:%02d",
		weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
