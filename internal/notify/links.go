package notify

import (
	"net/url"

	"practice-scheduler/internal/model"
)

// ActionURL is the public page a client opens for one action.
func ActionURL(base, token string, action model.Action) string {
	return base + "/appointments/manage/" + url.PathEscape(token) + "?action=" + url.QueryEscape(string(action))
}

// ForAppointment builds a notification for a with action links under base.
func ForAppointment(kind Kind, a *model.Appointment, base string) Notification {
	return Notification{
		Type:          kind,
		ClientName:    a.ClientName,
		ClientEmail:   a.ClientEmail,
		StartsAt:      a.StartsAt,
		DurationMin:   a.DurationMin,
		ConfirmURL:    ActionURL(base, a.ConfirmToken, model.ActionConfirm),
		CancelURL:     ActionURL(base, a.CancelToken, model.ActionCancel),
		RescheduleURL: ActionURL(base, a.RescheduleToken, model.ActionReschedule),
	}
}
