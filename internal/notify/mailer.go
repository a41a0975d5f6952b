package notify

import (
	"context"
	"errors"
	"strings"
)

// Message is one outbound HTML mail.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Mailer hands a message to a mail provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var errNoRecipients = errors.New("mail: at least one recipient is required")

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var out []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
