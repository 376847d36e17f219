package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/salestracker/pkg/logging"
)

// AppointmentNotifier renders appointment emails and sends them to the
// configured team recipients.
type AppointmentNotifier struct {
	sender     EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewAppointmentNotifier creates a notifier. A nil sender disables delivery.
// Recipients are deduplicated case-insensitively, keeping the first spelling.
func NewAppointmentNotifier(sender EmailSender, recipients []string, logger *logging.Logger) *AppointmentNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentNotifier{sender: sender, recipients: uniqueRecipients(recipients), logger: logger}
}

func uniqueRecipients(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, addr := range in {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// Notify renders and sends e. When no transport or no recipient is
// configured it logs a warning and returns nil.
func (n *AppointmentNotifier) Notify(ctx context.Context, e AppointmentEmail) error {
	if n == nil || n.sender == nil {
		if n != nil {
			n.logger.Warn("email transport not configured, notification skipped", "mode", string(e.Mode))
		}
		return nil
	}
	if len(n.recipients) == 0 {
		n.logger.Warn("no notification recipients configured, notification skipped", "mode", string(e.Mode))
		return nil
	}

	subject, html, err := RenderAppointment(e)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, EmailMessage{
		To:      n.recipients,
		Subject: subject,
		Text:    subject,
		HTML:    html,
	}); err != nil {
		return fmt.Errorf("notify: send %s email: %w", e.Mode, err)
	}
	return nil
}
