// internal/adapters/out/mail/alert_notifier.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Argy1/pdpi-member-sub002/internal/application/guard"
)

// AlertNotifier mails guard notifications to a fixed security inbox.
type AlertNotifier struct {
	sender Sender
	from   string
	to     string
	now    func() time.Time
}

func NewAlertNotifier(sender Sender, from, to string) *AlertNotifier {
	return &AlertNotifier{
		sender: sender,
		from:   strings.TrimSpace(from),
		to:     strings.TrimSpace(to),
		now:    time.Now,
	}
}

var _ guard.Notifier = (*AlertNotifier)(nil)

func (n *AlertNotifier) Notify(ctx context.Context, title, message string, severity guard.Severity) error {
	if n == nil || n.sender == nil {
		return errors.New("mail: alert notifier not configured")
	}
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(severity)), title)
	body := fmt.Sprintf("%s\n\nseverity: %s\ntime: %s\n",
		message, severity, n.now().UTC().Format(time.RFC3339))
	return n.sender.Send(ctx, n.from, n.to, subject, body)
}

// LogNotifier writes guard notifications to the log.
type LogNotifier struct {
	Logger *zap.Logger
}

var _ guard.Notifier = LogNotifier{}

func (n LogNotifier) Notify(_ context.Context, title, message string, severity guard.Severity) error {
	log := n.Logger
	if log == nil {
		return nil
	}
	fields := []zap.Field{zap.String("title", title), zap.String("message", message)}
	switch severity {
	case guard.SeverityError:
		log.Error("notification", fields...)
	case guard.SeverityWarning:
		log.Warn("notification", fields...)
	default:
		log.Info("notification", fields...)
	}
	return nil
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []guard.Notifier

func (f Fanout) Notify(ctx context.Context, title, message string, severity guard.Severity) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, title, message, severity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
