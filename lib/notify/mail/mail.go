package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"campwatch/lib/notify"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("notify/mail")

type Config struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Notifier delivers notifications over SMTP, for people who would
// rather get an email than a push.
type Notifier struct {
	cfg Config
}

func NewNotifier(cfg Config) Notifier {
	return Notifier{cfg: cfg}
}

func (n Notifier) Configured() bool {
	return n.cfg.Server != "" && n.cfg.EmailAddress != "" && len(n.cfg.To) > 0
}

func (n Notifier) Send(ctx context.Context, notification notify.Notification) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	if !n.Configured() {
		slog.WarnContext(ctx, "smtp settings are not set, skipping email notification")
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("campwatch <%s>", n.cfg.EmailAddress)
	mail.To = n.cfg.To
	mail.Subject = notification.Title

	body := notification.Message
	if notification.Url != "" {
		body = fmt.Sprintf("%s\n\n%s: %s", body, notification.UrlTitle, notification.Url)
	}
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Server, n.cfg.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.cfg.EmailAddress, n.cfg.Password, n.cfg.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	return nil
}
