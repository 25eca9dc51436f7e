package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mind-engage/mindengage-courses/internal/logger"
)

type EmailMessage struct {
	To      []mail.Address
	Subject string
	Body    string // text/plain
}

func (m EmailMessage) HasRecipients() bool { return len(m.To) > 0 }

// Mailer delivers one message. Callers treat delivery as best-effort.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type SendGridMailer struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
}

var _ Mailer = (*SendGridMailer)(nil)

func NewSendGridMailer(key, appName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		client:     sendgrid.NewSendClient(key),
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *SendGridMailer) prepare(msg EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Body))
	return v3
}

func (m *SendGridMailer) Send(ctx context.Context, msg EmailMessage) error {
	if !msg.HasRecipients() {
		return nil
	}
	res, err := m.client.SendWithContext(ctx, m.prepare(msg))
	if err != nil {
		return errors.Wrap(err, "sendgrid: send")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer writes messages to the log instead of sending them.
// Sent keeps a copy of every message for inspection.
type ConsoleMailer struct {
	log        logger.Logger
	from       mail.Address
	subjPrefix string

	mu   sync.Mutex
	Sent []EmailMessage
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(log logger.Logger, appName, fromEmail string) *ConsoleMailer {
	return &ConsoleMailer{
		log:        log,
		from:       mail.Address{Name: appName, Address: fromEmail},
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *ConsoleMailer) Send(_ context.Context, msg EmailMessage) error {
	if !msg.HasRecipients() {
		return nil
	}
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", m.from.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", m.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "%s\r\n", msg.Body)
	m.log.Info("email", body.String())

	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	m.mu.Unlock()
	return nil
}

// Messages returns a snapshot of what has been sent so far.
func (m *ConsoleMailer) Messages() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailMessage(nil), m.Sent...)
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
