package clients

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strconv"

	"locagest/internal/domain"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

var ErrNoRecipient = errors.New("no recipient address")

type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends tenant reminders over SMTP.
type Mailer struct {
	cfg  MailerConfig
	log  *logrus.Logger
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg MailerConfig, log *logrus.Logger) *Mailer {
	return &Mailer{
		cfg: cfg,
		log: log,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (m *Mailer) SendLateRentReminder(ctx context.Context, rem domain.RentReminder, daysLate int) error {
	if rem.TenantEmail == nil || *rem.TenantEmail == "" {
		return ErrNoRecipient
	}

	rent := rem.Rent
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{*rem.TenantEmail}
	e.Subject = fmt.Sprintf("Rent overdue for %s", rent.PeriodStart.Format("January 2006"))

	body := fmt.Sprintf("Dear %s,\n\n", rem.TenantName)
	body += fmt.Sprintf(
		"The rent for %s covering %s to %s was due on %s and is now %d day(s) late.\n"+
			"Amount due: %s\n"+
			"Already received: %s\n"+
			"Remaining: %s\n",
		rem.PropertyName,
		rent.PeriodStart.Format("2006-01-02"),
		rent.PeriodEnd.Format("2006-01-02"),
		rent.DueDate.Format("2006-01-02"),
		daysLate,
		rent.TotalAmount.StringFixed(2),
		rent.PaidAmount.StringFixed(2),
		rent.Outstanding().StringFixed(2),
	)
	body += "\nPlease settle the balance as soon as possible.\n\nBest regards"
	e.Text = []byte(body)

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(e, addr, auth); err != nil {
		m.log.WithFields(logrus.Fields{"rent_id": rent.ID, "to": *rem.TenantEmail}).Errorf("late reminder failed: %v", err)
		return fmt.Errorf("send late reminder: %w", err)
	}

	m.log.WithFields(logrus.Fields{"rent_id": rent.ID, "to": *rem.TenantEmail}).Info("late reminder sent")
	return nil
}
