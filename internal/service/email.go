package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"bravework-rental-backend/internal/config"
	"bravework-rental-backend/internal/logger"
)

type emailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailService sends mail through an SMTP relay with gomail.
func NewEmailService(host string, port int, username, password, from string) EmailService {
	return &emailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *emailService) SendNotification(ctx context.Context, toEmail, toName, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", toEmail, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", greeting(toName)+body+signature)

	return s.send(ctx, m, "SendNotification")
}

func (s *emailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", adminEmail)
	m.SetHeader("Subject", fmt.Sprintf("[Admin] %s", subject))
	m.SetBody("text/plain", message)

	return s.send(ctx, m, "SendAdminNotification")
}

func (s *emailService) send(ctx context.Context, m *gomail.Message, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.ExternalServiceCall("smtp", op, "host", s.host)
	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	err := d.DialAndSend(m)
	logger.ExternalServiceResult("smtp", op, err)
	if err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendgridEmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendgridEmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendgridEmailService) SendNotification(ctx context.Context, toEmail, toName, subject, body string) error {
	return s.send(ctx, "SendNotification", toEmail, toName, subject, greeting(toName)+body+signature)
}

func (s *sendgridEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	return s.send(ctx, "SendAdminNotification", adminEmail, "", fmt.Sprintf("[Admin] %s", subject), message)
}

func (s *sendgridEmailService) send(ctx context.Context, op, toEmail, toName, subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	logger.ExternalServiceCall("sendgrid", op)
	response, err := s.client.SendWithContext(ctx, message)
	logger.ExternalServiceResult("sendgrid", op, err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

type logEmailService struct{}

// NewLogEmailService writes outgoing mail to the log instead of sending it.
func NewLogEmailService() EmailService {
	return logEmailService{}
}

func (logEmailService) SendNotification(ctx context.Context, toEmail, toName, subject, body string) error {
	logger.InfoContext(ctx, "Email (log provider)", "to", toEmail, "subject", subject, "body", body)
	return nil
}

func (logEmailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	logger.InfoContext(ctx, "Admin email (log provider)", "to", adminEmail, "subject", subject, "body", message)
	return nil
}

const signature = "\n\nBest regards,\nThe Bravework Team"

func greeting(name string) string {
	if name == "" {
		return "Hello,\n\n"
	}
	return fmt.Sprintf("Hello %s,\n\n", name)
}

// NewEmailServiceFromConfig returns the sender for the configured provider.
func NewEmailServiceFromConfig(cfg *config.Config) EmailService {
	switch cfg.Email.Provider {
	case "sendgrid":
		return NewSendGridEmailService(cfg.Email.SendGridAPIKey, cfg.SMTP.From, cfg.Email.FromName)
	case "log":
		return NewLogEmailService()
	default:
		return NewEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}
}
