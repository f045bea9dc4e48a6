package email

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"osld-portal/internal/config"
)

// Service sends portal emails over SMTP
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// Enabled reports whether an SMTP host is configured
func (s *Service) Enabled() bool {
	return s != nil && s.config.SMTPHost != ""
}

// DeadlineMail holds the values rendered into deadline related emails
type DeadlineMail struct {
	Organization string
	ReportLabel  string
	EventTitle   string
	DueDate      time.Time
	PortalURL    string
}

var layout = template.Must(template.New("layout").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #1b5e20;">{{.Title}}</h2>
        {{range .Paragraphs}}<p>{{.}}</p>
        {{end}}
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.PortalURL}}" style="background-color: #1b5e20; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Open the portal</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`))

type page struct {
	Title      string
	Paragraphs []string
	PortalURL  string
}

func render(p page) (string, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// RenderDeadlineReminder builds the reminder sent on the day a report is due
func RenderDeadlineReminder(m DeadlineMail) (subject, body string, err error) {
	subject = fmt.Sprintf("Reminder: %s due today", m.ReportLabel)
	body, err = render(page{
		Title: subject,
		Paragraphs: []string{
			fmt.Sprintf("Hello %s,", m.Organization),
			fmt.Sprintf("The %s for %s is due today, %s.", m.ReportLabel, m.EventTitle, m.DueDate.Format("January 2, 2006")),
			"If you cannot submit it on time, you may file a letter of appeal through the portal.",
		},
		PortalURL: m.PortalURL,
	})
	return subject, body, err
}

// RenderAppealSubmitted builds the message sent to the reviewer of a new appeal
func RenderAppealSubmitted(m DeadlineMail) (subject, body string, err error) {
	subject = fmt.Sprintf("Letter of appeal from %s", m.Organization)
	body, err = render(page{
		Title: subject,
		Paragraphs: []string{
			fmt.Sprintf("%s filed a letter of appeal for the %s of %s.", m.Organization, m.ReportLabel, m.EventTitle),
			"Review it under Submissions.",
		},
		PortalURL: m.PortalURL,
	})
	return subject, body, err
}

// RenderAppealApproved builds the message sent to the filer of an approved appeal
func RenderAppealApproved(m DeadlineMail) (subject, body string, err error) {
	subject = "Your letter of appeal was approved"
	body, err = render(page{
		Title: subject,
		Paragraphs: []string{
			fmt.Sprintf("Hello %s,", m.Organization),
			fmt.Sprintf("Your appeal for the %s of %s was approved. The new deadline is %s.", m.ReportLabel, m.EventTitle, m.DueDate.Format("January 2, 2006")),
			"Submit the report on or before that date to avoid a hold on your organization.",
		},
		PortalURL: m.PortalURL,
	})
	return subject, body, err
}

// SendDeadlineReminder emails a due-today reminder
func (s *Service) SendDeadlineReminder(to string, m DeadlineMail) error {
	m.PortalURL = s.config.PortalURL
	subject, body, err := RenderDeadlineReminder(m)
	if err != nil {
		return err
	}
	return s.sendEmail(to, subject, body)
}

// SendAppealSubmitted emails the reviewer of a new appeal
func (s *Service) SendAppealSubmitted(to string, m DeadlineMail) error {
	m.PortalURL = s.config.PortalURL
	subject, body, err := RenderAppealSubmitted(m)
	if err != nil {
		return err
	}
	return s.sendEmail(to, subject, body)
}

// SendAppealApproved emails the filer of an approved appeal
func (s *Service) SendAppealApproved(to string, m DeadlineMail) error {
	m.PortalURL = s.config.PortalURL
	subject, body, err := RenderAppealApproved(m)
	if err != nil {
		return err
	}
	return s.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string) error {
	headers := []struct{ key, value string }{
		{"From", s.config.SMTPFrom},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var message bytes.Buffer
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h.key, h.value))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Attempting to connect to SMTP server", "address", addr)

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		slog.Error("Failed to connect to SMTP server", "address", addr, "error", err)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			slog.Debug("Failed to close SMTP connection", "error", err)
		}
	}(conn)

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		slog.Error("Failed to create SMTP client", "error", err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		if err := client.Close(); err != nil {
			slog.Debug("Failed to close SMTP client", "error", err)
		}
	}(client)

	// Mailpit and similar dev servers accept mail without auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		_ = client.Auth(auth)
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		slog.Error("Failed to set sender", "from", s.config.SMTPFrom, "error", err)
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		slog.Error("Failed to set recipient", "to", to, "error", err)
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		slog.Error("Failed to initiate data transfer", "error", err)
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		if err := wc.Close(); err != nil {
			slog.Error("Failed to close write closer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(message.Bytes()); err != nil {
		slog.Error("Failed to write message", "error", err)
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("Email sent successfully", "to", to)

	return nil
}
