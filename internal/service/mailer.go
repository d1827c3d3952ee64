//go:generate mockery --name Mailer --output ./mocks --outpkg mocks --case=underscore
//go:generate mockery --name CertificateNotifier --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"go_course_progress/internal/config"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"
)

type Mailer interface {
	Send(ctx context.Context, msg model.MailMessage) error
}

// --- LogMailer ---
type LogMailer struct{}

func (m *LogMailer) Send(ctx context.Context, msg model.MailMessage) error {
	logger := middleware.GetLogger(ctx)
	logger.Info("--- Sending Email (LogMailer) ---",
		"to", msg.To, "subject", msg.Subject, "body", msg.Text, "has_html", msg.HTML != "", "tags", msg.Tags)
	return nil
}

// --- SmtpMailer ---
// 開発用の MailHog などを想定し、テキスト部分だけを送る
type SmtpMailer struct {
	cfg *config.SMTPConfig
}

func (m *SmtpMailer) Send(ctx context.Context, msg model.MailMessage) error {
	logger := middleware.GetLogger(ctx)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	logger.Debug("Attempting to send email via SMTP", "smtp_addr", addr, "from", m.cfg.From, "to", msg.To)

	c, err := smtp.Dial(addr)
	if err != nil {
		logger.Error("Failed to connect to SMTP server", "error", err, "addr", addr)
		return err
	}
	defer c.Close()

	if err = c.Mail(m.cfg.From); err != nil {
		logger.Error("Failed to set MAIL FROM", "error", err, "from", m.cfg.From)
		return err
	}
	if err = c.Rcpt(msg.To); err != nil {
		logger.Error("Failed to set RCPT TO", "error", err, "to", msg.To)
		return err
	}

	wc, err := c.Data()
	if err != nil {
		logger.Error("Failed to open data writer", "error", err)
		return err
	}
	data := "To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		msg.Text + "\r\n"
	if _, err = wc.Write([]byte(data)); err != nil {
		wc.Close()
		logger.Error("Failed to write email data", "error", err)
		return err
	}
	if err = wc.Close(); err != nil {
		logger.Error("Failed to finish email data", "error", err)
		return err
	}

	logger.Info("Email sent successfully via SMTP", "to", msg.To, "subject", msg.Subject)
	return c.Quit()
}

// NewMailer は mailer.type に応じて実装を選ぶ
func NewMailer(cfg *config.Config) (Mailer, error) {
	logger := slog.Default()
	switch cfg.Mailer.Type {
	case "smtp":
		logger.Info("Initializing SMTP mailer...")
		return &SmtpMailer{cfg: &cfg.SMTP}, nil
	case "ses":
		logger.Info("Initializing SES mailer...")
		m, err := NewSESMailer(context.Background(), &cfg.SES)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "log":
		logger.Info("Initializing Log mailer...")
		return &LogMailer{}, nil
	default:
		logger.Warn("Unknown mailer type, defaulting to LogMailer", "type", cfg.Mailer.Type)
		return &LogMailer{}, nil
	}
}

// CertificateNotifier は証明書が取得可能になったことを受講者に知らせる
type CertificateNotifier interface {
	CertificateUnlocked(ctx context.Context, learner model.Learner, view model.CertificateView) error
}

type mailNotifier struct {
	mailer    Mailer
	portalURL string
}

// NewCertificateNotifier は portalURL を本文のリンクに使う (空ならリンクなし)
func NewCertificateNotifier(mailer Mailer, portalURL string) CertificateNotifier {
	return &mailNotifier{mailer: mailer, portalURL: portalURL}
}

func (n *mailNotifier) CertificateUnlocked(ctx context.Context, learner model.Learner, view model.CertificateView) error {
	logger := middleware.GetLogger(ctx)
	if learner.Email == "" {
		logger.Warn("Learner has no email, skipping certificate notification", "user_id", learner.UserID.String())
		return nil
	}
	msg, err := NewCertificateMessage(learner, view, n.portalURL)
	if err != nil {
		logger.Error("Failed to render certificate notification", "error", err, "course_id", view.CourseID)
		return err
	}
	return n.mailer.Send(ctx, msg)
}
