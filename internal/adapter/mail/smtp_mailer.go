package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/config"
	"github.com/paywatch/subscription-service/internal/domain/model"
)

// SMTPMailer sends transactional mail over plain SMTP. It implements
// usecase.Mailer.
type SMTPMailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

func NewSMTPMailer(cfg config.EmailConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPaymentConfirmation notifies the user their subscription is active.
func (m *SMTPMailer) SendPaymentConfirmation(ctx context.Context, user *model.User, sub *model.Subscription, plan model.Plan) error {
	subject := fmt.Sprintf("Payment confirmed - %s", plan.Name)
	body := paymentConfirmationHTML(user, sub, plan)
	return m.send(ctx, user.Email, subject, body)
}

// SendInvoice delivers the payment link for a new purchase.
func (m *SMTPMailer) SendInvoice(ctx context.Context, user *model.User, sub *model.Subscription, plan model.Plan, invoiceURL string) error {
	subject := fmt.Sprintf("Your invoice for %s", plan.Name)
	body := invoiceHTML(user, sub, plan, invoiceURL)
	return m.send(ctx, user.Email, subject, body)
}

func (m *SMTPMailer) send(_ context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		m.logger.Warn("mail host not configured, skipping email",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	msg := fmt.Sprintf("From: %s\r\n", m.cfg.Sender) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n" +
		"\r\n" + body

	if err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{to}, []byte(msg)); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
