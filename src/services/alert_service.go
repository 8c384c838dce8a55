// src/services/alert_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/jrkphani/pipeline-pulse-sub003/src/config"
	"github.com/jrkphani/pipeline-pulse-sub003/src/logger"
	"github.com/jrkphani/pipeline-pulse-sub003/src/models"
	"github.com/jrkphani/pipeline-pulse-sub003/src/utils"
	"github.com/mailgun/mailgun-go/v4"
)

func NewAlertService() AlertService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Alert service will default to mock.")
		return &MockAlertService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing alert service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" || config.Cfg.AlertRecipient == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, SenderEmail or AlertRecipient missing). Falling back to MockAlertService.")
			return &MockAlertService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunAlertService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			recipient:   config.Cfg.AlertRecipient,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.AlertRecipient == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockAlertService.")
			return &MockAlertService{}
		}
		return &SMTPAlertService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
			Recipient:    config.Cfg.AlertRecipient,
		}
	default:
		logger.L.Info("Defaulting to MockAlertService.")
		return &MockAlertService{}
	}
}

// alertSubjectAndBody renders the operator email for a degraded rate cache.
func alertSubjectAndBody(info models.RateCacheInfo, cause error) (string, string) {
	subject := fmt.Sprintf("Pipeline Pulse: exchange-rate cache is %s", info.Status)
	ageHours := utils.RoundFloat(info.AgeSeconds/3600, 1)
	body := fmt.Sprintf(
		"The scheduled exchange-rate refresh failed and the cached table is now %s.\n\n"+
			"Cache status: %s\nCurrencies cached: %d\nTable age: %.1f hours\nLast fetch: %s\nFailure: %v\n\n"+
			"Dashboard conversions continue on the cached/fallback tiers until a refresh succeeds.",
		info.Status, info.Status, info.CurrencyCount, ageHours, info.FetchedAt.Format(time.RFC3339), cause)
	return subject, body
}

type MailgunAlertService struct {
	mg          *mailgun.MailgunImpl
	senderEmail string
	senderName  string
	recipient   string
}

func (s *MailgunAlertService) SendRateCacheAlert(info models.RateCacheInfo, cause error) error {
	subject, body := alertSubjectAndBody(info, cause)
	sender := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := s.mg.NewMessage(sender, subject, body, s.recipient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _, err := s.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("Rate cache alert sent via Mailgun", "recipient", s.recipient, "status", info.Status)
	return nil
}

type SMTPAlertService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
	Recipient    string
}

func (s *SMTPAlertService) SendRateCacheAlert(info models.RateCacheInfo, cause error) error {
	subject, body := alertSubjectAndBody(info, cause)

	header := make(map[string]string)
	header["From"] = s.SenderEmail
	header["To"] = s.Recipient
	header["Subject"] = subject
	header["MIME-Version"] = "1.0"
	header["Content-Type"] = `text/plain; charset="utf-8"`

	var messageBuilder strings.Builder
	for k, v := range header {
		messageBuilder.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	messageBuilder.WriteString("\r\n" + body)

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, []string{s.Recipient}, []byte(messageBuilder.String())); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	logger.L.Info("Rate cache alert sent via SMTP", "recipient", s.Recipient, "status", info.Status)
	return nil
}

// MockAlertService logs instead of sending, for local development and tests.
type MockAlertService struct{}

func (s *MockAlertService) SendRateCacheAlert(info models.RateCacheInfo, cause error) error {
	subject, _ := alertSubjectAndBody(info, cause)
	logger.L.Info("MOCK ALERT (not sent)", "subject", subject, "status", info.Status, "currencies", info.CurrencyCount, "cause", cause)
	return nil
}
