package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/ebta/enrollment-api/pkg/config"
)

// Notifier delivers best-effort student notifications. Implementations
// return an error for the caller to log; they must never panic.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// Service sends email through SendGrid and SMS through a generic
// JSON-over-HTTP gateway. Channels without credentials are skipped.
type Service struct {
	cfg    config.NotifierConfig
	email  *sendgrid.Client
	logger *zap.Logger
}

// New constructs the notifier. A nil logger falls back to a no-op logger.
func New(cfg config.NotifierConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{cfg: cfg, logger: logger}
	if cfg.SendgridKey != "" {
		svc.email = sendgrid.NewSendClient(cfg.SendgridKey)
	}
	return svc
}

// SendEmail delivers a plain-text email via SendGrid.
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	if s.email == nil {
		s.logger.Info("email channel not configured, skipping",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	from := sgmail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	message := sgmail.NewSingleEmailPlainText(from, subject, sgmail.NewEmail("", to), body)

	resp, err := s.email.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SendSMS posts a message to the configured SMS gateway.
func (s *Service) SendSMS(ctx context.Context, to, body string) error {
	if s.cfg.SMSGatewayURL == "" {
		s.logger.Info("sms channel not configured, skipping", zap.String("to", to))
		return nil
	}

	payload, err := json.Marshal(map[string]string{"to": to, "message": body})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req := rest.Request{
		Method:  rest.Post,
		BaseURL: s.cfg.SMSGatewayURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + s.cfg.SMSGatewayKey,
			"Content-Type":  "application/json",
		},
		Body: payload,
	}

	resp, err := rest.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sms gateway send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sms gateway send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
