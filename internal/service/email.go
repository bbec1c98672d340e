package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/templui/goalstash/internal/model"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email string) error {
	dashboardURL := fmt.Sprintf("%s/#dashboard", s.appURL)
	subject, body := welcomeEmailTemplate(email, dashboardURL, s.appName)

	return s.send(ctx, "welcome", email, subject, body, "url", dashboardURL)
}

func (s *EmailService) SendGoalReachedEmail(ctx context.Context, email string, goal *model.Goal) error {
	goalURL := fmt.Sprintf("%s/#goals/%s", s.appURL, goal.ID)
	subject, body := goalReachedEmailTemplate(
		goal.Title,
		FormatAmount(goal.CurrentAmount, goal.Currency),
		FormatAmount(goal.TargetAmount, goal.Currency),
		goalURL,
		s.appName,
	)

	return s.send(ctx, "goal_reached", email, subject, body, "goal_id", goal.ID)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string, attrs ...any) error {
	if s.isDev {
		args := append([]any{"type", kind, "to", to, "subject", subject}, attrs...)
		slog.Info("email sent (dev mode)", args...)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with the currency symbol, e.g. "$ 1,250.00".
// Unknown codes fall back to "1250.00 XYZ".
func FormatAmount(amount model.Amount, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %s", amount.String(), code)
	}

	f, _ := amount.Float64()
	return printer.Sprint(currency.Symbol(unit.Amount(f)))
}
