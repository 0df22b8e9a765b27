package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"text/template"
	"time"
)

type InviteEmailParams struct {
	To          string
	TrainerName *string
	ClientName  *string
	Token       string
	ExpiresAt   *time.Time
}

type ResetEmailParams struct {
	To        string
	Name      *string
	Token     string
	ExpiresAt time.Time
}

// EmailService dispatches transactional mail. Sends are never part of a
// database transaction; callers decide whether a failure is fatal.
type EmailService interface {
	SendClientInviteEmail(ctx context.Context, params InviteEmailParams) error
	SendPasswordResetEmail(ctx context.Context, params ResetEmailParams) error
}

type emailService struct {
	apiKey     string
	apiURL     string
	from       string
	appBaseURL string
	httpClient *http.Client
}

// NewEmailService creates an email service backed by an HTTP mail API.
// Without an API key it logs the would-be sends instead, which keeps local
// development working.
func NewEmailService(apiKey, from, appBaseURL string) EmailService {
	if from == "" {
		from = "Lumi <onboarding@resend.dev>"
	}
	return &emailService{
		apiKey:     apiKey,
		apiURL:     "https://api.resend.com/emails",
		from:       from,
		appBaseURL: appBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

var inviteEmailTemplate = template.Must(template.New("invite").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.5; max-width: 600px;">
  <h1 style="font-size: 20px; color: #1f2937;">You're invited to Lumi</h1>
  <p>Hi {{.ClientLabel}},</p>
  <p>{{.TrainerLabel}} invited you to Lumi so you can keep track of training plans and updates.</p>
  <p><a href="{{.RegistrationURL}}" style="display:inline-block;padding:12px 20px;border-radius:999px;background:#2563eb;color:#ffffff;text-decoration:none;font-weight:600;">Create your account</a></p>
  <p>If the button doesn't work, copy and paste this link into your browser:</p>
  <p><a href="{{.RegistrationURL}}">{{.RegistrationURL}}</a></p>
  <p>{{.ExpiresText}}</p>
</div>`))

var resetEmailTemplate = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; line-height: 1.5; max-width: 600px;">
  <h1 style="font-size: 20px; color: #1f2937;">Reset your password</h1>
  <p>Hi {{.NameLabel}},</p>
  <p>We received a request to reset your Lumi password. Click the button below to choose a new one.</p>
  <p><a href="{{.ResetURL}}" style="display:inline-block;padding:12px 20px;border-radius:999px;background:#2563eb;color:#ffffff;text-decoration:none;font-weight:600;">Reset password</a></p>
  <p>If the button doesn't work, copy and paste this link into your browser:</p>
  <p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
  <p>This link expires on {{.ExpiresText}}.</p>
  <p>If you didn't request this, you can safely ignore this email.</p>
</div>`))

func (s *emailService) SendClientInviteEmail(ctx context.Context, params InviteEmailParams) error {
	trainerLabel := "your trainer"
	if params.TrainerName != nil && *params.TrainerName != "" {
		trainerLabel = *params.TrainerName
	}
	clientLabel := "there"
	if params.ClientName != nil && *params.ClientName != "" {
		clientLabel = *params.ClientName
	}
	expiresText := ""
	if params.ExpiresAt != nil {
		expiresText = fmt.Sprintf("This link expires on %s.", params.ExpiresAt.Format("January 2, 2006"))
	}

	var body bytes.Buffer
	err := inviteEmailTemplate.Execute(&body, map[string]string{
		"ClientLabel":     clientLabel,
		"TrainerLabel":    trainerLabel,
		"RegistrationURL": fmt.Sprintf("%s/register/%s", s.appBaseURL, params.Token),
		"ExpiresText":     expiresText,
	})
	if err != nil {
		return fmt.Errorf("failed to render invite email: %w", err)
	}

	subject := fmt.Sprintf("You're invited to Lumi by %s", trainerLabel)
	return s.send(ctx, params.To, subject, body.String())
}

func (s *emailService) SendPasswordResetEmail(ctx context.Context, params ResetEmailParams) error {
	nameLabel := "there"
	if params.Name != nil && *params.Name != "" {
		nameLabel = *params.Name
	}

	var body bytes.Buffer
	err := resetEmailTemplate.Execute(&body, map[string]string{
		"NameLabel":   nameLabel,
		"ResetURL":    fmt.Sprintf("%s/reset-password/%s", s.appBaseURL, params.Token),
		"ExpiresText": params.ExpiresAt.Format("January 2, 2006 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}

	return s.send(ctx, params.To, "Reset your Lumi password", body.String())
}

func (s *emailService) send(ctx context.Context, to, subject, html string) error {
	if s.apiKey == "" {
		log.Printf("[email] mail API key not configured, skipping send to %s: %q", to, subject)
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("email API returned non-success status: %d", resp.StatusCode)
	}
	return nil
}
