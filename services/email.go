package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultResendURL = "https://api.resend.com"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// EmailSender delivers applicant notifications through Resend.
type EmailSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewEmailSender builds a sender. An empty baseURL means the public Resend API.
func NewEmailSender(apiKey, from, baseURL string, client *http.Client) (*EmailSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required")
	}
	if from == "" {
		return nil, fmt.Errorf("RESEND_FROM_EMAIL is required")
	}
	if baseURL == "" {
		baseURL = defaultResendURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &EmailSender{apiKey: apiKey, from: from, baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
}

func (s *EmailSender) Name() string { return "email" }

// Deliver mails every member of the application. Events applicants are not
// told about are skipped.
func (s *EmailSender) Deliver(ctx context.Context, d Delivery) error {
	msg, ok := Compose(d)
	if !ok {
		return nil
	}
	var to []string
	for _, c := range Recipients(d.Application) {
		if c.Email != "" {
			to = append(to, c.Email)
		}
	}
	if len(to) == 0 {
		log.Warn().Str("applicationId", d.Application.ID.String()).Msg("no email recipients for application")
		return nil
	}
	_, err := s.Send(ctx, msg.Subject, msg.HTML(), msg.Text, to)
	return err
}

// Send sends one email and returns the provider's message id.
func (s *EmailSender) Send(ctx context.Context, subject, htmlBody, textBody string, recipients []string) (string, error) {
	if len(recipients) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	jsonPayload, err := json.Marshal(ResendEmailRequest{
		From:    s.from,
		To:      recipients,
		Subject: subject,
		Html:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Resend API: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return "", fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return "", fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
		return "", nil
	}
	log.Debug().Str("emailId", emailResponse.ID).Int("recipients", len(recipients)).Msg("sent email via Resend")
	return emailResponse.ID, nil
}
