package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio REST client SMSSender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSSender texts the primary contact of an application through Twilio.
type SMSSender struct {
	api         messageCreator
	from        string
	countryCode string
}

// NewSMSSender builds a sender from Twilio account credentials. countryCode
// is prefixed to the stored ten digit numbers, e.g. "91".
func NewSMSSender(accountSID, authToken, from, countryCode string) (*SMSSender, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newSMSSender(client.Api, from, countryCode)
}

func newSMSSender(api messageCreator, from, countryCode string) (*SMSSender, error) {
	if from == "" {
		return nil, fmt.Errorf("TWILIO_FROM_NUMBER is required")
	}
	return &SMSSender{api: api, from: from, countryCode: strings.TrimPrefix(countryCode, "+")}, nil
}

func (s *SMSSender) Name() string { return "sms" }

// E164 formats a stored phone number for Twilio.
func (s *SMSSender) E164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + s.countryCode + phone
}

// Deliver texts the subject line of the notification to the primary contact.
func (s *SMSSender) Deliver(ctx context.Context, d Delivery) error {
	msg, ok := Compose(d)
	if !ok {
		return nil
	}
	contact, ok := d.Application.PrimaryContact()
	if !ok || contact.Phone == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(s.E164(contact.Phone))
	params.SetFrom(s.from)
	params.SetBody(msg.Subject + ". " + firstParagraph(msg.Text))

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Str("kind", string(d.Event.Kind)).Msg("sent sms")
	}
	return nil
}

func firstParagraph(text string) string {
	if i := strings.Index(text, "\n\n"); i >= 0 {
		return text[:i]
	}
	return text
}
