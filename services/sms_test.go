package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rpupo63/hackathon-review-backend/models"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	sent []*twilioApi.CreateMessageParams
	err  error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestSMSDeliverTextsPrimaryContact(t *testing.T) {
	fake := &fakeCreator{}
	sender, err := newSMSSender(fake, "+15005550006", "+91")
	if err != nil {
		t.Fatal(err)
	}
	h := testHackathon()
	app := teamApplication(t, h)
	phaseID := h.Phases[0].ID

	err = sender.Deliver(context.Background(), delivery(h, app, models.EventPhaseReuploadRequested, &phaseID,
		models.EventDetail{Message: "Add the demo link", ReuploadCount: 1}))
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.sent))
	}
	p := fake.sent[0]
	if *p.To != "+919876543210" || *p.From != "+15005550006" {
		t.Errorf("to=%s from=%s", *p.To, *p.From)
	}
	if !strings.Contains(*p.Body, "re-upload requested") || strings.Contains(*p.Body, "\n") {
		t.Errorf("body = %q", *p.Body)
	}
}

func TestSMSDeliverWrapsProviderError(t *testing.T) {
	sender, _ := newSMSSender(&fakeCreator{err: errors.New("21211 invalid To")}, "+15005550006", "91")
	h := testHackathon()
	app := teamApplication(t, h)
	err := sender.Deliver(context.Background(), delivery(h, app, models.EventApplicationCreated, nil, models.EventDetail{}))
	if err == nil || !strings.Contains(err.Error(), "21211") {
		t.Fatalf("Deliver error = %v", err)
	}
}

func TestE164(t *testing.T) {
	sender, _ := newSMSSender(&fakeCreator{}, "+1", "91")
	if got := sender.E164("9876543210"); got != "+919876543210" {
		t.Errorf("E164 = %q", got)
	}
	if got := sender.E164("+447700900123"); got != "+447700900123" {
		t.Errorf("E164 kept = %q", got)
	}
}
