package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rpupo63/hackathon-review-backend/models"
)

func TestEmailDeliverSendsToEveryMember(t *testing.T) {
	var got ResendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"id":"em_123"}`))
	}))
	defer srv.Close()

	sender, err := NewEmailSender("re_test", "Hackathons <noreply@example.com>", srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	h := testHackathon()
	app := teamApplication(t, h)
	if err := sender.Deliver(context.Background(), delivery(h, app, models.EventApplicationCreated, nil, models.EventDetail{})); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if strings.Join(got.To, ",") != "asha@example.com,vikram@example.com" {
		t.Errorf("To = %v", got.To)
	}
	if got.From != "Hackathons <noreply@example.com>" || !strings.Contains(got.Subject, "Build for Bharat") {
		t.Errorf("request = %+v", got)
	}
	if !strings.HasPrefix(got.Html, "<p>") || got.Text == "" {
		t.Errorf("bodies html=%q text=%q", got.Html, got.Text)
	}
}

func TestEmailSendReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	sender, _ := NewEmailSender("re_test", "x@example.com", srv.URL, srv.Client())
	_, err := sender.Send(context.Background(), "s", "<p>b</p>", "b", []string{"a@example.com"})
	if err == nil || !strings.Contains(err.Error(), "invalid from address") {
		t.Fatalf("Send error = %v", err)
	}
}

func TestEmailSkipsUnannouncedEvents(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	sender, _ := NewEmailSender("re_test", "x@example.com", srv.URL, srv.Client())
	h := testHackathon()
	app := teamApplication(t, h)
	d := Delivery{Event: models.NewApplicationEvent(models.EventApplicationDeleted, app, nil, models.EventDetail{}), Hackathon: h}
	if err := sender.Deliver(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 0 {
		t.Errorf("provider called %d times", calls.Load())
	}
}

func TestNewEmailSenderRequiresCredentials(t *testing.T) {
	if _, err := NewEmailSender("", "x@example.com", "", nil); err == nil {
		t.Error("missing api key accepted")
	}
	if _, err := NewEmailSender("re_test", "", "", nil); err == nil {
		t.Error("missing sender accepted")
	}
}
