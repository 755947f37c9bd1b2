package workflow

import (
	"testing"
	"time"

	"github.com/rpupo63/hackathon-review-backend/errs"
	"github.com/rpupo63/hackathon-review-backend/models"
)

func TestCanApply(t *testing.T) {
	existing := &models.Application{Status: models.ApplicationRejected}
	firstDeadline := t0.Add(7 * day)

	cases := []struct {
		name      string
		published bool
		phaseless bool
		existing  *models.Application
		now       time.Time
		want      string
	}{
		{name: "open", now: t0, want: ""},
		{name: "after registrationEndDate but before first deadline", now: t0.Add(3 * day), want: ""},
		{name: "exactly at first deadline", now: firstDeadline, want: ""},
		{name: "after first deadline", now: firstDeadline.Add(time.Second), want: "RegistrationClosed"},
		{name: "phaseless falls back to registrationEndDate", phaseless: true, now: t0.Add(2 * day), want: "RegistrationClosed"},
		{name: "results published", published: true, now: t0, want: "ResultsClosed"},
		{name: "existing application even if rejected", existing: existing, now: t0, want: "AlreadyApplied"},
		{name: "existing wins over published", existing: existing, published: true, now: firstDeadline.Add(day), want: "AlreadyApplied"},
		{name: "published wins over deadline", published: true, now: firstDeadline.Add(day), want: "ResultsClosed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := testHackathon()
			h.ResultsPublished = tc.published
			if tc.phaseless {
				h.Phases = nil
			}
			got := CanApply(h, tc.existing, tc.now)
			if got.ReasonCode() != tc.want {
				t.Fatalf("CanApply reason = %q, want %q (err %v)", got.ReasonCode(), tc.want, got.Reason)
			}
			if got.Allowed != (tc.want == "") {
				t.Fatalf("Allowed = %v with reason %q", got.Allowed, tc.want)
			}
		})
	}
}

func TestCanApplyReasonsAreTypedErrors(t *testing.T) {
	h := testHackathon()
	got := CanApply(h, nil, t0.Add(30*day))
	if !errs.IsRegistrationClosedError(got.Reason) {
		t.Fatalf("expected RegistrationClosed, got %v", got.Reason)
	}
	h.ResultsPublished = true
	if got := CanApply(h, nil, t0); !errs.IsResultsClosedError(got.Reason) {
		t.Fatalf("expected ResultsClosed, got %v", got.Reason)
	}
}

func TestCheckReupload(t *testing.T) {
	for count, wantErr := range map[int]bool{0: false, 1: false, 2: true, 3: true} {
		err := CheckReupload(count)
		if (err != nil) != wantErr {
			t.Errorf("CheckReupload(%d) = %v, want error %v", count, err, wantErr)
		}
		if err != nil && !errs.IsReuploadLimitExceededError(err) {
			t.Errorf("CheckReupload(%d) returned %v", count, err)
		}
	}
	if got := RemainingReuploads(0); got != 2 {
		t.Errorf("RemainingReuploads(0) = %d", got)
	}
	if got := RemainingReuploads(2); got != 0 {
		t.Errorf("RemainingReuploads(2) = %d", got)
	}
}
