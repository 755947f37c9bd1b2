package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/rpupo63/hackathon-review-backend/models"
	"github.com/rpupo63/hackathon-review-backend/workflow"
)

// Delivery is one outbox event addressed to one application. Application is
// nil when the application no longer exists; Hackathon is nil when it could
// not be loaded.
type Delivery struct {
	Event       models.OutboxEvent
	Hackathon   *models.Hackathon
	Application *models.Application
}

// Message is the applicant-facing text for a Delivery.
type Message struct {
	Subject string
	Text    string
}

// HTML renders the message text as paragraphs.
func (m Message) HTML() string {
	var b strings.Builder
	for _, para := range strings.Split(m.Text, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

func (d Delivery) title() string {
	if d.Hackathon == nil || d.Hackathon.Title == "" {
		return "the hackathon"
	}
	return d.Hackathon.Title
}

func (d Delivery) phaseName() string {
	if d.Hackathon == nil || d.Event.PhaseID == nil {
		return "this phase"
	}
	if i := d.Hackathon.PhaseIndex(*d.Event.PhaseID); i >= 0 {
		return d.Hackathon.Phases[i].Name
	}
	return "this phase"
}

// Compose builds the notification for d. It reports false when the event
// is not something applicants are told about.
func Compose(d Delivery) (Message, bool) {
	if d.Application == nil {
		return Message{}, false
	}
	detail := d.Event.Detail()
	title := d.title()

	switch d.Event.Kind {
	case models.EventApplicationCreated:
		return Message{
			Subject: fmt.Sprintf("Application received: %s", title),
			Text:    fmt.Sprintf("Your application to %s has been received. Watch for phase deadlines on your dashboard.", title),
		}, true

	case models.EventApplicationRejected:
		text := fmt.Sprintf("Your application to %s will not continue.", title)
		if detail.Message != "" {
			text += "\n\n" + detail.Message
		}
		return Message{Subject: fmt.Sprintf("Update on your %s application", title), Text: text}, true

	case models.EventPhaseSubmitted:
		return Message{
			Subject: fmt.Sprintf("%s: submission received", title),
			Text:    fmt.Sprintf("We received your submission for %s. It is now pending review.", d.phaseName()),
		}, true

	case models.EventPhaseReviewed:
		// a rejection is announced by its application.rejected event
		if detail.Status != string(models.SubmissionAccepted) {
			return Message{}, false
		}
		text := fmt.Sprintf("Your submission for %s was accepted.", d.phaseName())
		if detail.Score != nil {
			text += fmt.Sprintf(" Score: %d/100.", *detail.Score)
		}
		if detail.Message != "" {
			text += "\n\n" + detail.Message
		}
		return Message{Subject: fmt.Sprintf("%s: %s accepted", title, d.phaseName()), Text: text}, true

	case models.EventPhaseReuploadRequested:
		text := fmt.Sprintf("The organizers asked you to upload %s again.\n\n%s\n\nFurther re-upload requests left: %d.",
			d.phaseName(), detail.Message, workflow.RemainingReuploads(detail.ReuploadCount))
		return Message{Subject: fmt.Sprintf("%s: re-upload requested", title), Text: text}, true

	case models.EventApplicationShowcased:
		return Message{
			Subject: fmt.Sprintf("%s: your project is showcased", title),
			Text:    fmt.Sprintf("Your project from %s is now publicly showcased.", title),
		}, true

	case models.EventResultsPublished:
		text := fmt.Sprintf("Results for %s are out.", title)
		if detail.Message != "" {
			text += "\n\n" + detail.Message
		}
		return Message{Subject: fmt.Sprintf("%s: results published", title), Text: text}, true
	}
	return Message{}, false
}

// Recipients lists every contact of an application: the individual, or all team members.
func Recipients(app *models.Application) []models.Contact {
	payload, err := app.Payload()
	if err != nil {
		return nil
	}
	switch p := payload.(type) {
	case models.IndividualPayload:
		return []models.Contact{{Name: p.Name, Email: p.Email, Phone: p.Phone}}
	case models.TeamPayload:
		contacts := make([]models.Contact, 0, len(p.Members))
		for _, m := range p.Members {
			contacts = append(contacts, models.Contact{Name: m.Name, Email: m.Email, Phone: m.Phone})
		}
		return contacts
	}
	return nil
}
