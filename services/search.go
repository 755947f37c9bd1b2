package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/rpupo63/hackathon-review-backend/models"
)

const DefaultApplicationIndex = "applications_v1"

const applicationMapping = `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
	"application_id":{"type":"keyword"},"hackathon_id":{"type":"keyword"},"applicant_id":{"type":"keyword"},
	"mode":{"type":"keyword"},"status":{"type":"keyword"},"team_name":{"type":"text"},
	"names":{"type":"text"},"emails":{"type":"keyword"},"current_phase_id":{"type":"keyword"},
	"showcased":{"type":"boolean"},"phase_statuses":{"type":"keyword"},
	"applied_at":{"type":"date"},"updated_at":{"type":"date"}
}}}`

// ApplicationDoc is the searchable snapshot of an application.
type ApplicationDoc struct {
	ApplicationID  string    `json:"application_id"`
	HackathonID    string    `json:"hackathon_id"`
	ApplicantID    string    `json:"applicant_id"`
	Mode           string    `json:"mode"`
	Status         string    `json:"status"`
	TeamName       string    `json:"team_name,omitempty"`
	Names          []string  `json:"names"`
	Emails         []string  `json:"emails"`
	CurrentPhaseID string    `json:"current_phase_id,omitempty"`
	Showcased      bool      `json:"showcased"`
	PhaseStatuses  []string  `json:"phase_statuses"`
	AppliedAt      time.Time `json:"applied_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BuildApplicationDoc flattens app into its search document.
func BuildApplicationDoc(app *models.Application) ApplicationDoc {
	doc := ApplicationDoc{
		ApplicationID: app.ID.String(),
		HackathonID:   app.HackathonID.String(),
		ApplicantID:   app.ApplicantID.String(),
		Mode:          string(app.Mode),
		Status:        string(app.Status),
		Showcased:     app.Showcased,
		AppliedAt:     app.AppliedAt,
		UpdatedAt:     app.UpdatedAt,
		Names:         []string{},
		Emails:        []string{},
		PhaseStatuses: []string{},
	}
	if app.CurrentPhaseID != nil {
		doc.CurrentPhaseID = app.CurrentPhaseID.String()
	}
	if payload, err := app.Payload(); err == nil {
		if team, ok := payload.(models.TeamPayload); ok {
			doc.TeamName = team.TeamName
		}
	}
	for _, c := range Recipients(app) {
		doc.Names = append(doc.Names, c.Name)
		doc.Emails = append(doc.Emails, c.Email)
	}
	for _, sub := range app.Submissions {
		doc.PhaseStatuses = append(doc.PhaseStatuses, sub.PhaseID.String()+":"+string(sub.Status))
	}
	return doc
}

// SearchIndex keeps an Elasticsearch snapshot of applications for organizer search.
// The snapshot trails the database; authoritative reads never go through it.
type SearchIndex struct {
	client *es.Client
	index  string
}

// NewSearchIndex connects to the given addresses. transport may be nil.
func NewSearchIndex(addresses []string, index string, transport http.RoundTripper) (*SearchIndex, error) {
	client, err := es.NewClient(es.Config{Addresses: addresses, Transport: transport})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	if index == "" {
		index = DefaultApplicationIndex
	}
	return &SearchIndex{client: client, index: index}, nil
}

func (s *SearchIndex) Name() string { return "search" }

// EnsureIndex creates the application index when missing.
func (s *SearchIndex) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}
	res, err := s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithBody(bytes.NewBufferString(applicationMapping)),
		s.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	return responseError(res, "create index "+s.index)
}

// Deliver refreshes the snapshot of the event's application, removing it
// when the application is gone.
func (s *SearchIndex) Deliver(ctx context.Context, d Delivery) error {
	if d.Application == nil {
		if d.Event.ApplicationID == nil {
			return nil
		}
		return s.Remove(ctx, *d.Event.ApplicationID)
	}
	return s.Put(ctx, d.Application)
}

// Put indexes the current state of app.
func (s *SearchIndex) Put(ctx context.Context, app *models.Application) error {
	body, err := json.Marshal(BuildApplicationDoc(app))
	if err != nil {
		return err
	}
	res, err := s.client.Index(s.index, bytes.NewReader(body),
		s.client.Index.WithDocumentID(app.ID.String()),
		s.client.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index application %s: %w", app.ID, err)
	}
	return responseError(res, "index application "+app.ID.String())
}

// Remove deletes the snapshot of an application. Missing documents are fine.
func (s *SearchIndex) Remove(ctx context.Context, applicationID uuid.UUID) error {
	res, err := s.client.Delete(s.index, applicationID.String(), s.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete application %s: %w", applicationID, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return responseError(res, "delete application "+applicationID.String())
}

// SearchQuery filters the organizer search.
type SearchQuery struct {
	HackathonID uuid.UUID
	Text        string
	Status      string
	Size        int
}

// SearchResult is a page of matching snapshots.
type SearchResult struct {
	Total int64            `json:"total"`
	Hits  []ApplicationDoc `json:"hits"`
}

// Search finds applications of one hackathon by free text over names,
// team name and emails, optionally filtered by status.
func (s *SearchIndex) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if q.Size <= 0 || q.Size > 100 {
		q.Size = 20
	}
	filter := []map[string]any{{"term": map[string]any{"hackathon_id": q.HackathonID.String()}}}
	if q.Status != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"status": q.Status}})
	}
	boolQuery := map[string]any{"filter": filter}
	if q.Text != "" {
		boolQuery["must"] = []map[string]any{{
			"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"names", "team_name", "emails"},
			},
		}}
	}
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"sort":  []map[string]any{{"_score": "desc"}, {"applied_at": "asc"}},
	})
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithSize(q.Size),
	)
	if err != nil {
		return nil, fmt.Errorf("search applications: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search applications: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ApplicationDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := &SearchResult{Total: parsed.Hits.Total.Value, Hits: make([]ApplicationDoc, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, h.Source)
	}
	return out, nil
}

func responseError(res *esapi.Response, what string) error {
	defer res.Body.Close()
	if !res.IsError() {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	return fmt.Errorf("%s: %s", what, res.String())
}
