// Package extract turns one comment body into a validated extraction result
// via a language-model call. It is the only component permitted to invoke
// the model.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"TimelineTracker/internal/domain"
	"TimelineTracker/internal/ports"
)

// modelOutput is the JSON object the instruction template demands.
type modelOutput struct {
	Eligibility       string   `json:"eligibility"`
	ApplicationMethod string   `json:"application_method"`
	ApplicationDate   string   `json:"application_date"`
	BiometricDate     string   `json:"biometric_date"`
	ApprovalDate      string   `json:"approval_date"`
	RefusalDate       string   `json:"refusal_date"`
	CeremonyDate      string   `json:"ceremony_date"`
	UncertainDates    []string `json:"uncertain_dates"`
	Notes             string   `json:"notes"`
	Skip              bool     `json:"skip"`
}

// dateFields maps model output field names to milestone kinds.
var dateFields = []struct {
	name string
	kind domain.MilestoneKind
}{
	{"application_date", domain.MilestoneSubmitted},
	{"biometric_date", domain.MilestoneBiometrics},
	{"approval_date", domain.MilestoneGranted},
	{"refusal_date", domain.MilestoneRefused},
	{"ceremony_date", domain.MilestoneCeremony},
}

// Extractor implements ports.Extractor on top of a chat model.
type Extractor struct {
	model  ports.ChatModel
	logger *slog.Logger
}

var _ ports.Extractor = (*Extractor)(nil)

// New wires the chat model into the extractor.
func New(model ports.ChatModel, logger *slog.Logger) *Extractor {
	return &Extractor{model: model, logger: logger}
}

// Extract invokes the model once for the comment. A failed call wraps
// domain.ErrExtractionUnavailable so the caller skips the comment this run
// without caching; schema-invalid output is returned as NonTimeline (and
// should be cached: the identical input would reproduce the same output).
func (e *Extractor) Extract(ctx context.Context, comment domain.RawComment) (domain.ExtractionResult, error) {
	if e.model == nil {
		return domain.ExtractionResult{}, fmt.Errorf("%w: no model configured", domain.ErrExtractionUnavailable)
	}

	content, err := e.model.Complete(ctx, systemPrompt, userPrompt(comment.Body))
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("%w: comment %s: %v", domain.ErrExtractionUnavailable, comment.ID, err)
	}

	result := e.parse(comment, content)
	return result, nil
}

// parse validates model output against the schema. Every rejection path
// yields NonTimeline with the reason, never an error.
func (e *Extractor) parse(comment domain.RawComment, content string) domain.ExtractionResult {
	var out modelOutput
	if err := json.Unmarshal([]byte(stripFences(content)), &out); err != nil {
		e.warn("model output is not valid JSON", comment.ID, err)
		return domain.NonTimeline(fmt.Sprintf("invalid model output: %v", err))
	}

	if out.Skip {
		return domain.NonTimeline("no timeline content")
	}

	method, err := domain.ParseApplicationMethod(out.ApplicationMethod)
	if err != nil {
		e.warn("model output failed schema validation", comment.ID, err)
		return domain.NonTimeline(fmt.Sprintf("invalid model output: %v", err))
	}

	uncertain := map[string]bool{}
	for _, field := range out.UncertainDates {
		uncertain[strings.TrimSpace(strings.ToLower(field))] = true
	}

	milestones := map[domain.MilestoneKind]domain.MilestoneDate{}
	values := []string{out.ApplicationDate, out.BiometricDate, out.ApprovalDate, out.RefusalDate, out.CeremonyDate}
	for i, field := range dateFields {
		date, err := parseModelDate(field.name, values[i], uncertain[field.name])
		if err != nil {
			e.warn("model output failed schema validation", comment.ID, err)
			return domain.NonTimeline(fmt.Sprintf("invalid model output: %v", err))
		}
		if !date.IsZero() {
			milestones[field.kind] = date
		}
	}

	if len(milestones) == 0 {
		return domain.NonTimeline("no dated milestones")
	}

	route, qualifiers := canonicalEligibility(out.Eligibility, comment.Body)

	result, err := domain.NewTimelineResult(domain.TimelineExtract{
		Handle:     comment.Handle(),
		Route:      route,
		Qualifiers: qualifiers,
		Method:     method,
		Milestones: milestones,
		Notes:      strings.TrimSpace(out.Notes),
	})
	if err != nil {
		e.warn("timeline extract rejected", comment.ID, err)
		return domain.NonTimeline(fmt.Sprintf("invalid extract: %v", err))
	}

	return result
}

func (e *Extractor) warn(msg, commentID string, err error) {
	if e.logger != nil {
		e.logger.Warn(msg, "comment", commentID, "error", err)
	}
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
