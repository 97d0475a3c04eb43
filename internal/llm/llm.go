package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Skill is a single skill record as returned by a provider. Numeric fields
// are pointers so normalization can tell an omitted value from a zero.
type Skill struct {
	Name         string `json:"name"`
	Years        *int   `json:"years"`
	LastUsedYear *int   `json:"last_used_year"`
	Recency      string `json:"recency"`
	AIConfidence *int   `json:"ai_confidence"`
	UserRating   *int   `json:"user_rating"`
	Note         string `json:"note"`
}

// Profile is the structured result of parsing a CV or a work-history
// narrative. Both inputs share this output shape.
type Profile struct {
	Skills          []Skill `json:"skills"`
	YearsExperience int     `json:"years_experience"`
	CurrentRole     string  `json:"current_role"`
	Summary         string  `json:"summary"`
}

// RefineResult carries the merged skill list returned by RefineProfile.
type RefineResult struct {
	Skills []Skill `json:"skills"`
}

// JobFields is the structured result of parsing a clipped job posting.
type JobFields struct {
	IsJobOffer  bool     `json:"is_job_offer"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Salary      string   `json:"salary"`
	Mode        string   `json:"mode"`
	Seniority   string   `json:"seniority"`
	Contract    string   `json:"contract"`
	Stack       []string `json:"stack"`
	Description string   `json:"description"`
}

// Provider abstracts the text-understanding backends. Inputs are
// pre-processed (anonymized CV text, rendered work-history narrative,
// compact skill summaries); outputs are structured or an error. Callers
// must treat any error as non-fatal and fall back to EmptyProfile.
type Provider interface {
	ParseJobPosting(ctx context.Context, rawText string) (JobFields, error)
	ParseCV(ctx context.Context, anonymizedText string) (Profile, error)
	ParseWorkHistory(ctx context.Context, entriesText string) (Profile, error)
	RefineProfile(ctx context.Context, compactSkills, entriesText string) (RefineResult, error)
}

// EmptyProfile is the defined fallback substituted when a provider call
// fails. Extraction failure never surfaces to the user as an error.
func EmptyProfile() Profile {
	return Profile{Skills: []Skill{}}
}

// DecodeJSON unmarshals a provider response into out, tolerating a markdown
// code fence around the JSON object. Some models wrap their output despite
// being told not to.
func DecodeJSON(raw string, out any) error {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		if idx := strings.Index(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
