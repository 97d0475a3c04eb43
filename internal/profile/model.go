package profile

import (
	"fmt"
	"strings"
	"time"
)

// Resume sources.
const (
	SourceCV     = "cv"
	SourceManual = "manual"
)

// Resume is one parsed skill profile in an account's collection. IDs are
// integers assigned monotonically per account. Within a collection at most
// one resume is active; a non-empty collection always has exactly one.
type Resume struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	IsActive        bool      `json:"isActive"`
	Skills          []Skill   `json:"skills"`
	YearsExperience int       `json:"yearsExperience"`
	CurrentRole     string    `json:"currentRole"`
	Summary         string    `json:"summary"`
	Source          string    `json:"source"`
	Refined         bool      `json:"refined"`
	Hash            string    `json:"hash,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// WorkEntry is one manually entered work-history item.
type WorkEntry struct {
	Company      string `json:"company"`
	Role         string `json:"role"`
	Period       string `json:"period"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
}

// EntriesText renders work-history entries into the narrative form that
// provider prompts expect.
func EntriesText(entries []WorkEntry) string {
	parts := make([]string, 0, len(entries))
	for i, e := range entries {
		parts = append(parts, fmt.Sprintf(
			"Entry %d:\n  Company: %s\n  Role: %s\n  Period: %s\n  Description: %s\n  Technologies: %s",
			i+1, e.Company, e.Role, e.Period, e.Description, e.Technologies,
		))
	}
	return strings.Join(parts, "\n\n")
}
