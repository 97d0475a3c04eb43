package llm

import (
	"context"
	"strings"
)

// Mock is a deterministic Provider for local development without API keys.
// It fabricates a small profile from capitalized tokens in the input so the
// rest of the pipeline can be exercised end to end.
type Mock struct{}

func (Mock) ParseJobPosting(ctx context.Context, rawText string) (JobFields, error) {
	_ = ctx
	title := "Untitled"
	if line := firstLine(rawText); line != "" {
		title = line
	}
	return JobFields{IsJobOffer: true, Title: title, Description: "(mock provider)"}, nil
}

func (Mock) ParseCV(ctx context.Context, anonymizedText string) (Profile, error) {
	_ = ctx
	return mockProfile(anonymizedText), nil
}

func (Mock) ParseWorkHistory(ctx context.Context, entriesText string) (Profile, error) {
	_ = ctx
	return mockProfile(entriesText), nil
}

func (Mock) RefineProfile(ctx context.Context, compactSkills, entriesText string) (RefineResult, error) {
	_ = ctx
	existing := mockProfile(compactSkills).Skills
	added := mockProfile(entriesText).Skills
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[strings.ToLower(s.Name)] = struct{}{}
	}
	for _, s := range added {
		if _, ok := seen[strings.ToLower(s.Name)]; !ok {
			existing = append(existing, s)
		}
	}
	return RefineResult{Skills: existing}, nil
}

func mockProfile(text string) Profile {
	confidence := 3
	var skills []Skill
	seen := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\n' || r == ',' || r == '(' || r == ')' || r == ':' || r == '.'
	}) {
		if len(tok) < 2 || len(tok) > 20 {
			continue
		}
		if tok[0] < 'A' || tok[0] > 'Z' {
			continue
		}
		if strings.HasPrefix(tok, "[") || strings.Contains(tok, "REDACTED") {
			continue
		}
		key := strings.ToLower(tok)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, Skill{Name: tok, Recency: "current", AIConfidence: &confidence})
		if len(skills) == 10 {
			break
		}
	}
	return Profile{
		Skills:      skills,
		CurrentRole: "Software Engineer",
		Summary:     "Mock profile generated without an AI provider.",
	}
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var _ Provider = Mock{}
