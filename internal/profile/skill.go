package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pawelszalw/HireTree/internal/llm"
)

const defaultAIConfidence = 3

// Skill is one normalized skill record. Identity is the name compared
// case-insensitively; LastUsedYear and UserRating stay nil until evidence or
// the user provides them.
type Skill struct {
	Name         string `json:"name"`
	Years        int    `json:"years"`
	LastUsedYear *int   `json:"lastUsedYear"`
	Recency      string `json:"recency"`
	AIConfidence int    `json:"aiConfidence"`
	UserRating   *int   `json:"userRating"`
	Note         string `json:"note"`
}

// SkillPatch is a partial rating/note update. Nil fields are left untouched.
type SkillPatch struct {
	UserRating *int    `json:"userRating"`
	Note       *string `json:"note"`
}

// NormalizeSkill fills typed defaults for every field a provider omitted.
// It never fails; garbage in gets clamped to sane values.
func NormalizeSkill(raw llm.Skill) Skill {
	s := Skill{
		Name:         strings.TrimSpace(raw.Name),
		Recency:      raw.Recency,
		Note:         raw.Note,
		AIConfidence: defaultAIConfidence,
		LastUsedYear: raw.LastUsedYear,
		UserRating:   raw.UserRating,
	}
	if raw.Years != nil && *raw.Years > 0 {
		s.Years = *raw.Years
	}
	if raw.AIConfidence != nil {
		s.AIConfidence = clampRating(*raw.AIConfidence)
	}
	if raw.UserRating != nil {
		rating := clampRating(*raw.UserRating)
		s.UserRating = &rating
	}
	return s
}

func clampRating(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

// normalizeSkills normalizes a provider skill list and collapses duplicate
// names (case-insensitive, first occurrence wins). Nameless entries are
// dropped.
func normalizeSkills(raw []llm.Skill) []Skill {
	out := make([]Skill, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		s := NormalizeSkill(r)
		if s.Name == "" {
			continue
		}
		key := strings.ToLower(s.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ApplySkillPatch applies a partial update to a skill. A user rating outside
// [1,5] is rejected; a nil patch field leaves the current value alone.
func ApplySkillPatch(s Skill, patch SkillPatch) (Skill, error) {
	if patch.UserRating != nil {
		if *patch.UserRating < 1 || *patch.UserRating > 5 {
			return Skill{}, fmt.Errorf("%w: userRating must be between 1 and 5", ErrInvalidInput)
		}
		rating := *patch.UserRating
		s.UserRating = &rating
	}
	if patch.Note != nil {
		s.Note = *patch.Note
	}
	return s, nil
}

// CompactSkills renders a token-efficient skill summary for provider
// prompts, e.g. "React(5★,current), Python(4★,1-2 years ago)". The user
// rating wins over the model's confidence when both exist.
func CompactSkills(skills []Skill) string {
	parts := make([]string, 0, len(skills))
	for _, s := range skills {
		rating := strconv.Itoa(s.AIConfidence)
		if s.UserRating != nil {
			rating = strconv.Itoa(*s.UserRating)
		}
		parts = append(parts, fmt.Sprintf("%s(%s★,%s)", s.Name, rating, s.Recency))
	}
	return strings.Join(parts, ", ")
}
