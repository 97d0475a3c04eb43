package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pawelszalw/HireTree/internal/llm"
	"github.com/pawelszalw/HireTree/internal/redact"
	"github.com/pawelszalw/HireTree/internal/shared/metrics"
	"github.com/pawelszalw/HireTree/internal/shared/telemetry"
)

// Service owns the per-account resume collections and the rules that govern
// them: fingerprint dedup on upload, the single-active invariant, and the
// one-shot refine state machine.
type Service struct {
	Repo     Repo
	Provider llm.Provider

	mu       sync.Mutex
	accounts map[string]*sync.Mutex
}

// NewService constructs a Service.
func NewService(repo Repo, provider llm.Provider) *Service {
	return &Service{
		Repo:     repo,
		Provider: provider,
		accounts: make(map[string]*sync.Mutex),
	}
}

// CreateResult is the outcome of a document upload: the stored (or cached)
// resume plus whether the fingerprint cache short-circuited the provider.
type CreateResult struct {
	Resume Resume
	Cached bool
}

// lockAccount serializes mutations for one account. Persistence is a
// whole-collection overwrite, so unsynchronized writers would silently drop
// each other's changes.
func (s *Service) lockAccount(accountID string) func() {
	s.mu.Lock()
	m, ok := s.accounts[accountID]
	if !ok {
		m = &sync.Mutex{}
		s.accounts[accountID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// lockAccounts takes both account locks in a stable order so two concurrent
// migrations cannot deadlock.
func (s *Service) lockAccounts(a, b string) func() {
	if a == b {
		return s.lockAccount(a)
	}
	if a > b {
		a, b = b, a
	}
	unlockA := s.lockAccount(a)
	unlockB := s.lockAccount(b)
	return func() {
		unlockB()
		unlockA()
	}
}

// CreateFromDocument turns extracted document text into a stored resume.
// The text is anonymized and fingerprinted first; if another CV upload in
// this account produced the same fingerprint, that resume is returned
// unchanged with no provider call. Provider failure stores an empty profile
// rather than failing the upload.
func (s *Service) CreateFromDocument(ctx context.Context, accountID, rawText, displayName string) (CreateResult, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	anonymized := redact.Anonymize(rawText)
	fp := redact.Fingerprint(anonymized)

	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return CreateResult{}, err
	}

	for _, r := range resumes {
		if r.Source == SourceCV && r.Hash == fp {
			metrics.IncCacheHit()
			telemetry.Info("profile.cv.cache_hit", map[string]any{
				"account_id": accountID,
				"resume_id":  r.ID,
			})
			return CreateResult{Resume: r, Cached: true}, nil
		}
	}

	start := time.Now()
	metrics.IncProviderCall()
	parsed, err := s.Provider.ParseCV(ctx, anonymized)
	metrics.ObserveProviderCallDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncProviderFailure()
		telemetry.Error("profile.cv.provider_failed", map[string]any{
			"account_id": accountID,
			"error":      err.Error(),
		})
		parsed = llm.EmptyProfile()
	}

	resume, err := s.appendResume(ctx, accountID, resumes, parsed, displayName, SourceCV, fp)
	if err != nil {
		return CreateResult{}, err
	}

	telemetry.Info("profile.cv.parsed", map[string]any{
		"account_id": accountID,
		"resume_id":  resume.ID,
		"skills":     len(resume.Skills),
		"years":      resume.YearsExperience,
	})
	return CreateResult{Resume: resume}, nil
}

// CreateFromNarrative builds a resume from manually entered work history.
// Manual entries are never deduplicated.
func (s *Service) CreateFromNarrative(ctx context.Context, accountID string, entries []WorkEntry, displayName string) (Resume, error) {
	if len(entries) == 0 {
		return Resume{}, fmt.Errorf("%w: at least one work history entry is required", ErrInvalidInput)
	}

	unlock := s.lockAccount(accountID)
	defer unlock()

	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return Resume{}, err
	}

	start := time.Now()
	metrics.IncProviderCall()
	parsed, err := s.Provider.ParseWorkHistory(ctx, EntriesText(entries))
	metrics.ObserveProviderCallDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncProviderFailure()
		telemetry.Error("profile.manual.provider_failed", map[string]any{
			"account_id": accountID,
			"error":      err.Error(),
		})
		parsed = llm.EmptyProfile()
	}

	resume, err := s.appendResume(ctx, accountID, resumes, parsed, displayName, SourceManual, "")
	if err != nil {
		return Resume{}, err
	}

	telemetry.Info("profile.manual.built", map[string]any{
		"account_id": accountID,
		"resume_id":  resume.ID,
		"skills":     len(resume.Skills),
	})
	return resume, nil
}

// Refine merges new work-history evidence into the account's active resume.
// It is a one-shot operation: the attempt is consumed even when the provider
// fails, in which case the prior skills are kept verbatim.
func (s *Service) Refine(ctx context.Context, accountID string, entries []WorkEntry) (Resume, error) {
	if len(entries) == 0 {
		return Resume{}, fmt.Errorf("%w: at least one work history entry is required", ErrInvalidInput)
	}

	unlock := s.lockAccount(accountID)
	defer unlock()

	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return Resume{}, err
	}
	if len(resumes) == 0 {
		return Resume{}, fmt.Errorf("%w: no profile to refine, upload a CV or build manually first", ErrNotFound)
	}

	idx := activeIndex(resumes)
	if resumes[idx].Refined {
		return Resume{}, ErrAlreadyRefined
	}

	compact := CompactSkills(resumes[idx].Skills)
	start := time.Now()
	metrics.IncProviderCall()
	result, err := s.Provider.RefineProfile(ctx, compact, EntriesText(entries))
	metrics.ObserveProviderCallDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncProviderFailure()
		telemetry.Error("profile.refine.provider_failed", map[string]any{
			"account_id": accountID,
			"resume_id":  resumes[idx].ID,
			"error":      err.Error(),
		})
	} else {
		resumes[idx].Skills = normalizeSkills(result.Skills)
	}
	// The attempt is consumed either way.
	resumes[idx].Refined = true

	if err := s.Repo.Save(ctx, accountID, resumes); err != nil {
		return Resume{}, err
	}

	telemetry.Info("profile.refine.done", map[string]any{
		"account_id": accountID,
		"resume_id":  resumes[idx].ID,
		"skills":     len(resumes[idx].Skills),
	})
	return resumes[idx], nil
}

// PatchSkill updates the rating/note of one skill, matched by name
// case-insensitively, on the given resume.
func (s *Service) PatchSkill(ctx context.Context, accountID string, resumeID int, skillName string, patch SkillPatch) (Skill, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return Skill{}, err
	}

	idx := indexByID(resumes, resumeID)
	if idx < 0 {
		return Skill{}, fmt.Errorf("%w: resume %d", ErrNotFound, resumeID)
	}

	for i := range resumes[idx].Skills {
		if !strings.EqualFold(resumes[idx].Skills[i].Name, skillName) {
			continue
		}
		updated, err := ApplySkillPatch(resumes[idx].Skills[i], patch)
		if err != nil {
			return Skill{}, err
		}
		resumes[idx].Skills[i] = updated
		if err := s.Repo.Save(ctx, accountID, resumes); err != nil {
			return Skill{}, err
		}
		return updated, nil
	}
	return Skill{}, fmt.Errorf("%w: skill %q", ErrNotFound, skillName)
}

// SetActive makes the given resume the account's single active one.
func (s *Service) SetActive(ctx context.Context, accountID string, resumeID int) (Resume, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return Resume{}, err
	}

	idx := indexByID(resumes, resumeID)
	if idx < 0 {
		return Resume{}, fmt.Errorf("%w: resume %d", ErrNotFound, resumeID)
	}

	for i := range resumes {
		resumes[i].IsActive = i == idx
	}
	if err := s.Repo.Save(ctx, accountID, resumes); err != nil {
		return Resume{}, err
	}
	return resumes[idx], nil
}

// Delete removes a resume. When the active one goes away, the first
// remaining resume in collection order takes over.
func (s *Service) Delete(ctx context.Context, accountID string, resumeID int) error {
	unlock := s.lockAccount(accountID)
	defer unlock()

	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return err
	}

	idx := indexByID(resumes, resumeID)
	if idx < 0 {
		return fmt.Errorf("%w: resume %d", ErrNotFound, resumeID)
	}

	wasActive := resumes[idx].IsActive
	resumes = append(resumes[:idx], resumes[idx+1:]...)
	if wasActive && len(resumes) > 0 {
		for i := range resumes {
			resumes[i].IsActive = false
		}
		resumes[0].IsActive = true
	}

	return s.Repo.Save(ctx, accountID, resumes)
}

// Migrate moves every resume from one account's collection into another's.
// Migrated resumes are appended after any existing ones and renumbered; the
// destination's active selection wins when both sides have one. The source
// collection is left empty.
func (s *Service) Migrate(ctx context.Context, fromAccountID, toAccountID string) (int, error) {
	unlock := s.lockAccounts(fromAccountID, toAccountID)
	defer unlock()

	moved, err := s.Repo.Load(ctx, fromAccountID)
	if err != nil {
		return 0, err
	}
	if len(moved) == 0 {
		return 0, nil
	}

	resumes, err := s.Repo.Load(ctx, toAccountID)
	if err != nil {
		return 0, err
	}

	hasActive := false
	for _, r := range resumes {
		if r.IsActive {
			hasActive = true
			break
		}
	}

	id := nextID(resumes)
	for _, r := range moved {
		r.ID = id
		id++
		if hasActive {
			r.IsActive = false
		} else if r.IsActive {
			hasActive = true
		}
		resumes = append(resumes, r)
	}

	if err := s.Repo.Save(ctx, toAccountID, resumes); err != nil {
		return 0, err
	}
	if err := s.Repo.Save(ctx, fromAccountID, []Resume{}); err != nil {
		return 0, err
	}

	telemetry.Info("profile.migrate.done", map[string]any{
		"from_account_id": fromAccountID,
		"to_account_id":   toAccountID,
		"resumes":         len(moved),
	})
	return len(moved), nil
}

// Active returns the account's active resume.
func (s *Service) Active(ctx context.Context, accountID string) (Resume, error) {
	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return Resume{}, err
	}
	if len(resumes) == 0 {
		return Resume{}, fmt.Errorf("%w: no CV uploaded yet", ErrNotFound)
	}
	return resumes[activeIndex(resumes)], nil
}

// List returns the account's resume collection in insertion order.
func (s *Service) List(ctx context.Context, accountID string) ([]Resume, error) {
	resumes, err := s.Repo.Load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if resumes == nil {
		resumes = []Resume{}
	}
	return resumes, nil
}

func (s *Service) appendResume(ctx context.Context, accountID string, resumes []Resume, parsed llm.Profile, displayName, source, hash string) (Resume, error) {
	id := nextID(resumes)
	if strings.TrimSpace(displayName) == "" {
		displayName = fmt.Sprintf("Resume %d", id)
	}

	years := parsed.YearsExperience
	if years < 0 {
		years = 0
	}

	resume := Resume{
		ID:              id,
		Name:            displayName,
		IsActive:        len(resumes) == 0,
		Skills:          normalizeSkills(parsed.Skills),
		YearsExperience: years,
		CurrentRole:     parsed.CurrentRole,
		Summary:         parsed.Summary,
		Source:          source,
		Hash:            hash,
		UploadedAt:      time.Now().UTC(),
	}

	resumes = append(resumes, resume)
	if err := s.Repo.Save(ctx, accountID, resumes); err != nil {
		return Resume{}, err
	}
	return resume, nil
}

// activeIndex returns the index of the active resume, falling back to the
// first entry when no resume is flagged (inconsistent stored state).
func activeIndex(resumes []Resume) int {
	for i := range resumes {
		if resumes[i].IsActive {
			return i
		}
	}
	return 0
}

func indexByID(resumes []Resume, id int) int {
	for i := range resumes {
		if resumes[i].ID == id {
			return i
		}
	}
	return -1
}

func nextID(resumes []Resume) int {
	maxID := 0
	for _, r := range resumes {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}
