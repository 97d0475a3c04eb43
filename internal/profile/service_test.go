package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/pawelszalw/HireTree/internal/llm"
)

// stubProvider counts calls and returns canned results, or fails when
// failWith is set.
type stubProvider struct {
	cvCalls      int
	historyCalls int
	refineCalls  int

	lastCVText      string
	lastCompact     string
	lastEntriesText string

	profile  llm.Profile
	refined  llm.RefineResult
	failWith error
}

func (p *stubProvider) ParseJobPosting(ctx context.Context, rawText string) (llm.JobFields, error) {
	return llm.JobFields{}, errors.New("not used")
}

func (p *stubProvider) ParseCV(ctx context.Context, anonymizedText string) (llm.Profile, error) {
	p.cvCalls++
	p.lastCVText = anonymizedText
	if p.failWith != nil {
		return llm.Profile{}, p.failWith
	}
	return p.profile, nil
}

func (p *stubProvider) ParseWorkHistory(ctx context.Context, entriesText string) (llm.Profile, error) {
	p.historyCalls++
	p.lastEntriesText = entriesText
	if p.failWith != nil {
		return llm.Profile{}, p.failWith
	}
	return p.profile, nil
}

func (p *stubProvider) RefineProfile(ctx context.Context, compactSkills, entriesText string) (llm.RefineResult, error) {
	p.refineCalls++
	p.lastCompact = compactSkills
	p.lastEntriesText = entriesText
	if p.failWith != nil {
		return llm.RefineResult{}, p.failWith
	}
	return p.refined, nil
}

func testProfile() llm.Profile {
	return llm.Profile{
		Skills:          []llm.Skill{{Name: "Python", Years: intPtr(5)}, {Name: "Go"}},
		YearsExperience: 6,
		CurrentRole:     "Backend Engineer",
		Summary:         "Builds services",
	}
}

func newTestService(provider llm.Provider) *Service {
	return NewService(NewMemoryRepo(), provider)
}

func TestCreateFromDocumentRedactsBeforeProvider(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	raw := "John Smith\nEmail: john.smith@example.com\nPhone: +1 555-123-4567\nPython developer, 5 years"
	result, err := svc.CreateFromDocument(context.Background(), "acct-1", raw, "resume.pdf")
	if err != nil {
		t.Fatalf("CreateFromDocument: %v", err)
	}

	if strings.Contains(provider.lastCVText, "john.smith@example.com") {
		t.Fatalf("email reached provider: %q", provider.lastCVText)
	}
	if strings.Contains(provider.lastCVText, "John Smith") {
		t.Fatalf("name reached provider: %q", provider.lastCVText)
	}

	r := result.Resume
	if r.ID != 1 || !r.IsActive || r.Refined || r.Source != SourceCV {
		t.Fatalf("unexpected resume state: %+v", r)
	}
	if r.Hash == "" || len(r.Hash) != 64 {
		t.Fatalf("expected sha256 hash, got %q", r.Hash)
	}
	if len(r.Skills) != 2 || r.Skills[0].Name != "Python" {
		t.Fatalf("unexpected skills: %+v", r.Skills)
	}
	if r.YearsExperience != 6 {
		t.Fatalf("expected 6 years, got %d", r.YearsExperience)
	}
}

func TestCreateFromDocumentCacheHitSkipsProvider(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	raw := "Jane Roe\njane@example.com\nReact developer"
	first, err := svc.CreateFromDocument(context.Background(), "acct-1", raw, "resume.pdf")
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if first.Cached {
		t.Fatalf("first upload must not be cached")
	}

	second, err := svc.CreateFromDocument(context.Background(), "acct-1", raw, "resume-copy.pdf")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if !second.Cached {
		t.Fatalf("expected cache hit on identical content")
	}
	if second.Resume.ID != first.Resume.ID {
		t.Fatalf("expected cached resume %d, got %d", first.Resume.ID, second.Resume.ID)
	}
	if provider.cvCalls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.cvCalls)
	}

	resumes, err := svc.List(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resumes) != 1 {
		t.Fatalf("expected 1 resume after duplicate upload, got %d", len(resumes))
	}
}

func TestCreateFromDocumentCacheIsPerAccount(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	raw := "Shared resume content"
	if _, err := svc.CreateFromDocument(context.Background(), "acct-1", raw, "resume.pdf"); err != nil {
		t.Fatalf("acct-1 upload: %v", err)
	}
	result, err := svc.CreateFromDocument(context.Background(), "acct-2", raw, "resume.pdf")
	if err != nil {
		t.Fatalf("acct-2 upload: %v", err)
	}
	if result.Cached {
		t.Fatalf("cache must not cross accounts")
	}
	if provider.cvCalls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.cvCalls)
	}
}

func TestCreateFromDocumentProviderFailureStoresEmptyProfile(t *testing.T) {
	provider := &stubProvider{failWith: errors.New("backend down")}
	svc := newTestService(provider)

	result, err := svc.CreateFromDocument(context.Background(), "acct-1", "some resume text", "resume.pdf")
	if err != nil {
		t.Fatalf("expected upload to survive provider failure, got %v", err)
	}

	r := result.Resume
	if len(r.Skills) != 0 {
		t.Fatalf("expected no skills, got %+v", r.Skills)
	}
	if r.YearsExperience != 0 || r.CurrentRole != "" || r.Summary != "" {
		t.Fatalf("expected empty profile fields, got %+v", r)
	}
	if !r.IsActive {
		t.Fatalf("first resume should still become active")
	}
}

func TestCreateFromNarrativeRequiresEntries(t *testing.T) {
	svc := newTestService(&stubProvider{profile: testProfile()})

	_, err := svc.CreateFromNarrative(context.Background(), "acct-1", nil, "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateFromNarrativeNeverDeduplicates(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer", Period: "2020-2023"}}
	if _, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, ""); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, ""); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if provider.historyCalls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.historyCalls)
	}

	resumes, err := svc.List(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resumes) != 2 {
		t.Fatalf("expected 2 resumes, got %d", len(resumes))
	}
	if resumes[0].ID == resumes[1].ID {
		t.Fatalf("expected distinct ids")
	}
	if resumes[1].Source != SourceManual || resumes[1].Hash != "" {
		t.Fatalf("manual resume must have no fingerprint: %+v", resumes[1])
	}
}

func TestRefineMergesSkillsOnce(t *testing.T) {
	provider := &stubProvider{
		profile: testProfile(),
		refined: llm.RefineResult{Skills: []llm.Skill{
			{Name: "Python", Years: intPtr(6), AIConfidence: intPtr(5)},
			{Name: "Kubernetes", AIConfidence: intPtr(4)},
		}},
	}
	svc := newTestService(provider)

	if _, err := svc.CreateFromDocument(context.Background(), "acct-1", "resume text", "resume.pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	entries := []WorkEntry{{Company: "Acme", Role: "SRE", Period: "2023-now", Technologies: "Kubernetes"}}
	refined, err := svc.Refine(context.Background(), "acct-1", entries)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}

	if !refined.Refined {
		t.Fatalf("expected refined flag set")
	}
	if len(refined.Skills) != 2 || refined.Skills[1].Name != "Kubernetes" {
		t.Fatalf("unexpected merged skills: %+v", refined.Skills)
	}
	if !strings.Contains(provider.lastCompact, "Python") {
		t.Fatalf("expected compact skills in provider call, got %q", provider.lastCompact)
	}
	if !strings.Contains(provider.lastEntriesText, "Entry 1:") {
		t.Fatalf("expected rendered entries, got %q", provider.lastEntriesText)
	}

	_, err = svc.Refine(context.Background(), "acct-1", entries)
	if !errors.Is(err, ErrAlreadyRefined) {
		t.Fatalf("expected ErrAlreadyRefined on second attempt, got %v", err)
	}
	if provider.refineCalls != 1 {
		t.Fatalf("expected 1 refine call, got %d", provider.refineCalls)
	}
}

func TestRefineConsumesAttemptOnProviderFailure(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	if _, err := svc.CreateFromDocument(context.Background(), "acct-1", "resume text", "resume.pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	provider.failWith = errors.New("backend down")
	entries := []WorkEntry{{Company: "Acme", Role: "SRE", Period: "2023-now"}}
	refined, err := svc.Refine(context.Background(), "acct-1", entries)
	if err != nil {
		t.Fatalf("expected refine to swallow provider failure, got %v", err)
	}

	if !refined.Refined {
		t.Fatalf("attempt must be consumed on failure")
	}
	if len(refined.Skills) != 2 || refined.Skills[0].Name != "Python" {
		t.Fatalf("expected prior skills kept, got %+v", refined.Skills)
	}

	provider.failWith = nil
	_, err = svc.Refine(context.Background(), "acct-1", entries)
	if !errors.Is(err, ErrAlreadyRefined) {
		t.Fatalf("expected ErrAlreadyRefined after consumed attempt, got %v", err)
	}
}

func TestRefineWithoutProfile(t *testing.T) {
	svc := newTestService(&stubProvider{})

	entries := []WorkEntry{{Company: "Acme", Role: "SRE"}}
	_, err := svc.Refine(context.Background(), "acct-1", entries)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = svc.Refine(context.Background(), "acct-1", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty entries, got %v", err)
	}
}

func TestPatchSkillMatchesNameCaseInsensitive(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	result, err := svc.CreateFromDocument(context.Background(), "acct-1", "resume text", "resume.pdf")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	updated, err := svc.PatchSkill(context.Background(), "acct-1", result.Resume.ID, "PYTHON", SkillPatch{
		UserRating: intPtr(5),
		Note:       strPtr("daily driver"),
	})
	if err != nil {
		t.Fatalf("PatchSkill: %v", err)
	}
	if updated.Name != "Python" {
		t.Fatalf("expected stored casing preserved, got %q", updated.Name)
	}
	if updated.UserRating == nil || *updated.UserRating != 5 || updated.Note != "daily driver" {
		t.Fatalf("unexpected patch result: %+v", updated)
	}

	resumes, _ := svc.List(context.Background(), "acct-1")
	if resumes[0].Skills[0].UserRating == nil || *resumes[0].Skills[0].UserRating != 5 {
		t.Fatalf("patch not persisted: %+v", resumes[0].Skills[0])
	}
}

func TestPatchSkillValidation(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	result, err := svc.CreateFromDocument(context.Background(), "acct-1", "resume text", "resume.pdf")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	_, err = svc.PatchSkill(context.Background(), "acct-1", result.Resume.ID, "Python", SkillPatch{UserRating: intPtr(6)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for rating 6, got %v", err)
	}

	_, err = svc.PatchSkill(context.Background(), "acct-1", result.Resume.ID, "Cobol", SkillPatch{Note: strPtr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown skill, got %v", err)
	}

	_, err = svc.PatchSkill(context.Background(), "acct-1", 99, "Python", SkillPatch{Note: strPtr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown resume, got %v", err)
	}
}

func TestSetActiveMovesSelection(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	first, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "First")
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Second")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.IsActive {
		t.Fatalf("later resume must not steal the active slot")
	}

	activated, err := svc.SetActive(context.Background(), "acct-1", second.ID)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if !activated.IsActive {
		t.Fatalf("expected resume %d active", second.ID)
	}

	resumes, _ := svc.List(context.Background(), "acct-1")
	activeCount := 0
	for _, r := range resumes {
		if r.IsActive {
			activeCount++
			if r.ID != second.ID {
				t.Fatalf("wrong resume active: %d", r.ID)
			}
		}
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active resume, got %d", activeCount)
	}

	if _, err := svc.SetActive(context.Background(), "acct-1", 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = first
}

func TestDeletePromotesFirstRemaining(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	first, _ := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "First")
	second, _ := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Second")
	third, _ := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Third")

	if err := svc.Delete(context.Background(), "acct-1", first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	resumes, _ := svc.List(context.Background(), "acct-1")
	if len(resumes) != 2 {
		t.Fatalf("expected 2 resumes, got %d", len(resumes))
	}
	if !resumes[0].IsActive || resumes[0].ID != second.ID {
		t.Fatalf("expected resume %d promoted to active, got %+v", second.ID, resumes[0])
	}
	if resumes[1].IsActive {
		t.Fatalf("only one resume may be active")
	}

	// Deleting a non-active resume leaves the selection alone.
	if err := svc.Delete(context.Background(), "acct-1", third.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	resumes, _ = svc.List(context.Background(), "acct-1")
	if len(resumes) != 1 || !resumes[0].IsActive {
		t.Fatalf("unexpected state after delete: %+v", resumes)
	}

	if err := svc.Delete(context.Background(), "acct-1", 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrateMergesCollectionsUnderAccountLocks(t *testing.T) {
	svc := newTestService(llm.Mock{})

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	seeded := 3
	for i := 0; i < seeded; i++ {
		if _, err := svc.CreateFromNarrative(context.Background(), "guest:abc", entries, ""); err != nil {
			t.Fatalf("seed guest: %v", err)
		}
	}

	// Uploads racing the merge must not be lost: both paths hold the
	// destination account's lock.
	uploads := 8
	var wg sync.WaitGroup
	wg.Add(uploads + 1)
	for i := 0; i < uploads; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.CreateFromNarrative(context.Background(), "user-1", entries, ""); err != nil {
				t.Errorf("concurrent upload: %v", err)
			}
		}()
	}
	go func() {
		defer wg.Done()
		if _, err := svc.Migrate(context.Background(), "guest:abc", "user-1"); err != nil {
			t.Errorf("migrate: %v", err)
		}
	}()
	wg.Wait()

	resumes, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resumes) != uploads+seeded {
		t.Fatalf("expected %d resumes after merge, got %d", uploads+seeded, len(resumes))
	}
	active := 0
	seen := map[int]bool{}
	for _, r := range resumes {
		if r.IsActive {
			active++
		}
		if seen[r.ID] {
			t.Fatalf("duplicate resume id %d after merge", r.ID)
		}
		seen[r.ID] = true
	}
	if active != 1 {
		t.Fatalf("expected exactly one active resume, got %d", active)
	}

	leftover, err := svc.List(context.Background(), "guest:abc")
	if err != nil {
		t.Fatalf("List guest: %v", err)
	}
	if len(leftover) != 0 {
		t.Fatalf("expected guest collection emptied, got %d resumes", len(leftover))
	}
}

func TestMigrateKeepsDestinationActiveSelection(t *testing.T) {
	svc := newTestService(llm.Mock{})

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	if _, err := svc.CreateFromNarrative(context.Background(), "guest:abc", entries, "Guest"); err != nil {
		t.Fatalf("seed guest: %v", err)
	}
	own, err := svc.CreateFromNarrative(context.Background(), "user-1", entries, "Own")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	moved, err := svc.Migrate(context.Background(), "guest:abc", "user-1")
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if moved != 1 {
		t.Fatalf("expected 1 moved resume, got %d", moved)
	}

	got, err := svc.Active(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if got.ID != own.ID || got.Name != "Own" {
		t.Fatalf("expected destination selection to win, got %+v", got)
	}

	// A merge from an empty source is a no-op.
	moved, err = svc.Migrate(context.Background(), "guest:abc", "user-1")
	if err != nil {
		t.Fatalf("Migrate empty source: %v", err)
	}
	if moved != 0 {
		t.Fatalf("expected 0 moved resumes, got %d", moved)
	}
}

func TestDeleteLastResumeLeavesEmptyCollection(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	only, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Only")
	if err != nil {
		t.Fatalf("CreateFromNarrative: %v", err)
	}

	if err := svc.Delete(context.Background(), "acct-1", only.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	resumes, err := svc.List(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resumes) != 0 {
		t.Fatalf("expected empty collection, got %+v", resumes)
	}
	if _, err := svc.Active(context.Background(), "acct-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Active, got %v", err)
	}

	// The emptied collection stays usable for new uploads.
	next, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Next")
	if err != nil {
		t.Fatalf("CreateFromNarrative after delete: %v", err)
	}
	if !next.IsActive {
		t.Fatalf("expected fresh resume to become active: %+v", next)
	}
}

func TestNextIDNeverReusesAfterDelete(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	svc.CreateFromNarrative(context.Background(), "acct-1", entries, "First")
	second, _ := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Second")

	if err := svc.Delete(context.Background(), "acct-1", 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	third, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Third")
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if third.ID != second.ID+1 {
		t.Fatalf("expected id %d, got %d", second.ID+1, third.ID)
	}
}

func TestActiveReturnsSelection(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	_, err := svc.Active(context.Background(), "acct-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty collection, got %v", err)
	}

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	svc.CreateFromNarrative(context.Background(), "acct-1", entries, "First")
	second, _ := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "Second")
	if _, err := svc.SetActive(context.Background(), "acct-1", second.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	active, err := svc.Active(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active.ID != second.ID {
		t.Fatalf("expected resume %d, got %d", second.ID, active.ID)
	}
}

func TestDefaultDisplayName(t *testing.T) {
	provider := &stubProvider{profile: testProfile()}
	svc := newTestService(provider)

	entries := []WorkEntry{{Company: "Acme", Role: "Engineer"}}
	r, err := svc.CreateFromNarrative(context.Background(), "acct-1", entries, "   ")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if r.Name != "Resume 1" {
		t.Fatalf("expected default name, got %q", r.Name)
	}
}
