package profile

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Resume // accountID -> collection
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Resume)}
}

// Load returns a deep copy of the account's collection.
func (r *MemoryRepo) Load(ctx context.Context, accountID string) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneResumes(r.data[accountID]), nil
}

// Save replaces the account's collection.
func (r *MemoryRepo) Save(ctx context.Context, accountID string, resumes []Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[accountID] = cloneResumes(resumes)
	return nil
}

// cloneResumes copies the slice and everything reachable from it so callers
// never alias stored state.
func cloneResumes(resumes []Resume) []Resume {
	out := make([]Resume, len(resumes))
	copy(out, resumes)
	for i := range out {
		skills := make([]Skill, len(out[i].Skills))
		copy(skills, out[i].Skills)
		for j := range skills {
			if skills[j].LastUsedYear != nil {
				year := *skills[j].LastUsedYear
				skills[j].LastUsedYear = &year
			}
			if skills[j].UserRating != nil {
				rating := *skills[j].UserRating
				skills[j].UserRating = &rating
			}
		}
		out[i].Skills = skills
	}
	return out
}
