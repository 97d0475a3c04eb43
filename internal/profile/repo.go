package profile

import "context"

// Repo persists one resume collection per account. Save replaces the whole
// collection for that account; Load returns an empty slice for unknown
// accounts.
type Repo interface {
	Load(ctx context.Context, accountID string) ([]Resume, error)
	Save(ctx context.Context, accountID string, resumes []Resume) error
}
