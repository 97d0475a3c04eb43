package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo stores each account's collection as a single JSONB row, so a save
// is the whole-collection overwrite the Repo contract promises.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Load(ctx context.Context, accountID string) ([]Resume, error) {
	const query = `
SELECT resumes
FROM profiles
WHERE account_id = $1
LIMIT 1`
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, accountID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Resume{}, nil
		}
		return nil, err
	}

	var resumes []Resume
	if err := json.Unmarshal(raw, &resumes); err != nil {
		return nil, fmt.Errorf("decode profile row account=%s: %w", accountID, err)
	}
	return resumes, nil
}

func (r *PGRepo) Save(ctx context.Context, accountID string, resumes []Resume) error {
	if resumes == nil {
		resumes = []Resume{}
	}
	payload, err := json.Marshal(resumes)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO profiles (account_id, resumes, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (account_id) DO UPDATE SET
  resumes = EXCLUDED.resumes,
  updated_at = now()`
	_, err = r.DB.ExecContext(ctx, query, accountID, payload)
	return err
}
