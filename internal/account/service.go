package account

import (
	"context"
	"errors"
	"strings"

	"github.com/pawelszalw/HireTree/internal/profile"
)

type Service struct {
	Profiles *profile.Service
}

type ClaimResult struct {
	MigratedResumes int `json:"migratedResumes"`
}

func NewService(profiles *profile.Service) *Service {
	return &Service{Profiles: profiles}
}

// ClaimGuest moves the guest account's resume collection into the authed
// user's collection. The move runs under the profile service's account locks
// so a concurrent upload or edit cannot lose the merge.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}
	moved, err := s.Profiles.Migrate(ctx, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedResumes: moved}, nil
}
