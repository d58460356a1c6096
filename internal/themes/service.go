package themes

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service wraps theme catalogue rules.
type Service struct {
	repo Repository
}

// NewService constructs the theme service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add submits a theme. New themes start in the unknown status and stay
// unselectable until merged.
func (s *Service) Add(ctx context.Context, creatorID uuid.UUID, name, path string) (*Theme, error) {
	theme := Theme{
		ID:        uuid.New(),
		Name:      name,
		CreatorID: creatorID,
		Path:      path,
		Status:    StatusUnknown,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, theme); err != nil {
		return nil, err
	}
	return &theme, nil
}

// UpdateStatus moves the theme to a new status. Only the creator may do
// this.
func (s *Service) UpdateStatus(ctx context.Context, actorID, themeID uuid.UUID, status Status) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}
	theme, err := s.repo.FindByID(ctx, themeID)
	if err != nil {
		return err
	}
	if theme.CreatorID != actorID {
		return ErrNotCreator
	}
	return s.repo.SetStatus(ctx, themeID, status)
}

// ListMerged returns the themes blogs may select.
func (s *Service) ListMerged(ctx context.Context) ([]Theme, error) {
	themes, err := s.repo.ListByStatus(ctx, StatusMerged)
	if err != nil {
		return nil, err
	}
	if themes == nil {
		themes = []Theme{}
	}
	return themes, nil
}

// ThemeUsable reports whether the theme can be applied to a blog.
func (s *Service) ThemeUsable(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.ThemeUsable(ctx, id)
}
