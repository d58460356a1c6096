package blogs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/perms"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// ThemeChecker verifies a theme exists and has been approved for use.
type ThemeChecker interface {
	ThemeUsable(ctx context.Context, themeID uuid.UUID) (bool, error)
}

// Service wraps blog business rules.
type Service struct {
	repo   Repository
	engine *authz.Engine
	themes ThemeChecker
	logger *slog.Logger
}

var fold = cases.Fold()

// NewService constructs a new Service.
func NewService(repo Repository, engine *authz.Engine, themes ThemeChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, engine: engine, themes: themes, logger: logger}
}

// Create registers a new blog for the owner. The permission names become the
// blog's default bitmask; an empty list makes the blog private.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, domain, title string, permissions []string) (*Blog, error) {
	if _, err := s.repo.DomainForOwner(ctx, ownerID); err == nil {
		return nil, ErrAlreadyOwned
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	blog := Blog{
		ID:          uuid.New(),
		DomainName:  fold.String(domain),
		Title:       title,
		OwnerID:     ownerID,
		Permissions: perms.Encode(permissions),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, err
	}
	s.logger.Info("blog created", slog.String("domain", blog.DomainName))
	return &blog, nil
}

// Domain returns the domain name owned by a user.
func (s *Service) Domain(ctx context.Context, ownerID uuid.UUID) (string, error) {
	return s.repo.DomainForOwner(ctx, ownerID)
}

// SetTheme switches the blog to a merged theme. Gated by the change_theme
// decision: the owner always passes, everyone else needs a role carrying
// the bit or a blog default granting it.
func (s *Service) SetTheme(ctx context.Context, actor, domain string, themeID uuid.UUID) error {
	blog, err := s.repo.FindByDomain(ctx, domain)
	if err != nil {
		return err
	}
	if !s.engine.CanChangeTheme(ctx, domain, actor) {
		s.logger.Warn("unauthorized theme change attempt",
			slog.String("domain", domain), slog.String("username", actor))
		return authz.ErrUnauthorized
	}
	usable, err := s.themes.ThemeUsable(ctx, themeID)
	if err != nil {
		return err
	}
	if !usable {
		return shared.ErrNotFound
	}
	return s.repo.SetTheme(ctx, blog.ID, themeID)
}
