package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// BlogFinder resolves the blog domain owned by a user, if any.
type BlogFinder interface {
	DomainForOwner(ctx context.Context, ownerID uuid.UUID) (string, error)
}

// Details is the account summary rendered to the logged-in user.
type Details struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Joined   time.Time `json:"joined"`
	Domain   string    `json:"domain,omitempty"`
}

// Service wraps user account queries.
type Service struct {
	repo  Repository
	blogs BlogFinder
}

// NewService constructs a new Service.
func NewService(repo Repository, blogs BlogFinder) *Service {
	return &Service{repo: repo, blogs: blogs}
}

// Details returns the account summary for a user ID.
func (s *Service) Details(ctx context.Context, id uuid.UUID) (Details, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Details{}, err
	}
	details := Details{
		Username: user.Username,
		Email:    user.Email,
		Joined:   user.CreatedAt,
	}
	domain, err := s.blogs.DomainForOwner(ctx, user.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Details{}, err
	}
	details.Domain = domain
	return details, nil
}
