package posts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// BlogFinder resolves a blog domain to the state the service needs.
type BlogFinder interface {
	LookupBlog(ctx context.Context, domain string) (authz.Blog, error)
}

// MediaChecker verifies a media URL extension refers to an uploaded file.
type MediaChecker interface {
	MediaExists(ctx context.Context, urlExtension string) (bool, error)
}

// Listing is one page of a blog's posts.
type Listing struct {
	Posts      []Post            `json:"posts"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service wraps post publishing rules. Authorization runs in the HTTP
// layer; by the time a call lands here the caller already held the write
// or read grant.
type Service struct {
	repo  Repository
	blogs BlogFinder
	media MediaChecker
}

// NewService constructs the post service.
func NewService(repo Repository, blogs BlogFinder, media MediaChecker) *Service {
	return &Service{repo: repo, blogs: blogs, media: media}
}

// Create publishes a post on the blog. Picture posts must reference an
// uploaded media file by its URL extension.
func (s *Service) Create(ctx context.Context, domain string, kind Kind, title, content string) (*Post, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	blog, err := s.blogs.LookupBlog(ctx, domain)
	if err != nil {
		return nil, err
	}
	if kind == KindPicture {
		exists, err := s.media.MediaExists(ctx, content)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("posts: media %q: %w", content, shared.ErrNotFound)
		}
	}
	post := Post{
		ID:        uuid.New(),
		BlogID:    blog.ID,
		Kind:      kind,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns one page of the blog's posts, newest first.
func (s *Service) List(ctx context.Context, domain string, page, perPage int) (*Listing, error) {
	blog, err := s.blogs.LookupBlog(ctx, domain)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByBlog(ctx, blog.ID)
	if err != nil {
		return nil, err
	}
	p := shared.NewPagination(page, perPage, total)
	posts, err := s.repo.ListByBlog(ctx, blog.ID, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []Post{}
	}
	return &Listing{Posts: posts, Pagination: p}, nil
}
