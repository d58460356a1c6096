package themes_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/themes"
)

type memoryThemes struct {
	themes map[uuid.UUID]*themes.Theme
}

func newMemoryThemes() *memoryThemes {
	return &memoryThemes{themes: make(map[uuid.UUID]*themes.Theme)}
}

func (m *memoryThemes) Create(ctx context.Context, theme themes.Theme) error {
	for _, existing := range m.themes {
		if existing.CreatorID == theme.CreatorID && existing.Name == theme.Name {
			return themes.ErrDuplicateTheme
		}
	}
	m.themes[theme.ID] = &theme
	return nil
}

func (m *memoryThemes) FindByID(ctx context.Context, id uuid.UUID) (*themes.Theme, error) {
	theme, ok := m.themes[id]
	if !ok {
		return nil, themes.ErrNotFound
	}
	found := *theme
	return &found, nil
}

func (m *memoryThemes) SetStatus(ctx context.Context, id uuid.UUID, status themes.Status) error {
	if theme, ok := m.themes[id]; ok {
		theme.Status = status
	}
	return nil
}

func (m *memoryThemes) ListByStatus(ctx context.Context, status themes.Status) ([]themes.Theme, error) {
	var out []themes.Theme
	for _, theme := range m.themes {
		if theme.Status == status {
			out = append(out, *theme)
		}
	}
	return out, nil
}

func (m *memoryThemes) ThemeUsable(ctx context.Context, id uuid.UUID) (bool, error) {
	theme, ok := m.themes[id]
	return ok && theme.Status == themes.StatusMerged, nil
}

func TestAddThemeStartsUnknown(t *testing.T) {
	repo := newMemoryThemes()
	svc := themes.NewService(repo)

	theme, err := svc.Add(t.Context(), uuid.New(), "darkwood", "themes/darkwood")
	require.NoError(t, err)
	require.Equal(t, themes.StatusUnknown, theme.Status)

	usable, err := svc.ThemeUsable(t.Context(), theme.ID)
	require.NoError(t, err)
	require.False(t, usable)
}

func TestAddDuplicatePerCreator(t *testing.T) {
	repo := newMemoryThemes()
	svc := themes.NewService(repo)
	creator := uuid.New()

	_, err := svc.Add(t.Context(), creator, "darkwood", "themes/darkwood")
	require.NoError(t, err)
	_, err = svc.Add(t.Context(), creator, "darkwood", "themes/darkwood-2")
	require.ErrorIs(t, err, themes.ErrDuplicateTheme)

	// A different creator may reuse the name.
	_, err = svc.Add(t.Context(), uuid.New(), "darkwood", "themes/darkwood-3")
	require.NoError(t, err)
}

func TestUpdateStatusCreatorOnly(t *testing.T) {
	repo := newMemoryThemes()
	svc := themes.NewService(repo)
	creator := uuid.New()

	theme, err := svc.Add(t.Context(), creator, "darkwood", "themes/darkwood")
	require.NoError(t, err)

	err = svc.UpdateStatus(t.Context(), uuid.New(), theme.ID, themes.StatusMerged)
	require.ErrorIs(t, err, themes.ErrNotCreator)

	require.NoError(t, svc.UpdateStatus(t.Context(), creator, theme.ID, themes.StatusMerged))
	usable, err := svc.ThemeUsable(t.Context(), theme.ID)
	require.NoError(t, err)
	require.True(t, usable)
}

func TestUpdateStatusValidation(t *testing.T) {
	repo := newMemoryThemes()
	svc := themes.NewService(repo)
	creator := uuid.New()

	theme, err := svc.Add(t.Context(), creator, "darkwood", "themes/darkwood")
	require.NoError(t, err)

	err = svc.UpdateStatus(t.Context(), creator, theme.ID, themes.Status("rejected"))
	require.ErrorIs(t, err, themes.ErrUnknownStatus)

	err = svc.UpdateStatus(t.Context(), creator, uuid.New(), themes.StatusMerged)
	require.ErrorIs(t, err, themes.ErrNotFound)
}

func TestListMergedOnly(t *testing.T) {
	repo := newMemoryThemes()
	svc := themes.NewService(repo)
	creator := uuid.New()

	merged, err := svc.Add(t.Context(), creator, "darkwood", "themes/darkwood")
	require.NoError(t, err)
	_, err = svc.Add(t.Context(), creator, "draft", "themes/draft")
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(t.Context(), creator, merged.ID, themes.StatusMerged))

	list, err := svc.ListMerged(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "darkwood", list[0].Name)
}
