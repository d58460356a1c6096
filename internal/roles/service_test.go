package roles_test

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/authz"
	"github.com/inkwell-blog/inkwell/internal/blogs"
	"github.com/inkwell-blog/inkwell/internal/perms"
	"github.com/inkwell-blog/inkwell/internal/roles"
	"github.com/inkwell-blog/inkwell/internal/users"
)

// memoryStore implements roles.Repository in memory. WithTx runs the
// callback against the store itself; the service checks authorization
// before any write, so a denied call must leave the store unchanged even
// without real rollback.
type memoryStore struct {
	blogs       map[string]authz.Blog
	users       map[string]uuid.UUID
	roles       []*roles.Role
	assignments map[uuid.UUID]map[uuid.UUID]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		blogs:       make(map[string]authz.Blog),
		users:       make(map[string]uuid.UUID),
		assignments: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *memoryStore) addUser(username string) uuid.UUID {
	id := uuid.New()
	m.users[username] = id
	return id
}

func (m *memoryStore) addBlog(domain, owner string, defaults perms.Mask) uuid.UUID {
	if _, ok := m.users[owner]; !ok {
		m.addUser(owner)
	}
	id := uuid.New()
	m.blogs[domain] = authz.Blog{ID: id, OwnerUsername: owner, DefaultPerms: defaults}
	return id
}

func (m *memoryStore) addRole(blogID uuid.UUID, name string, mask perms.Mask, creatorID uuid.UUID) *roles.Role {
	role := &roles.Role{ID: uuid.New(), BlogID: blogID, Name: name, Permissions: mask, CreatorID: creatorID}
	m.roles = append(m.roles, role)
	return role
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx roles.TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryStore) LookupBlog(ctx context.Context, domain string) (authz.Blog, error) {
	blog, ok := m.blogs[domain]
	if !ok {
		return authz.Blog{}, blogs.ErrNotFound
	}
	return blog, nil
}

func (m *memoryStore) UserHoldsPermission(ctx context.Context, blogID uuid.UUID, username string, bit perms.Mask) (bool, error) {
	userID, ok := m.users[username]
	if !ok {
		return false, nil
	}
	for _, role := range m.roles {
		if role.BlogID == blogID && m.assignments[role.ID][userID] && role.Permissions&bit == bit {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) LookupUserID(ctx context.Context, username string) (uuid.UUID, error) {
	id, ok := m.users[username]
	if !ok {
		return uuid.Nil, users.ErrNotFound
	}
	return id, nil
}

func (m *memoryStore) FindRole(ctx context.Context, blogID uuid.UUID, name string) (*roles.Role, error) {
	for _, role := range m.roles {
		if role.BlogID == blogID && role.Name == name {
			found := *role
			return &found, nil
		}
	}
	return nil, roles.ErrRoleNotFound
}

func (m *memoryStore) CreateRole(ctx context.Context, role roles.Role) error {
	for _, existing := range m.roles {
		if existing.BlogID == role.BlogID && existing.Name == role.Name {
			return roles.ErrDuplicateRole
		}
	}
	copied := role
	m.roles = append(m.roles, &copied)
	return nil
}

func (m *memoryStore) SetRolePermissions(ctx context.Context, roleID uuid.UUID, mask perms.Mask) error {
	for _, role := range m.roles {
		if role.ID == roleID {
			role.Permissions = mask
		}
	}
	return nil
}

func (m *memoryStore) DeleteRole(ctx context.Context, blogID uuid.UUID, name string) error {
	kept := m.roles[:0]
	for _, role := range m.roles {
		if role.BlogID == blogID && role.Name == name {
			delete(m.assignments, role.ID)
			continue
		}
		kept = append(kept, role)
	}
	m.roles = kept
	return nil
}

func (m *memoryStore) Assign(ctx context.Context, roleID, userID uuid.UUID) error {
	if m.assignments[roleID] == nil {
		m.assignments[roleID] = make(map[uuid.UUID]bool)
	}
	m.assignments[roleID][userID] = true
	return nil
}

func (m *memoryStore) Revoke(ctx context.Context, blogID uuid.UUID, name, username string) error {
	userID, ok := m.users[username]
	if !ok {
		return nil
	}
	for _, role := range m.roles {
		if role.BlogID == blogID && role.Name == name {
			delete(m.assignments[role.ID], userID)
		}
	}
	return nil
}

func (m *memoryStore) RoleNames(ctx context.Context, blogID uuid.UUID) ([]string, error) {
	var names []string
	for _, role := range m.roles {
		if role.BlogID == blogID {
			names = append(names, role.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memoryStore) UsersWithRole(ctx context.Context, blogID uuid.UUID, name string) ([]string, error) {
	var out []string
	for _, role := range m.roles {
		if role.BlogID != blogID || role.Name != name {
			continue
		}
		for username, userID := range m.users {
			if m.assignments[role.ID][userID] {
				out = append(out, username)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryStore) RolesForUser(ctx context.Context, blogID uuid.UUID, username string) ([]string, error) {
	userID, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	var names []string
	for _, role := range m.roles {
		if role.BlogID == blogID && m.assignments[role.ID][userID] {
			names = append(names, role.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memoryStore) UsersWithPermission(ctx context.Context, blogID uuid.UUID, bit perms.Mask) ([]string, error) {
	seen := make(map[string]bool)
	for _, role := range m.roles {
		if role.BlogID != blogID || role.Permissions&bit != bit {
			continue
		}
		for username, userID := range m.users {
			if m.assignments[role.ID][userID] {
				seen[username] = true
			}
		}
	}
	var out []string
	for username := range seen {
		out = append(out, username)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryStore) RolesCreatedBy(ctx context.Context, creatorID uuid.UUID) ([]roles.CreatedRole, error) {
	var out []roles.CreatedRole
	for _, role := range m.roles {
		if role.CreatorID != creatorID {
			continue
		}
		for domain, blog := range m.blogs {
			if blog.ID == role.BlogID {
				out = append(out, roles.CreatedRole{Name: role.Name, Domain: domain})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

var _ roles.Repository = (*memoryStore)(nil)

func newServiceFixture(t *testing.T) (*memoryStore, *roles.Service) {
	t.Helper()
	store := newMemoryStore()
	return store, roles.NewService(store, nil, nil)
}

func TestCreateRolePersists(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]

	err := svc.Create(ctx, nedID, "ned", "winterfell", "Maester", []string{"read", "write"})
	require.NoError(t, err)

	role, err := store.FindRole(ctx, blogID, "maester")
	require.NoError(t, err)
	require.Equal(t, perms.Read|perms.Write, role.Permissions)
	require.Equal(t, nedID, role.CreatorID)
}

func TestCreateSkipsUnknownPermissions(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]

	err := svc.Create(ctx, nedID, "ned", "winterfell", "ghost", []string{"fly", "teleport"})
	require.NoError(t, err)

	role, err := store.FindRole(ctx, blogID, "ghost")
	require.NoError(t, err)
	require.Equal(t, perms.Mask(0), role.Permissions)
}

func TestCreateRequiresChangePermissions(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	store.addBlog("winterfell", "ned", 0)
	theonID := store.addUser("theon")

	err := svc.Create(ctx, theonID, "theon", "winterfell", "usurper", []string{"delete"})
	require.ErrorIs(t, err, authz.ErrUnauthorized)
	require.Empty(t, store.roles)
}

func TestCreateOnMissingBlog(t *testing.T) {
	store, svc := newServiceFixture(t)
	nedID := store.addUser("ned")

	err := svc.Create(context.Background(), nedID, "ned", "essos", "khal", []string{"read"})
	require.ErrorIs(t, err, blogs.ErrNotFound)
}

func TestCreateDuplicateRole(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	store.addRole(blogID, "maester", perms.Read, nedID)

	err := svc.Create(ctx, nedID, "ned", "winterfell", "MAESTER", []string{"read"})
	require.ErrorIs(t, err, roles.ErrDuplicateRole)
}

func TestCreateRejectsInvalidNames(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]

	require.ErrorIs(t, svc.Create(ctx, nedID, "ned", "winterfell", "   ", nil), roles.ErrInvalidName)
	long := strings.Repeat("x", 41)
	require.ErrorIs(t, svc.Create(ctx, nedID, "ned", "winterfell", long, nil), roles.ErrInvalidName)
}

func TestGrantedUserCanManageRoles(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	robbID := store.addUser("robb")
	steward := store.addRole(blogID, "steward", perms.ChangePermissions, nedID)
	require.NoError(t, store.Assign(ctx, steward.ID, robbID))

	err := svc.Create(ctx, robbID, "robb", "winterfell", "scout", []string{"read"})
	require.NoError(t, err)
}

func TestSetPermissionsReplacesMask(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	store.addRole(blogID, "maester", perms.Read|perms.Write, nedID)

	err := svc.SetPermissions(ctx, nedID, "ned", "winterfell", "maester", []string{"comment"})
	require.NoError(t, err)

	role, err := store.FindRole(ctx, blogID, "maester")
	require.NoError(t, err)
	require.Equal(t, perms.Comment, role.Permissions)
}

func TestAddAndRemovePermissions(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	store.addRole(blogID, "maester", perms.Read, nedID)

	require.NoError(t, svc.AddPermissions(ctx, nedID, "ned", "winterfell", "maester", []string{"edit", "read"}))
	role, err := store.FindRole(ctx, blogID, "maester")
	require.NoError(t, err)
	require.Equal(t, perms.Read|perms.Edit, role.Permissions)

	// Removing a bit the role never held changes nothing.
	require.NoError(t, svc.RemovePermissions(ctx, nedID, "ned", "winterfell", "maester", []string{"edit", "delete"}))
	role, err = store.FindRole(ctx, blogID, "maester")
	require.NoError(t, err)
	require.Equal(t, perms.Read, role.Permissions)
}

func TestUpdateMissingRole(t *testing.T) {
	store, svc := newServiceFixture(t)
	store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]

	err := svc.SetPermissions(context.Background(), nedID, "ned", "winterfell", "ghost", []string{"read"})
	require.ErrorIs(t, err, roles.ErrRoleNotFound)
}

func TestDeleteRemovesRoleAndAssignments(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	jonID := store.addUser("jon")
	role := store.addRole(blogID, "maester", perms.Read, nedID)
	require.NoError(t, store.Assign(ctx, role.ID, jonID))

	require.NoError(t, svc.Delete(ctx, nedID, "ned", "winterfell", "maester"))

	_, err := store.FindRole(ctx, blogID, "maester")
	require.ErrorIs(t, err, roles.ErrRoleNotFound)
	names, err := svc.RolesForUser(ctx, "winterfell", "jon")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestDeleteMissingRoleIsSilent(t *testing.T) {
	store, svc := newServiceFixture(t)
	store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]

	require.NoError(t, svc.Delete(context.Background(), nedID, "ned", "winterfell", "ghost"))
}

func TestGiveIsIdempotent(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	store.addUser("jon")
	store.addRole(blogID, "maester", perms.Read, nedID)

	require.NoError(t, svc.Give(ctx, nedID, "ned", "winterfell", "maester", "jon"))
	require.NoError(t, svc.Give(ctx, nedID, "ned", "winterfell", "maester", "jon"))

	holders, err := svc.UsersWithRole(ctx, "winterfell", "maester")
	require.NoError(t, err)
	require.Equal(t, []string{"jon"}, holders)
}

func TestGiveUnknownUserAndRole(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	store.addRole(blogID, "maester", perms.Read, nedID)

	err := svc.Give(ctx, nedID, "ned", "winterfell", "maester", "nobody")
	require.ErrorIs(t, err, users.ErrNotFound)

	store.addUser("jon")
	err = svc.Give(ctx, nedID, "ned", "winterfell", "ghost", "jon")
	require.ErrorIs(t, err, roles.ErrRoleNotFound)
}

func TestTakeIsSilentOnAllMisses(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	store.addRole(blogID, "maester", perms.Read, nedID)

	// Missing user, missing role, and a user who never held the role.
	require.NoError(t, svc.Take(ctx, nedID, "ned", "winterfell", "maester", "nobody"))
	store.addUser("jon")
	require.NoError(t, svc.Take(ctx, nedID, "ned", "winterfell", "ghost", "jon"))
	require.NoError(t, svc.Take(ctx, nedID, "ned", "winterfell", "maester", "jon"))
}

func TestPermissionsListing(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	store.addRole(blogID, "maester", perms.Read|perms.Comment, nedID)

	got, err := svc.Permissions(ctx, "winterfell", "MAESTER")
	require.NoError(t, err)
	require.Equal(t, []string{"read", "comment"}, got)

	_, err = svc.Permissions(ctx, "winterfell", "ghost")
	require.ErrorIs(t, err, roles.ErrRoleNotFound)

	// A missing blog reads the same as a missing role.
	_, err = svc.Permissions(ctx, "essos", "maester")
	require.ErrorIs(t, err, roles.ErrRoleNotFound)
}

func TestListingsOnMissingBlogAreEmpty(t *testing.T) {
	_, svc := newServiceFixture(t)
	ctx := context.Background()

	names, err := svc.RoleNames(ctx, "essos")
	require.NoError(t, err)
	require.Empty(t, names)

	holders, err := svc.UsersWithRole(ctx, "essos", "khal")
	require.NoError(t, err)
	require.Empty(t, holders)

	held, err := svc.RolesForUser(ctx, "essos", "drogo")
	require.NoError(t, err)
	require.Empty(t, held)

	withPerm, err := svc.UsersWithPermission(ctx, "essos", "read")
	require.NoError(t, err)
	require.Empty(t, withPerm)
}

func TestUsersWithPermissionUnknownNameIsEmpty(t *testing.T) {
	store, svc := newServiceFixture(t)
	store.addBlog("winterfell", "ned", 0)

	got, err := svc.UsersWithPermission(context.Background(), "winterfell", "teleport")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRolesForUserDoesNotLeakAcrossBlogs(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	winterfell := store.addBlog("winterfell", "ned", 0)
	dragonstone := store.addBlog("dragonstone", "stannis", 0)
	nedID := store.users["ned"]
	jonID := store.addUser("jon")
	maester := store.addRole(winterfell, "maester", perms.Read, nedID)
	store.addRole(dragonstone, "maester", perms.Read, store.users["stannis"])
	require.NoError(t, store.Assign(ctx, maester.ID, jonID))

	held, err := svc.RolesForUser(ctx, "dragonstone", "jon")
	require.NoError(t, err)
	require.Empty(t, held)
}

func TestUsersWithPermissionMatchesMask(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	blogID := store.addBlog("winterfell", "ned", 0)
	nedID := store.users["ned"]
	jonID := store.addUser("jon")
	sansaID := store.addUser("sansa")
	scribe := store.addRole(blogID, "scribe", perms.Read|perms.Write, nedID)
	reader := store.addRole(blogID, "reader", perms.Read, nedID)
	require.NoError(t, store.Assign(ctx, scribe.ID, jonID))
	require.NoError(t, store.Assign(ctx, reader.ID, sansaID))

	writers, err := svc.UsersWithPermission(ctx, "winterfell", "write")
	require.NoError(t, err)
	require.Equal(t, []string{"jon"}, writers)

	readers, err := svc.UsersWithPermission(ctx, "winterfell", "read")
	require.NoError(t, err)
	require.Equal(t, []string{"jon", "sansa"}, readers)
}

func TestCreatedByListsAcrossBlogs(t *testing.T) {
	store, svc := newServiceFixture(t)
	ctx := context.Background()
	winterfell := store.addBlog("winterfell", "ned", 0)
	dragonstone := store.addBlog("dragonstone", "ned2", 0)
	nedID := store.users["ned"]
	store.addRole(winterfell, "maester", perms.Read, nedID)
	store.addRole(dragonstone, "scout", perms.Read, nedID)
	store.addRole(winterfell, "reader", perms.Read, store.addUser("sansa"))

	created, err := svc.CreatedBy(ctx, nedID)
	require.NoError(t, err)
	require.Equal(t, []roles.CreatedRole{
		{Name: "scout", Domain: "dragonstone"},
		{Name: "maester", Domain: "winterfell"},
	}, created)
}
