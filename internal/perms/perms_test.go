package perms_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/perms"
)

func TestEncodeKnownValues(t *testing.T) {
	require.Equal(t, perms.Mask(7), perms.Encode([]string{"read", "write", "edit"}))
	require.Equal(t, perms.Mask(449), perms.Encode([]string{"read", "comment", "like", "follow"}))
	require.Equal(t, perms.Mask(0), perms.Encode(nil))
	require.Equal(t, perms.Mask(0), perms.Encode([]string{}))
}

func TestEncodeOrderIndependent(t *testing.T) {
	require.Equal(t,
		perms.Encode([]string{"read", "write"}),
		perms.Encode([]string{"write", "read"}))
}

func TestEncodeCaseInsensitive(t *testing.T) {
	require.Equal(t,
		perms.Encode([]string{"read", "change_permissions"}),
		perms.Encode([]string{"READ", "Change_Permissions"}))
}

func TestEncodeSkipsUnknownNames(t *testing.T) {
	require.Equal(t, perms.Read|perms.Write,
		perms.Encode([]string{"read", "fly", "write", "teleport"}))
}

func TestDecodeRoundTrip(t *testing.T) {
	all := perms.Names()
	// Walk every subset of the permission set.
	for subset := 0; subset < 1<<len(all); subset++ {
		var in []string
		want := make(map[string]bool, len(all))
		for i, name := range all {
			member := subset&(1<<i) != 0
			want[name] = member
			if member {
				in = append(in, name)
			}
		}
		require.Equal(t, want, perms.Decode(perms.Encode(in)))
	}
}

func TestHas(t *testing.T) {
	mask := perms.Encode([]string{"read", "follow"})
	require.True(t, perms.Has(mask, "read"))
	require.True(t, perms.Has(mask, "FOLLOW"))
	require.False(t, perms.Has(mask, "write"))
	require.False(t, perms.Has(mask, "no_such_permission"))
	require.False(t, perms.Has(0, "read"))
}

func TestHasZeroMaskMatchesNothing(t *testing.T) {
	for _, name := range perms.Names() {
		require.False(t, perms.Has(0, name))
	}
}

func TestAddRemove(t *testing.T) {
	mask := perms.Encode([]string{"read"})

	mask = perms.Add(mask, "write")
	require.True(t, perms.Has(mask, "write"))

	// Adding an already-present or unknown permission changes nothing.
	require.Equal(t, mask, perms.Add(mask, "write"))
	require.Equal(t, mask, perms.Add(mask, "invisibility"))

	mask = perms.Remove(mask, "write")
	require.False(t, perms.Has(mask, "write"))

	// Removing an absent or unknown permission changes nothing.
	require.Equal(t, mask, perms.Remove(mask, "write"))
	require.Equal(t, mask, perms.Remove(mask, "invisibility"))
}

func TestRemoveClearsBitForAnyMask(t *testing.T) {
	for _, name := range perms.Names() {
		for mask := perms.Mask(0); mask <= perms.All; mask += 37 {
			require.False(t, perms.Has(perms.Remove(mask, name), name))
		}
	}
}

func TestList(t *testing.T) {
	require.Equal(t, []string{"read", "change_theme", "follow"},
		perms.List(perms.Read|perms.ChangeTheme|perms.Follow))
	require.Nil(t, perms.List(0))
}

func TestLookup(t *testing.T) {
	bit, ok := perms.Lookup("Change_Theme")
	require.True(t, ok)
	require.Equal(t, perms.ChangeTheme, bit)

	_, ok = perms.Lookup("nope")
	require.False(t, ok)
}
