// Package perms implements the blog permission bitmask.
//
// A role is stored as a single integer column; every named permission owns
// one bit. All operations are pure and return new masks.
package perms

import (
	"log/slog"

	"golang.org/x/text/cases"
)

// Mask is a set of permissions encoded as single bits of an unsigned integer.
// The column backing it is a postgres bigint, so the usable width is 63 bits.
type Mask uint64

// Permission bits. The set is closed at compile time; bit values are part of
// the stored data format and must never be reordered.
const (
	Read Mask = 1 << iota
	Write
	Edit
	Delete
	ChangeTheme
	ChangePermissions
	Comment
	Like
	Follow
)

// All is the union of every known permission bit.
const All = Read | Write | Edit | Delete | ChangeTheme | ChangePermissions |
	Comment | Like | Follow

// Names in canonical (lowercase) form, in bit order.
var names = []struct {
	name string
	bit  Mask
}{
	{"read", Read},
	{"write", Write},
	{"edit", Edit},
	{"delete", Delete},
	{"change_theme", ChangeTheme},
	{"change_permissions", ChangePermissions},
	{"comment", Comment},
	{"like", Like},
	{"follow", Follow},
}

var byName = func() map[string]Mask {
	m := make(map[string]Mask, len(names))
	for _, n := range names {
		m[n.name] = n.bit
	}
	return m
}()

var fold = cases.Fold()

// Lookup resolves a permission name case-insensitively. The second return
// value reports whether the name is known.
func Lookup(name string) (Mask, bool) {
	bit, ok := byName[fold.String(name)]
	return bit, ok
}

// Names returns the canonical permission names in bit order.
func Names() []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.name
	}
	return out
}

// Encode builds a mask from a list of permission names. Unknown names are
// skipped, not rejected: callers routinely post free-form permission lists
// and the service has always treated unrecognised entries as noise.
func Encode(permissions []string) Mask {
	var mask Mask
	for _, p := range permissions {
		bit, ok := Lookup(p)
		if !ok {
			slog.Warn("unknown permission skipped", slog.String("permission", p))
			continue
		}
		mask |= bit
	}
	return mask
}

// Decode expands a mask into a full name -> bool mapping covering every
// known permission.
func Decode(mask Mask) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n.name] = mask&n.bit != 0
	}
	return out
}

// List returns the canonical names of the permissions set in mask, in bit
// order.
func List(mask Mask) []string {
	var out []string
	for _, n := range names {
		if mask&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// Has reports whether mask carries the named permission. Unknown names are
// never held.
func Has(mask Mask, permission string) bool {
	bit, ok := Lookup(permission)
	if !ok {
		return false
	}
	// Strict single-bit check. A zero mask ("banned" role) must match
	// nothing, so this can never degrade into a mask != 0 truthiness test.
	return mask&bit != 0
}

// Add returns mask with the named permission set. Unknown names leave the
// mask unchanged.
func Add(mask Mask, permission string) Mask {
	bit, ok := Lookup(permission)
	if !ok {
		slog.Warn("unknown permission skipped", slog.String("permission", permission))
		return mask
	}
	return mask | bit
}

// Remove returns mask with the named permission cleared. Removing an absent
// or unknown permission is a no-op.
func Remove(mask Mask, permission string) Mask {
	bit, ok := Lookup(permission)
	if !ok {
		slog.Warn("unknown permission skipped", slog.String("permission", permission))
		return mask
	}
	return mask &^ bit
}
