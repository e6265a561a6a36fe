// ABOUTME: Tests for the scope catalog: validation, closure expansion, and Allows
// ABOUTME: Covers cycle detection and unknown-scope fail-closed behavior

package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_RejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{
			name: "empty name",
			defs: []Definition{{Name: ""}},
		},
		{
			name: "duplicate name",
			defs: []Definition{{Name: "a"}, {Name: "a"}},
		},
		{
			name: "unknown implies target",
			defs: []Definition{{Name: "a", Implies: []string{"b"}}},
		},
		{
			name: "two-node cycle",
			defs: []Definition{
				{Name: "a", Implies: []string{"b"}},
				{Name: "b", Implies: []string{"a"}},
			},
		},
		{
			name: "self cycle",
			defs: []Definition{{Name: "a", Implies: []string{"a"}}},
		},
		{
			name: "longer cycle",
			defs: []Definition{
				{Name: "a", Implies: []string{"b"}},
				{Name: "b", Implies: []string{"c"}},
				{Name: "c", Implies: []string{"a"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.defs)
			assert.Error(t, err)
		})
	}
}

func TestCatalog_Expand(t *testing.T) {
	c, err := NewCatalog([]Definition{
		{Name: "read"},
		{Name: "write", Implies: []string{"read"}},
		{Name: "admin", Implies: []string{"write"}},
		{Name: "other"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"read"}, c.SortedClosure([]string{"read"}))
	assert.Equal(t, []string{"read", "write"}, c.SortedClosure([]string{"write"}))
	assert.Equal(t, []string{"admin", "read", "write"}, c.SortedClosure([]string{"admin"}))
	assert.Empty(t, c.SortedClosure(nil))

	// Unknown granted names carry through but imply nothing.
	assert.Equal(t, []string{"bogus"}, c.SortedClosure([]string{"bogus"}))
}

func TestCatalog_Allows(t *testing.T) {
	c, err := NewCatalog([]Definition{
		{Name: "read"},
		{Name: "write", Implies: []string{"read"}},
	})
	require.NoError(t, err)

	assert.True(t, c.Allows([]string{"read"}, "read"))
	assert.True(t, c.Allows([]string{"write"}, "read"))
	assert.False(t, c.Allows([]string{"read"}, "write"))
	assert.False(t, c.Allows(nil, "read"))

	// Required scope outside the catalog fails closed even for a
	// caller granted everything.
	assert.False(t, c.Allows([]string{"read", "write"}, "unknown"))
}

func TestCatalog_KnownAndNames(t *testing.T) {
	c, err := NewCatalog([]Definition{{Name: "b"}, {Name: "a"}})
	require.NoError(t, err)

	assert.True(t, c.Known("a"))
	assert.False(t, c.Known("z"))
	// Names preserves registration order, not sort order.
	assert.Equal(t, []string{"b", "a"}, c.Names())
}

func TestPlatformCatalog(t *testing.T) {
	c := PlatformCatalog()

	assert.True(t, c.Allows([]string{WriteEvents}, ReadEvents))
	assert.True(t, c.Allows([]string{WriteRSVPs}, ReadRSVPs))
	assert.False(t, c.Allows([]string{ReadEvents}, WriteEvents))

	// Admin reaches every scope in the catalog.
	for _, name := range c.Names() {
		assert.True(t, c.Allows([]string{Admin}, name), "admin should cover %s", name)
	}
}
