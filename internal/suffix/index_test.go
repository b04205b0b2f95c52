package suffix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Matches(t *testing.T) {
	tests := []struct {
		name     string
		inserted []string
		query    string
		expected bool
	}{
		{"empty index", nil, "github.com", false},
		{"exact", []string{"github.com"}, "github.com", true},
		{"subdomain", []string{"github.com"}, "www.github.com", true},
		{"deep subdomain", []string{"github.com"}, "a.b.c.d.e.f.g.h.i.github.com", true},
		{"tld only", []string{"github.com"}, "com", false},
		{"other domain", []string{"github.com"}, "example.com", false},
		{"sibling subdomain", []string{"foo.example.com"}, "bar.example.com", false},
		{"parent of registered", []string{"foo.example.com"}, "example.com", false},
		{"label suffix is not a domain suffix", []string{"github.com"}, "notgithub.com", false},
		{"case insensitive", []string{"GitHub.com"}, "WWW.github.COM", true},
		{"trailing dot", []string{"github.com"}, "www.github.com.", true},
		{"empty query", []string{"github.com"}, "", false},
		{"empty label", []string{"github.com"}, "a..github.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := FromDomains(tt.inserted...)
			assert.Equal(t, tt.expected, idx.Matches(tt.query), "Matches(%q)", tt.query)
		})
	}
}

func TestIndex_InsertedAlwaysMatches(t *testing.T) {
	domains := []string{
		"mobileinnova.net",
		"webdetetive.com.br",
		"6287970dd9.era3000.com",
		"user.ownspy.es",
	}
	idx := New()
	for _, d := range domains {
		idx.Insert(d)
		assert.True(t, idx.Matches(d), "inserted domain %q should match", d)
		assert.True(t, idx.Matches("x."+d), "subdomain of %q should match", d)
		assert.True(t, idx.Matches("a.b."+d), "subdomain of %q should match", d)
	}
	assert.False(t, idx.Matches("era3000.com"))
	assert.False(t, idx.Matches("ownspy.es"))
	assert.False(t, idx.Matches("com.br"))
}

func TestIndex_OrderIndependence(t *testing.T) {
	queries := []string{"a.b.c", "b.c", "x.b.c", "c", "z.a.b.c", "d.c"}

	forward := FromDomains("a.b.c", "b.c")
	backward := FromDomains("b.c", "a.b.c")
	alone := FromDomains("b.c")

	for _, q := range queries {
		assert.Equal(t, alone.Matches(q), forward.Matches(q), "forward %q", q)
		assert.Equal(t, alone.Matches(q), backward.Matches(q), "backward %q", q)
	}
	assert.Equal(t, 1, forward.Count())
	assert.Equal(t, 1, backward.Count())
	assert.Equal(t, []string{"b.c"}, forward.Domains())
}

func TestIndex_Count(t *testing.T) {
	tests := []struct {
		name     string
		inserted []string
		expected int
	}{
		{"empty", nil, 0},
		{"one", []string{"github.com"}, 1},
		{"two", []string{"github.com", "example.com"}, 2},
		{"pruned", []string{"www.github.com", "github.com", "example.com", "www.example.com", "foobar.com"}, 3},
		{"reinsert", []string{"github.com", "github.com", "GITHUB.com."}, 1},
		{"ignored empty", []string{"", "  ", "."}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := FromDomains(tt.inserted...)
			assert.Equal(t, tt.expected, idx.Count())
		})
	}
}

func TestIndex_Domains(t *testing.T) {
	idx := FromDomains("user.ownspy.es", "webdetetive.com.br", "ownspy.es", "api.webdetetive.com.br")
	require.Equal(t, []string{"ownspy.es", "webdetetive.com.br"}, idx.Domains())
}

func TestIndex_EmptyDomainNeverMatches(t *testing.T) {
	idx := New()
	idx.Insert("")
	assert.False(t, idx.Matches(""))
	assert.False(t, idx.Matches("github.com"))
	assert.Equal(t, 0, idx.Count())
}
