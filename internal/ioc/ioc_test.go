package ioc

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spytrap/internal/suffix"
)

const ownSpy = `---
- name: OwnSpy
  names:
  - OwnSpy
  - WebDetetive
  packages:
  - com.ownspy.android
  - org.system.kernel
  certificates:
  - CA5304E94F4BC97DA9D147E76858DBF70AB8B4E6
  - 14A071616D4BC37F08BE865D375101F4C963777A
  websites:
  - mobileinnova.net
  - webdetetive.com.br
  c2:
    ips:
    - 192.0.2.10
    domains:
    - 6287970dd9.era3000.com
    - user.ownspy.es
`

func quiet() *log.Logger {
	return log.New(io.Discard)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_YAML(t *testing.T) {
	idx := suffix.New()
	stats, err := Parse(strings.NewReader(ownSpy), FormatYAML, idx, quiet())
	require.NoError(t, err)

	expected := suffix.FromDomains(
		"mobileinnova.net",
		"webdetetive.com.br",
		"6287970dd9.era3000.com",
		"user.ownspy.es",
	)
	assert.Equal(t, expected.Domains(), idx.Domains())
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 4, stats.Inserted)

	// names, packages and certificates are never indexed
	assert.False(t, idx.Matches("com.ownspy.android"))
	assert.False(t, idx.Matches("OwnSpy"))
	assert.False(t, idx.Matches("192.0.2.10"))
}

func TestParse_YAMLDistribution(t *testing.T) {
	src := `
- name: Example
  distribution:
  - dl.example-spy.net
  websites:
  - 203.0.113.7
`
	idx := suffix.New()
	stats, err := Parse(strings.NewReader(src), FormatYAML, idx, quiet())
	require.NoError(t, err)
	assert.True(t, idx.Matches("cdn.dl.example-spy.net"))
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParse_YAMLMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("name: not-a-list\n"), FormatYAML, suffix.New(), quiet())
	require.Error(t, err)
}

func TestParse_List(t *testing.T) {
	src := `# stalkerware c2
user.ownspy.es
mobileinnova.net   # website

0.0.0.0 webdetetive.com.br
10.0.0.1
localhost
`
	idx := suffix.New()
	stats, err := Parse(strings.NewReader(src), FormatList, idx, quiet())
	require.NoError(t, err)
	assert.Equal(t, []string{"mobileinnova.net", "user.ownspy.es", "webdetetive.com.br"}, idx.Domains())
	assert.Equal(t, 3, stats.Inserted)
	assert.Equal(t, 2, stats.Skipped)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "ioc.yaml", ownSpy)
	idx, err := Load(path, FormatAuto, quiet())
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Count())
	assert.True(t, idx.Matches("cdn.webdetetive.com.br"))
}

func TestLoad_AutoPicksList(t *testing.T) {
	path := writeFile(t, "domains.txt", "github.com\n")
	idx, err := Load(path, FormatAuto, quiet())
	require.NoError(t, err)
	assert.True(t, idx.Matches("www.github.com"))
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), FormatAuto, quiet())
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "- name: [unterminated\n")
		_, err := Load(path, FormatAuto, quiet())
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, path, loadErr.Path)
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		expected Format
		wantErr  bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"YAML", FormatYAML, false},
		{"list", FormatList, false},
		{"json", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestIsDomain(t *testing.T) {
	assert.True(t, IsDomain("user.ownspy.es"))
	assert.False(t, IsDomain("192.168.1.1"))
	assert.False(t, IsDomain("::1"))
	assert.False(t, IsDomain("com"))
	assert.False(t, IsDomain(""))
}
