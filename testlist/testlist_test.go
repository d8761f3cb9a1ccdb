package testlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		qualified string
		want      bool
	}{
		{"zero filter matches all", Filter{}, "Demo::a", true},
		{"substring in case", Filter{Substring: "Dem"}, "Demo::a", true},
		{"substring across separator", Filter{Substring: "o::a"}, "Demo::a", true},
		{"substring absent", Filter{Substring: "Other"}, "Demo::a", false},
		{"allow exact", Filter{Allow: []string{"Demo::a"}}, "Demo::a", true},
		{"allow with parens", Filter{Allow: []string{"Demo::a()"}}, "Demo::a", true},
		{"allow prefix is not enough", Filter{Allow: []string{"Demo::ab"}}, "Demo::a", false},
		{"allow other", Filter{Allow: []string{"Demo::b"}}, "Demo::a", false},
		{"both must hold", Filter{Substring: "Other", Allow: []string{"Demo::a"}}, "Demo::a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.qualified))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tests.txt")
	content := "# selected tests\n" +
		"Demo::a()\n" +
		"\n" +
		"   Demo::b  \n" +
		"\t\n" +
		"#Demo::c\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	entries, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Demo::a()", "Demo::b"}, entries)

	f := Filter{Allow: entries}
	assert.True(t, f.Matches("Demo::a"))
	assert.True(t, f.Matches("Demo::b"))
	assert.False(t, f.Matches("Demo::c"))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open test list")
}
