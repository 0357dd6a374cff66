package limits

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileProviderWinsOverDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.txt")
	content := "# operator override\n100\n250\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg := NewRegistry(
		FileProvider{Path: path},
		StaticProvider{Name: "env", List: []string{"16-25", "50"}},
	)

	enabled := reg.Enabled()
	require.Len(t, enabled, 2)
	require.Equal(t, "100", enabled[0].ID)
	require.Equal(t, "250", enabled[1].ID)
}

func TestEmptyFileFallsBackToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.txt")
	require.NoError(t, os.WriteFile(path, []byte("# all commented out\n"), 0o644))

	reg := NewRegistry(
		FileProvider{Path: path},
		StaticProvider{Name: "env", List: []string{"16-25", "50", "100"}},
	)

	enabled := reg.Enabled()
	require.Len(t, enabled, 3)
	require.Equal(t, []string{"16-25", "50", "100"},
		[]string{enabled[0].ID, enabled[1].ID, enabled[2].ID})
}

func TestMissingFileFallsBack(t *testing.T) {
	reg := NewRegistry(
		FileProvider{Path: filepath.Join(t.TempDir(), "nope.txt")},
		StaticProvider{Name: "env", List: []string{"50"}},
	)
	enabled := reg.Enabled()
	require.Len(t, enabled, 1)
	require.Equal(t, "50", enabled[0].ID)
}

func TestUnknownIDsSkippedWithRemainderApplied(t *testing.T) {
	reg := NewRegistry(StaticProvider{Name: "env", List: []string{"999", "50", "bogus"}})
	enabled := reg.Enabled()
	require.Len(t, enabled, 1)
	require.Equal(t, "50", enabled[0].ID)
}

func TestAllMalformedEntriesFallThrough(t *testing.T) {
	reg := NewRegistry(
		StaticProvider{Name: "file", List: []string{"999"}},
		StaticProvider{Name: "env", List: []string{"100"}},
	)
	enabled := reg.Enabled()
	require.Len(t, enabled, 1)
	require.Equal(t, "100", enabled[0].ID)
}

func TestCanonicalOrderPreserved(t *testing.T) {
	reg := NewRegistry(StaticProvider{Name: "env", List: []string{"100", "0.25", "50"}})
	enabled := reg.Enabled()
	require.Equal(t, []string{"0.25", "50", "100"},
		[]string{enabled[0].ID, enabled[1].ID, enabled[2].ID})
}

func TestParseIDs(t *testing.T) {
	require.Equal(t, []string{"16-25", "50", "100"}, ParseIDs(" 16-25, 50 ,100,"))
	require.Nil(t, ParseIDs(""))
}
