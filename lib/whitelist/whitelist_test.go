package whitelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.txt")
	content := "# tracked players\nJas0n\n\n# inactive:\n# SomeoneElse\nIWLKN\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	w := Load(path)
	require.True(t, w.Active())
	require.Equal(t, []string{"Jas0n", "IWLKN"}, w.Entries())
}

func TestLoadMissingFileIsInactive(t *testing.T) {
	w := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.False(t, w.Active())
	require.True(t, w.Matches("anyone"))
}

func TestLooseMatchEitherDirection(t *testing.T) {
	w := FromEntries("Jas0n")

	// entry is a substring of the displayed name
	require.True(t, w.Matches("Jas0n_B0urne"))
	// displayed name got truncated to a substring of the entry
	longer := FromEntries("Jas0n_B0urne")
	require.True(t, longer.Matches("Jas0n_B0u"))
	// case-insensitive
	require.True(t, w.Matches("JAS0N"))

	require.False(t, w.Matches("La Magie"))
}

func TestMissingReportedNotFatal(t *testing.T) {
	w := FromEntries("Jas0n", "NiclsRobert")
	candidates := []string{"Jas0n_B0urne", "NicIsRobert1", "La Magie"}

	missing := w.Missing(candidates)
	require.Len(t, missing, 1)
	require.Equal(t, "NiclsRobert", missing[0].Entry)
	// the near-rename is surfaced as the closest candidate
	require.Equal(t, "NicIsRobert1", missing[0].Closest)
}

func TestMissingWithNoCandidates(t *testing.T) {
	w := FromEntries("Jas0n")
	missing := w.Missing(nil)
	require.Len(t, missing, 1)
	require.Equal(t, "", missing[0].Closest)
}
