package library

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), mode))
}

func TestScan_SkipsUnderscoreDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Foo", "Foo.exe"), 0o644)
	writeFile(t, filepath.Join(root, "_hidden", "x.exe"), 0o644)

	games, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Foo", games[0].Name)
	assert.Equal(t, filepath.Join(root, "Foo"), games[0].InstallDir)
	assert.Equal(t, filepath.Join(root, "Foo", "Foo.exe"), games[0].ExecutablePath)
	assert.Empty(t, games[0].CoverPath)
}

func TestScan_SortsCaseInsensitively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zeta", "zeta.exe"), 0o644)
	writeFile(t, filepath.Join(root, "Alpha", "Alpha.exe"), 0o644)

	games, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Alpha", games[0].Name)
	assert.Equal(t, "zeta", games[1].Name)
}

func TestScan_MissingRootIsEmpty(t *testing.T) {
	games, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestScan_RootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "apps")
	writeFile(t, root, 0o644)

	_, err := Scan(root)
	require.Error(t, err)
	assert.True(t, apperr.IsType(err, apperr.Filesystem))
}

func TestScan_OmitsDirectoriesWithoutExecutable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Broken", "data", "level.pak"), 0o644)
	writeFile(t, filepath.Join(root, "Works", "bin", "Works.exe"), 0o644)

	games, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Works", games[0].Name)
}

func TestScan_FindsNestedExecutableAndCover(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Hollow Knight")
	writeFile(t, filepath.Join(dir, "a", "art", "cover.png"), 0o644)
	writeFile(t, filepath.Join(dir, "b", "unins000.exe"), 0o644)
	writeFile(t, filepath.Join(dir, "c", "Hollow_Knight.exe"), 0o644)
	writeFile(t, filepath.Join(dir, "z.jpg"), 0o644)

	games, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, filepath.Join(dir, "a", "art", "cover.png"), games[0].CoverPath)
	assert.Equal(t, filepath.Join(dir, "c", "Hollow_Knight.exe"), games[0].ExecutablePath)
}

func TestFindCover_DepthFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.png"), 0o644)
	writeFile(t, filepath.Join(dir, "a", "inner.jpeg"), 0o644)

	cover, ok := FindCover(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "a", "inner.jpeg"), cover)

	_, ok = FindCover(filepath.Join(dir, "missing"))
	assert.False(t, ok)
}

func TestFindExecutable_ExtensionlessWithExecBit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("execute bits are not meaningful on Windows")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes"), 0o644)
	writeFile(t, filepath.Join(dir, "runner"), 0o755)

	exe, ok := FindExecutable(dir, "Something Else")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "runner"), exe)
}

func TestFind(t *testing.T) {
	games := []InstalledGame{
		{Name: "Hollow_Knight"},
		{Name: "Left 4 Dead 2"},
	}

	g, err := Find(games, "hollow knight (GOTY)")
	require.NoError(t, err)
	assert.Equal(t, "Hollow_Knight", g.Name)

	g, err = Find(games, "Left4Dead2")
	require.NoError(t, err)
	assert.Equal(t, "Left 4 Dead 2", g.Name)

	_, err = Find(games, "Celeste")
	assert.True(t, apperr.IsType(err, apperr.NotFound))

	assert.True(t, IsInstalled(games, "HOLLOW-KNIGHT"))
	assert.False(t, IsInstalled(games, "Hades"))
}

func TestSearch(t *testing.T) {
	games := []InstalledGame{{Name: "Hollow_Knight"}, {Name: "Hades"}, {Name: "Celeste"}}
	got := Search(games, "hollowkn")
	require.Len(t, got, 1)
	assert.Equal(t, "Hollow_Knight", got[0].Name)
	assert.Len(t, Search(games, ""), 3)
}
