package addresses

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addrs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile_MultipleCellsPerRow(t *testing.T) {
	path := writeTempCSV(t, "addr1,addr2\naddr3\n")

	addrs, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"addr1", "addr2", "addr3"}, addrs)
}

func TestReadFile_TrimsAndDropsEmptyCells(t *testing.T) {
	path := writeTempCSV(t, " addr1 ,,addr2\n,\n")

	addrs, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"addr1", "addr2"}, addrs)
}

func TestReadFile_DedupesPreservingOrder(t *testing.T) {
	path := writeTempCSV(t, "addr2,addr1\naddr2\naddr1,addr3\n")

	addrs, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"addr2", "addr1", "addr3"}, addrs)
}

func TestReadFile_EmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")

	addrs, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestReadFile_MissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Dedupe([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Dedupe(nil))
}
