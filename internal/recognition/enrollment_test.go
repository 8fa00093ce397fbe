package recognition_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/facegate/internal/recognition"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirSource_ListsImagesPerPerson(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Alice", "Alice_1.jpg"), "a1")
	writeFile(t, filepath.Join(root, "Alice", "Alice_2.PNG"), "a2")
	writeFile(t, filepath.Join(root, "Alice", "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "Alice", ".hidden.jpg"), "skip")
	writeFile(t, filepath.Join(root, "Bob", "bob.jpeg"), "b1")
	writeFile(t, filepath.Join(root, "stray.jpg"), "skip")

	src := recognition.NewDirSource(root)
	got, err := src.Enrollments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Alice", got[0].Name)
	require.Len(t, got[0].Images, 2)
	assert.Equal(t, "Bob", got[1].Name)
	require.Len(t, got[1].Images, 1)

	data, err := src.ReadImage(context.Background(), got[1].Images[0])
	require.NoError(t, err)
	assert.Equal(t, "b1", string(data))
}

func TestDirSource_SkipsUnreadablePerson(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Alice", "1.jpg"), "a1")
	writeFile(t, filepath.Join(root, "Bob", "1.jpg"), "b1")
	locked := filepath.Join(root, "Bob")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	src := recognition.NewDirSource(root)
	src.Logger = quietLogger()
	got, err := src.Enrollments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
}

func TestDirSource_MissingRoot(t *testing.T) {
	src := recognition.NewDirSource(filepath.Join(t.TempDir(), "nope"))
	_, err := src.Enrollments(context.Background())
	assert.ErrorIs(t, err, recognition.ErrNoEnrollmentDir)
}

func TestDirSource_LoadIntoStore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Alice", "1.jpg"), "face")
	writeFile(t, filepath.Join(root, "Alice", "2.jpg"), "blank")

	ex := &fakeExtractor{faces: map[string][]recognition.Embedding{"face": {{0.5, 0.5}}}}
	st := recognition.NewEncodingStore(ex, quietLogger())

	report, err := st.Load(context.Background(), recognition.NewDirSource(root))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 1, report.Skipped)
}
