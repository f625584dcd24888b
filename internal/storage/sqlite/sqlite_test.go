package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/storage/storagetest"
)

func TestSQLiteContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		cfg := &config.Config{Storage: config.Storage{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "students.db"),
		}}
		store, err := New(cfg)
		require.NoError(t, err)
		return store
	})
}

func TestNewIsIdempotent(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "students.db"),
	}}

	first, err := New(cfg)
	require.NoError(t, err)
	saved, err := first.Save(t.Context(), storagetest.NewStudent("Ada", "ada@example.com"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(cfg)
	require.NoError(t, err)
	defer second.Close()

	got, found, err := second.FindByID(t.Context(), saved.ID)
	require.NoError(t, err)
	require.True(t, found, "rows survive reopening the file")
	require.Equal(t, "ada@example.com", got.Email)
}
