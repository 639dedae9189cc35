// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/catalogue/internal/db"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err, "open in-memory db")
	require.NoError(t, db.Migrate(context.Background(), gdb))

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	return gdb
}
