package migration

import (
	"io/fs"
	"testing"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/pkg/docstore"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestMigrate_SQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(conn))
	assert.True(t, conn.Migrator().HasTable(&docstore.Document{}))
}

func TestRunMigrations_NilDB(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}
