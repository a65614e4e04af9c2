package database

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotagate/migrations"
)

func TestMigrateSkipsNonMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"README.md":              {Data: []byte("notes")},
		"000001_x.down.sql":      {Data: []byte("DROP TABLE x;")},
		"nested/000002_y.up.sql": {Data: []byte("CREATE TABLE y ();")},
	}
	// No top-level *.up.sql files means the database is never touched.
	assert.NoError(t, Migrate(context.Background(), nil, fsys))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		if base, ok := strings.CutSuffix(name, ".up.sql"); ok {
			ups[base] = true
		} else if base, ok := strings.CutSuffix(name, ".down.sql"); ok {
			downs[base] = true
		}
	}
	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
}
