package persist

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		body, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)
		s := string(body)
		assert.Contains(t, s, "-- +goose Up", name)
		assert.Contains(t, s, "-- +goose Down", name)
		assert.Less(t, strings.Index(s, "-- +goose Up"), strings.Index(s, "-- +goose Down"), name)
	}
}

func TestKillLogSchema(t *testing.T) {
	body, err := fs.ReadFile(migrations, "migrations/00001_kill_log.sql")
	require.NoError(t, err)
	for _, table := range []string{"CREATE TABLE matches", "CREATE TABLE kills"} {
		assert.Contains(t, string(body), table)
	}
}
