package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsCreatePortalTables(t *testing.T) {
	files, err := fs.Glob(Files(), "sql/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(Files(), files[0])
	require.NoError(t, err)
	body := string(data)

	assert.True(t, strings.HasPrefix(body, "-- +goose Up"))
	assert.Contains(t, body, "-- +goose Down")
	for _, table := range []string{"users", "communities", "member_profiles", "sport_coins", "member_activities"} {
		assert.Contains(t, body, "CREATE TABLE "+table+" (", table)
	}
	assert.Contains(t, body, "CHECK (role IN ('admin', 'user'))")
	assert.Contains(t, body, "ON users (lower(email))")
}

func TestNewRejectsNilPool(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}
