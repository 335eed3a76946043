package postgres

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-rag-api/internal/config"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(&config.PostgresConfig{
		Host: "db", Port: 5432, User: "rag", Password: "p@ss word", Database: "videos",
	})
	u, err := url.Parse(dsn)
	require.NoError(t, err)

	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/videos", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, applicationName, u.Query().Get("application_name"))
}
