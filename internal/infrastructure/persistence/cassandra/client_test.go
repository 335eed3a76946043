package cassandra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"video-rag-api/internal/config"
)

func TestIdentPattern(t *testing.T) {
	for _, ok := range []string{"video_rag", "video_chunks", "T1"} {
		assert.True(t, identPattern.MatchString(ok), ok)
	}
	for _, bad := range []string{"", "1abc", "drop table;", "a-b", "video_chunks; DROP"} {
		assert.False(t, identPattern.MatchString(bad), bad)
	}
}

func TestNewClient_ValidatesConfig(t *testing.T) {
	_, err := NewClient(&config.CassandraConfig{})
	assert.ErrorContains(t, err, "hosts")

	_, err = NewClient(&config.CassandraConfig{Hosts: []string{"localhost"}, Keyspace: "ks", Table: "x;y"})
	assert.ErrorContains(t, err, "table")
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 10*time.Second, orDefault(0, 10*time.Second))
	assert.Equal(t, time.Second, orDefault(time.Second, 10*time.Second))
}
