package config

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want time.Duration
	}{
		{"valid", "90s", 90 * time.Second},
		{"empty", "", time.Minute},
		{"invalid", "soon", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ParseDuration(tt.arg, time.Minute), tt.want)
		})
	}
}

func TestClientConfig(t *testing.T) {
	Backend = "archive"
	ArchiveURL = "archive.db"
	RequestTimeout = "3s"
	CacheTTL = "bogus"
	MaxRetries = -1
	t.Cleanup(func() {
		Backend, ArchiveURL, RequestTimeout, CacheTTL, MaxRetries = "", "", "", "", 0
	})

	got := ClientConfig()
	assert.Equal(t, got.Backend, "archive")
	assert.Equal(t, got.ArchiveURL, "archive.db")
	assert.Equal(t, got.Timeout, 3*time.Second)
	assert.Equal(t, got.CacheTTL, 5*time.Minute)
	assert.Equal(t, got.MaxRetries, uint64(0))
}
