package endpoints

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/config"
)

func TestClientIP(t *testing.T) {
	// Cleanup registered before Setenv so it runs after the env is
	// restored, leaving the shared config clean for other tests.
	t.Cleanup(func() { _ = config.Reload() })
	t.Setenv("HYBRID_TRUSTED_PROXIES", "10.0.0.1")
	require.NoError(t, config.Reload())

	testCases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{
			name:       "direct connection",
			remoteAddr: "192.0.2.10:54321",
			expected:   "192.0.2.10",
		},
		{
			name:       "forwarded header from untrusted peer is ignored",
			remoteAddr: "192.0.2.10:54321",
			forwarded:  "203.0.113.7",
			expected:   "192.0.2.10",
		},
		{
			name:       "forwarded header from trusted proxy",
			remoteAddr: "10.0.0.1:54321",
			forwarded:  "203.0.113.7",
			expected:   "203.0.113.7",
		},
		{
			name:       "multi-hop chain keeps the originating client",
			remoteAddr: "10.0.0.1:54321",
			forwarded:  "203.0.113.7, 10.0.0.2, 10.0.0.1",
			expected:   "203.0.113.7",
		},
		{
			name:       "empty leftmost entry falls back to the peer",
			remoteAddr: "10.0.0.1:54321",
			forwarded:  " , 10.0.0.2",
			expected:   "10.0.0.1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			assert.Equal(t, tc.expected, clientIP(r))
		})
	}
}
