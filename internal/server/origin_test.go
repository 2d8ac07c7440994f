package server

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	policy := newOriginPolicy([]string{"http://Example.com", "not-a-url", " "}, log)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://example.com", true},
		{"HTTP://EXAMPLE.COM", true},
		{"http://example.com/path", true},
		{"https://example.com", false},
		{"http://evil.com", false},
		{"", false},
		{"javascript:alert(1)", false},
		{"http://", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			r.Header.Set("Origin", tt.origin)
			require.Equal(t, tt.want, policy.checkOrigin(r))
		})
	}
}

func TestOriginPolicy_Wildcard(t *testing.T) {
	policy := newOriginPolicy([]string{"*"}, logs.GetLoggerFromLevel(slog.LevelDebug))

	require.True(t, policy.allows("https://anything.example"))
	require.False(t, policy.allows(""))
	require.False(t, policy.allows("garbage"))
}
