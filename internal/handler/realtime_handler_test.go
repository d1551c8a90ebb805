package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nightreel/cineclub-api/internal/realtime"
)

func TestRealtimeHandlerBoundsHandshake(t *testing.T) {
	h := NewRealtimeHandler(nil, nil, realtime.SessionConfig{SubscribeTimeout: 2 * time.Second}, nil)
	require.Equal(t, 2*time.Second, h.upgrader.HandshakeTimeout)
}

func TestRealtimeHandlerDefaultsHandshakeBound(t *testing.T) {
	h := NewRealtimeHandler(nil, nil, realtime.SessionConfig{}, nil)
	require.Equal(t, 5*time.Second, h.upgrader.HandshakeTimeout)
}
