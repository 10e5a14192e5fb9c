package rtc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnection_OfferAndLocalStream(t *testing.T) {
	c, err := NewConnection(WebRTCConfig(nil), "c1")
	require.NoError(t, err)
	defer c.Close()

	sdp, err := c.CreateOffer()
	require.NoError(t, err)
	assert.Contains(t, sdp, "m=audio")

	local := c.Local()
	assert.Equal(t, "local-c1", local.StreamID())

	_, err = c.Remote()
	assert.ErrorIs(t, err, ErrNoRemoteStream)
}

func TestConnection_SetLocalEnabled(t *testing.T) {
	c, err := NewConnection(WebRTCConfig(nil), "c2")
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.Sending())
	require.NoError(t, c.SetLocalEnabled(false))
	assert.False(t, c.Sending())
	require.NoError(t, c.SetLocalEnabled(true))
	assert.True(t, c.Sending())
}

func TestConnection_OnClosedFiresOnClose(t *testing.T) {
	c, err := NewConnection(WebRTCConfig(nil), "c3")
	require.NoError(t, err)
	closed := make(chan struct{}, 2)
	c.OnClosed(func() { closed <- struct{}{} })
	c.Start(context.Background())

	c.Close()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("OnClosed not called")
	}
}

func TestWebRTCConfig(t *testing.T) {
	assert.Empty(t, WebRTCConfig(nil).ICEServers)
	cfg := DefaultWebRTCConfig()
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers[0].URLs)
}
