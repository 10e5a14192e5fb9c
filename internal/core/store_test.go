package core

import (
	"errors"
	"testing"

	"github.com/dkeye/callsession/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ConnectedLooksUpWithCommittedHandle(t *testing.T) {
	var looked []string
	st := NewStore("me", func(h domain.CallHandle) (domain.MediaStream, error) {
		looked = append(looked, h.CallID())
		return testStream("local-" + h.CallID()), nil
	})
	st.Update(func(c *domain.CallSession) {
		c.Direction = domain.DirectionOutbound
		c.Kind = domain.KindPeer
		c.ActiveCall = testCall("H")
	})
	_, err := st.Apply(Notification{Name: domain.EventRinging})
	require.NoError(t, err)

	ev, err := st.Apply(Notification{Name: domain.EventConnected, Call: testCall("H"), RemoteStream: testStream("R")})
	require.NoError(t, err)
	assert.Equal(t, domain.EventConnected, ev.Name)

	s := st.Snapshot()
	assert.Equal(t, []string{"H"}, looked)
	assert.Equal(t, domain.StateConnected, s.WebRTCState)
	assert.Equal(t, testStream("local-H"), s.LocalStream)
	assert.Equal(t, testStream("R"), s.RemoteStream)
}

func TestStore_LookupFailureLeavesLocalStreamEmpty(t *testing.T) {
	st := NewStore("me", func(domain.CallHandle) (domain.MediaStream, error) {
		return nil, errors.New("no camera")
	})
	st.Update(func(c *domain.CallSession) {
		c.Direction = domain.DirectionOutbound
		c.ActiveCall = testCall("H")
	})
	_, err := st.Apply(Notification{Name: domain.EventRinging})
	require.NoError(t, err)
	_, err = st.Apply(Notification{Name: domain.EventConnected, RemoteStream: testStream("R")})
	require.NoError(t, err)

	s := st.Snapshot()
	assert.Equal(t, domain.StateConnected, s.WebRTCState)
	assert.Nil(t, s.LocalStream)
}

func TestStore_RejectedNotificationDoesNotCommit(t *testing.T) {
	st := NewStore("me", nil)
	before := st.Snapshot()
	_, err := st.Apply(Notification{Name: domain.EventGotMedia})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, st.Snapshot())
}

func TestStore_UpdateCannotMoveWebRTCState(t *testing.T) {
	st := NewStore("me", nil)
	st.Update(func(c *domain.CallSession) {
		c.WebRTCState = domain.StateConnected
		c.LocalMicMuted = true
	})
	s := st.Snapshot()
	assert.Equal(t, domain.StateIdle, s.WebRTCState)
	assert.True(t, s.LocalMicMuted)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	st := NewStore("me", nil)
	snap := st.Snapshot()
	snap.ServiceID = "mutated"
	assert.Empty(t, st.Snapshot().ServiceID)
	assert.Equal(t, "me", st.Current().RegisteredClientID)
	assert.Equal(t, domain.Unregistered, st.Current().Registration.State)
}
