package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return hub
}

func TestHub_PublishReachesOwnerOnly(t *testing.T) {
	hub := runHub(t)
	owner, other := uuid.New(), uuid.New()

	mine := NewClient(hub, nil, owner)
	theirs := NewClient(hub, nil, other)
	hub.join(mine)
	hub.join(theirs)
	require.Eventually(t, func() bool { return hub.Connected(owner) == 1 && hub.Connected(other) == 1 }, time.Second, 5*time.Millisecond)

	guideID := uuid.NewString()
	ev := events.NewGuideEvent(events.GuidePrimaryReady, guideID, owner.String(), nil)
	require.NoError(t, hub.Publish(context.Background(), ev))

	select {
	case raw := <-mine.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		assert.Equal(t, events.GuidePrimaryReady, frame.Type)
		assert.Equal(t, guideID, frame.Data["guide_id"])
	case <-time.After(time.Second):
		t.Fatal("owner did not receive the frame")
	}
	assert.Empty(t, theirs.Send)
}

func TestHub_IgnoresEventsWithoutOwner(t *testing.T) {
	hub := runHub(t)
	ev := events.BaseEvent{Type: events.GuidePrimaryReady, Data: map[string]interface{}{}}
	assert.NoError(t, hub.Publish(context.Background(), ev))
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := runHub(t)
	owner := uuid.New()
	client := NewClient(hub, nil, owner)
	hub.join(client)
	require.Eventually(t, func() bool { return hub.Connected(owner) == 1 }, time.Second, 5*time.Millisecond)

	ev := events.NewGuideEvent(events.GuideSecondaryReady, uuid.NewString(), owner.String(), nil)
	for i := 0; i <= sendBuffer; i++ {
		require.NoError(t, hub.Publish(context.Background(), ev))
	}

	assert.Equal(t, 0, hub.Connected(owner))
	// Drain what was buffered; the channel must end closed.
	for range client.Send {
	}
}

func TestHub_LeaveAfterStop(t *testing.T) {
	hub := NewHub(nil, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	owner := uuid.New()
	client := NewClient(hub, nil, owner)
	hub.join(client)
	require.Eventually(t, func() bool { return hub.Connected(owner) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		hub.leave(client)
		hub.join(NewClient(hub, nil, owner))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after the hub stopped")
	}
	assert.Equal(t, 0, hub.Connected(owner))
}
