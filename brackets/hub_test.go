package brackets

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	inRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: TournamentRoom}
	elsewhere := &Client{Hub: hub, Send: make(chan []byte, 4), Room: "other"}
	hub.Register <- inRoom
	hub.Register <- elsewhere

	require.Eventually(t, func() bool {
		return hub.RoomSize(TournamentRoom) == 1 && hub.RoomSize("other") == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(TournamentRoom, EventMatchEnded, map[string]string{"match_id": "match-1-1"})

	select {
	case raw := <-inRoom.Send:
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, EventMatchEnded, msg.Type)
		assert.Equal(t, TournamentRoom, msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("expected a message in the tournament room")
	}
	assert.Empty(t, elsewhere.Send)

	hub.Unregister <- inRoom
	require.Eventually(t, func() bool { return hub.RoomSize(TournamentRoom) == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-inRoom.Send
	assert.False(t, open, "unregistering closes the send channel")

	// Broadcasting to an empty room is a no-op.
	hub.Publish(TournamentRoom, EventScoresSaved, nil)
}

func TestHubJoinAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	joined := &Client{Hub: hub, Send: make(chan []byte, 1), Room: TournamentRoom}
	require.True(t, hub.Join(context.Background(), joined))

	cancel()
	<-stopped

	late := &Client{Hub: hub, Send: make(chan []byte, 1), Room: TournamentRoom}
	result := make(chan bool, 1)
	go func() { result <- hub.Join(context.Background(), late) }()
	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Join blocked after the hub stopped")
	}
	assert.Zero(t, hub.RoomSize(TournamentRoom))
}

func TestHubJoinHonoursContext(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, hub.Join(ctx, &Client{Hub: hub, Room: TournamentRoom}))
}
