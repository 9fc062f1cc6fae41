package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flixoflax/lto.lachsnudel.space/internal/models"
	"github.com/flixoflax/lto.lachsnudel.space/internal/realtime"
)

func newTestRelay(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewServer(log.New(io.Discard)).Handler())
	t.Cleanup(server.Close)
	return server
}

func dialTestChannel(t *testing.T, server *httptest.Server, room, clientID string) *realtime.Channel {
	t.Helper()
	ch, err := realtime.Dial(context.Background(), server.URL, room, clientID, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to dial relay: %v", err)
	}
	t.Cleanup(func() { ch.Close() })
	return ch
}

func recvEnvelope(t *testing.T, ch *realtime.Channel) realtime.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch.Events():
		if !ok {
			t.Fatal("Channel closed unexpectedly")
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for envelope")
		return realtime.Envelope{}
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	server := newTestRelay(t)
	chanA := dialTestChannel(t, server, "room1", "client-a")
	chanB := dialTestChannel(t, server, "room1", "client-b")

	state := models.PlaybackState{
		EpisodeID:       "ep1",
		IsPlaying:       true,
		PositionSeconds: 12.5,
		OriginID:        "client-a",
	}

	if err := chanA.Broadcast(realtime.EventPlaybackUpdate, state); err != nil {
		t.Fatalf("Failed to broadcast: %v", err)
	}

	// Fan-out includes the sender; self-filtering is the engine's job
	for _, ch := range []*realtime.Channel{chanA, chanB} {
		env := recvEnvelope(t, ch)
		if env.Type != realtime.TypeBroadcast {
			t.Errorf("Expected broadcast envelope, got '%s'", env.Type)
		}
		if env.Event != realtime.EventPlaybackUpdate {
			t.Errorf("Expected event '%s', got '%s'", realtime.EventPlaybackUpdate, env.Event)
		}
		if env.Sender != "client-a" {
			t.Errorf("Expected sender 'client-a', got '%s'", env.Sender)
		}

		var got models.PlaybackState
		if err := json.Unmarshal(env.Payload, &got); err != nil {
			t.Fatalf("Failed to unmarshal payload: %v", err)
		}
		if !got.Equal(state) {
			t.Errorf("Expected state %+v, got %+v", state, got)
		}
		if got.OriginID != "client-a" {
			t.Errorf("Expected origin 'client-a', got '%s'", got.OriginID)
		}
	}
}

func TestPresenceSyncOnTrackAndLeave(t *testing.T) {
	server := newTestRelay(t)
	chanA := dialTestChannel(t, server, "room1", "client-a")

	if err := chanA.Track(realtime.PresenceMeta{User: "client-a", OnlineAt: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("Failed to track: %v", err)
	}

	env := recvEnvelope(t, chanA)
	if env.Type != realtime.TypePresence || env.Event != realtime.EventSync {
		t.Fatalf("Expected presence sync, got %+v", env)
	}
	if len(env.Members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(env.Members))
	}

	chanB := dialTestChannel(t, server, "room1", "client-b")
	if err := chanB.Track(realtime.PresenceMeta{User: "client-b", OnlineAt: "2024-01-01T00:00:01Z"}); err != nil {
		t.Fatalf("Failed to track: %v", err)
	}

	env = recvEnvelope(t, chanA)
	if len(env.Members) != 2 {
		t.Errorf("Expected 2 members after peer joined, got %d", len(env.Members))
	}
	if _, ok := env.Members["client-b"]; !ok {
		t.Error("Expected 'client-b' in member set")
	}

	// Peer disconnect shrinks the membership again
	chanB.Close()
	env = recvEnvelope(t, chanA)
	if env.Type != realtime.TypePresence {
		t.Fatalf("Expected presence sync after leave, got '%s'", env.Type)
	}
	if len(env.Members) != 1 {
		t.Errorf("Expected 1 member after peer left, got %d", len(env.Members))
	}
}

func TestRoomIsolation(t *testing.T) {
	server := newTestRelay(t)
	chanA := dialTestChannel(t, server, "room1", "client-a")
	chanB := dialTestChannel(t, server, "room2", "client-b")

	if err := chanA.Broadcast(realtime.EventPlaybackUpdate, models.PlaybackState{OriginID: "client-a"}); err != nil {
		t.Fatalf("Failed to broadcast: %v", err)
	}

	// The other room must see nothing
	select {
	case env := <-chanB.Events():
		t.Errorf("Expected no cross-room delivery, got %+v", env)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	server := newTestRelay(t)
	chanA := dialTestChannel(t, server, "room1", "client-a")
	chanB := dialTestChannel(t, server, "room1", "client-b")

	chanB.Close()

	// Give the relay a moment to process the disconnect
	time.Sleep(100 * time.Millisecond)

	if err := chanA.Broadcast(realtime.EventPlaybackUpdate, models.PlaybackState{OriginID: "client-a"}); err != nil {
		t.Fatalf("Failed to broadcast: %v", err)
	}

	// The closed channel's event stream drains and closes
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-chanB.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Expected closed event stream after Close")
		}
	}
}

func TestBroadcastAfterCloseFails(t *testing.T) {
	server := newTestRelay(t)
	ch := dialTestChannel(t, server, "room1", "client-a")
	ch.Close()

	if err := ch.Broadcast(realtime.EventPlaybackUpdate, models.PlaybackState{}); err == nil {
		t.Error("Expected error broadcasting on a closed channel")
	}
}

func TestHealthz(t *testing.T) {
	server := newTestRelay(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("Failed to reach healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}
