package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/cuescore/pkg/match"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub(testLogger())
	a, unsubA := hub.Subscribe()
	b, unsubB := hub.Subscribe()
	defer unsubB()

	if hub.Subscribers() != 2 {
		t.Fatalf("Subscribers = %d, want 2", hub.Subscribers())
	}

	hub.Render(match.View{Game: match.Snooker, Scores: [2]int{1, 0}})
	hub.PlayCue(match.CuePenalty)
	hub.ResetRack()

	for name, ch := range map[string]<-chan Frame{"a": a, "b": b} {
		want := []string{FrameView, FrameCue, FrameRack}
		for _, typ := range want {
			f := <-ch
			if f.Type != typ {
				t.Errorf("%s: frame type = %q, want %q", name, f.Type, typ)
			}
			if typ == FrameCue && f.Cue != "penalty" {
				t.Errorf("%s: cue = %q, want penalty", name, f.Cue)
			}
		}
	}

	unsubA()
	unsubA()
	if _, ok := <-a; ok {
		t.Error("channel open after unsubscribe")
	}
	if hub.Subscribers() != 1 {
		t.Errorf("Subscribers = %d, want 1", hub.Subscribers())
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(testLogger())
	dropped := 0
	hub.dropped = func() { dropped++ }
	_, unsub := hub.Subscribe()
	defer unsub()

	for i := 0; i < 100; i++ {
		hub.ResetRack()
	}
	if dropped != 36 {
		t.Errorf("dropped = %d, want 36", dropped)
	}
}

// readEvent returns the next SSE event name and data line.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString error: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStreamHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	server := httptest.NewServer(srv.Routes())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", server.URL+"/api/match/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream error: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	if event, _ := readEvent(t, r); event != "idle" {
		t.Fatalf("first event = %q, want idle", event)
	}

	srv.Handlers().Start(match.NineBall, match.J2, [2]string{"Ann", "Bob"})

	event, data := readEvent(t, r)
	if event != FrameView {
		t.Fatalf("event = %q, want %q", event, FrameView)
	}
	var f Frame
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if f.View == nil || f.View.Game != match.NineBall || f.View.Active != match.J2 {
		t.Errorf("frame = %+v, want 9-ball view with J2 breaking", f)
	}
}

func dialWS(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
	return ws
}

// roundTrip sends a message and returns its reply, collecting the live
// frames that arrive before it.
func roundTrip(t *testing.T, ws *websocket.Conn, msgType, id string, payload interface{}) (WSResponse, []Frame) {
	t.Helper()
	msg := WSMessage{Type: msgType, ID: id}
	if payload != nil {
		msg.Payload, _ = json.Marshal(payload)
	}
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var frames []Frame
	for {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var raw struct {
			WSResponse
			Payload json.RawMessage `json:"payload"`
		}
		if err := ws.ReadJSON(&raw); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if raw.Type == "frame" {
			var f Frame
			json.Unmarshal(raw.Payload, &f)
			frames = append(frames, f)
			continue
		}
		if raw.ID != id {
			t.Fatalf("reply ID = %q, want %q", raw.ID, id)
		}
		resp := raw.WSResponse
		resp.Payload = raw.Payload
		return resp, frames
	}
}

func TestWebSocketPing(t *testing.T) {
	srv, _ := newTestServer(t)
	ws := dialWS(t, srv.Routes())

	resp, _ := roundTrip(t, ws, "ping", "test-ping-1", nil)
	if resp.Type != "pong" {
		t.Errorf("Response type = %q, want %q", resp.Type, "pong")
	}
}

func TestWebSocketMatch(t *testing.T) {
	srv, history := newTestServer(t)
	ws := dialWS(t, srv.Routes())

	resp, frames := roundTrip(t, ws, "start", "start-1", StartRequest{Game: match.Snooker, J1: "Ann", J2: "Bob"})
	if resp.Type != "result" {
		t.Fatalf("start reply = %+v", resp)
	}
	var started MatchResponse
	json.Unmarshal(resp.Payload.(json.RawMessage), &started)
	if started.Players != [2]string{"Ann", "Bob"} {
		t.Errorf("Players = %v", started.Players)
	}

	seen := frames
	resp, frames = roundTrip(t, ws, "points", "pts-1", PointsRequest{Points: 7})
	seen = append(seen, frames...)
	var view match.View
	json.Unmarshal(resp.Payload.(json.RawMessage), &view)
	if view.Scores != [2]int{7, 0} || view.BreakScore != 7 {
		t.Errorf("view = %+v, want 7-0 with a 7 break", view)
	}

	for _, typ := range []string{"penalty", "toggle", "undo", "view"} {
		resp, frames := roundTrip(t, ws, typ, typ, nil)
		seen = append(seen, frames...)
		if resp.Type != "result" {
			t.Errorf("%s: reply = %+v", typ, resp)
		}
	}

	cues := map[string]int{}
	for _, f := range seen {
		if f.Type == FrameCue {
			cues[f.Cue]++
		}
	}
	if cues["point"] == 0 || cues["penalty"] != 1 {
		t.Errorf("cues = %v, want point and one penalty", cues)
	}

	resp, _ = roundTrip(t, ws, "save", "save-1", nil)
	if resp.Type != "result" {
		t.Fatalf("save reply = %+v", resp)
	}
	records, _ := history.Load(t.Context(), match.Snooker)
	if len(records) != 1 || records[0].J1.Score != 7 {
		t.Errorf("history = %+v, want one 7-point match", records)
	}
}

func TestWebSocketErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	ws := dialWS(t, srv.Routes())

	tests := []struct {
		name    string
		msgType string
		payload interface{}
		wantErr string
	}{
		{"unknown type", "unknown", nil, "unknown message type"},
		{"no match", "toggle", nil, "no match in progress"},
		{"invalid payload", "points", "seven", "invalid payload"},
		{"invalid game", "start", StartRequest{Game: "darts"}, "unknown game"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := roundTrip(t, ws, tc.msgType, tc.name, tc.payload)
			if resp.Type != "error" {
				t.Errorf("Response type = %q, want %q", resp.Type, "error")
			}
			if !strings.Contains(resp.Error, tc.wantErr) {
				t.Errorf("Error = %q, want containing %q", resp.Error, tc.wantErr)
			}
		})
	}
}
