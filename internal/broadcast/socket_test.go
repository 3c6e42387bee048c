package broadcast

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/asterisk/tourney/internal/event"
)

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readWS(t *testing.T, ctx context.Context, conn *websocket.Conn) wsFrame {
	t.Helper()
	_, msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f wsFrame
	if err := json.Unmarshal(msg, &f); err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	return f
}

func TestSocketDeliversAndRelays(t *testing.T) {
	h := newTestHub()

	inbound := make(chan string, 1)
	sock := NewSocket(h, slogDiscard(), func(_ context.Context, viewerID string, payload []byte) {
		inbound <- string(payload)
	})

	srv := httptest.NewServer(sock)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	if f := readWS(t, ctx, conn); f.Event != "connected" {
		t.Fatalf("first frame = %s", f.Event)
	}
	if f := readWS(t, ctx, conn); f.Event != "viewerCount" || string(f.Data) != `{"count":1}` {
		t.Fatalf("second frame = %s %s", f.Event, f.Data)
	}

	h.Publish(event.ScoreUpdated{Team: 1, Score: 7})
	if f := readWS(t, ctx, conn); f.Event != "score_updated" {
		t.Errorf("published frame = %s", f.Event)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"message":"gg"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-inbound:
		if got != `{"message":"gg"}` {
			t.Errorf("inbound = %q", got)
		}
	case <-ctx.Done():
		t.Fatal("inbound message not relayed")
	}

	conn.Close(websocket.StatusNormalClosure, "done")
	waitFor(t, func() bool { return h.Len() == 0 })
}
