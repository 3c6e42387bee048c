package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func openSSE(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}
	return bufio.NewReader(resp.Body)
}

// readUntil reads SSE lines until one contains want.
func readUntil(t *testing.T, r *bufio.Reader, want string) string {
	t.Helper()
	found := make(chan string, 1)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				close(found)
				return
			}
			if strings.Contains(line, want) {
				found <- line
				return
			}
		}
	}()
	select {
	case line, ok := <-found:
		if !ok {
			t.Fatalf("stream ended before %q", want)
		}
		return line
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
	return ""
}

func TestScoreboardStreamThroughRouter(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.handler)
	// Registered before the streams so their bodies close first.
	t.Cleanup(ts.Close)

	r := openSSE(t, ts.URL+"/api/sse")
	readUntil(t, r, `"type":"connected"`)

	expectStatus(t, srv.do(http.MethodPost, "/api/tournament/initialize", testToken, nil), http.StatusOK)
	line := readUntil(t, r, "bracket_initialized")
	if !strings.HasPrefix(line, "data: ") {
		t.Errorf("scoreboard frame = %q, want a data line", line)
	}
}

func TestSocketChatReachesViewerStream(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.handler)
	t.Cleanup(ts.Close)

	r := openSSE(t, ts.URL+"/api/stream-events")
	readUntil(t, r, "event: connected")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/stream-ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"message":"hello from ws"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	readUntil(t, r, "event: chatMessage")
	if line := readUntil(t, r, "data: "); !strings.Contains(line, "hello from ws") {
		t.Errorf("chat data = %q", line)
	}
}
