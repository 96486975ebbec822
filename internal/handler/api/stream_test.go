package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type frameBody struct {
	Key    []any             `json:"key"`
	Status string            `json:"status"`
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", u, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, what string, match func(frameBody) bool) frameBody {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var f frameBody
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(f) {
			return f
		}
	}
}

func TestStreamDeliversResolvedThenRefetched(t *testing.T) {
	src := &stubSource{docs: map[string]string{"/stocks": `{"stocks": [], "count": 1}`}}
	srv := httptest.NewServer(newTestServer(t, src, nil))
	defer srv.Close()

	conn := dial(t, srv, "/ws/resources/stocks")
	f := readUntil(t, conn, "resolved frame", func(f frameBody) bool { return f.Status == "resolved" })
	if len(f.Key) != 1 || f.Key[0] != "stocks" || !strings.Contains(string(f.Data), `"count":1`) {
		t.Fatalf("frame = %+v", f)
	}

	src.set("/stocks", `{"stocks": [], "count": 2}`)
	if err := conn.WriteJSON(map[string]string{"action": "refetch"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "refetched frame", func(f frameBody) bool {
		return f.Status == "resolved" && strings.Contains(string(f.Data), `"count":2`)
	})
}

func TestStreamRejectsUnknownCommand(t *testing.T) {
	src := &stubSource{docs: map[string]string{"/overview": overviewDoc}}
	srv := httptest.NewServer(newTestServer(t, src, nil))
	defer srv.Close()

	conn := dial(t, srv, "/ws/resources/overview")
	if err := conn.WriteJSON(map[string]string{"action": "delete"}); err != nil {
		t.Fatal(err)
	}
	f := readUntil(t, conn, "error frame", func(f frameBody) bool { return len(f.Errors) > 0 })
	if !strings.Contains(string(f.Errors[0]), "ERR_ONEOF") {
		t.Fatalf("errors = %s", f.Errors[0])
	}
}

func TestStreamRejectsUnknownResource(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, &stubSource{docs: map[string]string{}}, nil))
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/resources/portfolio"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("upgrade succeeded for unknown resource")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("response = %+v", resp)
	}
}
