package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/mehedi89/chirper/backend/internal/models"
	"go.uber.org/zap"
)

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestHub(t *testing.T) (*httptest.Server, *Registry, *Dispatcher) {
	t.Helper()
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, zap.NewNop(), nil)
	hub := NewHub(registry, dispatcher, zap.NewNop())

	e := echo.New()
	e.GET("/ws", hub.ServeWS)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, registry, dispatcher
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("expected envelope within deadline: %v", err)
	}
	return env
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHubRegisterConfirmAndDeliver(t *testing.T) {
	srv, _, dispatcher := newTestHub(t)
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(map[string]interface{}{"event": EventRegister, "data": "42"}); err != nil {
		t.Fatalf("write register: %v", err)
	}

	confirm := readEnvelope(t, conn)
	if confirm.Event != EventRegisterConfirm {
		t.Fatalf("expected %q, got %q", EventRegisterConfirm, confirm.Event)
	}
	var confirmedID string
	if err := json.Unmarshal(confirm.Data, &confirmedID); err != nil || confirmedID != "42" {
		t.Fatalf("expected confirmation for user 42, got %s", confirm.Data)
	}

	dispatcher.Dispatch("42", &models.Notification{ID: 9, RecipientID: 42, Kind: "like", TweetID: "abc123"})

	push := readEnvelope(t, conn)
	if push.Event != EventNotification {
		t.Fatalf("expected %q, got %q", EventNotification, push.Event)
	}
	var n models.Notification
	if err := json.Unmarshal(push.Data, &n); err != nil {
		t.Fatalf("decode pushed notification: %v", err)
	}
	if n.Kind != "like" || n.TweetID != "abc123" || n.IsRead {
		t.Fatalf("unexpected pushed record: %+v", n)
	}
}

func TestHubCoercesNumericUserID(t *testing.T) {
	srv, registry, _ := newTestHub(t)
	conn := dialWS(t, srv)

	// Clients sometimes send the raw numeric ID; lookups are keyed by string.
	if err := conn.WriteJSON(map[string]interface{}{"event": EventRegister, "data": 42}); err != nil {
		t.Fatalf("write register: %v", err)
	}

	confirm := readEnvelope(t, conn)
	var confirmedID string
	if err := json.Unmarshal(confirm.Data, &confirmedID); err != nil || confirmedID != "42" {
		t.Fatalf("expected numeric id coerced to \"42\", got %s", confirm.Data)
	}
	if _, ok := registry.Lookup("42"); !ok {
		t.Fatal("expected registry entry under the string key")
	}
}

func TestHubIgnoresEmptyRegistration(t *testing.T) {
	srv, registry, _ := newTestHub(t)
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(map[string]interface{}{"event": EventRegister, "data": ""}); err != nil {
		t.Fatalf("write register: %v", err)
	}

	// The connection must survive the bad registration and accept a valid one.
	if err := conn.WriteJSON(map[string]interface{}{"event": EventRegister, "data": "7"}); err != nil {
		t.Fatalf("write second register: %v", err)
	}
	confirm := readEnvelope(t, conn)
	if confirm.Event != EventRegisterConfirm {
		t.Fatalf("expected confirmation after retry, got %q", confirm.Event)
	}
	waitFor(t, func() bool { return registry.Len() == 1 }, "expected a single registry entry")
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	srv, registry, _ := newTestHub(t)
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(map[string]interface{}{"event": EventRegister, "data": "42"}); err != nil {
		t.Fatalf("write register: %v", err)
	}
	readEnvelope(t, conn) // confirmation
	waitFor(t, func() bool { return registry.Len() == 1 }, "expected registration")

	conn.Close()
	waitFor(t, func() bool { return registry.Len() == 0 }, "expected registry cleanup on disconnect")
}

func TestHubReplaysDispatchThatRacedRegistration(t *testing.T) {
	srv, _, dispatcher := newTestHub(t)

	// Creation lands before the recipient's websocket registration.
	dispatcher.Dispatch("42", &models.Notification{ID: 4, RecipientID: 42, Kind: "reply"})

	conn := dialWS(t, srv)
	if err := conn.WriteJSON(map[string]interface{}{"event": EventRegister, "data": "42"}); err != nil {
		t.Fatalf("write register: %v", err)
	}

	confirm := readEnvelope(t, conn)
	if confirm.Event != EventRegisterConfirm {
		t.Fatalf("expected confirmation, got %q", confirm.Event)
	}
	push := readEnvelope(t, conn)
	if push.Event != EventNotification {
		t.Fatalf("expected replayed notification, got %q", push.Event)
	}
	var n models.Notification
	if err := json.Unmarshal(push.Data, &n); err != nil || n.ID != 4 {
		t.Fatalf("unexpected replayed record: %s", push.Data)
	}
}
