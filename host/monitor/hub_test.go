package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, h *Hub) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, srv
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	conn, srv := dialTestHub(t, h)
	defer srv.Close()
	defer conn.Close()
	waitForClients(t, h, 1)

	h.Publish("STEPPER_MOVE_STARTED:FROM=0,0,TO=100,50")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "STEPPER_MOVE_STARTED:FROM=0,0,TO=100,50" {
		t.Errorf("message = %q", msg)
	}
}

func TestHubMultipleClients(t *testing.T) {
	h := NewHub()
	conn1, srv := dialTestHub(t, h)
	defer srv.Close()
	defer conn1.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn2.Close()
	waitForClients(t, h, 2)

	h.Publish("SYSTEM_READY")
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if string(msg) != "SYSTEM_READY" {
			t.Errorf("message = %q", msg)
		}
	}
}

func TestHubClientDisconnect(t *testing.T) {
	h := NewHub()
	conn, srv := dialTestHub(t, h)
	defer srv.Close()
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)

	// Publishing with nobody listening must not panic.
	h.Publish("LIMITS:H_L=0,H_R=0,V_U=0,V_D=0")
}

func TestHubReporter(t *testing.T) {
	h := NewHub()
	conn, srv := dialTestHub(t, h)
	defer srv.Close()
	defer conn.Close()
	waitForClients(t, h, 1)

	report := h.Reporter()
	report("CALIBRATION_STARTED")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "CALIBRATION_STARTED" {
		t.Errorf("message = %q", msg)
	}
}
