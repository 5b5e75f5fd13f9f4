package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"rpsvision/internal/config"
	"rpsvision/internal/logger"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubPublishesToViewers(t *testing.T) {
	log, err := logger.NewLogger(&config.Config{LogDirectory: t.TempDir(), Quiet: true})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer log.Close()

	hub := NewHubService(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(Message{Type: TypeStatus, Message: " Rock: %100.00"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != TypeStatus || got.Message != " Rock: %100.00" {
		t.Fatalf("unexpected message %+v", got)
	}
}

func TestHubRegisterAfterShutdownDoesNotBlock(t *testing.T) {
	log, err := logger.NewLogger(&config.Config{LogDirectory: t.TempDir(), Quiet: true})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer log.Close()

	hub := NewHubService(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.done

	returned := make(chan struct{})
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		hub.Unregister(conn)
		close(returned)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Register/Unregister blocked after the hub stopped")
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Fatal("expected the late viewer connection to be closed")
	}
	if n := hub.GetClientCount(); n != 0 {
		t.Fatalf("expected no clients after shutdown, got %d", n)
	}
}
