package websocketPkg

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/internal/event"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type chanPoster chan event.Event

func (p chanPoster) Post(e event.Event) { p <- e }

type frame struct {
	messageType int
	data        []byte
}

type backend struct {
	server  *httptest.Server
	apiKeys chan string
	frames  chan frame
}

func newBackend(t *testing.T, greeting string) *backend {
	t.Helper()

	b := &backend{
		apiKeys: make(chan string, 1),
		frames:  make(chan frame, 16),
	}
	upgrader := websocket.Upgrader{}

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.apiKeys <- r.Header.Get("X-API-Key")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		if greeting != "" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(greeting)); err != nil {
				t.Errorf("greeting failed: %v", err)
				return
			}
		}

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			b.frames <- frame{messageType: mt, data: data}
		}
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) url() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http") + "/ws"
}

func (b *backend) next(t *testing.T) frame {
	t.Helper()
	select {
	case f := <-b.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return frame{}
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func connect(t *testing.T, b *backend, poster event.Poster) IWebsocket {
	t.Helper()
	client := New(Config{URL: b.url(), APIKey: "secret"}, quietLogger(), poster)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func waitForMessage(t *testing.T, poster chanPoster) event.MessageReceived {
	t.Helper()
	select {
	case e := <-poster:
		msg, ok := e.(event.MessageReceived)
		if !ok {
			t.Fatalf("Expected MessageReceived, got %T", e)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
		return event.MessageReceived{}
	}
}

func TestUserIDIsMergedIntoControlMessages(t *testing.T) {
	b := newBackend(t, `{"event":"user_id","data":{"user_id":"u-42"}}`)
	poster := make(chanPoster, 4)
	client := connect(t, b, poster)

	if key := <-b.apiKeys; key != "secret" {
		t.Errorf("Expected X-API-Key header, got %q", key)
	}

	msg := waitForMessage(t, poster)
	if msg.Event != entity.EventUserID || msg.Data["user_id"] != "u-42" {
		t.Fatalf("Unexpected inbound message: %+v", msg)
	}
	if client.UserID() != "u-42" {
		t.Errorf("Expected stored user id, got %q", client.UserID())
	}

	err := client.SendControl(entity.EventColorChange, entity.ColorChangeEvent{
		PreviousColor: "transparent",
		NewColor:      "#FF0000",
		ColorIndex:    0,
	})
	if err != nil {
		t.Fatalf("SendControl failed: %v", err)
	}

	got := b.next(t)
	if got.messageType != websocket.TextMessage {
		t.Fatalf("Expected text frame, got %d", got.messageType)
	}
	var decoded ControlMessage
	if err := jsoniter.Unmarshal(got.data, &decoded); err != nil {
		t.Fatalf("Invalid control frame: %v", err)
	}
	if decoded.Event != entity.EventColorChange {
		t.Errorf("Expected color_change, got %s", decoded.Event)
	}
	if decoded.Data["user_id"] != "u-42" || decoded.Data["newColor"] != "#FF0000" {
		t.Errorf("Unexpected data: %v", decoded.Data)
	}
}

func TestSendBinaryWritesMetadataThenPayload(t *testing.T) {
	b := newBackend(t, "")
	client := connect(t, b, make(chanPoster, 4))

	payload := []byte{0x1A, 0x45, 0xDF, 0xA3}
	chunk := entity.VideoChunk{StartTime: 1000, EndTime: 2000, Sequence: 3, MimeType: "video/webm"}
	if err := client.SendBinary(entity.EventVideoChunk, chunk, payload); err != nil {
		t.Fatalf("SendBinary failed: %v", err)
	}

	meta := b.next(t)
	if meta.messageType != websocket.TextMessage {
		t.Fatalf("Expected metadata text frame first, got %d", meta.messageType)
	}
	var decoded ControlMessage
	if err := jsoniter.Unmarshal(meta.data, &decoded); err != nil {
		t.Fatalf("Invalid metadata frame: %v", err)
	}
	if decoded.Event != entity.EventVideoChunk || decoded.Data["sequence"] != float64(3) || decoded.Data["fromEnd"] != false {
		t.Errorf("Unexpected metadata: %+v", decoded)
	}
	if _, ok := decoded.Data["user_id"]; ok {
		t.Error("user_id must be absent until the backend assigns one")
	}

	bin := b.next(t)
	if bin.messageType != websocket.BinaryMessage || string(bin.data) != string(payload) {
		t.Errorf("Expected binary payload, got type %d data %x", bin.messageType, bin.data)
	}
}

func TestSendWithoutConnection(t *testing.T) {
	client := New(Config{URL: "ws://127.0.0.1:1/ws"}, quietLogger(), nil)

	if client.IsOpen() {
		t.Fatal("Client must not be open before connecting")
	}
	if err := client.SendControl(entity.EventVideoEnd, map[string]int{"finalColorIndex": 2}); !errors.Is(err, entity.ErrTransportNotReady) {
		t.Errorf("Expected ErrTransportNotReady, got %v", err)
	}
	if err := client.SendBinary(entity.EventVideoChunk, entity.VideoChunk{}, []byte{1}); !errors.Is(err, entity.ErrTransportNotReady) {
		t.Errorf("Expected ErrTransportNotReady, got %v", err)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	client := New(Config{}, quietLogger(), nil)
	if err := client.Connect(context.Background()); !errors.Is(err, entity.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	b := newBackend(t, "")
	client := New(Config{URL: b.url()}, quietLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	<-b.apiKeys
	deadline := time.Now().Add(2 * time.Second)
	for !client.IsOpen() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !client.IsOpen() {
		t.Fatal("Expected Run to connect")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if client.IsOpen() {
		t.Error("Expected connection closed after Run returns")
	}
}
