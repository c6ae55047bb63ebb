package websocketPkg

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/internal/event"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type IWebsocket interface {
	Run(ctx context.Context) error
	Connect(ctx context.Context) error
	IsOpen() bool
	SendControl(eventName string, data any) error
	SendBinary(eventName string, data any, payload []byte) error
	UserID() string
	Close()
}

// ControlMessage is the text frame shape in both directions.
type ControlMessage struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

type Config struct {
	URL           string
	APIKey        string
	PingInterval  time.Duration
	WriteTimeout  time.Duration
	RetryInterval time.Duration
}

type webSocketClient struct {
	cfg    Config
	log    *logrus.Logger
	poster event.Poster
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed chan struct{}
	userID string
}

func New(cfg Config, logger *logrus.Logger, poster event.Poster) IWebsocket {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 3 * time.Second
	}

	return &webSocketClient{
		cfg:    cfg,
		log:    logger,
		poster: poster,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Run keeps the connection up until ctx is done.
func (c *webSocketClient) Run(ctx context.Context) error {
	for {
		if err := c.Connect(ctx); err != nil {
			c.log.Warnf("Connection to %s failed: %v. Retrying in %s", c.cfg.URL, err, c.cfg.RetryInterval)
		} else {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()

			select {
			case <-ctx.Done():
				c.Close()
				return ctx.Err()
			case <-closed:
				c.log.Warn("Backend connection lost, reconnecting")
			}
		}

		timer := time.NewTimer(c.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *webSocketClient) Connect(ctx context.Context) error {
	if c.cfg.URL == "" {
		return fmt.Errorf("%w: backend URL not configured", entity.ErrInvalidConfiguration)
	}

	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set("X-API-Key", c.cfg.APIKey)
	}

	c.log.Infof("Connecting to backend at %s", c.cfg.URL)

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.cfg.WriteTimeout))
		if err != nil {
			c.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	closed := make(chan struct{})

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.closed = closed
	c.mu.Unlock()

	go c.readLoop(conn, closed)
	go c.keepAlive(conn, closed)

	c.log.Info("Successfully connected to backend")
	return nil
}

func (c *webSocketClient) readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)
	defer c.drop(conn)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Errorf("Backend WebSocket error: %v", err)
			} else {
				c.log.Debugf("Backend WebSocket closed: %v", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		var msg ControlMessage
		if err := jsoniter.Unmarshal(message, &msg); err != nil {
			c.log.Warnf("Error decoding control message: %v", err)
			continue
		}

		if msg.Event == entity.EventUserID {
			if id, ok := msg.Data["user_id"]; ok && id != nil {
				c.mu.Lock()
				c.userID = fmt.Sprint(id)
				c.mu.Unlock()
			}
		}

		if c.poster != nil {
			c.poster.Post(event.MessageReceived{Event: msg.Event, Data: msg.Data})
		}
	}
}

func (c *webSocketClient) keepAlive(conn *websocket.Conn, closed <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}
		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.cfg.WriteTimeout))
		c.mu.Unlock()

		if err != nil {
			c.log.Warnf("Ping failed, marking connection as dead: %v", err)
			c.drop(conn)
			return
		}
	}
}

// drop forgets conn if it is still the current connection and closes it.
func (c *webSocketClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

func (c *webSocketClient) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *webSocketClient) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// encode builds the text frame for event, merging the known user id into
// data. Callers hold c.mu.
func (c *webSocketClient) encode(eventName string, data any) ([]byte, error) {
	fields := map[string]any{}
	if data != nil {
		raw, err := jsoniter.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", eventName, err)
		}
		if err := jsoniter.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("encoding %s: data must be an object: %w", eventName, err)
		}
	}
	if c.userID != "" {
		fields["user_id"] = c.userID
	}
	return jsoniter.Marshal(ControlMessage{Event: eventName, Data: fields})
}

// write sends one frame on the current connection. Callers hold c.mu.
func (c *webSocketClient) write(messageType int, payload []byte) error {
	conn := c.conn
	if conn == nil {
		return entity.ErrTransportNotReady
	}

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(messageType, payload); err != nil {
		c.conn = nil
		conn.Close()
		return fmt.Errorf("%w: %v", entity.ErrTransportNotReady, err)
	}
	return nil
}

func (c *webSocketClient) SendControl(eventName string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return entity.ErrTransportNotReady
	}
	frame, err := c.encode(eventName, data)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, frame)
}

// SendBinary writes the metadata frame and the payload while holding the
// lock, so no other frame can land between them.
func (c *webSocketClient) SendBinary(eventName string, data any, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return entity.ErrTransportNotReady
	}
	frame, err := c.encode(eventName, data)
	if err != nil {
		return err
	}
	if err := c.write(websocket.TextMessage, frame); err != nil {
		return err
	}
	return c.write(websocket.BinaryMessage, payload)
}

func (c *webSocketClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return
	}
	deadline := time.Now().Add(c.cfg.WriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		c.log.Debugf("Error sending close frame: %v", err)
	}
	conn.Close()
}
