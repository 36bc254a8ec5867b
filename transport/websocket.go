package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrUnexpectedMessage indicates a non-binary websocket message.
var ErrUnexpectedMessage = errors.New("unexpected websocket message type")

const closeWriteWait = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// WebSocketTransport sends each packet as one binary websocket message.
// Send is safe for concurrent use; Receive must be called from one goroutine.
type WebSocketTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewWebSocketTransport wraps an established websocket connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	conn.SetReadLimit(MaxFrameLength)
	return &WebSocketTransport{conn: conn}
}

// DialWebSocket connects to a transfer endpoint such as ws://host:8765/xfer.
func DialWebSocket(ctx context.Context, url string) (*WebSocketTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "DialWebSocket",
			"url":      url,
			"error":    err.Error(),
		}).Error("Websocket dial failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "DialWebSocket",
		"url":      url,
	}).Debug("Websocket connected")
	return NewWebSocketTransport(conn), nil
}

// UpgradeWebSocket upgrades an HTTP request to a websocket transport.
func UpgradeWebSocket(w http.ResponseWriter, r *http.Request) (*WebSocketTransport, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "UpgradeWebSocket",
		"remote":   r.RemoteAddr,
	}).Debug("Websocket upgraded")
	return NewWebSocketTransport(conn), nil
}

// Send writes the packet as a single binary message.
func (t *WebSocketTransport) Send(packet *Packet) error {
	data, err := packet.Serialize()
	if err != nil {
		return err
	}
	if len(data) > MaxFrameLength {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Receive reads the next binary message. A normal close from the peer is
// reported as io.EOF.
func (t *WebSocketTransport) Receive() (*Packet, error) {
	mt, data, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedMessage, mt)
	}
	return ParsePacket(data)
}

// Close sends a normal close frame and closes the connection.
func (t *WebSocketTransport) Close() error {
	t.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	t.writeMu.Unlock()

	if err := t.conn.Close(); err != nil {
		return err
	}
	if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		logrus.WithFields(logrus.Fields{
			"function": "WebSocketTransport.Close",
			"error":    werr.Error(),
		}).Debug("Close frame not delivered")
	}
	return nil
}
