package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lairnan/LairnanChat/internal/protocol"
)

const writeWait = 10 * time.Second

// errMalformedRequest marks an envelope that arrived intact but could not
// be decoded. The session answers with an Error result before aborting.
var errMalformedRequest = errors.New("malformed request envelope")

// peer wraps one accepted WebSocket connection. Fan-out writes come from
// many sessions at once, so every write goes through the peer's mutex.
type peer struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
}

func newPeer(conn *websocket.Conn) *peer {
	return &peer{conn: conn}
}

// readRequest blocks until one complete envelope arrives. Transport errors
// and close frames surface as-is; syntactically broken envelopes return
// errMalformedRequest.
func (p *peer) readRequest() (*protocol.Request, error) {
	_, data, err := p.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var req protocol.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	return &req, nil
}

// sendResult serializes and writes one result envelope.
func (p *peer) sendResult(res *protocol.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// close tears the socket down once; later calls are no-ops.
func (p *peer) close() {
	p.closeOnce.Do(func() {
		p.writeMu.Lock()
		deadline := time.Now().Add(writeWait)
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed by server"), deadline)
		p.writeMu.Unlock()
		_ = p.conn.Close()
	})
}
