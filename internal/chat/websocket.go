package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/util"
)

// wsConn is one client connection. Writes are serialised; reads happen only
// on the handler goroutine.
type wsConn struct {
	conn      *websocket.Conn
	sessionID string
	state     ConnState
	stateMu   sync.RWMutex
	writeMu   sync.Mutex
	stopCh    chan struct{}
	stopOnce  sync.Once
	logger    *zap.Logger
}

func (c *wsConn) setState(newState ConnState) {
	c.stateMu.Lock()
	oldState := c.state
	c.state = newState
	c.stateMu.Unlock()

	if oldState != newState {
		c.logger.Debug("WebSocket state changed",
			zap.String("session_id", c.sessionID),
			zap.String("from", oldState.String()),
			zap.String("to", newState.String()),
		)
	}
}

func (c *wsConn) State() ConnState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *wsConn) send(frame ServerFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketConfig.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.WebSocketConfig.WriteTimeout))
}

// close sends a close frame and unblocks the reader. Safe to call more than
// once.
func (c *wsConn) close(code int, reason string) {
	c.stopOnce.Do(func() {
		c.setState(ConnStateClosing)
		close(c.stopCh)

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		_ = c.conn.Close()
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.hub.Open(r.Context(), r.URL.Query().Get("session"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsConn{
		conn:      conn,
		sessionID: sess.ID(),
		state:     ConnStateOpen,
		stopCh:    make(chan struct{}),
		logger:    s.logger,
	}

	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsWg.Add(1)
	s.connsMu.Unlock()

	defer func() {
		c.close(websocket.CloseNormalClosure, "")
		c.setState(ConnStateClosed)

		s.connsMu.Lock()
		delete(s.conns, c)
		s.connsMu.Unlock()
		s.connsWg.Done()

		s.logger.Info("WebSocket disconnected", zap.String("session_id", c.sessionID))
	}()

	s.logger.Info("WebSocket connected", zap.String("session_id", c.sessionID))

	if err := c.send(ServerFrame{Type: FrameSession, SessionID: c.sessionID}); err != nil {
		return
	}

	go s.keepAlive(c)
	s.listen(r.Context(), c)
}

func (s *Server) keepAlive(c *wsConn) {
	ticker := time.NewTicker(constants.WebSocketConfig.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.logger.Debug("WebSocket ping failed",
					zap.String("session_id", c.sessionID),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (s *Server) listen(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(constants.WebSocketConfig.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketConfig.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketConfig.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("WebSocket read error",
					zap.String("session_id", c.sessionID),
					zap.Error(err),
				)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketConfig.PongTimeout))

		if err := s.handleFrame(ctx, c, data); err != nil {
			return
		}
	}
}

// handleFrame answers one client frame. Only write failures are returned;
// bad input is reported to the client as an error frame.
func (s *Server) handleFrame(ctx context.Context, c *wsConn, data []byte) error {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Debug("Failed to parse WebSocket frame",
			zap.String("session_id", c.sessionID),
			zap.String("data", util.TruncateString(string(data), 200)),
			zap.Error(err),
		)
		return c.send(ServerFrame{Type: FrameError, Text: "invalid frame"})
	}

	text := frame.Text
	switch frame.Type {
	case FrameMessage:
	case FrameReset:
		text = s.input.Prefix() + "reset"
	default:
		return c.send(ServerFrame{Type: FrameError, Text: "unknown frame type: " + frame.Type})
	}

	reply, err := s.converse(ctx, c.sessionID, text)
	if err != nil {
		return c.send(ServerFrame{Type: FrameError, Text: err.Error()})
	}

	response := reply.Response
	if err := c.send(ServerFrame{Type: FrameReply, SessionID: reply.SessionID, Response: &response}); err != nil {
		return err
	}
	for _, result := range reply.ActionResults {
		if err := c.send(ServerFrame{Type: FrameActionResult, SessionID: reply.SessionID, Text: result}); err != nil {
			return err
		}
	}
	if reply.ActionError != "" {
		return c.send(ServerFrame{Type: FrameError, SessionID: reply.SessionID, Text: reply.ActionError})
	}
	return nil
}
