package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/session"
)

const (
	deviceEndpoint = "/xiaozhi/v1/"

	writeWait      = 10 * time.Second
	maxMessageSize = 512 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Server accepts device connections and feeds each one to the session
// manager on its own goroutine.
type Server struct {
	cfg     *config.Config
	manager *session.Manager
	log     *slog.Logger
	httpSrv *http.Server
}

func NewServer(cfg *config.Config, manager *session.Manager, log *slog.Logger) *Server {
	s := &Server{cfg: cfg, manager: manager, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc(deviceEndpoint, s.handleDevice)
	mux.HandleFunc("/healthz", s.handleHealthz)
	s.httpSrv = &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	return s
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("websocket server listening", "addr", s.cfg.ListenAddr, "endpoint", deviceEndpoint)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.Header.Get("Device-Id")
	if deviceID == "" {
		deviceID = r.RemoteAddr
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "device_id", deviceID, "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	s.serveConn(conn, deviceID)
}

// serveConn runs the read loop of one device connection on the handler
// goroutine until the peer disconnects.
func (s *Server) serveConn(wsConn *websocket.Conn, deviceID string) {
	defer func() { _ = wsConn.Close() }()
	wsConn.SetReadLimit(maxMessageSize)

	s.log.Info("device connected", "device_id", deviceID)
	handler := s.manager.NewConnection(&deviceConn{conn: wsConn}, deviceID)
	ctx := context.Background()

	for {
		messageType, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("device connection error", "device_id", deviceID, "error", err)
			}
			break
		}
		switch messageType {
		case websocket.TextMessage:
			handler.HandleText(ctx, data)
		case websocket.BinaryMessage:
			handler.HandleBinary(data)
		default:
			s.log.Warn("ignoring websocket message of unknown kind", "device_id", deviceID, "message_type", messageType)
		}
	}
	s.log.Info("device disconnected", "device_id", deviceID)
}

// deviceConn adapts a gorilla connection to the session.Conn port.
// gorilla allows at most one concurrent writer, hence the mutex.
type deviceConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *deviceConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *deviceConn) WriteBinary(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *deviceConn) Close() error {
	return c.conn.Close()
}
