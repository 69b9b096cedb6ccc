// Package unixsock implements the newline-delimited JSON-RPC 2.0
// transport over a Unix domain socket, for on-device tooling. Grounded
// on original_source/src/transport/unix_socket/{server.rs,session.rs},
// adapted to the teacher's per-client goroutine-pair idiom (one goroutine
// reading requests, writes serialized behind a mutex so notifications and
// responses never interleave on the wire).
package unixsock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/jzachmann/wifi-commissioning/pkg/commissioning"
	"github.com/jzachmann/wifi-commissioning/pkg/logger"
	"github.com/jzachmann/wifi-commissioning/pkg/metrics"
	"github.com/jzachmann/wifi-commissioning/pkg/parser"
	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
)

// maxLineSize bounds the bytes buffered for one client. A single line is
// further limited by parser.LFDelimiter's MaxPacketSize (4096 bytes); a
// longer line drops the connection.
const maxLineSize = 1 << 20

// Server listens on a Unix domain socket and serves JSON-RPC 2.0 requests
// against a commissioning facade, pushing state-change notifications to
// every connected client.
type Server struct {
	socketPath string
	mode       os.FileMode
	handler    *handler
	svc        *commissioning.Service
	log        *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New builds a Server bound to socketPath and svc. The socket file is not
// created until Serve is called. mode is applied to the socket file with
// chmod once the listener is bound; a mode of 0 leaves the umask-derived
// default in place.
func New(socketPath string, mode os.FileMode, svc *commissioning.Service, log *logger.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		mode:       mode,
		handler:    newHandler(svc),
		svc:        svc,
		log:        log,
		sessions:   make(map[string]*session),
	}
}

// Serve removes any stale socket file, binds the listener, and accepts
// connections until ctx is canceled; an accept error is logged and
// accepting continues. Each accepted connection is served on its own
// goroutine.
func (s *Server) Serve(ctx context.Context) error {
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			return err
		}
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	defer listener.Close()

	if s.mode != 0 {
		if err := os.Chmod(s.socketPath, s.mode); err != nil {
			return fmt.Errorf("chmod socket: %w", err)
		}
	}

	s.log.Info("unix socket server listening", "path", s.socketPath, "mode", s.mode)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	notifications, unsubscribe := s.svc.Subscribe()
	defer unsubscribe()
	go s.broadcastNotifications(notifications)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("accept error", "error", err)
			continue
		}
		go s.serveClient(ctx, conn)
	}
}

func (s *Server) broadcastNotifications(notifications <-chan rpc.Notification) {
	for notif := range notifications {
		data, err := json.Marshal(notif)
		if err != nil {
			s.log.Error("marshal notification failed", "error", err)
			continue
		}
		data = append(data, '\n')

		s.mu.Lock()
		sessions := make([]*session, 0, len(s.sessions))
		for _, sess := range s.sessions {
			sessions = append(sessions, sess)
		}
		s.mu.Unlock()

		for _, sess := range sessions {
			if err := sess.writeRaw(data); err != nil {
				s.log.WithSession(sess.id).Debug("notification write failed", "error", err)
			}
		}
	}
}

func (s *Server) serveClient(ctx context.Context, conn net.Conn) {
	sess := newSession(conn)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	metrics.SetActiveSessions("unixsock", len(s.sessions))
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		metrics.SetActiveSessions("unixsock", len(s.sessions))
		s.mu.Unlock()
		conn.Close()
	}()

	sessLog := s.log.WithSession(sess.id)
	sessLog.Info("client connected")

	buf := parser.NewBuffer(maxLineSize, parser.NewDelimiterParser(parser.LFDelimiter))
	readBuf := make([]byte, 4096)
	for {
		n, err := conn.Read(readBuf)
		if n > 0 {
			if werr := buf.Write(readBuf[:n]); werr != nil {
				sessLog.Warn("line buffer overflow, dropping connection", "error", werr)
				break
			}
			lines, perr := buf.ParseAll()
			for _, line := range lines {
				s.handleLine(ctx, sess, sessLog, line)
			}
			if perr != nil && !errors.Is(perr, parser.ErrIncompletePacket) {
				sessLog.Warn("malformed line, dropping connection", "error", perr)
				break
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				sessLog.Warn("read error", "error", err)
			}
			break
		}
	}

	sessLog.Info("client disconnected")
}

func (s *Server) handleLine(ctx context.Context, sess *session, sessLog *logger.Logger, line []byte) {
	if len(line) == 0 {
		return
	}

	var req rpc.Request
	if err := json.Unmarshal(line, &req); err != nil {
		sessLog.Warn("invalid json-rpc request", "error", err)
		return
	}

	resp := s.handler.handle(ctx, req)
	if err := sess.writeResponse(resp); err != nil {
		sessLog.Warn("write response failed", "error", err)
	}
}

// session wraps one client connection. Writes are serialized so a
// notification pushed mid-response can never interleave with it.
type session struct {
	id string
	mu sync.Mutex
	w  io.Writer
}

func newSession(conn net.Conn) *session {
	return &session{id: uuid.NewString(), w: conn}
}

func (s *session) writeResponse(resp rpc.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.writeRaw(append(data, '\n'))
}

func (s *session) writeRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(data)
	return err
}
