package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/emberwake/server/internal/core/event"
	"github.com/emberwake/server/internal/handler"
)

// maxFrameBytes bounds one inbound intent frame.
const maxFrameBytes = 4096

// Hub bridges the world store to websocket clients. Every committed store
// transaction fans out to all subscribers as one frame; inbound intent
// frames dispatch to the request handlers. Subscribers that stop draining
// their queue are dropped rather than allowed to stall the commit fan-out.
type Hub struct {
	deps *handler.Deps
	log  *zap.Logger

	writeTimeout time.Duration
	readTimeout  time.Duration
	sendQueue    int

	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID int64
}

func NewHub(deps *handler.Deps, log *zap.Logger) *Hub {
	cfg := deps.Config.Gateway
	return &Hub{
		deps:         deps,
		log:          log,
		writeTimeout: cfg.WriteTimeout,
		readTimeout:  cfg.ReadTimeout,
		sendQueue:    cfg.SendQueue,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Handler exposes the gateway's HTTP surface.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Publish implements the store bus subscriber. It runs on the committing
// goroutine, so the work stays bounded: marshal once, then non-blocking
// enqueues. A full queue drops that subscriber.
func (h *Hub) Publish(c event.Commit) {
	frame, err := json.Marshal(commitFrame{
		Type:       FrameCommit,
		Label:      c.Label,
		ServerTime: time.Now().UnixMilli(),
		Changes:    c.Changes,
	})
	if err != nil {
		h.log.Error("commit frame marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	for sub := range h.subs {
		if !sub.enqueue(frame) {
			h.dropLocked(sub)
			h.log.Warn("subscriber dropped, send queue full",
				zap.Int64("player", sub.playerID))
		}
	}
	h.mu.Unlock()
}

// Close disconnects every subscriber. Used during shutdown after the HTTP
// listener stops accepting new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	for sub := range h.subs {
		h.dropLocked(sub)
	}
	h.mu.Unlock()
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The first frame must be a connect intent; nothing else is served
	// before a player identity is established.
	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetReadLimit(maxFrameBytes)
	var msg ClientMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != MsgConnect {
		h.refuse(conn, "expected a connect frame")
		return
	}
	player, err := handler.HandleConnect(h.deps, handler.ConnectRequest{
		PlayerID: msg.PlayerID,
		Name:     msg.Name,
	})
	if err != nil {
		h.refuse(conn, err.Error())
		return
	}

	sub := &subscriber{
		conn:     conn,
		send:     make(chan []byte, h.sendQueue),
		playerID: player.ID,
	}
	h.attach(sub)
	go h.writePump(sub)

	h.log.Info("player connected",
		zap.Int64("player", player.ID),
		zap.String("name", player.Name),
		zap.String("remote", r.RemoteAddr))

	h.readPump(sub)

	h.drop(sub)
	if err := handler.HandleDisconnect(h.deps, sub.playerID); err != nil {
		h.log.Warn("disconnect cleanup failed",
			zap.Int64("player", sub.playerID), zap.Error(err))
	}
	h.log.Info("player disconnected", zap.Int64("player", sub.playerID))
}

// attach registers the subscriber and queues its hello frame while holding
// the hub lock, so no commit can slip between the snapshot and the first
// streamed frame.
func (h *Hub) attach(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	frame, err := json.Marshal(helloFrame{
		Type:       FrameHello,
		PlayerID:   sub.playerID,
		ServerTime: time.Now().UnixMilli(),
		StartedAt:  h.deps.Config.Server.StartTime,
		Snapshot:   h.deps.Store.Snapshot(),
	})
	if err != nil {
		h.log.Error("hello frame marshal failed", zap.Error(err))
		h.dropLocked(sub)
		return
	}
	sub.enqueue(frame)
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	h.dropLocked(sub)
	h.mu.Unlock()
}

// dropLocked removes the subscriber and closes its queue; the write pump
// sees the close and tears the connection down. Safe to call twice.
func (h *Hub) dropLocked(sub *subscriber) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.send)
}

// sendTo queues a frame for one subscriber, marshaling under the hub lock so
// a concurrent drop cannot close the queue mid-send.
func (h *Hub) sendTo(sub *subscriber, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		h.log.Error("frame marshal failed", zap.Error(err))
		return
	}
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		if !sub.enqueue(frame) {
			h.dropLocked(sub)
		}
	}
	h.mu.Unlock()
}

// enqueue is non-blocking; callers must hold the hub lock.
func (s *subscriber) enqueue(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// readPump drives the connection's intent loop until the peer goes away.
func (h *Hub) readPump(sub *subscriber) {
	conn := sub.conn
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.sendTo(sub, errorFrame{Type: FrameError, Op: "parse", Error: "malformed frame"})
			continue
		}
		h.dispatch(sub, msg)
	}
}

// writePump owns all writes to the connection: queued frames plus keepalive
// pings. It exits when the queue closes or a write fails, closing the
// connection either way so the read pump unblocks.
func (h *Hub) writePump(sub *subscriber) {
	ping := time.NewTicker(h.readTimeout * 9 / 10)
	defer ping.Stop()
	defer sub.conn.Close()
	for {
		select {
		case frame, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one intent to its handler. The player identity always
// comes from the connection, never from the frame.
func (h *Hub) dispatch(sub *subscriber, msg ClientMessage) {
	var (
		text string
		err  error
	)
	switch msg.Type {
	case MsgMove:
		err = handler.HandleMove(h.deps, handler.MoveRequest{
			PlayerID: sub.playerID,
			X:        msg.X,
			Y:        msg.Y,
			Facing:   msg.Facing,
			State:    msg.State,
		})
	case MsgTeleport:
		err = handler.HandleTeleport(h.deps, handler.TeleportRequest{
			PlayerID: sub.playerID,
			X:        msg.X,
			Y:        msg.Y,
		})
	case MsgAttack:
		err = handler.HandleAttack(h.deps, handler.AttackRequest{
			PlayerID: sub.playerID,
			SpawnID:  msg.SpawnID,
		})
	case MsgJob:
		err = handler.HandleJobChange(h.deps, handler.JobChangeRequest{
			PlayerID: sub.playerID,
			JobID:    msg.JobID,
		})
	case MsgBroadcast:
		err = handler.HandleBroadcast(h.deps, handler.BroadcastRequest{
			PlayerID: sub.playerID,
			Text:     msg.Text,
		})
	case MsgAdmin:
		text, err = handler.HandleAdmin(h.deps, handler.AdminRequest{
			Secret:  msg.Secret,
			Command: msg.Command,
			Text:    msg.Text,
		})
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		h.sendTo(sub, errorFrame{Type: FrameError, Op: msg.Type, Error: err.Error()})
		return
	}
	if text != "" {
		h.sendTo(sub, resultFrame{Type: FrameResult, Op: msg.Type, Text: text})
	}
}

// refuse answers a failed handshake with a close frame and drops the
// connection without ever registering a subscriber.
func (h *Hub) refuse(conn *websocket.Conn, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	_ = conn.Close()
}
