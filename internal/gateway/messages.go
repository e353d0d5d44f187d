package gateway

import (
	"github.com/emberwake/server/internal/core/event"
	"github.com/emberwake/server/internal/world"
)

// ClientMessage is one intent frame read off a websocket connection. Type
// selects which payload fields matter; everything else is ignored.
type ClientMessage struct {
	Type string `json:"type"`

	// connect
	PlayerID int64  `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`

	// move / teleport
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Facing string  `json:"facing,omitempty"`
	State  string  `json:"state,omitempty"`

	// attack
	SpawnID uint64 `json:"spawn_id,omitempty"`

	// job
	JobID int16 `json:"job_id,omitempty"`

	// broadcast / admin
	Text    string `json:"text,omitempty"`
	Secret  string `json:"secret,omitempty"`
	Command string `json:"command,omitempty"`
}

// Client intent types.
const (
	MsgConnect   = "connect"
	MsgMove      = "move"
	MsgTeleport  = "teleport"
	MsgAttack    = "attack"
	MsgJob       = "job"
	MsgBroadcast = "broadcast"
	MsgAdmin     = "admin"
)

// Server frame types.
const (
	FrameHello  = "hello"
	FrameCommit = "commit"
	FrameError  = "error"
	FrameResult = "result"
)

// helloFrame is the first frame on every connection: the accepted player
// identity plus a full table snapshot to render from.
type helloFrame struct {
	Type       string         `json:"type"`
	PlayerID   int64          `json:"player_id"`
	ServerTime int64          `json:"server_time"` // unix ms
	StartedAt  int64          `json:"started_at"`  // unix seconds, server boot
	Snapshot   world.Snapshot `json:"snapshot"`
}

// commitFrame relays one committed store transaction. Clients apply the
// changes in order; upserts are idempotent so replays are harmless.
type commitFrame struct {
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	ServerTime int64          `json:"server_time"`
	Changes    []event.Change `json:"changes"`
}

// errorFrame reports a rejected intent. The world state is unchanged; the
// client resyncs from the ongoing commit stream.
type errorFrame struct {
	Type  string `json:"type"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// resultFrame carries operator feedback for intents that produce text.
type resultFrame struct {
	Type string `json:"type"`
	Op   string `json:"op"`
	Text string `json:"text"`
}
