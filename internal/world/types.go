package world

import "time"

// ActorState is the behavior/animation state shared by hostiles and players.
// The session layer owns player states between hits; the sim writes StateDead
// on lethal damage and StateDamaged on survivable ones, and skips StateDamaged
// players as invulnerability frames until the next accepted intent clears it.
type ActorState string

const (
	StateIdle    ActorState = "idle"
	StateWalk    ActorState = "walk"
	StateDamaged ActorState = "damaged"
	StateAttack1 ActorState = "attack1"
	StateAttack2 ActorState = "attack2"
	StateAttack3 ActorState = "attack3"
	StateDead    ActorState = "dead"
)

// AttackSlot maps an attack state to its slot number, 0 for non-attack states.
func (s ActorState) AttackSlot() int {
	switch s {
	case StateAttack1:
		return 1
	case StateAttack2:
		return 2
	case StateAttack3:
		return 3
	}
	return 0
}

// AttackStateFor returns the animation state for a boss attack slot.
func AttackStateFor(slot int) ActorState {
	switch slot {
	case 2:
		return StateAttack2
	case 3:
		return StateAttack3
	}
	return StateAttack1
}

type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Sign is the x direction of the facing: -1 for left, +1 for right.
func (f Facing) Sign() float64 {
	if f == FacingLeft {
		return -1
	}
	return 1
}

// FacingToward returns the facing that looks along dx.
func FacingToward(dx float64) Facing {
	if dx < 0 {
		return FacingLeft
	}
	return FacingRight
}

type SpawnKind string

const (
	KindRegular SpawnKind = "regular"
	KindBoss    SpawnKind = "boss"
)

// Spawn is one live hostile instance.
// Rows are passed by value; mutate a copy and write it back with PutSpawn.
type Spawn struct {
	ID          uint64     `json:"id"`
	RouteID     int32      `json:"route_id"`
	Type        string     `json:"type"` // template name
	Kind        SpawnKind  `json:"kind"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	State       ActorState `json:"state"`
	Facing      Facing     `json:"facing"`
	HP          int32      `json:"hp"`
	MaxHP       int32      `json:"max_hp"`
	Level       int16      `json:"level"`
	MovingRight bool       `json:"moving_right"`
	AggroTarget int64      `json:"aggro_target"` // player ID, 0 = none
	SpawnedAt   time.Time  `json:"spawned_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Alive reports whether the instance still acts. HP <= 0 and StateDead are
// kept in lockstep by every writer.
func (s Spawn) Alive() bool {
	return s.HP > 0 && s.State != StateDead
}

// Route governs where and how often one hostile type spawns.
type Route struct {
	ID          int32         `json:"id"`
	Kind        SpawnKind     `json:"kind"`
	Type        string        `json:"type"`
	MinX        float64       `json:"min_x"`
	MaxX        float64       `json:"max_x"`
	MinY        float64       `json:"min_y"`
	MaxY        float64       `json:"max_y"`
	MaxEnemies  int           `json:"max_enemies"`
	SpawnEvery  time.Duration `json:"spawn_every"`
	LastSpawnAt time.Time     `json:"last_spawn_at"`
}

func (r Route) CenterX() float64 { return (r.MinX + r.MaxX) / 2 }
func (r Route) CenterY() float64 { return (r.MinY + r.MaxY) / 2 }

// ClampX limits x to the route's horizontal bounds.
func (r Route) ClampX(x float64) float64 {
	if x < r.MinX {
		return r.MinX
	}
	if x > r.MaxX {
		return r.MaxX
	}
	return x
}

// Player mirrors the session layer's view of one character. The sim reads it
// for targeting and writes HP, position, state, and combat flags back.
type Player struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	HP       int32      `json:"hp"`
	MaxHP    int32      `json:"max_hp"`
	MP       int32      `json:"mp"`
	MaxMP    int32      `json:"max_mp"`
	Level    int16      `json:"level"`
	Exp      int64      `json:"exp"`
	JobID    int16      `json:"job_id"`
	State    ActorState `json:"state"`
	Facing   Facing     `json:"facing"`
	Online   bool       `json:"online"`
	InCombat bool       `json:"in_combat"`
	Banned   bool       `json:"banned"`

	Dirty bool `json:"-"` // pending persistence flush
}

// Targetable reports whether hostiles may aggro or keep chasing this player.
func (p Player) Targetable() bool {
	return p.Online && p.HP > 0 && p.State != StateDead
}

// AttackKey identifies one boss attack cooldown record.
type AttackKey struct {
	SpawnID uint64 `json:"spawn_id"`
	Slot    int    `json:"slot"`
}

// AttackState records when a spawn last used one attack slot.
// Absence means the slot has never fired.
type AttackState struct {
	SpawnID  uint64    `json:"spawn_id"`
	Slot     int       `json:"slot"`
	LastUsed time.Time `json:"last_used"`
}

// PlayerDamageEvent is a transient record of a hostile hitting a player.
type PlayerDamageEvent struct {
	ID       uint64    `json:"id"`
	PlayerID int64     `json:"player_id"`
	SpawnID  uint64    `json:"spawn_id"`
	Amount   int32     `json:"amount"`
	At       time.Time `json:"at"`
}

// EnemyDamageEvent is a transient record of a player hitting a hostile.
type EnemyDamageEvent struct {
	ID       uint64    `json:"id"`
	SpawnID  uint64    `json:"spawn_id"`
	PlayerID int64     `json:"player_id"`
	Amount   int32     `json:"amount"`
	At       time.Time `json:"at"`
}

const (
	BroadcastServer = "server"
	BroadcastBoss   = "boss"
	BroadcastChat   = "chat"
)

// Broadcast is a server-wide transient message line.
type Broadcast struct {
	ID   uint64    `json:"id"`
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// LeaderboardEntry is one derived ranking row; the whole set is replaced on
// every refresh.
type LeaderboardEntry struct {
	Rank     int32  `json:"rank"`
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Level    int16  `json:"level"`
	Exp      int64  `json:"exp"`
	Job      string `json:"job"`
}
