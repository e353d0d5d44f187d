package world

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emberwake/server/internal/core/event"
)

// Table names used in commit journals and gateway frames.
const (
	TableSpawn       = "spawn"
	TablePlayer      = "player"
	TableRoute       = "route"
	TableAttackState = "attack_state"
	TablePlayerDmg   = "player_damage"
	TableEnemyDmg    = "enemy_damage"
	TableBroadcast   = "broadcast"
	TableLeaderboard = "leaderboard"
)

// tables holds every row set. Rows are stored by value: reads hand out
// copies, writes replace whole rows, and scans return ID-ascending slices so
// nothing ever depends on map iteration order.
type tables struct {
	spawns       map[uint64]Spawn
	players      map[int64]Player
	routes       map[int32]Route
	attackStates map[AttackKey]AttackState
	playerDamage map[uint64]PlayerDamageEvent
	enemyDamage  map[uint64]EnemyDamageEvent
	broadcasts   map[uint64]Broadcast
	leaderboard  []LeaderboardEntry

	nextSpawnID uint64
	nextEventID uint64
	nextBcastID uint64
}

func newTables() *tables {
	return &tables{
		spawns:       make(map[uint64]Spawn),
		players:      make(map[int64]Player),
		routes:       make(map[int32]Route),
		attackStates: make(map[AttackKey]AttackState),
		playerDamage: make(map[uint64]PlayerDamageEvent),
		enemyDamage:  make(map[uint64]EnemyDamageEvent),
		broadcasts:   make(map[uint64]Broadcast),
	}
}

// Store owns the world tables. All access goes through Exec; one mutex
// serializes transactions, which is the entire concurrency model: a handler
// never observes another handler's partial writes.
type Store struct {
	mu  sync.Mutex
	tb  *tables
	bus *event.Bus
	log *zap.Logger

	// Clock stamps transactions; tests install fixed clocks.
	Clock func() time.Time
}

func NewStore(bus *event.Bus, log *zap.Logger) *Store {
	return &Store{
		tb:    newTables(),
		bus:   bus,
		log:   log,
		Clock: time.Now,
	}
}

// Exec runs fn as one serialized transaction stamped with a single Now.
// The change journal publishes after the store unlocks. fn's error is
// returned for logging only: handlers validate before mutating, so an error
// implies nothing to roll back.
func (s *Store) Exec(label string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	tx := &Tx{tb: s.tb, now: s.Clock()}
	err := fn(tx)
	changes := tx.changes
	s.mu.Unlock()
	if len(changes) > 0 && s.bus != nil {
		s.bus.Publish(event.Commit{Label: label, Changes: changes})
	}
	return err
}

// Snapshot is the full public table state handed to new subscribers.
type Snapshot struct {
	Spawns       []Spawn             `json:"spawns"`
	Players      []Player            `json:"players"`
	Routes       []Route             `json:"routes"`
	PlayerDamage []PlayerDamageEvent `json:"player_damage"`
	EnemyDamage  []EnemyDamageEvent  `json:"enemy_damage"`
	Broadcasts   []Broadcast         `json:"broadcasts"`
	Leaderboard  []LeaderboardEntry  `json:"leaderboard"`
}

func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	_ = s.Exec("snapshot", func(tx *Tx) error {
		snap = Snapshot{
			Spawns:       tx.Spawns(),
			Players:      tx.Players(),
			Routes:       tx.Routes(),
			PlayerDamage: tx.PlayerDamageEvents(),
			EnemyDamage:  tx.EnemyDamageEvents(),
			Broadcasts:   tx.Broadcasts(),
			Leaderboard:  tx.Leaderboard(),
		}
		return nil
	})
	return snap
}

// Tx is one in-flight transaction. It is only valid inside the Exec callback
// that produced it.
type Tx struct {
	tb      *tables
	now     time.Time
	changes []event.Change
}

// Now is the transaction timestamp; every mutation in one transaction shares it.
func (tx *Tx) Now() time.Time { return tx.now }

func (tx *Tx) record(table, op string, row any) {
	tx.changes = append(tx.changes, event.Change{Table: table, Op: op, Row: row})
}

// ---------- spawns ----------

func (tx *Tx) Spawn(id uint64) (Spawn, bool) {
	s, ok := tx.tb.spawns[id]
	return s, ok
}

// Spawns returns every spawn row, ID-ascending.
func (tx *Tx) Spawns() []Spawn {
	ids := make([]uint64, 0, len(tx.tb.spawns))
	for id := range tx.tb.spawns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Spawn, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.tb.spawns[id])
	}
	return out
}

// LiveSpawnCount counts alive spawns on a route. Corpses in their grace
// window do not hold a population slot.
func (tx *Tx) LiveSpawnCount(routeID int32) int {
	n := 0
	for _, s := range tx.tb.spawns {
		if s.RouteID == routeID && s.Alive() {
			n++
		}
	}
	return n
}

// CreateSpawn assigns an ID, stamps both timestamps, and inserts the row.
func (tx *Tx) CreateSpawn(s Spawn) Spawn {
	tx.tb.nextSpawnID++
	s.ID = tx.tb.nextSpawnID
	s.SpawnedAt = tx.now
	s.UpdatedAt = tx.now
	tx.tb.spawns[s.ID] = s
	tx.record(TableSpawn, event.OpUpsert, s)
	return s
}

// PutSpawn writes a spawn row back, refreshing UpdatedAt. Callers build the
// new value from a fetched copy; rows in the table are never mutated in place.
func (tx *Tx) PutSpawn(s Spawn) Spawn {
	s.UpdatedAt = tx.now
	tx.tb.spawns[s.ID] = s
	tx.record(TableSpawn, event.OpUpsert, s)
	return s
}

// DeleteSpawnCascade removes a spawn together with its cooldown records and
// damage events, all in this transaction. Idempotent: unknown IDs are no-ops.
func (tx *Tx) DeleteSpawnCascade(id uint64) bool {
	s, ok := tx.tb.spawns[id]
	if !ok {
		return false
	}
	delete(tx.tb.spawns, id)
	tx.record(TableSpawn, event.OpDelete, s)
	for key, st := range tx.tb.attackStates {
		if key.SpawnID == id {
			delete(tx.tb.attackStates, key)
			tx.record(TableAttackState, event.OpDelete, st)
		}
	}
	for evID, ev := range tx.tb.enemyDamage {
		if ev.SpawnID == id {
			delete(tx.tb.enemyDamage, evID)
			tx.record(TableEnemyDmg, event.OpDelete, ev)
		}
	}
	for evID, ev := range tx.tb.playerDamage {
		if ev.SpawnID == id {
			delete(tx.tb.playerDamage, evID)
			tx.record(TablePlayerDmg, event.OpDelete, ev)
		}
	}
	return true
}

// ---------- players ----------

func (tx *Tx) Player(id int64) (Player, bool) {
	p, ok := tx.tb.players[id]
	return p, ok
}

// Players returns every player row, ID-ascending. Scan order is part of the
// behavior contract: first-match targeting takes the lowest qualifying ID.
func (tx *Tx) Players() []Player {
	ids := make([]int64, 0, len(tx.tb.players))
	for id := range tx.tb.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.tb.players[id])
	}
	return out
}

func (tx *Tx) PutPlayer(p Player) Player {
	tx.tb.players[p.ID] = p
	tx.record(TablePlayer, event.OpUpsert, p)
	return p
}

// ---------- routes ----------

func (tx *Tx) Route(id int32) (Route, bool) {
	r, ok := tx.tb.routes[id]
	return r, ok
}

func (tx *Tx) Routes() []Route {
	ids := make([]int32, 0, len(tx.tb.routes))
	for id := range tx.tb.routes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Route, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.tb.routes[id])
	}
	return out
}

func (tx *Tx) PutRoute(r Route) Route {
	tx.tb.routes[r.ID] = r
	tx.record(TableRoute, event.OpUpsert, r)
	return r
}

// ReplaceRoutes swaps the whole route table, preserving LastSpawnAt for
// routes that survive the re-seed so spawn cadence does not reset.
func (tx *Tx) ReplaceRoutes(rs []Route) {
	old := tx.tb.routes
	tx.tb.routes = make(map[int32]Route, len(rs))
	for _, r := range rs {
		if prev, ok := old[r.ID]; ok {
			r.LastSpawnAt = prev.LastSpawnAt
		}
		tx.tb.routes[r.ID] = r
	}
	tx.record(TableRoute, event.OpReplace, tx.Routes())
}

// ---------- attack cooldown records ----------

func (tx *Tx) AttackState(spawnID uint64, slot int) (AttackState, bool) {
	st, ok := tx.tb.attackStates[AttackKey{SpawnID: spawnID, Slot: slot}]
	return st, ok
}

func (tx *Tx) PutAttackState(st AttackState) {
	tx.tb.attackStates[AttackKey{SpawnID: st.SpawnID, Slot: st.Slot}] = st
	tx.record(TableAttackState, event.OpUpsert, st)
}

// ---------- transient events ----------

func (tx *Tx) AppendPlayerDamage(ev PlayerDamageEvent) PlayerDamageEvent {
	tx.tb.nextEventID++
	ev.ID = tx.tb.nextEventID
	ev.At = tx.now
	tx.tb.playerDamage[ev.ID] = ev
	tx.record(TablePlayerDmg, event.OpUpsert, ev)
	return ev
}

func (tx *Tx) PlayerDamageEvents() []PlayerDamageEvent {
	ids := make([]uint64, 0, len(tx.tb.playerDamage))
	for id := range tx.tb.playerDamage {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]PlayerDamageEvent, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.tb.playerDamage[id])
	}
	return out
}

func (tx *Tx) DeletePlayerDamage(id uint64) bool {
	ev, ok := tx.tb.playerDamage[id]
	if !ok {
		return false
	}
	delete(tx.tb.playerDamage, id)
	tx.record(TablePlayerDmg, event.OpDelete, ev)
	return true
}

func (tx *Tx) AppendEnemyDamage(ev EnemyDamageEvent) EnemyDamageEvent {
	tx.tb.nextEventID++
	ev.ID = tx.tb.nextEventID
	ev.At = tx.now
	tx.tb.enemyDamage[ev.ID] = ev
	tx.record(TableEnemyDmg, event.OpUpsert, ev)
	return ev
}

func (tx *Tx) EnemyDamageEvents() []EnemyDamageEvent {
	ids := make([]uint64, 0, len(tx.tb.enemyDamage))
	for id := range tx.tb.enemyDamage {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]EnemyDamageEvent, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.tb.enemyDamage[id])
	}
	return out
}

func (tx *Tx) DeleteEnemyDamage(id uint64) bool {
	ev, ok := tx.tb.enemyDamage[id]
	if !ok {
		return false
	}
	delete(tx.tb.enemyDamage, id)
	tx.record(TableEnemyDmg, event.OpDelete, ev)
	return true
}

func (tx *Tx) AppendBroadcast(b Broadcast) Broadcast {
	tx.tb.nextBcastID++
	b.ID = tx.tb.nextBcastID
	b.At = tx.now
	tx.tb.broadcasts[b.ID] = b
	tx.record(TableBroadcast, event.OpUpsert, b)
	return b
}

func (tx *Tx) Broadcasts() []Broadcast {
	ids := make([]uint64, 0, len(tx.tb.broadcasts))
	for id := range tx.tb.broadcasts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Broadcast, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.tb.broadcasts[id])
	}
	return out
}

func (tx *Tx) DeleteBroadcast(id uint64) bool {
	b, ok := tx.tb.broadcasts[id]
	if !ok {
		return false
	}
	delete(tx.tb.broadcasts, id)
	tx.record(TableBroadcast, event.OpDelete, b)
	return true
}

// ---------- leaderboard ----------

func (tx *Tx) Leaderboard() []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(tx.tb.leaderboard))
	copy(out, tx.tb.leaderboard)
	return out
}

// ReplaceLeaderboard swaps the whole ranked set; there is no incremental path.
func (tx *Tx) ReplaceLeaderboard(entries []LeaderboardEntry) {
	tx.tb.leaderboard = make([]LeaderboardEntry, len(entries))
	copy(tx.tb.leaderboard, entries)
	tx.record(TableLeaderboard, event.OpReplace, tx.Leaderboard())
}
