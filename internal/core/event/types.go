package event

// Table ops carried by a Change.
const (
	OpUpsert  = "upsert"
	OpDelete  = "delete"
	OpReplace = "replace" // whole-table swap (leaderboard, route re-seed)
)

// Change is one committed row mutation. Row carries the post-image for
// upserts and the last-seen image for deletes.
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	Row   any    `json:"row"`
}

// Commit is the journal of one store transaction, published after the
// transaction releases the store.
type Commit struct {
	Label   string   `json:"label"`
	Changes []Change `json:"changes"`
}
