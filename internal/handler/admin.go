package handler

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/emberwake/server/internal/world"
)

// AdminRequest is one privileged ops command. The shared secret is checked
// against the configured bcrypt hash on every call; there are no admin
// sessions to hijack.
type AdminRequest struct {
	Secret  string `json:"secret"`
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

// HandleAdmin authenticates and dispatches one ops command, returning
// operator feedback.
func HandleAdmin(deps *Deps, req AdminRequest) (string, error) {
	hash := []byte(deps.Config.Admin.CredentialHash)
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Secret)) != nil {
		return "", ErrAdminDenied
	}

	switch strings.ToLower(strings.TrimSpace(req.Command)) {
	case "respawn":
		return adminRespawn(deps)
	case "clearjobs":
		return adminClearJobs(deps)
	case "reseed":
		return adminReseed(deps)
	case "announce":
		return adminAnnounce(deps, req.Text)
	default:
		return "", ErrUnknownCommand
	}
}

// adminRespawn wipes every live hostile and refills all routes to cap, as if
// the server had just booted. Route spawn clocks restart from now.
func adminRespawn(deps *Deps) (string, error) {
	var created, routes int
	err := deps.Store.Exec("admin-respawn", func(tx *world.Tx) error {
		for _, s := range tx.Spawns() {
			tx.DeleteSpawnCascade(s.ID)
		}
		for _, route := range tx.Routes() {
			n, err := FillRoute(tx, deps.Rng, route, deps.Enemies, deps.Bosses)
			if err != nil {
				return err
			}
			if route.Kind == world.KindBoss && n > 0 {
				tx.AppendBroadcast(world.Broadcast{
					Kind: world.BroadcastBoss,
					Text: fmt.Sprintf("%s has appeared!", route.Type),
				})
			}
			route.LastSpawnAt = tx.Now()
			tx.PutRoute(route)
			created += n
			routes++
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("respawned %d hostiles across %d routes", created, routes), nil
}

// adminClearJobs resets every player back to the default job.
func adminClearJobs(deps *Deps) (string, error) {
	cleared := 0
	err := deps.Store.Exec("admin-clearjobs", func(tx *world.Tx) error {
		for _, p := range tx.Players() {
			if p.JobID == 0 {
				continue
			}
			p.JobID = 0
			p.Dirty = true
			tx.PutPlayer(p)
			cleared++
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("cleared jobs for %d players", cleared), nil
}

// adminReseed reloads the route table from the boot seed. Spawns keep
// running against the new definitions; orphans drain through cleanup.
func adminReseed(deps *Deps) (string, error) {
	routes := make([]world.Route, 0, len(deps.Routes))
	for _, e := range deps.Routes {
		routes = append(routes, RouteFromEntry(e))
	}
	err := deps.Store.Exec("admin-reseed", func(tx *world.Tx) error {
		tx.ReplaceRoutes(routes)
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("reseeded %d routes", len(routes)), nil
}

// adminAnnounce posts a server-line broadcast, with the same text hygiene as
// player chat.
func adminAnnounce(deps *Deps, text string) (string, error) {
	text = SanitizeBroadcast(text)
	if text == "" {
		return "", ErrEmptyText
	}
	err := deps.Store.Exec("admin-announce", func(tx *world.Tx) error {
		tx.AppendBroadcast(world.Broadcast{Kind: world.BroadcastServer, Text: text})
		return nil
	})
	if err != nil {
		return "", err
	}
	return "announcement posted", nil
}
