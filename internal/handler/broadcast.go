package handler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/unicode/norm"

	"github.com/emberwake/server/internal/world"
)

// maxBroadcastRunes bounds one shout after sanitizing.
const maxBroadcastRunes = 200

// broadcastScrubber removes control and formatting characters that clients
// must never render.
var broadcastScrubber = runes.Remove(runes.In(unicode.C))

// SanitizeBroadcast normalizes shout text to NFC, strips control characters,
// trims surrounding whitespace, and clamps the rune length.
func SanitizeBroadcast(text string) string {
	text = norm.NFC.String(text)
	text = broadcastScrubber.String(text)
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxBroadcastRunes {
		rs := []rune(text)
		text = strings.TrimSpace(string(rs[:maxBroadcastRunes]))
	}
	return text
}

// BroadcastRequest is a server-wide chat shout. PlayerID comes from the
// connection, never from the payload.
type BroadcastRequest struct {
	PlayerID int64  `json:"-"`
	Text     string `json:"text"`
}

// HandleBroadcast validates and stores one shout line. The line carries the
// speaker's name baked into the text; the broadcast sweep expires it later.
func HandleBroadcast(deps *Deps, req BroadcastRequest) error {
	text := SanitizeBroadcast(req.Text)
	if text == "" {
		return ErrEmptyText
	}
	return deps.Store.Exec("broadcast", func(tx *world.Tx) error {
		p, ok := tx.Player(req.PlayerID)
		if !ok {
			return ErrUnknownPlayer
		}
		if !p.Online {
			return ErrPlayerOffline
		}
		tx.AppendBroadcast(world.Broadcast{
			Kind: world.BroadcastChat,
			Text: fmt.Sprintf("%s: %s", p.Name, text),
		})
		return nil
	})
}
