package handler

import "errors"

// Validation errors returned to the gateway before any mutation happens.
// A handler that returns one of these has not touched the store.
var (
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrPlayerOffline  = errors.New("player offline")
	ErrPlayerDead     = errors.New("player dead")
	ErrNameRequired   = errors.New("name required for a new player")
	ErrUnknownSpawn   = errors.New("unknown spawn")
	ErrSpawnDead      = errors.New("spawn already dead")
	ErrOutOfBounds    = errors.New("position outside map bounds")
	ErrMoveTooFar     = errors.New("move exceeds displacement tolerance")
	ErrOutOfRange     = errors.New("target out of attack range")
	ErrInvalidState   = errors.New("state not allowed on a move update")
	ErrUnknownJob     = errors.New("unknown job")
	ErrEmptyText      = errors.New("broadcast text empty after sanitizing")
	ErrAdminDenied    = errors.New("admin credential rejected")
	ErrUnknownCommand = errors.New("unknown admin command")
)
