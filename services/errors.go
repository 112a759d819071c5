package services

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotOwner      = errors.New("ticket belongs to another user")
	ErrAlreadyQueued = errors.New("user already holds an unpaired ticket")
	ErrAlreadyPaired = errors.New("ticket has already been paired")
	ErrDuplicate     = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("concurrent update, try again")
)

// errStale signals a lost compare-and-swap inside a transaction.
var errStale = errors.New("stale version")
