package settlement

import "errors"

var (
	// ErrValidation rejects malformed manual input before any side effect.
	ErrValidation = errors.New("validation error")
	// ErrPrerequisiteMissing is returned when close is declared before open.
	ErrPrerequisiteMissing = errors.New("prerequisite missing")
	// ErrAlreadyDeclared is an idempotent no-op: the slot is settled for today.
	ErrAlreadyDeclared = errors.New("already declared")
	ErrAgentNotFound   = errors.New("agent not found")
	ErrUnknownMarket   = errors.New("unknown market")
	ErrUnknownCategory = errors.New("unknown bet category")
)
