// Package office implements the non-terminal tools of the workstation: the
// mailbox, the calendar, the web search engine and NPC chat. Each type is
// plain state owned by the session; none of them is safe for concurrent use.
package office

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoRecipient  = errors.New("recipient required")
	ErrInvalidEvent = errors.New("invalid event")
	ErrEmptyMessage = errors.New("message is empty")
)
