package models

// EventKind classifies a session event.
type EventKind string

const (
	EventRequestArrived   EventKind = "request_arrived"
	EventRequestActive    EventKind = "request_active"
	EventRequestProgress  EventKind = "request_progress"
	EventRequestCompleted EventKind = "request_completed"
	EventRequestExpired   EventKind = "request_expired"
	EventRequestFailed    EventKind = "request_failed"
	EventNPCFrustrated    EventKind = "npc_frustrated"
	EventNPCLeft          EventKind = "npc_left"
	EventNPCMessage       EventKind = "npc_message"
	EventSecurity         EventKind = "security_alert"
	EventResourceWarning  EventKind = "resource_warning"
	EventGameOver         EventKind = "game_over"
	EventShiftEnded       EventKind = "shift_ended"
)

// Event is something that happened during a session, in the order it
// happened. Events feed the journal and the player-facing surfaces.
type Event struct {
	Tick      int       `json:"tick"`
	Day       int       `json:"day"`
	Kind      EventKind `json:"kind"`
	RequestID string    `json:"request_id,omitempty"`
	NPCID     string    `json:"npc_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Points    int       `json:"points,omitempty"`
}
