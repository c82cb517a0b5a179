package models

// Mood is the visible disposition of an NPC.
type Mood string

const (
	MoodNeutral    Mood = "neutral"
	MoodWaiting    Mood = "waiting"
	MoodFrustrated Mood = "frustrated"
	MoodAngry      Mood = "angry"
	MoodGone       Mood = "gone"
	MoodHappy      Mood = "happy"
)

// Persona describes a synthetic coworker.
type Persona struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Role        string  `json:"role" yaml:"role"`
	Description string  `json:"description" yaml:"description"`
	Avatar      string  `json:"avatar" yaml:"avatar"`
	Patience    float64 `json:"patience" yaml:"patience"`
	TechSavvy   float64 `json:"tech_savvy" yaml:"tech_savvy"`
	Politeness  float64 `json:"politeness" yaml:"politeness"`
	Color       string  `json:"color" yaml:"color"`
	Quirk       string  `json:"quirk" yaml:"quirk"`
}

// NPCState is the runtime state of an NPC during a session.
type NPCState struct {
	ID         string `json:"id"`
	Mood       Mood   `json:"mood"`
	Reputation int    `json:"reputation"`
	Typing     bool   `json:"typing"`
}

// NewNPCState returns the starting state for an NPC.
func NewNPCState(id string, reputation int) *NPCState {
	return &NPCState{ID: id, Mood: MoodNeutral, Reputation: reputation}
}
