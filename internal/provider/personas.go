package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/sanitize"
)

// Persona defaults.
const (
	DefaultAvatar = "🧑‍💼"
	DefaultColor  = "#00b4d8"
	DefaultQuirk  = "Has no particular quirks"
)

type rawPersona struct {
	Name        any `json:"name"`
	Role        any `json:"role"`
	Description any `json:"description"`
	AvatarEmoji any `json:"avatarEmoji"`
	Patience    any `json:"patience"`
	TechSavvy   any `json:"techSavvy"`
	Politeness  any `json:"politeness"`
	Quirk       any `json:"quirk"`
	Color       any `json:"color"`
}

// ValidatePersonas parses a generated persona batch and sanitizes each
// candidate. Candidates without a name or role are dropped; a batch with
// fewer than MinPersonaBatch survivors is rejected.
func ValidatePersonas(text string) ([]models.Persona, error) {
	body := llm.ExtractJSON(text)
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON object", ErrMalformed)
	}
	var raw struct {
		NPCs []rawPersona `json:"npcs"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw.NPCs) == 0 {
		return nil, fmt.Errorf("%w: no personas", ErrMalformed)
	}

	var out []models.Persona
	for i, rp := range raw.NPCs {
		if p, ok := sanitizePersona(rp, i); ok {
			out = append(out, p)
		}
	}
	if len(out) < constants.MinPersonaBatch {
		return nil, fmt.Errorf("%w: only %d valid personas", ErrRejected, len(out))
	}
	return out, nil
}

func sanitizePersona(rp rawPersona, index int) (models.Persona, bool) {
	name := sanitize.Field(str(rp.Name))
	role := sanitize.Field(str(rp.Role))
	if name == "" || role == "" {
		return models.Persona{}, false
	}

	avatar := str(rp.AvatarEmoji)
	if avatar == "" {
		avatar = DefaultAvatar
	}
	color := str(rp.Color)
	if !strings.HasPrefix(color, "#") {
		color = DefaultColor
	}

	return models.Persona{
		ID:          fmt.Sprintf("%s-%d", sanitize.Slug(name), index),
		Name:        name,
		Role:        role,
		Description: orDefault(sanitize.Line(str(rp.Description)), fmt.Sprintf("%s works as %s.", name, role)),
		Avatar:      avatar,
		Patience:    clamp01(rp.Patience),
		TechSavvy:   clamp01(rp.TechSavvy),
		Politeness:  clamp01(rp.Politeness),
		Color:       color,
		Quirk:       orDefault(sanitize.Line(str(rp.Quirk)), DefaultQuirk),
	}, true
}
