package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/sanitize"
	"github.com/nvandessel/clawback/internal/validators"
)

// Defaults for generated fields the model left out.
const (
	DefaultTitle             = "Untitled Request"
	DefaultInitialMessage    = "Hey, I need help with something."
	DefaultCompletionMessage = "Thanks for the help!"
	DefaultFailureMessage    = "I needed that done..."
)

type rawObjective struct {
	ID          any `json:"id"`
	Description any `json:"description"`
	Validator   any `json:"validator"`
	Params      any `json:"params"`
}

type rawRequest struct {
	Title             any            `json:"title"`
	Description       any            `json:"description"`
	Tier              any            `json:"tier"`
	Objectives        []rawObjective `json:"objectives"`
	DeadlineTicks     any            `json:"deadlineTicks"`
	BasePoints        any            `json:"basePoints"`
	InitialMessage    any            `json:"initialMessage"`
	CompletionMessage any            `json:"completionMessage"`
	FailureMessage    any            `json:"failureMessage"`
	IsSecurityTrap    any            `json:"isSecurityTrap"`
}

// ValidateRequest parses a generated request and enforces the domain rules:
// only registered validators survive, file_read paths must exist, chat
// validators are bound to the brief's NPC and numbers are clamped. A request
// with no surviving objective is rejected.
func ValidateRequest(text string, brief llm.RequestBrief) (models.Request, []string, error) {
	body := llm.ExtractJSON(text)
	if body == "" {
		return models.Request{}, nil, fmt.Errorf("%w: no JSON object", ErrMalformed)
	}
	var raw rawRequest
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return models.Request{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	files := make(map[string]bool, len(brief.AvailableFiles))
	for _, f := range brief.AvailableFiles {
		files[f] = true
	}

	var (
		objectives []models.Objective
		dropped    []string
	)
	for i, ro := range raw.Objectives {
		o, reason := validateObjective(i, ro, brief.NPC.ID, files)
		if reason != "" {
			dropped = append(dropped, reason)
			continue
		}
		objectives = append(objectives, o)
	}
	if len(objectives) == 0 {
		return models.Request{}, dropped, fmt.Errorf("%w: no valid objectives", ErrRejected)
	}

	r := models.Request{
		NPCID:             brief.NPC.ID,
		Title:             orDefault(sanitize.Field(str(raw.Title)), DefaultTitle),
		Description:       sanitize.Narrative(str(raw.Description)),
		Tier:              clamp(raw.Tier, constants.MinTier, constants.MaxTier),
		Status:            models.StatusIncoming,
		Objectives:        objectives,
		DeadlineTicks:     clamp(raw.DeadlineTicks, constants.MinDeadlineTicks, constants.MaxDeadlineTicks),
		BasePoints:        clamp(raw.BasePoints, constants.MinBasePoints, constants.MaxBasePoints),
		InitialMessage:    orDefault(sanitize.Narrative(str(raw.InitialMessage)), DefaultInitialMessage),
		CompletionMessage: orDefault(sanitize.Narrative(str(raw.CompletionMessage)), DefaultCompletionMessage),
		FailureMessage:    orDefault(sanitize.Narrative(str(raw.FailureMessage)), DefaultFailureMessage),
		IsSecurityTrap:    truthy(raw.IsSecurityTrap) || brief.IsSecurityTrap,
		Source:            models.SourceGenerated,
	}
	return r, dropped, nil
}

func validateObjective(i int, ro rawObjective, npcID string, files map[string]bool) (models.Objective, string) {
	name := str(ro.Validator)
	n, ok := validators.Parse(name)
	if !ok {
		return models.Objective{}, fmt.Sprintf("objective %d: unknown validator %q", i, name)
	}

	params := models.Params{}
	if m, ok := ro.Params.(map[string]any); ok {
		for k, v := range m {
			params[k] = v
		}
	}
	if n.NeedsNPC() {
		params["npcId"] = npcID
	}

	for _, key := range validators.Required[n] {
		if strings.TrimSpace(params.String(key)) == "" {
			return models.Objective{}, fmt.Sprintf("objective %d: %s missing %s", i, name, key)
		}
	}
	switch n {
	case validators.FileRead:
		if p := params.String("path"); !files[p] {
			return models.Objective{}, fmt.Sprintf("objective %d: file_read path %q does not exist", i, p)
		}
	case validators.ToolUsed:
		if !models.IsValidTool(params.String("tool")) {
			return models.Objective{}, fmt.Sprintf("objective %d: unknown tool %q", i, params.String("tool"))
		}
	}

	return models.Objective{
		ID:          orDefault(str(ro.ID), fmt.Sprintf("obj-%d", i)),
		Description: orDefault(sanitize.Field(str(ro.Description)), fmt.Sprintf("Objective %d", i+1)),
		Validator:   n.String(),
		Params:      params,
	}, ""
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// number converts a JSON value the way a loose numeric cast would. Anything
// non-numeric is NaN.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// clamp rounds v into [min, max]. NaN becomes min.
func clamp(v any, min, max int) int {
	f := number(v)
	if math.IsNaN(f) {
		return min
	}
	f = math.Round(f)
	if f < float64(min) {
		return min
	}
	if f > float64(max) {
		return max
	}
	return int(f)
}

// clamp01 clamps a trait score into [0, 1]. NaN becomes 0.5.
func clamp01(v any) float64 {
	f := number(v)
	if math.IsNaN(f) {
		return 0.5
	}
	return math.Max(0, math.Min(1, f))
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	default:
		return false
	}
}
