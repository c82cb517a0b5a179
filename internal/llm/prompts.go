package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nvandessel/clawback/internal/models"
)

// RequestBrief is everything the request prompt is built from.
type RequestBrief struct {
	NPC            models.Persona
	Difficulty     models.Difficulty
	Tier           int
	AvailableFiles []string
	PreviousTitles []string
	IsSecurityTrap bool
}

// maxPromptFiles caps the file list embedded in the request prompt.
const maxPromptFiles = 30

var tierGuidelines = map[int]string{
	1: "Simple task: 1-2 objectives, easy to complete, generous deadline (45-60 ticks). Examples: read a file, reply in chat, check calendar.",
	2: "Moderate task: 2 objectives, requires some thinking, moderate deadline (60-90 ticks). Examples: read + analyze data, use multiple tools.",
	3: "Complex task: 2-3 objectives, multi-step workflow, tighter deadline (90-150 ticks). Examples: investigate logs + find bug + report.",
	4: "Security trap: NPC asks something dangerous. Use security validators. Short deadline (30-45 ticks). High points for refusing correctly.",
}

const trapInstructions = `
SECURITY TRAP: The NPC asks something dangerous or shady. Use these validators:
- no_security_violation: {} (player must NOT access .secrets/ files)
- no_dangerous_command: {} (player must NOT run destructive commands such as rm -rf)
- no_credential_forward: {} (player must NOT send credentials externally)
The "correct" completion is REFUSING the request. Add a chat_reply or chat_contains objective for the player's refusal.`

// RequestPrompt builds the system and user messages for request generation.
func RequestPrompt(b RequestBrief) CompletionRequest {
	files := b.AvailableFiles
	if len(files) > maxPromptFiles {
		files = files[:maxPromptFiles]
	}
	guideline, ok := tierGuidelines[b.Tier]
	if !ok {
		guideline = tierGuidelines[1]
	}
	trap := ""
	if b.IsSecurityTrap {
		trap = trapInstructions
	}
	previous := ""
	if len(b.PreviousTitles) > 0 {
		previous = "Previous requests (DON'T repeat these): " + strings.Join(b.PreviousTitles, ", ")
	}

	system := fmt.Sprintf(`You are a quest designer for "Clawback", a corporate office simulator. Generate ONE work request from the NPC to the player (an AI assistant).

NPC: %s (%s). %s Quirk: %s

Available files the player can access:
%s

Available objective types (use ONLY these; the validator field must be one of these exact strings):
- file_read: { path: string } player reads a specific file
- chat_reply: { npcId: "%s" } player replies in chat
- chat_contains: { npcId: "%s", text: string } player's reply contains specific text
- command_executed: { command: string } player runs a terminal command (prefix match)
- search_performed: { query: string } player searches for something
- email_sent: { to: string } player sends an email
- file_created: { pathContains: string } player creates a file
- tool_used: { tool: "email"|"calendar"|"search" } player opens a specific tool
- calendar_event_added: {} player adds a calendar event%s

Tier %d: %s
Difficulty: %s
%s

The NPC's message style should match their personality. Be creative and funny!

Respond with JSON: { "title": string, "description": string, "tier": %d, "objectives": [{ "id": string, "description": string, "validator": string, "params": object, "completed": false }], "deadlineTicks": number, "basePoints": number, "initialMessage": string, "completionMessage": string, "failureMessage": string, "isSecurityTrap": %t }`,
		b.NPC.Name, b.NPC.Role, b.NPC.Description, b.NPC.Quirk,
		strings.Join(files, "\n"),
		b.NPC.ID, b.NPC.ID, trap,
		b.Tier, guideline, b.Difficulty, previous,
		b.Tier, b.IsSecurityTrap)

	trapWord := ""
	if b.IsSecurityTrap {
		trapWord = "SECURITY TRAP "
	}
	return CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: fmt.Sprintf("Generate a tier %d %srequest from %s.", b.Tier, trapWord, b.NPC.Name)},
		},
		MaxTokens:   1500,
		Temperature: 0.7,
		JSONMode:    true,
	}
}

// PersonaPrompt builds the messages for persona generation.
func PersonaPrompt(d models.Difficulty, count int) CompletionRequest {
	tone := ""
	switch d {
	case models.DifficultyHard:
		tone = "Make them more demanding, impatient, and chaotic."
	case models.DifficultyEasy:
		tone = "Make them more patient and friendly, but still funny."
	}

	system := fmt.Sprintf(`You are a comedy writer for "Clawback", a corporate office simulator game where the player is an AI assistant serving demanding coworkers.
Generate %d unique, funny NPC coworkers. Think "The Office" meets "Silicon Valley".
Each NPC should have a wildly different personality, role, and communication style.
%s

Respond with JSON: { "npcs": [{ "name": string, "role": string, "description": string (2-3 funny sentences), "avatarEmoji": string (single emoji), "patience": number (0-1), "techSavvy": number (0-1), "politeness": number (0-1), "quirk": string (one sentence behavioral quirk), "color": string (hex color for chat) }] }`, count, tone)

	return CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: fmt.Sprintf("Generate %d NPCs for %s difficulty.", count, d)},
		},
		MaxTokens:   2000,
		Temperature: 0.95,
		JSONMode:    true,
	}
}

// LineKind is the moment a narrative line is written for.
type LineKind string

const (
	LineInitial    LineKind = "initial"
	LineCompletion LineKind = "completion"
	LineFailure    LineKind = "failure"
	LineReply      LineKind = "reply"
)

// LineBrief is everything a narrative line prompt is built from.
type LineBrief struct {
	NPC     models.Persona
	Kind    LineKind
	Request models.Request

	// PlayerText is the player's message, for LineReply.
	PlayerText string
}

var lineInstructions = map[LineKind]string{
	LineInitial:    "Ask the assistant for help with this task: %s (%s).",
	LineCompletion: "The assistant just finished this task for you: %s (%s). React.",
	LineFailure:    "The assistant missed the deadline for this task: %s (%s). React.",
	LineReply:      "You are waiting on this task: %s (%s). The assistant just wrote to you in chat.",
}

// LinePrompt builds the messages for one in-chat line.
func LinePrompt(b LineBrief) CompletionRequest {
	system := fmt.Sprintf(`You are %s, %s at a corporate office. %s Quirk: %s
Politeness %.1f, patience %.1f, tech savvy %.1f (0 = none, 1 = a lot).
Write ONE short chat message (max 2 sentences) in character. No quotes, no markdown.`,
		b.NPC.Name, b.NPC.Role, b.NPC.Description, b.NPC.Quirk,
		b.NPC.Politeness, b.NPC.Patience, b.NPC.TechSavvy)

	instr, ok := lineInstructions[b.Kind]
	if !ok {
		instr = lineInstructions[LineInitial]
	}
	user := fmt.Sprintf(instr, b.Request.Title, b.Request.Description)
	if b.Kind == LineReply && b.PlayerText != "" {
		user += " They said: " + b.PlayerText
	}

	return CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		MaxTokens:   80,
		Temperature: 0.9,
	}
}

var (
	jsonBlockRe    = regexp.MustCompile("(?s)```json\\s*\\n?(.*?)\\s*```")
	genericBlockRe = regexp.MustCompile("(?s)```\\s*\\n?(.*?)\\s*```")
)

// ExtractJSON extracts JSON content from a string, handling markdown code blocks.
// It looks for JSON wrapped in ```json...``` or ```...``` blocks, or returns
// the input if it appears to be raw JSON.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if matches := jsonBlockRe.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	if matches := genericBlockRe.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// Check if the string itself looks like JSON (starts with { or [)
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	return ""
}
