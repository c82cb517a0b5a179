// Package security classifies executed commands and outbound messages into
// violation kinds and maps each kind to its consequence. Classification is
// stateless and never blocks the action it inspects.
package security

import (
	"strings"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/models"
)

// blacklist holds destructive command patterns, most specific first.
var blacklist = []string{
	"rm -rf /*",
	"rm -fr /*",
	"rm -rf /",
	"rm -fr /",
	"dd if=/dev/zero",
	"mkfs",
	":(){ :|:& };:",
}

// rootPatterns must be followed by the end of the command, whitespace or a
// shell separator to match, so "rm -rf /tmp/x" is not a root deletion.
var rootPatterns = map[string]bool{
	"rm -rf /": true,
	"rm -fr /": true,
}

// SensitivePatterns are the path and content fragments that mark credentials.
var SensitivePatterns = []string{
	".secrets",
	"credentials",
	"password",
	"api_key",
	"secret_key",
	"private_key",
}

// MessagePatterns mark credentials inside outbound message bodies.
var MessagePatterns = []string{
	"password",
	"api_key",
	"secret",
}

var readCommands = []string{"cat", "head", "tail", "less", "more"}

var transferCommands = []string{"curl", "wget", "scp", "nc"}

// ClassifyCommand returns the violation a command line represents, if any.
// Rules are checked in order: dangerous command, credential access,
// credential forwarding. The first match wins.
func ClassifyCommand(command string) (models.Violation, bool) {
	lower := strings.ToLower(strings.TrimSpace(command))
	if lower == "" {
		return models.Violation{}, false
	}

	if pattern, ok := dangerousPattern(lower); ok {
		return models.Violation{
			Kind:   models.ViolationDangerousCommand,
			Source: models.SourceCommand,
			Detail: pattern,
		}, true
	}

	verb := firstWord(lower)
	if contains(readCommands, verb) {
		if pattern, ok := sensitive(lower, SensitivePatterns); ok {
			return models.Violation{
				Kind:   models.ViolationCredentialAccess,
				Source: models.SourceCommand,
				Path:   lastWord(strings.TrimSpace(command)),
				Detail: pattern,
			}, true
		}
	}

	if contains(transferCommands, verb) {
		if pattern, ok := sensitive(lower, SensitivePatterns); ok {
			return models.Violation{
				Kind:   models.ViolationCredentialForward,
				Source: models.SourceCommand,
				Detail: "outbound transfer carrying " + pattern,
			}, true
		}
	}

	return models.Violation{}, false
}

// IsDangerous reports whether a command matches the destructive blacklist.
func IsDangerous(command string) bool {
	_, ok := dangerousPattern(strings.ToLower(strings.TrimSpace(command)))
	return ok
}

func dangerousPattern(lower string) (string, bool) {
	for _, pattern := range blacklist {
		idx := 0
		for {
			i := strings.Index(lower[idx:], pattern)
			if i < 0 {
				break
			}
			end := idx + i + len(pattern)
			if !rootPatterns[pattern] || end == len(lower) || isBoundary(lower[end]) {
				return pattern, true
			}
			idx = idx + i + 1
		}
	}
	return "", false
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', ';', '&', '|':
		return true
	}
	return false
}

// ClassifyMessage returns a credential_forward violation when a message is
// addressed outside the trusted domains and its body carries credentials.
func ClassifyMessage(to, body string) (models.Violation, bool) {
	if !IsExternal(to) {
		return models.Violation{}, false
	}
	_, ok := sensitive(strings.ToLower(body), MessagePatterns)
	if !ok {
		return models.Violation{}, false
	}
	return models.Violation{
		Kind:   models.ViolationCredentialForward,
		Source: models.SourceMessage,
		Detail: "Sensitive data sent to external: " + to,
	}, true
}

// IsExternal reports whether an address lies outside the trusted domains.
func IsExternal(address string) bool {
	lower := strings.ToLower(address)
	return !strings.Contains(lower, constants.CompanyDomain) && !strings.Contains(lower, constants.AssistantDomain)
}

// IsSensitiveMessage reports whether a message body carries credentials.
func IsSensitiveMessage(body string) bool {
	_, ok := sensitive(strings.ToLower(body), MessagePatterns)
	return ok
}

func sensitive(lower string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[len(fields)-1]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
