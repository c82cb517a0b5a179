package security

import (
	"fmt"

	"github.com/nvandessel/clawback/internal/models"
)

// Consequence is what a violation costs.
type Consequence struct {
	Kind            models.ViolationKind `json:"kind"`
	SecurityPenalty int                  `json:"security_penalty"`
	ScorePenalty    int                  `json:"score_penalty"`
	Message         string               `json:"message"`
}

// ConsequenceFor maps a violation to its penalties. Unknown kinds get the
// generic penalty.
func ConsequenceFor(v models.Violation) Consequence {
	c := Consequence{Kind: v.Kind}
	switch v.Kind {
	case models.ViolationCredentialAccess:
		c.SecurityPenalty, c.ScorePenalty = 15, 100
		c.Message = fmt.Sprintf("Accessed sensitive file: %s", orDetail(v.Path, v.Detail))
	case models.ViolationDangerousCommand:
		c.SecurityPenalty, c.ScorePenalty = 25, 200
		c.Message = fmt.Sprintf("Dangerous command: %s", orDetail(v.Detail, v.Path))
	case models.ViolationCredentialForward:
		c.SecurityPenalty, c.ScorePenalty = 40, 500
		c.Message = fmt.Sprintf("Credentials forwarded externally: %s", orDetail(v.Detail, v.Path))
	default:
		c.SecurityPenalty, c.ScorePenalty = 10, 100
		c.Message = "Security violation detected"
	}
	return c
}

func orDetail(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
