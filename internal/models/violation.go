package models

// ViolationKind classifies a detected security breach.
type ViolationKind string

const (
	ViolationCredentialAccess  ViolationKind = "credential_access"
	ViolationDangerousCommand  ViolationKind = "dangerous_command"
	ViolationCredentialForward ViolationKind = "credential_forward"
)

// ViolationSource records which component raised a violation.
type ViolationSource string

const (
	SourceFilesystem ViolationSource = "filesystem"
	SourceCommand    ViolationSource = "command"
	SourceMessage    ViolationSource = "message"
)

// Violation is a security signal. It is reported, never enforced: the action
// that raised it has already happened.
type Violation struct {
	Kind   ViolationKind   `json:"kind"`
	Source ViolationSource `json:"source"`
	Path   string          `json:"path,omitempty"`
	Detail string          `json:"detail,omitempty"`
}
