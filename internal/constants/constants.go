// Package constants provides named constants used throughout the clawback codebase.
// This centralizes tuning numbers of the shift simulation.
package constants

// Clock constants
const (
	// WorkdayStartHour is the hour the clock starts at and wraps back to.
	WorkdayStartHour = 9

	// WorkdayEndHour is the first hour outside work hours.
	WorkdayEndHour = 18

	// TicksPerWorkday is the number of one-minute ticks in a workday.
	TicksPerWorkday = (WorkdayEndHour - WorkdayStartHour) * 60
)

// Request lifecycle constants
const (
	// IncomingGraceTicks is how long a request stays incoming before it becomes active.
	IncomingGraceTicks = 2

	// CompletionReputation is the reputation gained for completing a regular request.
	CompletionReputation = 15

	// TrapCompletionReputation is the reputation gained for completing a security trap.
	TrapCompletionReputation = 5

	// ExpiryReputation is the reputation lost when a request expires.
	ExpiryReputation = 15

	// ExpiryPenalty is the score lost when a request expires.
	ExpiryPenalty = 50

	// FrustrationRatio is the share of the deadline after which an NPC becomes frustrated.
	FrustrationRatio = 0.75

	// StartingReputation is the reputation every NPC starts a session with.
	StartingReputation = 50

	// MaxReputation caps NPC reputation. The floor is zero.
	MaxReputation = 100
)

// Scheduler constants
const (
	// TrapGuaranteeSpawn is the zero-based spawn index at which a trap is forced
	// when none has been spawned yet.
	TrapGuaranteeSpawn = 4

	// TrapChance is the probability that any other spawn is a trap.
	TrapChance = 0.15

	// GenerationResultBuffer is the capacity of the generation result channel.
	GenerationResultBuffer = 8
)

// Generated content clamps
const (
	MinDeadlineTicks = 30
	MaxDeadlineTicks = 200
	MinBasePoints    = 30
	MaxBasePoints    = 300
	MinTier          = 1
	MaxTier          = 4

	// MinPersonaBatch is the smallest persona batch the provider may return.
	MinPersonaBatch = 3

	// DefaultPersonaCount is how many personas are requested by default.
	DefaultPersonaCount = 6
)

// Resource gauge constants
const (
	InitialCPU     = 5.0
	InitialMemory  = 15.0
	InitialDisk    = 20.0
	InitialNetwork = 0.0

	CPURecoveryPerTick     = 2.0
	MemoryRecoveryPerTick  = 0.5
	NetworkRecoveryPerTick = 3.0

	CPUWarning    = 95.0
	MemoryWarning = 90.0
	DiskWarning   = 95.0
)

// Office addresses
const (
	// AssistantAddress is the player's own mail address.
	AssistantAddress = "ai@clawback.dev"

	// CompanyDomain and AssistantDomain are the internal mail domains.
	CompanyDomain   = "@company.com"
	AssistantDomain = "@clawback.dev"

	// HomeDir is the terminal's default working directory.
	HomeDir = "/home/user"
)

// Search constants
const (
	// MaxSearchResults caps the result list of a search.
	MaxSearchResults = 8
)
