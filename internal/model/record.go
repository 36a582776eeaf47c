package model

// Outcome classifies how a model-finder run ended. Outcomes are data, not
// scheduler errors.
type Outcome string

const (
	OutcomeFound               Outcome = "found"
	OutcomeTimeLimitExceeded   Outcome = "time_limit_exceeded"
	OutcomeMemoryLimitExceeded Outcome = "memory_limit_exceeded"
	OutcomeOutOfMemory         Outcome = "out_of_memory"
	OutcomeToolFailure         Outcome = "tool_failure"
	OutcomeKilled              Outcome = "killed"
	OutcomeUnknown             Outcome = "unknown"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{
	OutcomeFound,
	OutcomeTimeLimitExceeded,
	OutcomeMemoryLimitExceeded,
	OutcomeOutOfMemory,
	OutcomeToolFailure,
	OutcomeKilled,
	OutcomeUnknown,
}

// NoSize marks a record for which no domain size was ever reported.
const NoSize = -1

// Record is the parsed result of one capture.
type Record struct {
	Identity
	// Size is the model order when Outcome is found, the last probed domain
	// size otherwise, or NoSize.
	Size int
	// LastTime is the CPU time spent on the final size in seconds, always >= 0.
	LastTime float64
	// TotalTime is the last cumulative CPU time checkpoint in seconds.
	TotalTime   float64
	Outcome     Outcome
	Models      int
	Checkpoints int
}
