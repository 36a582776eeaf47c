package parse

import (
	"strconv"
	"strings"
)

// Kind tags a classified capture line.
type Kind int

const (
	KindIgnored Kind = iota
	KindInterpretation
	KindCheckpoint
	KindDomainSize
	KindToolFailure
	KindMemoryLimit
	KindTimeLimit
	KindModelsLimit
	KindOutOfMemory
	KindKilled
	KindSuccessExit
)

var kindNames = [...]string{
	KindIgnored:        "ignored",
	KindInterpretation: "interpretation",
	KindCheckpoint:     "checkpoint",
	KindDomainSize:     "domain_size",
	KindToolFailure:    "tool_failure",
	KindMemoryLimit:    "memory_limit",
	KindTimeLimit:      "time_limit",
	KindModelsLimit:    "models_limit",
	KindOutOfMemory:    "out_of_memory",
	KindKilled:         "killed",
	KindSuccessExit:    "success_exit",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Line shapes printed by mace4. All are matched at the start of a line.
const (
	prefixInterpretation = "interpretation("
	prefixCheckpoint     = "Current CPU time:"
	prefixDomainSize     = "For domain size "
	prefixToolFailure    = "Exiting with failure."
	prefixProcess        = "Process "
	prefixPalloc         = "Fatal error: palloc"
	prefixKilled         = "Killed"

	// SuccessMarker is printed once when the search stopped after finding the
	// single requested model.
	SuccessMarker = "Exiting with 1 model."

	markerTotal     = "(total CPU time:"
	markerMaxMegs   = "(max_megs_no)"
	markerMaxSec    = "(max_sec_no)"
	markerMaxModels = "(max_models)"
	secondsSuffix   = "seconds"
)

// Line is the tagged result of Classify. Int carries the model order for
// KindInterpretation and the domain size for KindDomainSize; Seconds carries the
// cumulative CPU time for KindCheckpoint.
type Line struct {
	Kind    Kind
	Int     int
	Seconds float64
}

// Classify recognizes a single capture line. Lines starting with a known prefix
// but carrying an unparsable payload are KindIgnored.
func Classify(line string) Line {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case strings.HasPrefix(line, prefixInterpretation):
		if n, ok := leadingInt(line[len(prefixInterpretation):]); ok {
			return Line{Kind: KindInterpretation, Int: n}
		}
	case strings.HasPrefix(line, prefixCheckpoint):
		if s, ok := totalSeconds(line); ok {
			return Line{Kind: KindCheckpoint, Seconds: s}
		}
	case strings.HasPrefix(line, prefixDomainSize):
		if n, ok := leadingInt(line[len(prefixDomainSize):]); ok {
			return Line{Kind: KindDomainSize, Int: n}
		}
	case strings.HasPrefix(line, prefixToolFailure):
		return Line{Kind: KindToolFailure}
	case strings.HasPrefix(line, SuccessMarker):
		return Line{Kind: KindSuccessExit}
	case strings.HasPrefix(line, prefixProcess):
		switch {
		case strings.Contains(line, markerMaxMegs):
			return Line{Kind: KindMemoryLimit}
		case strings.Contains(line, markerMaxSec):
			return Line{Kind: KindTimeLimit}
		case strings.Contains(line, markerMaxModels):
			return Line{Kind: KindModelsLimit}
		}
	case strings.HasPrefix(line, prefixPalloc):
		return Line{Kind: KindOutOfMemory}
	case strings.HasPrefix(line, prefixKilled):
		return Line{Kind: KindKilled}
	}
	return Line{Kind: KindIgnored}
}

// leadingInt parses the non-negative integer at the start of s, after optional
// blanks: " 5, [number=1]" and "5)" both give 5.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// totalSeconds extracts <seconds> from "... (total CPU time: <seconds> seconds)".
func totalSeconds(line string) (float64, bool) {
	pos := strings.Index(line, markerTotal)
	if pos < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[pos+len(markerTotal):])
	end := strings.Index(rest, secondsSuffix)
	if end < 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(rest[:end]), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}
