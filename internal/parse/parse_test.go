package parse_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/varietylab/macebatch/internal/model"
	"github.com/varietylab/macebatch/internal/parse"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		line     string
		then     parse.Line
	}{
		{"interpretation", "interpretation( 5, [number=1, seconds=0], [", parse.Line{Kind: parse.KindInterpretation, Int: 5}},
		{"interpretation no blank", "interpretation(12, ...)", parse.Line{Kind: parse.KindInterpretation, Int: 12}},
		{"interpretation garbage", "interpretation( x, [])", parse.Line{Kind: parse.KindIgnored}},
		{"checkpoint", "Current CPU time: 0.50 seconds (total CPU time: 1.25 seconds)", parse.Line{Kind: parse.KindCheckpoint, Seconds: 1.25}},
		{"checkpoint crlf", "Current CPU time: 0.00 seconds (total CPU time: 3 seconds)\r\n", parse.Line{Kind: parse.KindCheckpoint, Seconds: 3}},
		{"checkpoint without total", "Current CPU time: 0.50 seconds", parse.Line{Kind: parse.KindIgnored}},
		{"domain size paren", "For domain size 7)", parse.Line{Kind: parse.KindDomainSize, Int: 7}},
		{"domain size dot", "For domain size 11.", parse.Line{Kind: parse.KindDomainSize, Int: 11}},
		{"domain size missing", "For domain size ?)", parse.Line{Kind: parse.KindIgnored}},
		{"failure", "Exiting with failure.", parse.Line{Kind: parse.KindToolFailure}},
		{"success", "Exiting with 1 model.", parse.Line{Kind: parse.KindSuccessExit}},
		{"max megs", "Process 4242 exit (max_megs_no) Mon Oct  6 10:00:00 2025", parse.Line{Kind: parse.KindMemoryLimit}},
		{"max sec", "Process 4242 exit (max_sec_no) Mon Oct  6 10:00:00 2025", parse.Line{Kind: parse.KindTimeLimit}},
		{"max models", "Process 4242 exit (max_models) Mon Oct  6 10:00:00 2025", parse.Line{Kind: parse.KindModelsLimit}},
		{"process other", "Process 4242 exit (exhausted) Mon Oct  6 10:00:00 2025", parse.Line{Kind: parse.KindIgnored}},
		{"palloc", "Fatal error: palloc, out of memory", parse.Line{Kind: parse.KindOutOfMemory}},
		{"killed", "Killed", parse.Line{Kind: parse.KindKilled}},
		{"not prefix", "  Killed", parse.Line{Kind: parse.KindIgnored}},
		{"empty", "", parse.Line{Kind: parse.KindIgnored}},
		{"noise", "% Reading from file inputs/0001_1_1_implies_1_2.in", parse.Line{Kind: parse.KindIgnored}},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.then, parse.Classify(tt.line))
		})
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "time_limit", parse.KindTimeLimit.String())
	require.Equal(t, "Kind(99)", parse.Kind(99).String())
}

func TestParse(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		log      []string
		then     parse.Summary
	}{
		{
			scenario: "found after models limit",
			log:      []string{"For domain size 5)", "Process P (max_models)", "interpretation(5, ...)"},
			then:     parse.Summary{Outcome: model.OutcomeFound, Size: 5, Models: 1},
		},
		{
			scenario: "several models stay found",
			log:      []string{"For domain size 4)", "interpretation( 4, [])", "interpretation( 4, [])"},
			then:     parse.Summary{Outcome: model.OutcomeFound, Size: 4, Models: 2},
		},
		{
			scenario: "time limit",
			log:      []string{"For domain size 7)", "Process P (max_sec_no)"},
			then:     parse.Summary{Outcome: model.OutcomeTimeLimitExceeded, Size: 7},
		},
		{
			scenario: "memory limit",
			log:      []string{"For domain size 4)", "For domain size 6)", "Process P (max_megs_no)"},
			then:     parse.Summary{Outcome: model.OutcomeMemoryLimitExceeded, Size: 6},
		},
		{
			scenario: "palloc",
			log:      []string{"For domain size 9)", "Fatal error: palloc failed"},
			then:     parse.Summary{Outcome: model.OutcomeOutOfMemory, Size: 9},
		},
		{
			scenario: "generic failure",
			log:      []string{"For domain size 3)", "Exiting with failure."},
			then:     parse.Summary{Outcome: model.OutcomeToolFailure, Size: 3},
		},
		{
			scenario: "killed",
			log:      []string{"For domain size 8)", "Killed"},
			then:     parse.Summary{Outcome: model.OutcomeKilled, Size: 8},
		},
		{
			scenario: "nothing recognized",
			log:      []string{"hello", "world"},
			then:     parse.Summary{Outcome: model.OutcomeUnknown, Size: model.NoSize},
		},
		{
			scenario: "unknown keeps domain size",
			log:      []string{"For domain size 2)"},
			then:     parse.Summary{Outcome: model.OutcomeUnknown, Size: 2},
		},
		{
			scenario: "specific marker survives later generic failure",
			log:      []string{"For domain size 7)", "Process P (max_sec_no)", "Exiting with failure."},
			then:     parse.Summary{Outcome: model.OutcomeTimeLimitExceeded, Size: 7},
		},
		{
			scenario: "generic failure replaced by later specific marker",
			log:      []string{"For domain size 7)", "Exiting with failure.", "Process P (max_megs_no)"},
			then:     parse.Summary{Outcome: model.OutcomeMemoryLimitExceeded, Size: 7},
		},
		{
			scenario: "fatal after model",
			log:      []string{"For domain size 5)", "interpretation( 5, [])", "Killed"},
			then:     parse.Summary{Outcome: model.OutcomeKilled, Size: 5, Models: 1},
		},
		{
			scenario: "failure with no size",
			log:      []string{"Exiting with failure."},
			then:     parse.Summary{Outcome: model.OutcomeToolFailure, Size: model.NoSize},
		},
		{
			scenario: "empty",
			then:     parse.Summary{Outcome: model.OutcomeUnknown, Size: model.NoSize},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			got, err := parse.Parse(strings.NewReader(strings.Join(tt.log, "\n")))
			require.NoError(t, err)
			require.Equal(t, tt.then, got)
		})
	}
}

func TestParse_Times(t *testing.T) {
	t.Parallel()
	const log = `
--- mace4 ---
For domain size 2)
Current CPU time: 0.00 seconds (total CPU time: 0.01 seconds)
For domain size 3)
Current CPU time: 0.10 seconds (total CPU time: 0.11 seconds)
For domain size 4)
Current CPU time: 2.39 seconds (total CPU time: 2.50 seconds)
interpretation( 4, [number=1, seconds=2], [
        function(*(_,_), [0,1,2,3,1,0,3,2,2,3,0,1,3,2,1,0])]).
Exiting with 1 model.
Process 1234 exit (max_models) Sat Oct 18 12:00:00 2026
`
	got, err := parse.Parse(strings.NewReader(log))
	require.NoError(t, err)
	require.Equal(t, model.OutcomeFound, got.Outcome)
	require.Equal(t, 4, got.Size)
	require.Equal(t, 3, got.Checkpoints)
	require.InDelta(t, 2.39, got.LastTime, 1e-9)
	require.InDelta(t, 2.50, got.TotalTime, 1e-9)
}

func TestParse_TimesNeverNegative(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		log      string
		last     float64
		total    float64
	}{
		{"no checkpoint", "For domain size 3)", 0, 0},
		{"single checkpoint", "Current CPU time: 1.00 seconds (total CPU time: 4.00 seconds)", 0, 4},
		{
			"decreasing checkpoints",
			"Current CPU time: 1.00 seconds (total CPU time: 4.00 seconds)\nCurrent CPU time: 1.00 seconds (total CPU time: 3.00 seconds)",
			0, 3,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			got, err := parse.Parse(strings.NewReader(tt.log))
			require.NoError(t, err)
			require.GreaterOrEqual(t, got.LastTime, 0.0)
			require.InDelta(t, tt.last, got.LastTime, 1e-9)
			require.InDelta(t, tt.total, got.TotalTime, 1e-9)
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()
	const log = "For domain size 6)\nCurrent CPU time: 1 seconds (total CPU time: 1.5 seconds)\nProcess 1 exit (max_sec_no)\n"
	first, err := parse.Parse(strings.NewReader(log))
	require.NoError(t, err)
	for range 10 {
		again, err := parse.Parse(strings.NewReader(log))
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestParse_LongLine(t *testing.T) {
	t.Parallel()
	long := "interpretation( 9, [" + strings.Repeat("0,", 200*1024) + "])"
	got, err := parse.Parse(strings.NewReader("For domain size 9)\n" + long + "\n"))
	require.NoError(t, err)
	require.Equal(t, model.OutcomeFound, got.Outcome)
	require.Equal(t, 9, got.Size)
}

func TestRecord(t *testing.T) {
	t.Parallel()
	id := model.Identity{Index: 3, Subvariety: model.Pair{A: 1, B: 1}, Variety: model.Pair{A: 2, B: 3}, Relation: "implies"}
	rec := parse.Record(id, parse.Summary{Outcome: model.OutcomeKilled, Size: 4, LastTime: 1, TotalTime: 2})
	require.Equal(t, id, rec.Identity)
	require.Equal(t, model.OutcomeKilled, rec.Outcome)
	require.Equal(t, 4, rec.Size)
}
