package report_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/varietylab/macebatch/internal/model"
	"github.com/varietylab/macebatch/internal/report"
)

func record(idx int, outcome model.Outcome) model.Record {
	return model.Record{
		Identity: model.Identity{
			Index:      idx,
			Subvariety: model.Pair{A: 1, B: 2},
			Variety:    model.Pair{A: 3, B: 4},
			Relation:   model.DefaultRelation,
		},
		Size:      5,
		LastTime:  0.5,
		TotalTime: 12.346,
		Outcome:   outcome,
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()
	records := []model.Record{
		record(4, model.OutcomeTimeLimitExceeded),
		record(2, model.OutcomeFound),
	}
	tbl, err := report.Aggregate(records, 1, 5)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 5)
	require.Equal(t, 3, tbl.Blanks())

	for i, r := range tbl.Rows {
		require.Equal(t, i+1, r.Index)
	}
	require.True(t, tbl.Rows[0].Blank())
	require.Equal(t, model.OutcomeFound, tbl.Rows[1].Record.Outcome)
	require.True(t, tbl.Rows[2].Blank())
	require.Equal(t, model.OutcomeTimeLimitExceeded, tbl.Rows[3].Record.Outcome)
	require.True(t, tbl.Rows[4].Blank())

	// input is left alone
	require.Equal(t, 4, records[0].Index)
}

func TestAggregate_Range(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		start    int
		end      int
		rows     int
		outside  int
		err      error
	}{
		{"single", 2, 2, 1, 1, nil},
		{"wide", 0, 9, 10, 0, nil},
		{"no records inside", 10, 12, 3, 2, nil},
		{"reversed", 5, 1, 0, 0, model.ErrInvalidRange},
		{"negative", -1, 3, 0, 0, model.ErrInvalidRange},
		{"widest allowed", 0, report.MaxRows - 1, report.MaxRows, 0, nil},
		{"too wide", 0, report.MaxRows, 0, 0, model.ErrInvalidRange},
		{"up to max int", 0, math.MaxInt, 0, 0, model.ErrInvalidRange},
		{"ends at max int", math.MaxInt - 2, math.MaxInt, 3, 2, nil},
	}

	records := []model.Record{record(2, model.OutcomeFound), record(4, model.OutcomeKilled)}
	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			var tbl report.Table
			var err error
			require.NotPanics(t, func() {
				tbl, err = report.Aggregate(records, tt.start, tt.end)
			})
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Len(t, tbl.Rows, tt.rows)
			require.Equal(t, tt.outside, tbl.Outside)
			require.Equal(t, tt.end, tbl.Rows[len(tbl.Rows)-1].Index)
		})
	}
}

func TestAggregate_Duplicates(t *testing.T) {
	t.Parallel()
	later := record(3, model.OutcomeKilled)
	later.Variety = model.Pair{A: 9, B: 9}
	first := record(3, model.OutcomeFound)

	tbl, err := report.Aggregate([]model.Record{later, first}, 3, 3)
	require.NoError(t, err)
	require.Len(t, tbl.Duplicates, 1)
	require.ErrorIs(t, tbl.Duplicates[0], model.ErrDuplicateIndex)
	require.Equal(t, model.OutcomeFound, tbl.Rows[0].Record.Outcome)
}

func TestSort(t *testing.T) {
	t.Parallel()
	records := []model.Record{
		record(10, model.OutcomeFound),
		record(2, model.OutcomeFound),
		record(7, model.OutcomeFound),
	}
	report.Sort(records)
	require.Equal(t, []int{2, 7, 10}, []int{records[0].Index, records[1].Index, records[2].Index})
}

func TestWriter(t *testing.T) {
	t.Parallel()
	rec := record(2, model.OutcomeFound)
	unknown := record(3, model.OutcomeUnknown)
	unknown.Size = model.NoSize
	unknown.LastTime, unknown.TotalTime = 0, 0

	tbl, err := report.Aggregate([]model.Record{rec, unknown}, 1, 3)
	require.NoError(t, err)

	var testCases = []struct {
		scenario  string
		delimiter rune
		then      string
	}{
		{
			"comma",
			',',
			"index,subvariety,arrow,variety,last_size,time_on_last_size,cumulative_time,outcome\n" +
				"1,,,,,,,\n" +
				`2,"(1, 2)",=>,"(3, 4)",5,0.50,12.35,found` + "\n" +
				`3,"(1, 2)",=>,"(3, 4)",-1,0.00,0.00,unknown` + "\n",
		},
		{
			"tab",
			'\t',
			"index\tsubvariety\tarrow\tvariety\tlast_size\ttime_on_last_size\tcumulative_time\toutcome\n" +
				"1\t\t\t\t\t\t\t\n" +
				"2\t(1, 2)\t=>\t(3, 4)\t5\t0.50\t12.35\tfound\n" +
				"3\t(1, 2)\t=>\t(3, 4)\t-1\t0.00\t0.00\tunknown\n",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, report.NewWriter(&buf, tt.delimiter).Write(tbl))
			require.Equal(t, tt.then, buf.String())
		})
	}
}

func TestWriter_BadDelimiter(t *testing.T) {
	t.Parallel()
	tbl, err := report.Aggregate(nil, 1, 1)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.Error(t, report.NewWriter(&buf, '"').Write(tbl))
}

func TestSummary(t *testing.T) {
	t.Parallel()
	records := []model.Record{
		record(1, model.OutcomeFound),
		record(2, model.OutcomeFound),
		record(4, model.OutcomeOutOfMemory),
		record(8, model.OutcomeFound),
	}
	tbl, err := report.Aggregate(records, 1, 5)
	require.NoError(t, err)
	s := report.Summarize(tbl, 2)
	require.Equal(t, 2, s.Outcomes[model.OutcomeFound])
	require.Equal(t, 1, s.Outcomes[model.OutcomeOutOfMemory])
	require.Equal(t, 2, s.Blank)
	require.Equal(t, 1, s.Outside)
	require.Equal(t, 2, s.ParseErrors)

	var plain bytes.Buffer
	require.NoError(t, s.Render(&plain, false))
	require.Contains(t, plain.String(), "found:")
	require.Contains(t, plain.String(), "parse errors:")
	require.Len(t, strings.Split(strings.TrimSpace(plain.String()), "\n"), len(model.Outcomes)+5)

	var styled bytes.Buffer
	require.NoError(t, s.Render(&styled, true))
	require.Contains(t, styled.String(), "collect summary")
	require.Contains(t, styled.String(), "out_of_memory")

	require.False(t, report.IsTerminal(&plain))
}
