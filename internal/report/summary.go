package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/varietylab/macebatch/internal/model"
)

// Summary counts what a collection pass produced.
type Summary struct {
	Outcomes    map[model.Outcome]int
	Rows        int
	Blank       int
	Duplicates  int
	Outside     int
	ParseErrors int
}

func Summarize(t Table, parseErrors int) Summary {
	s := Summary{
		Outcomes:    make(map[model.Outcome]int, len(model.Outcomes)),
		Rows:        len(t.Rows),
		Duplicates:  len(t.Duplicates),
		Outside:     t.Outside,
		ParseErrors: parseErrors,
	}
	for _, r := range t.Rows {
		if r.Blank() {
			s.Blank++
			continue
		}
		s.Outcomes[r.Record.Outcome]++
	}
	return s
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type line struct {
	label string
	n     int
	warn  bool
}

func (s Summary) lines() []line {
	ret := make([]line, 0, len(model.Outcomes)+5)
	for _, o := range model.Outcomes {
		ret = append(ret, line{label: string(o), n: s.Outcomes[o]})
	}
	return append(ret,
		line{label: "blank", n: s.Blank},
		line{label: "rows", n: s.Rows},
		line{label: "duplicates", n: s.Duplicates, warn: true},
		line{label: "outside range", n: s.Outside, warn: true},
		line{label: "parse errors", n: s.ParseErrors, warn: true},
	)
}

// Render writes the summary to w, boxed and colored when styled is set.
func (s Summary) Render(w io.Writer, styled bool) error {
	var out string
	if styled {
		out = s.styled()
	} else {
		out = s.plain()
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

func (s Summary) plain() string {
	var sb strings.Builder
	for i, l := range s.lines() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%-22s %d", l.label+":", l.n)
	}
	return sb.String()
}

func (s Summary) styled() string {
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Bold(true)
	labelStyle := lipgloss.NewStyle().Width(22)
	countStyle := lipgloss.NewStyle().Width(8).Align(lipgloss.Right)
	foundStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	rows := []string{headerStyle.Render("collect summary")}
	for _, l := range s.lines() {
		count := countStyle.Render(strconv.Itoa(l.n))
		switch {
		case l.n == 0:
			count = mutedStyle.Render(count)
		case l.label == string(model.OutcomeFound):
			count = foundStyle.Render(count)
		case l.warn:
			count = warnStyle.Render(count)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(l.label), count))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
