package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary aggregates the outcome of one run.
type Summary struct {
	RunID   string
	Root    string
	Elapsed time.Duration
	States  []*AssetState

	Processed int
	Failed    int
	Skipped   int

	// MissingPrimary lists assets that ended the run without the primary
	// target language, the condition the run report calls out loudest.
	MissingPrimary []string
}

func buildSummary(runID, root, primaryLang string, states []*AssetState, elapsed time.Duration) *Summary {
	summary := &Summary{RunID: runID, Root: root, Elapsed: elapsed}
	for _, state := range states {
		if state == nil {
			continue
		}
		summary.States = append(summary.States, state)
		switch state.Stage {
		case StageArchived:
			summary.Processed++
		case StageFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
		for _, lang := range state.UnresolvedLanguages {
			if lang == primaryLang {
				summary.MissingPrimary = append(summary.MissingPrimary, state.Asset.RelPath)
			}
		}
	}
	sort.Strings(summary.MissingPrimary)
	return summary
}

// Render writes the human-readable run report. Styling is enabled only for
// terminals.
func (s *Summary) Render(w io.Writer, styled bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.AppendHeader(table.Row{"Asset", "Outcome", "Embedded", "Degraded", "Unresolved", "Detail"})

	for _, state := range s.States {
		detail := state.SkipReason
		if state.Err != nil {
			detail = state.Err.Error()
		}
		tw.AppendRow(table.Row{
			state.Asset.RelPath,
			string(state.Stage),
			strings.Join(sorted(state.EmbeddedLanguages), ","),
			strings.Join(sorted(state.DegradedLanguages), ","),
			strings.Join(sorted(state.UnresolvedLanguages), ","),
			text.Trim(detail, 60),
		})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d assets", len(s.States)),
		fmt.Sprintf("%d ok / %d failed / %d skipped", s.Processed, s.Failed, s.Skipped),
		"", "", "",
		s.Elapsed.Round(time.Millisecond).String(),
	})
	tw.Render()

	if len(s.MissingPrimary) > 0 {
		fmt.Fprintf(w, "\n%d file(s) still missing the primary subtitle language:\n", len(s.MissingPrimary))
		for _, rel := range s.MissingPrimary {
			fmt.Fprintf(w, "  %s\n", rel)
		}
	}
}

func sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
