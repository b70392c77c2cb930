package suiterunner

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/suite-runner/types"
)

// suiteRow aggregates one suite's case results for table rendering.
type suiteRow struct {
	name     string
	results  []types.CaseResult
	passed   int
	failed   int
	skipped  int
	duration time.Duration
}

func (g *suiteRow) status() types.TestStatus {
	switch {
	case g.failed > 0:
		return types.TestStatusFail
	case g.skipped > 0:
		return types.TestStatusSkip
	default:
		return types.TestStatusPass
	}
}

// outputFile returns the suite's captured output log, shown for failing
// suites so the log is one copy-paste away.
func (g *suiteRow) outputFile() string {
	if g.failed == 0 || len(g.results) == 0 {
		return ""
	}
	return g.results[0].OutputFile
}

// resultsBySuite groups case results by suite, preserving reporting order.
func resultsBySuite(results []types.CaseResult) []*suiteRow {
	var rows []*suiteRow
	index := make(map[string]int)
	for _, res := range results {
		i, ok := index[res.SuiteName]
		if !ok {
			i = len(rows)
			index[res.SuiteName] = i
			rows = append(rows, &suiteRow{name: res.SuiteName})
		}
		row := rows[i]
		row.results = append(row.results, res)
		row.duration += res.Duration
		switch res.Status {
		case types.TestStatusPass:
			row.passed++
		case types.TestStatusSkip:
			row.skipped++
		default:
			row.failed++
		}
	}
	return rows
}

// printResultsTable prints the results of the suite run to out.
func printResultsTable(out io.Writer, result *RunResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("Suite Run Results (%s)", formatDuration(result.Duration)))

	// Configure columns
	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Output",
	})

	// Set column configurations for better readability
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Output", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, suite := range resultsBySuite(result.Report.Results()) {
		// Suite row - show test counts but no "1" in Tests column
		t.AppendRow(table.Row{
			"Suite",
			suite.name,
			formatDuration(suite.duration),
			"-", // Don't count the suite as a test
			suite.passed,
			suite.failed,
			suite.skipped,
			getResultString(suite.status()),
			suite.outputFile(),
		})

		// Print the test cases in this suite
		for i, res := range suite.results {
			prefix := "├──"
			if i == len(suite.results)-1 {
				prefix = "└──"
			}
			t.AppendRow(table.Row{
				"Test",
				fmt.Sprintf("%s %s", prefix, res.CaseName),
				formatDuration(res.Duration),
				"1", // Count actual test
				boolToInt(res.Status == types.TestStatusPass),
				boolToInt(res.Status == types.TestStatusFail),
				boolToInt(res.Status == types.TestStatusSkip),
				getResultString(res.Status),
				"",
			})
		}

		t.AppendSeparator()
	}

	// Update the table style setting based on the run status
	overall := result.Report.OverallStatus()
	if result.Interrupted || overall == types.TestStatusFail {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else if overall == types.TestStatusSkip {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	// Add summary footer
	stats := result.Report.Stats()
	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Duration),
		stats.Total,
		stats.Passed,
		stats.Failed,
		stats.Skipped,
		result.Status(),
		"",
	})
	t.Render()
}
