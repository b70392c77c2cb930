package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/suite-runner/types"
	"github.com/ethereum-optimism/infra/suite-runner/ui"
)

// suiteGroup collects one suite's results in reporting order.
type suiteGroup struct {
	name    string
	results []types.CaseResult
}

func (r *TestReport) groupBySuite() []suiteGroup {
	var groups []suiteGroup
	index := make(map[string]int)
	for _, res := range r.results {
		i, ok := index[res.SuiteName]
		if !ok {
			i = len(groups)
			index[res.SuiteName] = i
			groups = append(groups, suiteGroup{name: res.SuiteName})
		}
		groups[i].results = append(groups[i].results, res)
	}
	return groups
}

func (g suiteGroup) status() types.TestStatus {
	status := types.TestStatusPass
	for _, res := range g.results {
		switch res.Status {
		case types.TestStatusPass:
		case types.TestStatusSkip:
			if status == types.TestStatusPass {
				status = types.TestStatusSkip
			}
		default:
			return types.TestStatusFail
		}
	}
	return status
}

func (g suiteGroup) passed() int {
	n := 0
	for _, res := range g.results {
		if res.Status == types.TestStatusPass {
			n++
		}
	}
	return n
}

func (g suiteGroup) duration() time.Duration {
	var d time.Duration
	for _, res := range g.results {
		d += res.Duration
	}
	return d
}

// Summary renders the run's plain-text summary, grouped by suite in
// reporting order.
func (r *TestReport) Summary(runID string, elapsed time.Duration, interrupted bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Suite run %s\n", runID)
	status := r.OverallStatus().String()
	if interrupted {
		status = "interrupted"
	}
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Duration: %s\n\n", formatDuration(elapsed))

	groups := r.groupBySuite()
	for gi, g := range groups {
		prefix, childPrefix := ui.TreeBranch, ui.TreeContinue
		if gi == len(groups)-1 {
			prefix, childPrefix = ui.TreeLastBranch, ui.TreeIndent
		}
		fmt.Fprintf(&b, "%s%s %s (%d/%d passed, %s)\n",
			prefix, ui.StatusSymbol(g.status()), g.name,
			g.passed(), len(g.results), formatDuration(g.duration()))
		for ci, res := range g.results {
			casePrefix := ui.TreeBranch
			if ci == len(g.results)-1 {
				casePrefix = ui.TreeLastBranch
			}
			fmt.Fprintf(&b, "%s%s%s %s (%s)\n",
				childPrefix, casePrefix, ui.StatusSymbol(res.Status),
				res.TestName(), formatDuration(res.Duration))
		}
	}

	fmt.Fprintf(&b, "\n%d/%d test cases passed in %d suites\n",
		r.stats.Passed, r.stats.Total, len(groups))
	if interrupted {
		b.WriteString("Run interrupted; suites in flight were not reported\n")
	}
	return b.String()
}
