// Package ui holds the console glyphs and tree-drawing constants shared by
// the progress lines, the run summary and the results table.
package ui

import "github.com/ethereum-optimism/infra/suite-runner/types"

// Tree hierarchy symbols using box drawing characters
const (
	TreeBranch     = "├── " // branch connector
	TreeLastBranch = "└── " // last branch connector
	TreeContinue   = "│   " // vertical line, parent has more siblings
	TreeIndent     = "    " // parent was last, no vertical line needed
)

// StatusSymbol returns the glyph-prefixed string for a test status
func StatusSymbol(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}
