// Package exitcodes defines the standard exit codes used by suite-runner.
package exitcodes

// Exit code constants used by the application to indicate
// various states when it exits:
//
// * Success (0): Used when every test case passes
// * TestFailure (1): Used when one or more test cases fail
// * RuntimeErr (2): Used for runtime errors such as panics, bad configuration or other failures
const (
	Success     = 0 // All test cases pass
	TestFailure = 1 // Test case failures
	RuntimeErr  = 2 // Runtime errors or bad configuration
)
