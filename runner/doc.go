// Package runner executes registered test suites across a bounded pool of
// workers.
//
// The main components are:
//   - SuiteScheduler: Thread-safe dispenser of suites from a fixed ordered
//     list, with completion tracking and a bounded-interval wait
//   - Console: Routes suite output by worker identity so concurrent suites
//     never interleave into each other's log files, with a Tee for
//     simultaneous console and file output
//   - Suite executor: Runs one suite end-to-end with failure containment,
//     producing one result per declared test case
//   - TestRunner: Owns the worker pool, drives workers through the
//     scheduler and serializes reporting
//
// Failures inside a suite degrade to failed results and the run continues;
// cancelling the run's context is the only way to stop it early, and stops
// are cooperative at suite granularity.
package runner
