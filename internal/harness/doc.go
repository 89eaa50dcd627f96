// Package harness drives a batch of compiled tests: for each test source it
// reads the header, runs every sub-case under the watchdog, classifies the
// outcomes, and reports progress over the line protocol.
//
// Tests and their sub-cases run strictly one at a time. The only other
// goroutine is the watchdog, which lives for the whole batch.
package harness
