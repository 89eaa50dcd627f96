// Package spec reads the expectation header embedded at the top of a test
// source file and turns it into an ordered list of sub-case expectations.
//
// Two header forms are recognized, selected by the bytes at offset 0:
//
//	//@execute main(0)=1, main(1)=!BoundsCheckException
//
// declares one expectation per '=' on the first line, and
//
//	//@stacktrace
//	...
//	//@stacktrace=!NullCheckException
//	//@stacktrace
//	//	in main() [test.v3 @ 4:5]
//
// declares one expectation per marker after the leading one: a marker followed by
// '=' carries a value, a marker followed by a newline carries the verbatim text up
// to the next marker (or end of file).
//
// Expectation i is exercised by running the subject binary with argc == i+1.
package spec
