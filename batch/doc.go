// Package batch implements the all-settled, order-preserving aggregation
// combinator: every element of an ordered collection of mixed values is
// driven to settlement concurrently, and a failure of one element never
// aborts its peers.
//
// It is the Go rendition of the teacher's JS.AllSettled/JS.All combinators,
// generalized from a fixed slice of promises to the broader "mixed value"
// protocol implemented by package resolve.
package batch
