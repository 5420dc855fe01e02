// Package resolve implements the mixed-value resolution engine shared by
// batch, sequence, page and streamread: it normalizes a plain value, a
// *promise.Deferred, a nullary producer function, or a [Coroutine] into a
// single resolved outcome, tracking whether settlement happened
// synchronously or required waiting on a deferred.
//
// This is deliberately internal: callers of go-spex interact with batch,
// sequence, page and streamread, never with the resolver directly, mirroring
// the spec's framing of the resolver as "the hard part" rather than a public
// surface of its own.
package resolve
