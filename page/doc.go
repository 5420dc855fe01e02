// Package page implements the repeated pull-batch-sink driver: on each
// iteration a source callback resolves to a page (a slice of mixed values,
// or nil to terminate), the page is driven through package batch's
// all-settled aggregation, and the batched outcome is optionally forwarded
// to a sink.
//
// Grounded on the same longpoll/teacher sources as package sequence, reusing
// batch.Run for the per-page aggregation exactly as the source spec requires
// the page driver to compose on top of the batch driver.
package page
