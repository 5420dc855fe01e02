// Package streamread drains a readable stream in chunks, invoking a
// receiver callback for each batch of values observed and honoring the
// receiver's returned mixed value as back-pressure: no further reading
// happens until it settles.
//
// Grounded on longpoll.Channel's drain loop (select over context
// cancellation, channel receive, and a non-blocking default to collect
// whatever is immediately buffered), the closest real analog in the corpus
// to "drain a readable stream in chunks via a receiver callback honoring
// async back-pressure."
package streamread
