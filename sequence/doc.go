// Package sequence implements the linked/detached producer-pull loop:
// repeatedly call a source callback for index 0, 1, 2, ... feeding each
// resolved value to an optional sink, until the source yields nil or a
// configured limit is reached.
//
// It is grounded on the teacher's longpoll.Channel loop shape, adapted from
// "drain a channel" to "repeatedly call a producer."
package sequence
