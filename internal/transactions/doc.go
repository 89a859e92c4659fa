// Package transactions implements reversible edits of a playlist's song list.
//
// # Commands
//
// A [Command] is one of three variants:
//
//   - [Move]: relocate the song at From to To (splice, not swap)
//   - [Add]: insert a song id at an index in [0, n]
//   - [Remove]: delete the song at an index, remembering it for undo
//
// Constructors check indices against the current list length and return
// [shared.ErrInvalidCommand] instead of clamping. Every apply renumbers the
// list so orders are exactly 0..n-1.
//
// # Stack
//
// [Stack] owns the song list and a linear history with a cursor. Undo and Redo
// with nothing to do return [shared.ErrNoOp]. Opposite adjacent commands are
// never merged.
//
// # Session
//
// [Session] is the editor's state container: it holds a private copy of the
// open playlist, its stack, and a [Flusher] that writes the final song list
// with a single update. Opening another playlist or closing the session drops
// the history.
package transactions
