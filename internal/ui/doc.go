// Package ui implements the terminal playlist editor using bubbletea's Elm architecture.
//
// The editor has three views:
//  1. [PlaylistListView] : choose one of your playlists
//  2. [EditorView] : reorder, add, and remove songs with undo and redo
//  3. [PickerView] : pick a catalog song to insert below the cursor
//
// Every edit goes through a [transactions.Session]; nothing reaches the server until s
// saves the whole song list in one update. Leaving with unsaved edits asks for a second esc.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving
// results of asynchronous calls through the Msg union type.
//
// Keys: j/k move the cursor, K/J move the selected song, d removes, a adds, u undoes, r redoes,
// s saves, esc closes, q quits.
package ui
