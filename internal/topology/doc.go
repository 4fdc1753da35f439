// Package topology derives the observer's network graph from broadcast
// snapshots.
//
// The graph is a forest rooted at server-1. Node identity is decided
// exactly once, when a device first appears: position by rejection
// sampling against a minimum separation, quality by random draw, edges
// by the assignment policy in AssignEdges. Every later snapshot only
// refreshes status and reading, so the layout never jumps around under
// the observer's cursor.
package topology
