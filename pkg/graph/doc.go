// Package graph provides serialization types for storyboards and layouts.
//
// This package defines the canonical wire format for storyboard data, used
// for input files, API requests and responses, and the layout cache.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory
// board and external formats:
//
//   - [Storyboard], [Layout]: Serialization types (this package)
//   - pkg/story.Board: In-memory store the layout engine works on
//   - pkg/layout.Result: Bookkeeping returned by a layout pass
//
// Use [FromBoard]/[ToBoard] to convert between a board and its wire form, and
// [NewLayout] to export computed positions.
//
// # Formats
//
// Every document can be encoded as JSON or YAML:
//
//	graph.FormatJSON   // "json"
//	graph.FormatYAML   // "yaml"
//
// File helpers pick the format from the extension (.yaml/.yml → YAML).
//
// # Storyboard Serialization
//
//	{
//	  "name": "pilot",
//	  "nodes": [
//	    {"id": "intro", "type": "story_frame"},
//	    {"id": "choice", "type": "exploration"},
//	    {"id": "left", "type": "branch_start"}
//	  ],
//	  "branches": [
//	    {"id": "main", "nodes": ["intro", "choice"]},
//	    {"id": "left-path", "parent": "main", "origin": "choice", "nodes": ["left"]}
//	  ]
//	}
//
// Branch order in the file is free; parents are created before children.
// Node order inside a branch is the order of its "nodes" list.
//
// Common operations:
//
//	b, name, _ := graph.ReadStoryboardFile("board.yaml")   // File → Board
//	graph.WriteStoryboardFile(b, name, "board.json")       // Board → File
//	data, _ := graph.MarshalStoryboard(b, name, "yaml")    // Board → []byte
//
// # Layout Serialization
//
//	l := graph.NewLayout(b, name, cfg, res)
//	data, _ := graph.MarshalLayout(l, graph.FormatJSON)
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
