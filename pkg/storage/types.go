// Package storage provides the graph store feeding VanirDB's vectorized
// execution engine.
//
// The storage layer owns the labeled property graph (nodes, edges, label
// indexes) and hands batches to the query engine through NodeScanner, which
// materializes node properties into columnar vector.DataChunk batches. The
// execution core never reads from disk itself; this package is the scan
// boundary it sits behind.
//
// Two Engine implementations are provided:
//   - MemoryEngine: in-memory, for tests and small datasets
//   - BadgerEngine: persistent, on BadgerDB
//
// Both assign every node a dense row id. Label membership is tracked with
// roaring bitmaps over those rows, which is also what a label scan hands to
// the vectorizer to build its selection.
//
// Example Usage:
//
//	engine := storage.NewMemoryEngine()
//	defer engine.Close()
//
//	engine.CreateNode(&storage.Node{
//		ID:     "user-123",
//		Labels: []string{"User"},
//		Properties: map[string]any{"name": "Alice", "age": int64(30)},
//	})
//
//	scanner, _ := storage.NewNodeScanner(engine, "User", []storage.ColumnSpec{
//		{Property: "age", Type: types.Int64()},
//	}, vector.DefaultCapacity)
//	for {
//		chunk, err := scanner.Next()
//		if err != nil || chunk == nil {
//			break
//		}
//		// evaluate expressions over chunk
//	}
package storage

import (
	"errors"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidEdge   = errors.New("invalid edge: start or end node not found")
	ErrStorageClosed = errors.New("storage closed")
)

// NodeID is a strongly-typed unique identifier for graph nodes.
type NodeID string

// EdgeID is a strongly-typed unique identifier for graph edges.
type EdgeID string

// Node is a vertex of the labeled property graph.
type Node struct {
	ID         NodeID         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Edge is a typed, directed relationship between two nodes.
type Edge struct {
	ID         EdgeID         `json:"id"`
	StartNode  NodeID         `json:"startNode"`
	EndNode    NodeID         `json:"endNode"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Engine is the storage interface the scan layer builds batches from.
//
// Every live node occupies one dense row; rows of deleted nodes are never
// reused within one open engine, so a row bitmap taken at scan start stays
// valid for the duration of the scan. All implementations are safe for
// concurrent use.
type Engine interface {
	// CreateNode stores a new node and assigns it a row.
	CreateNode(node *Node) error
	// GetNode returns the node with the given id.
	GetNode(id NodeID) (*Node, error)
	// DeleteNode removes a node and its label index entries.
	DeleteNode(id NodeID) error

	// CreateEdge stores a new edge; both endpoints must exist.
	CreateEdge(edge *Edge) error
	// GetEdge returns the edge with the given id.
	GetEdge(id EdgeID) (*Edge, error)
	// DeleteEdge removes an edge.
	DeleteEdge(id EdgeID) error

	// NodeRows returns the row bitmap of live nodes carrying the label,
	// or of all live nodes when label is empty. The returned bitmap is
	// owned by the caller.
	NodeRows(label string) (*roaring.Bitmap, error)
	// NodeAt returns the node stored at a row.
	NodeAt(row uint32) (*Node, error)

	// NodeCount and EdgeCount return live entity counts.
	NodeCount() (int, error)
	EdgeCount() (int, error)

	// Close releases the engine. Further calls fail with ErrStorageClosed.
	Close() error
}
