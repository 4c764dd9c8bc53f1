// In-memory storage engine.

package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// normalizeLabel lowercases labels for case-insensitive matching, consistent
// with the function registry's name handling.
func normalizeLabel(label string) string {
	return strings.ToLower(label)
}

// MemoryEngine is a thread-safe in-memory Engine.
//
// Use it for unit tests and datasets that fit in RAM. Nodes live in a dense
// row slice; label membership and liveness are roaring bitmaps over rows, so
// a label scan is a bitmap intersection away.
type MemoryEngine struct {
	mu sync.RWMutex

	rows       []*Node // row id -> node, nil once deleted
	rowByID    map[NodeID]uint32
	liveRows   *roaring.Bitmap
	labelIndex map[string]*roaring.Bitmap

	edges map[EdgeID]*Edge

	closed bool
}

// NewMemoryEngine returns an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		rowByID:    make(map[NodeID]uint32),
		liveRows:   roaring.New(),
		labelIndex: make(map[string]*roaring.Bitmap),
		edges:      make(map[EdgeID]*Edge),
	}
}

// CreateNode stores a node at the next free row and indexes its labels.
func (m *MemoryEngine) CreateNode(node *Node) error {
	if node == nil || node.ID == "" {
		return fmt.Errorf("create node: %w", ErrInvalidID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	if _, exists := m.rowByID[node.ID]; exists {
		return fmt.Errorf("create node %s: %w", node.ID, ErrAlreadyExists)
	}

	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}
	node.UpdatedAt = node.CreatedAt

	row := uint32(len(m.rows))
	m.rows = append(m.rows, node)
	m.rowByID[node.ID] = row
	m.liveRows.Add(row)
	for _, label := range node.Labels {
		key := normalizeLabel(label)
		bm, ok := m.labelIndex[key]
		if !ok {
			bm = roaring.New()
			m.labelIndex[key] = bm
		}
		bm.Add(row)
	}
	return nil
}

// GetNode returns the node with the given id.
func (m *MemoryEngine) GetNode(id NodeID) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	row, ok := m.rowByID[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return m.rows[row], nil
}

// DeleteNode removes a node. Its row is tombstoned, never reused.
func (m *MemoryEngine) DeleteNode(id NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	row, ok := m.rowByID[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	node := m.rows[row]
	for _, label := range node.Labels {
		if bm, ok := m.labelIndex[normalizeLabel(label)]; ok {
			bm.Remove(row)
		}
	}
	m.liveRows.Remove(row)
	m.rows[row] = nil
	delete(m.rowByID, id)
	return nil
}

// CreateEdge stores an edge after checking both endpoints exist.
func (m *MemoryEngine) CreateEdge(edge *Edge) error {
	if edge == nil || edge.ID == "" {
		return fmt.Errorf("create edge: %w", ErrInvalidID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	if _, exists := m.edges[edge.ID]; exists {
		return fmt.Errorf("create edge %s: %w", edge.ID, ErrAlreadyExists)
	}
	if _, ok := m.rowByID[edge.StartNode]; !ok {
		return fmt.Errorf("create edge %s: %w", edge.ID, ErrInvalidEdge)
	}
	if _, ok := m.rowByID[edge.EndNode]; !ok {
		return fmt.Errorf("create edge %s: %w", edge.ID, ErrInvalidEdge)
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}
	m.edges[edge.ID] = edge
	return nil
}

// GetEdge returns the edge with the given id.
func (m *MemoryEngine) GetEdge(id EdgeID) (*Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	edge, ok := m.edges[id]
	if !ok {
		return nil, fmt.Errorf("edge %s: %w", id, ErrNotFound)
	}
	return edge, nil
}

// DeleteEdge removes an edge.
func (m *MemoryEngine) DeleteEdge(id EdgeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStorageClosed
	}
	if _, ok := m.edges[id]; !ok {
		return fmt.Errorf("edge %s: %w", id, ErrNotFound)
	}
	delete(m.edges, id)
	return nil
}

// NodeRows returns a copy of the live-row bitmap, intersected with the
// label index when a label is given.
func (m *MemoryEngine) NodeRows(label string) (*roaring.Bitmap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	if label == "" {
		return m.liveRows.Clone(), nil
	}
	bm, ok := m.labelIndex[normalizeLabel(label)]
	if !ok {
		return roaring.New(), nil
	}
	return roaring.And(bm, m.liveRows), nil
}

// NodeAt returns the node at a row.
func (m *MemoryEngine) NodeAt(row uint32) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStorageClosed
	}
	if int(row) >= len(m.rows) || m.rows[row] == nil {
		return nil, fmt.Errorf("row %d: %w", row, ErrNotFound)
	}
	return m.rows[row], nil
}

// NodeCount returns the number of live nodes.
func (m *MemoryEngine) NodeCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrStorageClosed
	}
	return int(m.liveRows.GetCardinality()), nil
}

// EdgeCount returns the number of live edges.
func (m *MemoryEngine) EdgeCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrStorageClosed
	}
	return len(m.edges), nil
}

// Close marks the engine closed.
func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
