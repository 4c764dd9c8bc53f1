// Persistent storage engine on BadgerDB.

package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for BadgerDB storage organization. Single-byte prefixes keep
// keys short and prefix scans cheap.
const (
	prefixNode       = byte(0x01) // 0x01 + nodeID            -> JSON(nodeRecord)
	prefixEdge       = byte(0x02) // 0x02 + edgeID            -> JSON(Edge)
	prefixLabelIndex = byte(0x03) // 0x03 + label + 0x00 + row -> empty
	prefixRowIndex   = byte(0x04) // 0x04 + row (BE uint32)    -> nodeID
)

// nodeRecord is the stored form of a node: the node plus its assigned row.
type nodeRecord struct {
	Node
	Row uint32 `json:"row"`
}

// BadgerEngine is a persistent Engine on BadgerDB.
//
// Rows are assigned from a monotonically increasing counter recovered from
// the row index at open, so deleted rows are never reused and bitmaps taken
// by in-flight scans stay valid.
type BadgerEngine struct {
	db      *badger.DB
	mu      sync.Mutex // guards nextRow and close
	nextRow uint32
	closed  bool
}

// BadgerOptions configures the BadgerDB engine.
type BadgerOptions struct {
	// DataDir is the directory for data files. Required unless InMemory.
	DataDir string
	// InMemory runs BadgerDB without persistence. Useful for tests.
	InMemory bool
	// SyncWrites forces fsync after each write. Slower, more durable.
	SyncWrites bool
}

// NewBadgerEngine opens (or creates) a persistent store in dataDir.
func NewBadgerEngine(dataDir string) (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{DataDir: dataDir})
}

// NewBadgerEngineInMemory opens a non-persistent store for testing.
func NewBadgerEngineInMemory() (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{InMemory: true})
}

// NewBadgerEngineWithOptions opens a store with explicit options.
func NewBadgerEngineWithOptions(opts BadgerOptions) (*BadgerEngine, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(nil)
	if opts.InMemory {
		badgerOpts.Dir = ""
		badgerOpts.ValueDir = ""
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}

	engine := &BadgerEngine{db: db}
	if err := engine.recoverNextRow(); err != nil {
		db.Close()
		return nil, err
	}
	return engine, nil
}

func (b *BadgerEngine) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// recoverNextRow scans the row index for the highest assigned row.
func (b *BadgerEngine) recoverNextRow() error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse-seek to the last row index key.
		seek := append([]byte{prefixRowIndex}, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		it.Seek(seek)
		if it.ValidForPrefix([]byte{prefixRowIndex}) {
			key := it.Item().Key()
			b.nextRow = binary.BigEndian.Uint32(key[1:5]) + 1
		}
		return nil
	})
}

func nodeKey(id NodeID) []byte {
	return append([]byte{prefixNode}, []byte(id)...)
}

func edgeKey(id EdgeID) []byte {
	return append([]byte{prefixEdge}, []byte(id)...)
}

func rowIndexKey(row uint32) []byte {
	key := make([]byte, 5)
	key[0] = prefixRowIndex
	binary.BigEndian.PutUint32(key[1:], row)
	return key
}

// labelIndexKey: prefix + label (lowercase) + 0x00 + row (BE uint32).
func labelIndexKey(label string, row uint32) []byte {
	norm := normalizeLabel(label)
	key := make([]byte, 0, 1+len(norm)+1+4)
	key = append(key, prefixLabelIndex)
	key = append(key, norm...)
	key = append(key, 0x00)
	var rowBytes [4]byte
	binary.BigEndian.PutUint32(rowBytes[:], row)
	return append(key, rowBytes[:]...)
}

func labelIndexPrefix(label string) []byte {
	norm := normalizeLabel(label)
	key := make([]byte, 0, 1+len(norm)+1)
	key = append(key, prefixLabelIndex)
	key = append(key, norm...)
	return append(key, 0x00)
}

// CreateNode stores the node, its row index entry and label index entries in
// one transaction.
func (b *BadgerEngine) CreateNode(node *Node) error {
	if node == nil || node.ID == "" {
		return fmt.Errorf("create node: %w", ErrInvalidID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrStorageClosed
	}

	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}
	node.UpdatedAt = node.CreatedAt
	row := b.nextRow

	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(nodeKey(node.ID)); err == nil {
			return fmt.Errorf("create node %s: %w", node.ID, ErrAlreadyExists)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := json.Marshal(nodeRecord{Node: *node, Row: row})
		if err != nil {
			return fmt.Errorf("encoding node %s: %w", node.ID, err)
		}
		if err := txn.Set(nodeKey(node.ID), data); err != nil {
			return err
		}
		if err := txn.Set(rowIndexKey(row), []byte(node.ID)); err != nil {
			return err
		}
		for _, label := range node.Labels {
			if err := txn.Set(labelIndexKey(label, row), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.nextRow = row + 1
	return nil
}

// GetNode returns the node with the given id.
func (b *BadgerEngine) GetNode(id NodeID) (*Node, error) {
	if b.isClosed() {
		return nil, ErrStorageClosed
	}
	rec, err := b.getRecord(id)
	if err != nil {
		return nil, err
	}
	return &rec.Node, nil
}

func (b *BadgerEngine) getRecord(id NodeID) (*nodeRecord, error) {
	var rec nodeRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("node %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteNode removes the node and all its index entries.
func (b *BadgerEngine) DeleteNode(id NodeID) error {
	if b.isClosed() {
		return ErrStorageClosed
	}
	rec, err := b.getRecord(id)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(nodeKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(rowIndexKey(rec.Row)); err != nil {
			return err
		}
		for _, label := range rec.Labels {
			if err := txn.Delete(labelIndexKey(label, rec.Row)); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateEdge stores an edge after checking both endpoints exist.
func (b *BadgerEngine) CreateEdge(edge *Edge) error {
	if edge == nil || edge.ID == "" {
		return fmt.Errorf("create edge: %w", ErrInvalidID)
	}
	if b.isClosed() {
		return ErrStorageClosed
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(edgeKey(edge.ID)); err == nil {
			return fmt.Errorf("create edge %s: %w", edge.ID, ErrAlreadyExists)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		for _, endpoint := range []NodeID{edge.StartNode, edge.EndNode} {
			if _, err := txn.Get(nodeKey(endpoint)); err == badger.ErrKeyNotFound {
				return fmt.Errorf("create edge %s: %w", edge.ID, ErrInvalidEdge)
			} else if err != nil {
				return err
			}
		}
		data, err := json.Marshal(edge)
		if err != nil {
			return fmt.Errorf("encoding edge %s: %w", edge.ID, err)
		}
		return txn.Set(edgeKey(edge.ID), data)
	})
}

// GetEdge returns the edge with the given id.
func (b *BadgerEngine) GetEdge(id EdgeID) (*Edge, error) {
	if b.isClosed() {
		return nil, ErrStorageClosed
	}
	var edge Edge
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(edgeKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("edge %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &edge)
		})
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// DeleteEdge removes an edge.
func (b *BadgerEngine) DeleteEdge(id EdgeID) error {
	if b.isClosed() {
		return ErrStorageClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(edgeKey(id)); err == badger.ErrKeyNotFound {
			return fmt.Errorf("edge %s: %w", id, ErrNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(edgeKey(id))
	})
}

// NodeRows builds the row bitmap from the label index (or the row index for
// an empty label).
func (b *BadgerEngine) NodeRows(label string) (*roaring.Bitmap, error) {
	if b.isClosed() {
		return nil, ErrStorageClosed
	}
	bm := roaring.New()
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		if label == "" {
			prefix := []byte{prefixRowIndex}
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().Key()
				bm.Add(binary.BigEndian.Uint32(key[1:5]))
			}
			return nil
		}
		prefix := labelIndexPrefix(label)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			bm.Add(binary.BigEndian.Uint32(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// NodeAt resolves a row through the row index.
func (b *BadgerEngine) NodeAt(row uint32) (*Node, error) {
	if b.isClosed() {
		return nil, ErrStorageClosed
	}
	var id NodeID
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rowIndexKey(row))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("row %d: %w", row, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = NodeID(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return b.GetNode(id)
}

// NodeCount counts live nodes via the row index.
func (b *BadgerEngine) NodeCount() (int, error) {
	return b.countPrefix([]byte{prefixRowIndex})
}

// EdgeCount counts live edges.
func (b *BadgerEngine) EdgeCount() (int, error) {
	return b.countPrefix([]byte{prefixEdge})
}

func (b *BadgerEngine) countPrefix(prefix []byte) (int, error) {
	if b.isClosed() {
		return 0, ErrStorageClosed
	}
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close releases the underlying BadgerDB.
func (b *BadgerEngine) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
