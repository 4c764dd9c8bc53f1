// Package vanirdb provides the main API for embedded VanirDB usage.
//
// VanirDB is an embedded property-graph database with a vectorized execution
// core. A DB ties together the three layers below it:
//   - storage.Engine: the node/edge store with dense rows and label bitmaps
//   - function.Registry: built-in and user-defined scalar functions
//   - vector: the columnar batches expressions execute over
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	db, err := vanirdb.Open(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	db.CreateNode(ctx, &storage.Node{
//		ID:         "user-1",
//		Labels:     []string{"User"},
//		Properties: map[string]any{"age": int64(34)},
//	})
//
//	// Register a UDF; parameter types are inferred from the signature.
//	db.RegisterScalar("add5", func(x int32) int32 { return x + 5 })
//
//	// Scan a label into columnar batches and evaluate over them.
//	scanner, _ := db.ScanNodes("User", []storage.ColumnSpec{
//		{Property: "age", Type: types.Int64()},
//	})
//	for {
//		chunk, err := scanner.Next()
//		if err != nil || chunk == nil {
//			break
//		}
//		// chunk.Column(0) is the age column
//	}
package vanirdb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/orneryd/vanirdb/pkg/config"
	"github.com/orneryd/vanirdb/pkg/function"
	"github.com/orneryd/vanirdb/pkg/storage"
	"github.com/orneryd/vanirdb/pkg/types"
	"github.com/orneryd/vanirdb/pkg/vector"
)

// Errors returned by DB operations.
var (
	ErrClosed = errors.New("database is closed")
)

// DB is an open VanirDB instance. It owns a storage engine and a function
// registry; both are released by Close. All methods are safe for concurrent
// use.
type DB struct {
	mu       sync.RWMutex
	engine   storage.Engine
	registry *function.Registry
	cfg      *config.Config
	plugins  []*LoadedPlugin
	closed   bool
}

// Stats is a point-in-time snapshot of database counters.
type Stats struct {
	Nodes     int
	Edges     int
	Functions int
	Plugins   int
}

// Open creates a DB from the given configuration. A nil config uses
// defaults. The function registry starts seeded with the built-in catalog;
// plugins from cfg.Plugins.Dir are loaded on top.
func Open(cfg *config.Config) (*DB, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	vector.DebugTypeChecks = cfg.Execution.DebugTypeChecks

	var engine storage.Engine
	var err error
	if cfg.Storage.InMemory {
		engine = storage.NewMemoryEngine()
	} else {
		engine, err = storage.NewBadgerEngineWithOptions(storage.BadgerOptions{
			DataDir:    cfg.Storage.DataDir,
			SyncWrites: cfg.Storage.SyncWrites,
		})
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
	}

	db := &DB{
		engine:   engine,
		registry: function.NewRegistry(),
		cfg:      cfg,
	}

	if cfg.Plugins.Dir != "" {
		plugins, err := db.loadPluginsFromDir(cfg.Plugins.Dir)
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		db.plugins = plugins
	}

	return db, nil
}

// Close releases the storage engine. Further calls on the DB fail with
// ErrClosed; Close itself is idempotent.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	if err := db.engine.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (db *DB) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return nil
}

// CreateNode stores a new node.
func (db *DB) CreateNode(ctx context.Context, node *storage.Node) error {
	if err := db.checkOpen(ctx); err != nil {
		return err
	}
	return db.engine.CreateNode(node)
}

// GetNode returns the node with the given id.
func (db *DB) GetNode(ctx context.Context, id storage.NodeID) (*storage.Node, error) {
	if err := db.checkOpen(ctx); err != nil {
		return nil, err
	}
	return db.engine.GetNode(id)
}

// DeleteNode removes a node.
func (db *DB) DeleteNode(ctx context.Context, id storage.NodeID) error {
	if err := db.checkOpen(ctx); err != nil {
		return err
	}
	return db.engine.DeleteNode(id)
}

// CreateEdge stores a new edge between existing nodes.
func (db *DB) CreateEdge(ctx context.Context, edge *storage.Edge) error {
	if err := db.checkOpen(ctx); err != nil {
		return err
	}
	return db.engine.CreateEdge(edge)
}

// GetEdge returns the edge with the given id.
func (db *DB) GetEdge(ctx context.Context, id storage.EdgeID) (*storage.Edge, error) {
	if err := db.checkOpen(ctx); err != nil {
		return nil, err
	}
	return db.engine.GetEdge(id)
}

// DeleteEdge removes an edge.
func (db *DB) DeleteEdge(ctx context.Context, id storage.EdgeID) error {
	if err := db.checkOpen(ctx); err != nil {
		return err
	}
	return db.engine.DeleteEdge(id)
}

// ScanNodes opens a columnar scan over the nodes carrying a label (all nodes
// for an empty label). Batch size comes from the execution config.
func (db *DB) ScanNodes(label string, columns []storage.ColumnSpec) (*storage.NodeScanner, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	return storage.NewNodeScanner(db.engine, label, columns, db.cfg.Execution.VectorCapacity)
}

// RegisterScalar registers a scalar UDF under the given name, inferring
// parameter and return types from the callable's signature. Registration
// fails if the name is already taken.
func (db *DB) RegisterScalar(name string, fn any) error {
	return db.registry.RegisterScalar(name, fn)
}

// RegisterScalarTyped registers a scalar UDF with explicitly declared
// logical types, for types the inference rules never pick (DATE, TIMESTAMP).
func (db *DB) RegisterScalarTyped(name string, params []types.LogicalType, ret types.LogicalType, fn any) error {
	return db.registry.RegisterScalarTyped(name, params, ret, fn)
}

// RegisterVectorized registers a UDF that operates on whole vectors and
// matches any argument types.
func (db *DB) RegisterVectorized(name string, fn function.VectorizedFunc) error {
	return db.registry.RegisterVectorized(name, fn)
}

// RegisterVectorizedTyped registers a vector-at-a-time UDF with declared
// logical types.
func (db *DB) RegisterVectorizedTyped(name string, params []types.LogicalType, ret types.LogicalType, fn function.VectorizedFunc) error {
	return db.registry.RegisterVectorizedTyped(name, params, ret, fn)
}

// Registry exposes the function registry for resolution and execution.
func (db *DB) Registry() *function.Registry {
	return db.registry
}

// Plugins returns information about the plugins loaded at open.
func (db *DB) Plugins() []*LoadedPlugin {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.plugins
}

// Stats returns current database counters. Count errors are logged, not
// returned; a stats call never fails once the DB is open.
func (db *DB) Stats() Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return Stats{}
	}
	nodes, err := db.engine.NodeCount()
	if err != nil {
		log.Printf("vanirdb: node count: %v", err)
	}
	edges, err := db.engine.EdgeCount()
	if err != nil {
		log.Printf("vanirdb: edge count: %v", err)
	}
	return Stats{
		Nodes:     nodes,
		Edges:     edges,
		Functions: len(db.registry.Names()),
		Plugins:   len(db.plugins),
	}
}
