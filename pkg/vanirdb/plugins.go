// Plugin loading for VanirDB.
//
// Plugins are Go plugin .so files exporting a "Plugin" symbol whose value
// has Name() string, Version() string and Functions() map[string]any
// methods. Each function is registered as a scalar UDF under
// "<plugin>.<name>" with types inferred from its signature; plugins that
// need DATE or TIMESTAMP parameters register through the DB API instead.
// Plugins are built separately from the host binary, so everything goes
// through reflection rather than a shared interface type.

package vanirdb

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"plugin"
	"reflect"
)

// LoadedPlugin describes one successfully loaded plugin.
type LoadedPlugin struct {
	Name      string
	Version   string
	Path      string
	Functions []string
}

// loadPluginsFromDir scans a directory for .so files and registers their
// functions. A missing directory is fine; a present but unloadable plugin
// is skipped with a log line rather than failing the open.
func (db *DB) loadPluginsFromDir(dir string) ([]*LoadedPlugin, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking plugins directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("plugins path is not a directory: %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.so"))
	if err != nil {
		return nil, fmt.Errorf("scanning plugins directory: %w", err)
	}

	var loaded []*LoadedPlugin
	for _, path := range matches {
		p, err := db.loadPlugin(path)
		if err != nil {
			log.Printf("vanirdb: skipping plugin %s: %v", filepath.Base(path), err)
			continue
		}
		loaded = append(loaded, p)
		log.Printf("vanirdb: loaded plugin %s v%s (%d functions)",
			p.Name, p.Version, len(p.Functions))
	}
	return loaded, nil
}

// loadPlugin loads one .so file and registers its functions.
func (db *DB) loadPlugin(path string) (*LoadedPlugin, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	sym, err := p.Lookup("Plugin")
	if err != nil {
		return nil, fmt.Errorf("no Plugin symbol")
	}

	val := reflect.ValueOf(sym)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	name, err := callStringMethod(val, "Name")
	if err != nil {
		return nil, err
	}
	version, err := callStringMethod(val, "Version")
	if err != nil {
		return nil, err
	}

	funcsMethod := val.MethodByName("Functions")
	if !funcsMethod.IsValid() {
		return nil, fmt.Errorf("no Functions() method")
	}
	results := funcsMethod.Call(nil)
	if len(results) != 1 || results[0].Kind() != reflect.Map {
		return nil, fmt.Errorf("Functions() must return a map")
	}

	loaded := &LoadedPlugin{Name: name, Version: version, Path: path}
	iter := results[0].MapRange()
	for iter.Next() {
		fnName := iter.Key().String()
		handler := iter.Value().Interface()
		qualified := fmt.Sprintf("%s.%s", name, fnName)
		if err := db.registry.RegisterScalar(qualified, handler); err != nil {
			log.Printf("vanirdb: plugin %s: skipping %s: %v", name, qualified, err)
			continue
		}
		loaded.Functions = append(loaded.Functions, qualified)
	}
	return loaded, nil
}

func callStringMethod(val reflect.Value, name string) (string, error) {
	method := val.MethodByName(name)
	if !method.IsValid() {
		return "", fmt.Errorf("no %s() method", name)
	}
	results := method.Call(nil)
	if len(results) != 1 || results[0].Kind() != reflect.String {
		return "", fmt.Errorf("%s() must return a string", name)
	}
	return results[0].String(), nil
}
