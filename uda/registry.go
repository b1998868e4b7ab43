package uda

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/types"
)

const DefaultResolutionCacheSize = 256

// Registry resolves aggregate functions by name and argument types. Overloads declared with concrete types are
// preferred over overloads declared with AnyDecimal. Resolutions are cached by concrete signature.
type Registry struct {
	lock  sync.RWMutex
	defs  map[string][]*Definition
	cache *lru.Cache
}

func NewRegistry(cacheSize int) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultResolutionCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Registry{
		defs:  map[string][]*Definition{},
		cache: cache,
	}, nil
}

// NewRegistryWithBuiltins creates a registry holding the builtin aggregates.
func NewRegistryWithBuiltins(cacheSize int) (*Registry, error) {
	reg, err := NewRegistry(cacheSize)
	if err != nil {
		return nil, err
	}
	if err := RegisterBuiltins(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	sig := def.Signature()
	for _, existing := range r.defs[def.Name] {
		if existing.Signature() == sig {
			return errors.Errorf("aggregate function %s is already registered", sig)
		}
	}
	r.defs[def.Name] = append(r.defs[def.Name], def)
	// a new overload can change how cached signatures resolve
	r.cache.Purge()
	return nil
}

// Lookup returns the definition that accepts exactly the given argument types, or an UnknownFunction error.
func (r *Registry) Lookup(name string, argTypes []types.ColumnType) (*Definition, error) {
	sig := Signature(name, argTypes)
	if cached, ok := r.cache.Get(sig); ok {
		return cached.(*Definition), nil
	}
	r.lock.RLock()
	defer r.lock.RUnlock()
	overloads, ok := r.defs[name]
	if !ok {
		return nil, errors.NewUnknownFunctionError("unknown aggregate function '%s'", name)
	}
	var wildcard *Definition
	for _, def := range overloads {
		if !argTypesMatch(def.ArgTypes, argTypes) {
			continue
		}
		if types.ColumnTypeSlicesEqual(def.ArgTypes, argTypes) {
			r.cache.Add(sig, def)
			return def, nil
		}
		if wildcard == nil {
			wildcard = def
		}
	}
	if wildcard != nil {
		r.cache.Add(sig, wildcard)
		return wildcard, nil
	}
	return nil, errors.NewUnknownFunctionError("aggregate function '%s' does not accept argument types [%s]",
		name, types.ColumnTypesToString(argTypes))
}

// Names returns the registered function names in sorted order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the overloads registered for name in registration order.
func (r *Registry) Definitions(name string) []*Definition {
	r.lock.RLock()
	defer r.lock.RUnlock()
	defs := make([]*Definition, len(r.defs[name]))
	copy(defs, r.defs[name])
	return defs
}
