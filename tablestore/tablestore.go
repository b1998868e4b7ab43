package tablestore

import (
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
)

// Table is an append-only list of batches sharing one schema.
type Table struct {
	lock    sync.RWMutex
	schema  *evbatch.EventSchema
	batches []*evbatch.Batch
}

func NewTable(schema *evbatch.EventSchema) *Table {
	return &Table{schema: schema}
}

func (t *Table) Schema() *evbatch.EventSchema {
	return t.schema
}

// AddBatch appends a batch. Eow and Eos tags are not stored, sources apply their own.
func (t *Table) AddBatch(batch *evbatch.Batch) error {
	if !t.schema.TypesEqual(batch.Schema) {
		return errors.NewSchemaMismatchError("cannot add batch with schema %s to table with schema %s",
			batch.Schema.String(), t.schema.String())
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.batches = append(t.batches, batch.WithTags(false, false))
	return nil
}

// Batches returns a snapshot of the batches added so far.
func (t *Table) Batches() []*evbatch.Batch {
	t.lock.RLock()
	defer t.lock.RUnlock()
	batches := make([]*evbatch.Batch, len(t.batches))
	copy(batches, t.batches)
	return batches
}

func (t *Table) NumBatches() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.batches)
}

func (t *Table) NumRows() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	rows := 0
	for _, batch := range t.batches {
		rows += batch.RowCount
	}
	return rows
}

// TableStore is an in-memory catalog of named tables. A table may also be split into tablets, addressed by
// table name and tablet id.
type TableStore struct {
	lock    sync.RWMutex
	tables  *treemap.Map
	tablets map[string]map[string]*Table
}

func NewTableStore() *TableStore {
	return &TableStore{
		tables:  treemap.NewWithStringComparator(),
		tablets: map[string]map[string]*Table{},
	}
}

func (s *TableStore) AddTable(name string, table *Table) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if t, exists := s.tables.Get(name); exists && t.(*Table) != nil {
		return errors.Errorf("table %s already exists", name)
	}
	s.tables.Put(name, table)
	return nil
}

func (s *TableStore) AddTablet(name string, tabletID string, table *Table) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	tablets, ok := s.tablets[name]
	if !ok {
		tablets = map[string]*Table{}
		s.tablets[name] = tablets
	}
	if _, exists := tablets[tabletID]; exists {
		return errors.Errorf("tablet %s of table %s already exists", tabletID, name)
	}
	tablets[tabletID] = table
	if _, exists := s.tables.Get(name); !exists {
		// a name with only tablets is still listed
		s.tables.Put(name, (*Table)(nil))
	}
	return nil
}

// GetTable returns the named table, or nil if there is none.
func (s *TableStore) GetTable(name string) *Table {
	s.lock.RLock()
	defer s.lock.RUnlock()
	t, ok := s.tables.Get(name)
	if !ok {
		return nil
	}
	return t.(*Table)
}

func (s *TableStore) GetTablet(name string, tabletID string) *Table {
	s.lock.RLock()
	defer s.lock.RUnlock()
	tablets, ok := s.tablets[name]
	if !ok {
		return nil
	}
	return tablets[tabletID]
}

// GetOrCreateTable returns the named table, creating it with the given schema if it does not exist.
func (s *TableStore) GetOrCreateTable(name string, schema *evbatch.EventSchema) (*Table, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	t, ok := s.tables.Get(name)
	if ok && t.(*Table) != nil {
		table := t.(*Table)
		if !table.schema.TypesEqual(schema) {
			return nil, errors.NewSchemaMismatchError("table %s has schema %s, not %s", name,
				table.schema.String(), schema.String())
		}
		return table, nil
	}
	table := NewTable(schema)
	s.tables.Put(name, table)
	return table, nil
}

// TableNames returns table names in sorted order.
func (s *TableStore) TableNames() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	names := make([]string, 0, s.tables.Size())
	for _, k := range s.tables.Keys() {
		names = append(names, k.(string))
	}
	return names
}

func (s *TableStore) String() string {
	return fmt.Sprintf("tablestore%v", s.TableNames())
}
