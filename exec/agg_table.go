package exec

import (
	"fmt"

	"github.com/spirit-labs/tekagg/common"
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	"github.com/spirit-labs/tekagg/types"
	"github.com/spirit-labs/tekagg/uda"
)

const keyInitialBufferSize = 32

// groupKeyExtractor encodes the group columns of a row with the byte comparable key encoding. Every encoded
// column starts with a null marker byte so no real key is empty, and the empty key is the single group used
// when there are no group columns.
type groupKeyExtractor struct {
	colIndexes []int
	colTypes   []types.ColumnType
}

func newGroupKeyExtractor(colIndexes []int, input *evbatch.EventSchema) *groupKeyExtractor {
	colTypes := make([]types.ColumnType, len(colIndexes))
	for i, colIndex := range colIndexes {
		colTypes[i] = input.ColumnTypes()[colIndex]
	}
	return &groupKeyExtractor{colIndexes: colIndexes, colTypes: colTypes}
}

// key appends the key of the row to buffer. With no group columns the buffer is returned unchanged.
func (g *groupKeyExtractor) key(batch *evbatch.Batch, row int, buffer []byte) []byte {
	for i, colIndex := range g.colIndexes {
		buffer = evbatch.EncodeKeyCol(row, batch.Columns[colIndex], g.colTypes[i], buffer)
	}
	return buffer
}

// boundValue is an aggregate value expression bound to a function definition and input columns.
type boundValue struct {
	name       string
	def        *uda.Definition
	argIndexes []int
	argTypes   []types.ColumnType
	returnType types.ColumnType
	// reused for every row
	args []any
}

func (b *boundValue) extractArgs(batch *evbatch.Batch, row int) []any {
	for i, argIndex := range b.argIndexes {
		b.args[i] = evbatch.GetValue(batch.Columns[argIndex], b.argTypes[i], row)
	}
	return b.args
}

type aggEntry struct {
	key  string
	udas []uda.UDA
}

// aggTable holds one entry per distinct group key seen since the last flush. Entries are kept in first seen
// order, which is the order rows are emitted in.
type aggTable struct {
	values  []*boundValue
	entries map[string]*aggEntry
	order   []*aggEntry
}

func newAggTable(values []*boundValue) *aggTable {
	return &aggTable{
		values:  values,
		entries: map[string]*aggEntry{},
	}
}

func (t *aggTable) getOrCreate(key []byte) (*aggEntry, error) {
	if entry, ok := t.entries[string(key)]; ok {
		return entry, nil
	}
	udas := make([]uda.UDA, len(t.values))
	for i, value := range t.values {
		u, err := newUDA(value.def)
		if err != nil {
			return nil, err
		}
		udas[i] = u
	}
	entry := &aggEntry{key: string(key), udas: udas}
	t.entries[entry.key] = entry
	t.order = append(t.order, entry)
	return entry, nil
}

func newUDA(def *uda.Definition) (u uda.UDA, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewResourceFailureError("failed to create state for aggregate function %s: %v",
				def.Signature(), r)
		}
	}()
	u = def.Factory()
	if u == nil {
		return nil, errors.NewResourceFailureError("failed to create state for aggregate function %s",
			def.Signature())
	}
	return u, nil
}

func (t *aggTable) size() int {
	return len(t.order)
}

func (t *aggTable) reset() {
	clear(t.entries)
	t.order = t.order[:0]
}

// buildOutput finalizes every entry into one row of the output schema, group columns first. Values are copied
// into new columns so nothing in the batch refers to entry state.
func (t *aggTable) buildOutput(ctx *uda.FunctionContext, output *evbatch.EventSchema,
	keys *groupKeyExtractor) (*evbatch.Batch, error) {
	builders := evbatch.CreateColBuilders(output.ColumnTypes())
	numGroups := len(keys.colTypes)
	for _, entry := range t.order {
		if err := evbatch.LoadColsFromKey(builders[:numGroups], keys.colTypes,
			common.StringToByteSliceZeroCopy(entry.key)); err != nil {
			return nil, err
		}
		for i, u := range entry.udas {
			value := t.values[i]
			res, err := u.Finalize(ctx)
			if err != nil {
				return nil, err
			}
			if err := evbatch.AppendValue(builders[numGroups+i], value.returnType, res); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("aggregate function %s returned an invalid result",
					value.def.Signature()))
			}
		}
	}
	return evbatch.NewBatchFromBuilders(output, builders...), nil
}
