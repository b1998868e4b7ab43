package exec

import (
	"testing"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	"github.com/spirit-labs/tekagg/plan"
	"github.com/stretchr/testify/require"
)

func openSink(t *testing.T, state *ExecState, name string, input *evbatch.EventSchema) *MemorySinkNode {
	node := NewMemorySinkNode(&plan.MemorySinkOperator{TableName: name})
	require.NoError(t, node.Init(nil, []*evbatch.EventSchema{input}))
	require.NoError(t, node.Prepare(state))
	require.NoError(t, node.Open(state))
	return node
}

func TestMemorySink(t *testing.T) {
	state := newTestState(t)
	schema := intSchema(2)
	node := openSink(t, state, "out", schema)
	require.NoError(t, node.ConsumeNext(state, intBatch(t, schema, true, false, []int64{1}, []int64{2}), 0))
	require.False(t, node.EOSReached())
	require.NoError(t, node.ConsumeNext(state, intBatch(t, schema, false, false, []int64{3}, []int64{4}), 0))
	require.NoError(t, node.ConsumeNext(state, intBatch(t, schema, false, true, []int64{5}, []int64{6}), 0))
	require.True(t, node.EOSReached())
	require.Equal(t, 2, node.Windows())
	require.Equal(t, int64(3), node.RowsProcessed())

	table := state.TableStore.GetTable("out")
	require.NotNil(t, table)
	require.Equal(t, 3, table.NumBatches())
	require.Equal(t, 3, table.NumRows())

	err := node.ConsumeNext(state, intBatch(t, schema, false, false, []int64{7}, []int64{8}), 0)
	require.True(t, errors.IsEngineErrorWithCode(err, errors.InvalidState))
	require.NoError(t, node.Close(state))
	err = node.ConsumeNext(state, intBatch(t, schema, false, false, []int64{7}, []int64{8}), 0)
	require.True(t, errors.IsEngineErrorWithCode(err, errors.InvalidState))
}

func TestMemorySinkAppendsToExistingTable(t *testing.T) {
	state := newTestState(t)
	schema := intSchema(1)
	addTable(t, state, "out", intBatch(t, schema, false, false, []int64{1}))
	node := openSink(t, state, "out", schema)
	require.NoError(t, node.ConsumeNext(state, intBatch(t, schema, true, true, []int64{2}), 0))
	require.Equal(t, 2, state.TableStore.GetTable("out").NumRows())
	require.NoError(t, node.Close(state))
}

func TestMemorySinkSchemaMismatch(t *testing.T) {
	state := newTestState(t)
	addTable(t, state, "out", intBatch(t, intSchema(1), false, false, []int64{1}))
	node := NewMemorySinkNode(&plan.MemorySinkOperator{TableName: "out"})
	require.NoError(t, node.Init(nil, []*evbatch.EventSchema{intSchema(2)}))
	err := node.Open(state)
	require.True(t, errors.IsEngineErrorWithCode(err, errors.SchemaMismatch))

	err = NewMemorySinkNode(&plan.MemorySinkOperator{TableName: "out"}).Init(nil, nil)
	require.True(t, errors.IsEngineErrorWithCode(err, errors.SchemaMismatch))
	err = NewMemorySinkNode(&plan.MemorySinkOperator{TableName: "out"}).
		Init(intSchema(2), []*evbatch.EventSchema{intSchema(1)})
	require.True(t, errors.IsEngineErrorWithCode(err, errors.SchemaMismatch))
	err = NewMemorySinkNode(&plan.MemorySinkOperator{}).Init(nil, []*evbatch.EventSchema{intSchema(1)})
	require.True(t, errors.IsEngineErrorWithCode(err, errors.PlanParseError))
}
