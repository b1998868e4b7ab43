// Copyright 2024 The Tektite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package exec

import (
	"sort"
	"testing"

	"github.com/spirit-labs/tekagg/conf"
	"github.com/spirit-labs/tekagg/evbatch"
	"github.com/spirit-labs/tekagg/tablestore"
	"github.com/spirit-labs/tekagg/types"
	"github.com/spirit-labs/tekagg/uda"
	"github.com/stretchr/testify/require"
)

// minSumDef sums the smaller of its two arguments over every row.
func minSumDef() *uda.Definition {
	return &uda.Definition{
		Name:       "minsum",
		ArgTypes:   []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeInt},
		ReturnType: types.ColumnTypeInt,
		Factory: uda.NewFuncFactory[int64](func(sum *int64, args []any) error {
			*sum += min(args[0].(int64), args[1].(int64))
			return nil
		}, func(sum *int64, other *int64) error {
			*sum += *other
			return nil
		}, func(sum *int64) (any, error) {
			return *sum, nil
		}),
	}
}

func newTestState(t *testing.T, defs ...*uda.Definition) *ExecState {
	registry, err := uda.NewRegistryWithBuiltins(uda.DefaultResolutionCacheSize)
	require.NoError(t, err)
	require.NoError(t, registry.Register(minSumDef()))
	for _, def := range defs {
		require.NoError(t, registry.Register(def))
	}
	return NewExecState(conf.Config{}, registry, tablestore.NewTableStore())
}

func intSchema(numCols int) *evbatch.EventSchema {
	names := make([]string, numCols)
	colTypes := make([]types.ColumnType, numCols)
	for i := range names {
		names[i] = string(rune('a' + i))
		colTypes[i] = types.ColumnTypeInt
	}
	return evbatch.NewEventSchema(names, colTypes)
}

// buildBatch creates a batch from column-major values. A nil value is NULL.
func buildBatch(t *testing.T, schema *evbatch.EventSchema, eow bool, eos bool, cols ...[]any) *evbatch.Batch {
	require.Equal(t, schema.NumColumns(), len(cols))
	builders := evbatch.CreateColBuilders(schema.ColumnTypes())
	for i, col := range cols {
		for _, v := range col {
			require.NoError(t, evbatch.AppendValue(builders[i], schema.ColumnTypes()[i], v))
		}
	}
	return evbatch.NewBatchFromBuilders(schema, builders...).WithTags(eow, eos)
}

func ints(vals ...int64) []any {
	res := make([]any, len(vals))
	for i, v := range vals {
		res[i] = v
	}
	return res
}

func strs(vals ...string) []any {
	res := make([]any, len(vals))
	for i, v := range vals {
		res[i] = v
	}
	return res
}

func intBatch(t *testing.T, schema *evbatch.EventSchema, eow bool, eos bool, cols ...[]int64) *evbatch.Batch {
	anyCols := make([][]any, len(cols))
	for i, col := range cols {
		anyCols[i] = ints(col...)
	}
	return buildBatch(t, schema, eow, eos, anyCols...)
}

// collectNode records every batch it receives.
type collectNode struct {
	baseNode
	input   *evbatch.EventSchema
	batches []*evbatch.Batch
}

func newCollectNode() *collectNode {
	return &collectNode{baseNode: baseNode{name: "collect"}}
}

func (c *collectNode) Init(_ *evbatch.EventSchema, inputs []*evbatch.EventSchema) error {
	if len(inputs) == 1 {
		c.input = inputs[0]
	}
	return nil
}

func (c *collectNode) Prepare(*ExecState) error {
	return nil
}

func (c *collectNode) Open(*ExecState) error {
	return c.markOpen()
}

func (c *collectNode) ConsumeNext(_ *ExecState, batch *evbatch.Batch, _ int) error {
	c.recordProcessed(batch)
	c.batches = append(c.batches, batch)
	return nil
}

func (c *collectNode) Close(*ExecState) error {
	return c.markClosed()
}

func (c *collectNode) OutputDescriptor() *evbatch.EventSchema {
	return c.input
}

// execNodeTester drives a single node and checks the batches it sends to its child.
type execNodeTester struct {
	t       *testing.T
	state   *ExecState
	node    Node
	child   *collectNode
	checked int
}

func newExecNodeTester(t *testing.T, state *ExecState, node Node, output *evbatch.EventSchema,
	inputs ...*evbatch.EventSchema) *execNodeTester {
	child := newCollectNode()
	node.AddChild(child)
	require.NoError(t, node.Init(output, inputs))
	require.NoError(t, node.Prepare(state))
	require.NoError(t, node.Open(state))
	require.NoError(t, child.Open(state))
	return &execNodeTester{t: t, state: state, node: node, child: child}
}

func (e *execNodeTester) ConsumeNext(batch *evbatch.Batch) *execNodeTester {
	require.NoError(e.t, e.node.ConsumeNext(e.state, batch, 0))
	return e
}

func (e *execNodeTester) GenerateNext() *execNodeTester {
	require.NoError(e.t, e.node.(SourceNode).GenerateNext(e.state))
	return e
}

// ExpectRowBatch checks the next unchecked output batch. Unless ordered is set rows are compared as a multiset.
func (e *execNodeTester) ExpectRowBatch(expected *evbatch.Batch, ordered bool) *execNodeTester {
	require.Greater(e.t, len(e.child.batches), e.checked, "no output batch")
	actual := e.child.batches[e.checked]
	e.checked++
	require.Equal(e.t, expected.Eow, actual.Eow, "eow")
	require.Equal(e.t, expected.Eos, actual.Eos, "eos")
	require.True(e.t, expected.Schema.TypesEqual(actual.Schema), "expected schema [%s] got [%s]",
		expected.Schema.String(), actual.Schema.String())
	if ordered {
		require.Equal(e.t, batchRows(expected), batchRows(actual))
	} else {
		require.Equal(e.t, sortedRows(expected), sortedRows(actual))
	}
	return e
}

func (e *execNodeTester) ExpectNoOutput() *execNodeTester {
	require.Equal(e.t, e.checked, len(e.child.batches), "unexpected output batch")
	return e
}

func (e *execNodeTester) Close() {
	require.NoError(e.t, e.node.Close(e.state))
	require.Equal(e.t, e.checked, len(e.child.batches), "unchecked output batches")
}

func batchRows(batch *evbatch.Batch) []string {
	rows := make([]string, batch.RowCount)
	for i := range rows {
		rows[i] = evbatch.FormatRow(batch.Row(i))
	}
	return rows
}

func sortedRows(batch *evbatch.Batch) []string {
	rows := batchRows(batch)
	sort.Strings(rows)
	return rows
}
