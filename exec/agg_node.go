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
	"fmt"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	log "github.com/spirit-labs/tekagg/logger"
	"github.com/spirit-labs/tekagg/metrics"
	"github.com/spirit-labs/tekagg/plan"
	"github.com/spirit-labs/tekagg/types"
)

type aggState int

const (
	aggStateAccumulating aggState = iota
	aggStateDone
)

func (s aggState) String() string {
	switch s {
	case aggStateAccumulating:
		return "ACCUMULATING"
	case aggStateDone:
		return "DONE"
	default:
		return fmt.Sprintf("aggState(%d)", int(s))
	}
}

// boundaryController decides when accumulated groups are flushed. A blocking aggregate flushes only at end of
// stream. A windowed aggregate also flushes at the end of every window.
type boundaryController struct {
	windowed bool
	state    aggState
}

func (b *boundaryController) shouldFlush(batch *evbatch.Batch) bool {
	if batch.Eos {
		return true
	}
	return b.windowed && batch.Eow
}

func (b *boundaryController) flushed(batch *evbatch.Batch) {
	if batch.Eos {
		b.state = aggStateDone
	}
}

func (b *boundaryController) done() bool {
	return b.state == aggStateDone
}

// AggNode groups rows by the group columns and folds each value expression over every group with an aggregate
// function. Output rows hold the group columns in declared order followed by the finalized values.
type AggNode struct {
	baseNode
	aggOp          *plan.AggregateOperator
	declaredOutput *evbatch.EventSchema
	input          *evbatch.EventSchema
	output         *evbatch.EventSchema
	groupIndexes   []int
	keys           *groupKeyExtractor
	values         []*boundValue
	table          *aggTable
	boundary       boundaryController
	keyBuffer      []byte
	liveGroups     int
	metrics        *metrics.AggMetrics
	dumpBatches    bool
}

func NewAggNode(aggOp *plan.AggregateOperator) *AggNode {
	return &AggNode{
		baseNode: baseNode{name: "aggregate"},
		aggOp:    aggOp,
		boundary: boundaryController{windowed: aggOp.Windowed},
	}
}

// Init resolves the group and argument column references against the input schema.
func (a *AggNode) Init(output *evbatch.EventSchema, inputs []*evbatch.EventSchema) error {
	if len(inputs) != 1 {
		return errors.NewSchemaMismatchError("aggregate requires exactly one input, got %d", len(inputs))
	}
	if len(a.aggOp.Groups) == 0 && len(a.aggOp.Values) == 0 {
		return errors.NewSchemaMismatchError("aggregate must have at least one group or value")
	}
	if err := a.aggOp.Validate(); err != nil {
		return err
	}
	input := inputs[0]
	a.groupIndexes = make([]int, len(a.aggOp.Groups))
	for i, ref := range a.aggOp.Groups {
		index, err := resolveColumn(ref.NodeID, ref.Index, input, fmt.Sprintf("group %d", i))
		if err != nil {
			return err
		}
		a.groupIndexes[i] = index
	}
	a.values = make([]*boundValue, len(a.aggOp.Values))
	for i, expr := range a.aggOp.Values {
		argIndexes := make([]int, len(expr.Args))
		argTypes := make([]types.ColumnType, len(expr.Args))
		for j, ref := range expr.Args {
			index, err := resolveColumn(ref.NodeID, ref.Index, input,
				fmt.Sprintf("argument %d of %s", j, expr.Name))
			if err != nil {
				return err
			}
			argIndexes[j] = index
			argTypes[j] = input.ColumnTypes()[index]
		}
		a.values[i] = &boundValue{
			name:       expr.Name,
			argIndexes: argIndexes,
			argTypes:   argTypes,
			args:       make([]any, len(argIndexes)),
		}
	}
	a.input = input
	a.declaredOutput = output
	a.keys = newGroupKeyExtractor(a.groupIndexes, input)
	return nil
}

// Prepare binds every value expression to an aggregate function and derives the output schema.
func (a *AggNode) Prepare(state *ExecState) error {
	if a.input == nil {
		return errors.NewInvalidStateError("aggregate must be initialised before it is prepared")
	}
	numGroups := len(a.groupIndexes)
	names := make([]string, 0, numGroups+len(a.values))
	colTypes := make([]types.ColumnType, 0, numGroups+len(a.values))
	for i, colType := range a.keys.colTypes {
		names = append(names, outputName(a.aggOp.GroupNames, i, "g"))
		colTypes = append(colTypes, colType)
	}
	for i, value := range a.values {
		def, err := state.Registry.Lookup(value.name, value.argTypes)
		if err != nil {
			return err
		}
		value.def = def
		value.returnType = def.ResolveReturnType(value.argTypes)
		names = append(names, outputName(a.aggOp.ValueNames, i, "v"))
		colTypes = append(colTypes, value.returnType)
	}
	a.output = evbatch.NewEventSchema(names, colTypes)
	if err := checkDeclaredOutput(a.declaredOutput, a.output, a.name); err != nil {
		return err
	}
	a.dumpBatches = state.Config.DebugDumpBatches != nil && *state.Config.DebugDumpBatches
	return nil
}

func outputName(names []string, i int, prefix string) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("%s%d", prefix, i)
}

func (a *AggNode) Open(state *ExecState) error {
	if a.output == nil {
		return errors.NewInvalidStateError("aggregate must be prepared before it is opened")
	}
	if err := a.markOpen(); err != nil {
		return err
	}
	a.table = newAggTable(a.values)
	a.metrics = metrics.GetAggMetrics()
	if log.DebugEnabled {
		log.Debugf("query %s opened aggregate windowed=%t input=[%s] output=[%s]", state.QueryID,
			a.aggOp.Windowed, a.input.String(), a.output.String())
	}
	return nil
}

func (a *AggNode) OutputDescriptor() *evbatch.EventSchema {
	if a.output == nil {
		return a.declaredOutput
	}
	return a.output
}

// ConsumeNext folds the rows of the batch into the table and flushes if the batch ends a window or the stream.
func (a *AggNode) ConsumeNext(state *ExecState, batch *evbatch.Batch, parentIndex int) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	if a.boundary.done() {
		return errors.NewInvalidStateError("aggregate received a batch after end of stream")
	}
	if parentIndex != 0 {
		return errors.NewInvalidStateError("aggregate has one input but received a batch from input %d", parentIndex)
	}
	a.recordProcessed(batch)
	a.metrics.BatchesConsumed.Inc()
	a.metrics.RowsConsumed.Add(float64(batch.RowCount))
	err := a.accumulate(state, batch)
	a.updateLiveGroups()
	if err != nil {
		return err
	}
	if !a.boundary.shouldFlush(batch) {
		return nil
	}
	return a.flush(state, batch)
}

func (a *AggNode) accumulate(state *ExecState, batch *evbatch.Batch) error {
	ctx := state.FunctionContext()
	for row := 0; row < batch.RowCount; row++ {
		if a.keyBuffer == nil {
			a.keyBuffer = make([]byte, 0, keyInitialBufferSize)
		}
		a.keyBuffer = a.keys.key(batch, row, a.keyBuffer[:0])
		entry, err := a.table.getOrCreate(a.keyBuffer)
		if err != nil {
			return err
		}
		for i, value := range a.values {
			if err := entry.udas[i].Update(ctx, value.extractArgs(batch, row)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *AggNode) flush(state *ExecState, trigger *evbatch.Batch) error {
	out, err := a.table.buildOutput(state.FunctionContext(), a.output, a.keys)
	if err != nil {
		return err
	}
	out = out.WithTags(trigger.Eow, trigger.Eos)
	mode := metrics.FlushModeWindow
	if trigger.Eos {
		mode = metrics.FlushModeStream
	}
	a.metrics.Flushes.WithLabelValues(mode).Inc()
	if log.DebugEnabled {
		log.Debugf("query %s aggregate flushing %d groups eow=%t eos=%t", state.QueryID, out.RowCount,
			trigger.Eow, trigger.Eos)
		if a.dumpBatches {
			out.Dump()
		}
	}
	// finalized entries are never updated again
	a.table.reset()
	a.updateLiveGroups()
	a.boundary.flushed(trigger)
	return a.sendBatchToChildren(state, out)
}

func (a *AggNode) updateLiveGroups() {
	size := 0
	if a.table != nil {
		size = a.table.size()
	}
	if delta := size - a.liveGroups; delta != 0 && a.metrics != nil {
		a.metrics.LiveGroups.Add(float64(delta))
	}
	a.liveGroups = size
}

// Close releases all buffered groups without emitting them.
func (a *AggNode) Close(state *ExecState) error {
	if err := a.markClosed(); err != nil {
		return err
	}
	if a.table != nil && log.DebugEnabled && a.table.size() > 0 {
		log.Debugf("query %s aggregate closed with %d unflushed groups in state %s", state.QueryID,
			a.table.size(), a.boundary.state)
	}
	a.table = nil
	a.updateLiveGroups()
	return nil
}
