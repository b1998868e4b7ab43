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
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
)

// Node is an operator in a push based pipeline. A node is initialised with its declared output schema, which
// may be nil, and the output schemas of its parents. It is then prepared and opened, receives batches through
// ConsumeNext and is finally closed. All calls for a node are made from a single goroutine.
type Node interface {
	Init(output *evbatch.EventSchema, inputs []*evbatch.EventSchema) error
	Prepare(state *ExecState) error
	Open(state *ExecState) error
	// ConsumeNext receives a batch from the parent at parentIndex.
	ConsumeNext(state *ExecState, batch *evbatch.Batch, parentIndex int) error
	Close(state *ExecState) error
	OutputDescriptor() *evbatch.EventSchema
	AddChild(child Node)
	Children() []Node
	RowsProcessed() int64
	BytesProcessed() int64
}

// SourceNode produces batches instead of consuming them.
type SourceNode interface {
	Node
	// GenerateNext sends the next batch to the children.
	GenerateNext(state *ExecState) error
	// HasBatchesRemaining is false once the end of stream has been sent.
	HasBatchesRemaining() bool
	// NextBatchReady reports whether GenerateNext would produce a batch now.
	NextBatchReady() bool
}

type nodeState int

const (
	nodeStateCreated nodeState = iota
	nodeStateOpen
	nodeStateClosed
)

type baseNode struct {
	name           string
	children       []Node
	state          nodeState
	rowsProcessed  int64
	bytesProcessed int64
}

func (b *baseNode) AddChild(child Node) {
	b.children = append(b.children, child)
}

func (b *baseNode) Children() []Node {
	return b.children
}

func (b *baseNode) RowsProcessed() int64 {
	return b.rowsProcessed
}

func (b *baseNode) BytesProcessed() int64 {
	return b.bytesProcessed
}

func (b *baseNode) recordProcessed(batch *evbatch.Batch) {
	b.rowsProcessed += int64(batch.RowCount)
	b.bytesProcessed += int64(batch.BytesSize())
}

func (b *baseNode) markOpen() error {
	if b.state != nodeStateCreated {
		return errors.NewInvalidStateError("%s cannot be opened more than once", b.name)
	}
	b.state = nodeStateOpen
	return nil
}

func (b *baseNode) checkOpen() error {
	switch b.state {
	case nodeStateCreated:
		return errors.NewInvalidStateError("%s is not open", b.name)
	case nodeStateClosed:
		return errors.NewInvalidStateError("%s is closed", b.name)
	}
	return nil
}

func (b *baseNode) markClosed() error {
	if b.state == nodeStateClosed {
		return errors.NewInvalidStateError("%s is already closed", b.name)
	}
	b.state = nodeStateClosed
	return nil
}

func (b *baseNode) sendBatchToChildren(state *ExecState, batch *evbatch.Batch) error {
	for _, child := range b.children {
		if err := child.ConsumeNext(state, batch, 0); err != nil {
			return err
		}
	}
	return nil
}

// resolveColumn checks a column reference against the only input of a node.
func resolveColumn(nodeID int, index int, input *evbatch.EventSchema, what string) (int, error) {
	if nodeID != 0 {
		return 0, errors.NewSchemaMismatchError("%s refers to input %d but there is only one input", what, nodeID)
	}
	if index < 0 || index >= input.NumColumns() {
		return 0, errors.NewSchemaMismatchError("%s refers to column %d but input has %d columns", what, index,
			input.NumColumns())
	}
	return index, nil
}

func checkDeclaredOutput(declared *evbatch.EventSchema, derived *evbatch.EventSchema, name string) error {
	if declared == nil {
		return nil
	}
	if declared.NumColumns() != derived.NumColumns() || !declared.TypesEqual(derived) {
		return errors.NewSchemaMismatchError("%s declared output [%s] does not match derived output [%s]", name,
			declared.String(), derived.String())
	}
	return nil
}
