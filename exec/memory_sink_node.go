package exec

import (
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	log "github.com/spirit-labs/tekagg/logger"
	"github.com/spirit-labs/tekagg/plan"
	"github.com/spirit-labs/tekagg/tablestore"
)

// MemorySinkNode appends every batch it receives to a table in the table store, creating the table on open.
type MemorySinkNode struct {
	baseNode
	op         *plan.MemorySinkOperator
	input      *evbatch.EventSchema
	table      *tablestore.Table
	windows    int
	eosReached bool
}

func NewMemorySinkNode(op *plan.MemorySinkOperator) *MemorySinkNode {
	return &MemorySinkNode{
		baseNode: baseNode{name: "memory sink " + op.TableName},
		op:       op,
	}
}

func (m *MemorySinkNode) Init(output *evbatch.EventSchema, inputs []*evbatch.EventSchema) error {
	if len(inputs) != 1 {
		return errors.NewSchemaMismatchError("memory sink requires exactly one input, got %d", len(inputs))
	}
	if m.op.TableName == "" {
		return errors.NewPlanParseError("memory sink has no table name")
	}
	if err := checkDeclaredOutput(output, inputs[0], m.name); err != nil {
		return err
	}
	m.input = inputs[0]
	return nil
}

func (m *MemorySinkNode) Prepare(*ExecState) error {
	return nil
}

func (m *MemorySinkNode) Open(state *ExecState) error {
	if err := m.markOpen(); err != nil {
		return err
	}
	table, err := state.TableStore.GetOrCreateTable(m.op.TableName, m.input)
	if err != nil {
		return err
	}
	m.table = table
	return nil
}

func (m *MemorySinkNode) OutputDescriptor() *evbatch.EventSchema {
	return m.input
}

func (m *MemorySinkNode) ConsumeNext(_ *ExecState, batch *evbatch.Batch, _ int) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	if m.eosReached {
		return errors.NewInvalidStateError("%s received a batch after end of stream", m.name)
	}
	if err := m.table.AddBatch(batch); err != nil {
		return err
	}
	m.recordProcessed(batch)
	if batch.EndOfWindow() {
		m.windows++
	}
	m.eosReached = batch.Eos
	return nil
}

// Windows is the number of end of window batches received, end of stream included.
func (m *MemorySinkNode) Windows() int {
	return m.windows
}

func (m *MemorySinkNode) EOSReached() bool {
	return m.eosReached
}

func (m *MemorySinkNode) Close(state *ExecState) error {
	if err := m.markClosed(); err != nil {
		return err
	}
	log.Debugf("query %s closed memory sink on %s after %d rows", state.QueryID, m.op.TableName, m.rowsProcessed)
	return nil
}
