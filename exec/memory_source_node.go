package exec

import (
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	log "github.com/spirit-labs/tekagg/logger"
	"github.com/spirit-labs/tekagg/plan"
	"github.com/spirit-labs/tekagg/tablestore"
	"github.com/spirit-labs/tekagg/types"
)

// MemorySourceNode emits the batches of a table in the table store. A finite source tags its last batch with
// end of window and end of stream, and an empty table produces a single empty tagged batch. A streaming source
// never ends the stream and emits batches appended to the table after it was opened.
type MemorySourceNode struct {
	baseNode
	op             *plan.MemorySourceOperator
	declaredOutput *evbatch.EventSchema
	output         *evbatch.EventSchema
	table          *tablestore.Table
	colIndexes     []int
	// number of table batches a finite source emits, fixed at open
	numBatches   int
	cursor       int
	pending      *evbatch.Batch
	rowsInWindow int
	sentEos      bool
}

func NewMemorySourceNode(op *plan.MemorySourceOperator) *MemorySourceNode {
	return &MemorySourceNode{
		baseNode: baseNode{name: "memory source " + op.TableName},
		op:       op,
	}
}

func (m *MemorySourceNode) Init(output *evbatch.EventSchema, inputs []*evbatch.EventSchema) error {
	if len(inputs) != 0 {
		return errors.NewSchemaMismatchError("memory source takes no inputs, got %d", len(inputs))
	}
	if err := m.op.Validate(); err != nil {
		return err
	}
	m.declaredOutput = output
	return nil
}

func (m *MemorySourceNode) Prepare(*ExecState) error {
	return nil
}

// Open looks up the table and resolves the projection.
func (m *MemorySourceNode) Open(state *ExecState) error {
	if err := m.markOpen(); err != nil {
		return err
	}
	if m.op.Tablet != "" {
		m.table = state.TableStore.GetTablet(m.op.TableName, m.op.Tablet)
		if m.table == nil {
			return errors.NewSchemaMismatchError("tablet %s of table %s does not exist", m.op.Tablet, m.op.TableName)
		}
	} else {
		m.table = state.TableStore.GetTable(m.op.TableName)
		if m.table == nil {
			return errors.NewSchemaMismatchError("table %s does not exist", m.op.TableName)
		}
	}
	tableSchema := m.table.Schema()
	m.colIndexes = m.op.ColumnIndexes
	if len(m.colIndexes) == 0 {
		m.colIndexes = make([]int, tableSchema.NumColumns())
		for i := range m.colIndexes {
			m.colIndexes[i] = i
		}
	}
	names := make([]string, len(m.colIndexes))
	colTypes := make([]types.ColumnType, len(m.colIndexes))
	for i, colIndex := range m.colIndexes {
		if colIndex >= tableSchema.NumColumns() {
			return errors.NewSchemaMismatchError("column %d out of range, table %s has %d columns", colIndex,
				m.op.TableName, tableSchema.NumColumns())
		}
		names[i] = tableSchema.ColumnNames()[colIndex]
		colTypes[i] = tableSchema.ColumnTypes()[colIndex]
	}
	m.output = evbatch.NewEventSchema(names, colTypes)
	if err := checkDeclaredOutput(m.declaredOutput, m.output, m.name); err != nil {
		return err
	}
	m.numBatches = m.table.NumBatches()
	log.Debugf("query %s opened memory source on %s with %d batches", state.QueryID, m.op.TableName, m.numBatches)
	return nil
}

func (m *MemorySourceNode) OutputDescriptor() *evbatch.EventSchema {
	if m.output == nil {
		return m.declaredOutput
	}
	return m.output
}

func (m *MemorySourceNode) ConsumeNext(*ExecState, *evbatch.Batch, int) error {
	return errors.NewInvalidStateError("memory source does not consume batches")
}

func (m *MemorySourceNode) HasBatchesRemaining() bool {
	if m.op.Streaming {
		return m.state != nodeStateClosed
	}
	return !m.sentEos
}

func (m *MemorySourceNode) NextBatchReady() bool {
	if m.state != nodeStateOpen {
		return false
	}
	if m.op.Streaming {
		return m.pending != nil || m.cursor < m.table.NumBatches()
	}
	return !m.sentEos
}

// GenerateNext sends the next batch to the children. A streaming source with nothing ready sends nothing.
func (m *MemorySourceNode) GenerateNext(state *ExecState) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	if !m.HasBatchesRemaining() {
		return errors.NewInvalidStateError("memory source has already sent end of stream")
	}
	if !m.op.Streaming && m.numBatches == 0 {
		m.sentEos = true
		return m.sendBatchToChildren(state, evbatch.CreateEmptyBatch(m.output).WithTags(true, true))
	}
	if m.pending == nil {
		if !m.NextBatchReady() {
			return nil
		}
		m.pending = m.project(m.table.Batches()[m.cursor])
		m.cursor++
	}
	batch, eow := m.nextWindowPiece()
	last := !m.op.Streaming && m.pending == nil && m.cursor == m.numBatches
	if last {
		m.sentEos = true
		batch = batch.WithTags(true, true)
	} else if eow {
		batch = batch.WithTags(true, false)
	}
	m.recordProcessed(batch)
	return m.sendBatchToChildren(state, batch)
}

// nextWindowPiece takes rows from the pending batch up to the next window boundary.
func (m *MemorySourceNode) nextWindowPiece() (*evbatch.Batch, bool) {
	batch := m.pending
	m.pending = nil
	if m.op.WindowRows == 0 {
		return batch, false
	}
	remaining := m.op.WindowRows - m.rowsInWindow
	if batch.RowCount < remaining {
		m.rowsInWindow += batch.RowCount
		return batch, false
	}
	m.rowsInWindow = 0
	if batch.RowCount > remaining {
		m.pending = batch.Slice(remaining, batch.RowCount)
		batch = batch.Slice(0, remaining)
	}
	return batch, true
}

func (m *MemorySourceNode) project(batch *evbatch.Batch) *evbatch.Batch {
	cols := make([]evbatch.Column, len(m.colIndexes))
	for i, colIndex := range m.colIndexes {
		cols[i] = batch.Columns[colIndex]
	}
	return evbatch.NewBatch(m.output, cols...)
}

func (m *MemorySourceNode) Close(state *ExecState) error {
	if err := m.markClosed(); err != nil {
		return err
	}
	log.Debugf("query %s closed memory source on %s after %d rows", state.QueryID, m.op.TableName,
		m.rowsProcessed)
	return nil
}
