package evbatch

import (
	"bytes"
	"fmt"
	"strings"

	log "github.com/spirit-labs/tekagg/logger"
	"github.com/spirit-labs/tekagg/types"
)

// Batch is an immutable columnar chunk of rows. Eow marks the end of a window and Eos the end of the stream.
// Eos implies the end of the current window even when Eow is not set.
type Batch struct {
	Schema   *EventSchema
	Columns  []Column
	RowCount int
	Eow      bool
	Eos      bool
}

func NewBatchFromBuilders(schema *EventSchema, builders ...ColumnBuilder) *Batch {
	cols := make([]Column, len(builders))
	for i, colBuilder := range builders {
		cols[i] = colBuilder.Build()
	}
	return NewBatch(schema, cols...)
}

func NewBatch(schema *EventSchema, columns ...Column) *Batch {
	if len(columns) != len(schema.columnTypes) {
		panic(fmt.Sprintf("batch has %d columns but schema has %d", len(columns), len(schema.columnTypes)))
	}
	rc := -1
	for i, col := range columns {
		cl := col.Len()
		if rc != -1 && cl != rc {
			panic(fmt.Sprintf("column %s not same length (%d) as others (%d) col_names: %v col_types:%v",
				schema.ColumnNames()[i], cl, rc, schema.ColumnNames(), schema.ColumnTypes()))
		}
		rc = cl
	}
	if rc == -1 {
		rc = 0
	}
	return &Batch{
		Schema:   schema,
		Columns:  columns,
		RowCount: rc,
	}
}

// CreateEmptyBatch returns a zero-row batch with no tags.
func CreateEmptyBatch(schema *EventSchema) *Batch {
	return NewBatchFromBuilders(schema, CreateColBuilders(schema.columnTypes)...)
}

// WithTags returns a shallow copy sharing the columns, with the given tags.
func (b *Batch) WithTags(eow bool, eos bool) *Batch {
	cp := *b
	cp.Eow = eow
	cp.Eos = eos
	return &cp
}

// Slice returns an untagged batch holding rows [start, end) copied from this one.
func (b *Batch) Slice(start int, end int) *Batch {
	if start < 0 || end > b.RowCount || start > end {
		panic(fmt.Sprintf("invalid slice [%d, %d) of batch with %d rows", start, end, b.RowCount))
	}
	colTypes := b.Schema.columnTypes
	builders := CreateColBuilders(colTypes)
	for i, col := range b.Columns {
		for row := start; row < end; row++ {
			CopyColumnEntry(colTypes[i], col, builders[i], row)
		}
	}
	return NewBatchFromBuilders(b.Schema, builders...)
}

// EndOfWindow is true if the batch closes the current window, either explicitly or because the stream ended.
func (b *Batch) EndOfWindow() bool {
	return b.Eow || b.Eos
}

// BytesSize is the total size of the non-null values in the batch.
func (b *Batch) BytesSize() int {
	size := 0
	for _, col := range b.Columns {
		size += col.SizeBytes()
	}
	return size
}

func (b *Batch) GetIntColumn(colIndex int) *IntColumn {
	return b.Columns[colIndex].(*IntColumn)
}

func (b *Batch) GetFloatColumn(colIndex int) *FloatColumn {
	return b.Columns[colIndex].(*FloatColumn)
}

func (b *Batch) GetDecimalColumn(colIndex int) *DecimalColumn {
	return b.Columns[colIndex].(*DecimalColumn)
}

func (b *Batch) GetBoolColumn(colIndex int) *BoolColumn {
	return b.Columns[colIndex].(*BoolColumn)
}

func (b *Batch) GetStringColumn(colIndex int) *StringColumn {
	return b.Columns[colIndex].(*StringColumn)
}

func (b *Batch) GetBytesColumn(colIndex int) *BytesColumn {
	return b.Columns[colIndex].(*BytesColumn)
}

func (b *Batch) GetTimestampColumn(colIndex int) *TimestampColumn {
	return b.Columns[colIndex].(*TimestampColumn)
}

// Row returns the values of one row.
func (b *Batch) Row(row int) []any {
	vals := make([]any, len(b.Columns))
	for i, col := range b.Columns {
		vals[i] = GetValue(col, b.Schema.columnTypes[i], row)
	}
	return vals
}

// Equal compares types, values and tags. Column names are not compared.
func (b *Batch) Equal(other *Batch) bool {
	if b.RowCount != other.RowCount || b.Eow != other.Eow || b.Eos != other.Eos {
		return false
	}
	if !b.Schema.TypesEqual(other.Schema) {
		return false
	}
	for i := 0; i < b.RowCount; i++ {
		for j, ct := range b.Schema.columnTypes {
			if !valuesEqual(GetValue(b.Columns[j], ct, i), GetValue(other.Columns[j], ct, i)) {
				return false
			}
		}
	}
	return true
}

func valuesEqual(v1 any, v2 any) bool {
	if v1 == nil || v2 == nil {
		return v1 == nil && v2 == nil
	}
	switch t1 := v1.(type) {
	case []byte:
		return bytes.Equal(t1, v2.([]byte))
	case types.Decimal:
		t2 := v2.(types.Decimal)
		return t1.Num == t2.Num && t1.Scale == t2.Scale && t1.Precision == t2.Precision
	default:
		return v1 == v2
	}
}

func (b *Batch) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("batch(rows=%d eow=%t eos=%t) [%s]", b.RowCount, b.Eow, b.Eos, b.Schema.String()))
	for i := 0; i < b.RowCount; i++ {
		sb.WriteString("\n")
		sb.WriteString(FormatRow(b.Row(i)))
	}
	return sb.String()
}

func FormatRow(vals []any) string {
	sb := strings.Builder{}
	for j, val := range vals {
		switch v := val.(type) {
		case nil:
			sb.WriteString("null")
		case float64:
			sb.WriteString(fmt.Sprintf("%f", v))
		case types.Decimal:
			sb.WriteString(v.String())
		case []byte:
			sb.WriteString(fmt.Sprintf("%v", v))
		case types.Timestamp:
			sb.WriteString(fmt.Sprintf("%d", v.Val))
		default:
			sb.WriteString(fmt.Sprintf("%v", v))
		}
		if j != len(vals)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

// Dump logs the batch at debug level.
func (b *Batch) Dump() {
	if !log.DebugEnabled {
		return
	}
	for _, line := range strings.Split(b.String(), "\n") {
		log.Debug(line)
	}
}
