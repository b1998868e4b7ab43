package evbatch

import (
	"fmt"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/spirit-labs/tekagg/types"
)

// Column is an immutable arrow backed column. Columns use the go allocator so nothing needs releasing.
type Column interface {
	IsNull(row int) bool
	Len() int
	// SizeBytes is the size of the non-null values held by the column.
	SizeBytes() int
}

type ColumnBuilder interface {
	AppendNull()
	Len() int
	Build() Column
}

var allocator = memory.NewGoAllocator()

type IntColBuilder struct {
	builder *array.Int64Builder
}

func NewIntColBuilder() *IntColBuilder {
	return &IntColBuilder{builder: array.NewInt64Builder(allocator)}
}

func (b *IntColBuilder) AppendNull() {
	b.builder.AppendNull()
}

func (b *IntColBuilder) Append(val int64) {
	b.builder.Append(val)
}

func (b *IntColBuilder) Len() int {
	return b.builder.Len()
}

func (b *IntColBuilder) Build() Column {
	return &IntColumn{array: b.builder.NewInt64Array()}
}

var _ Column = &IntColumn{}

type IntColumn struct {
	array *array.Int64
}

func (c *IntColumn) Get(row int) int64 {
	return c.array.Value(row)
}

func (c *IntColumn) IsNull(row int) bool {
	return c.array.IsNull(row)
}

func (c *IntColumn) Len() int {
	return c.array.Len()
}

func (c *IntColumn) SizeBytes() int {
	return 8 * (c.array.Len() - c.array.NullN())
}

type FloatColBuilder struct {
	builder *array.Float64Builder
}

func NewFloatColBuilder() *FloatColBuilder {
	return &FloatColBuilder{builder: array.NewFloat64Builder(allocator)}
}

func (b *FloatColBuilder) AppendNull() {
	b.builder.AppendNull()
}

func (b *FloatColBuilder) Append(val float64) {
	b.builder.Append(val)
}

func (b *FloatColBuilder) Len() int {
	return b.builder.Len()
}

func (b *FloatColBuilder) Build() Column {
	return &FloatColumn{array: b.builder.NewFloat64Array()}
}

var _ Column = &FloatColumn{}

type FloatColumn struct {
	array *array.Float64
}

func (c *FloatColumn) Get(row int) float64 {
	return c.array.Value(row)
}

func (c *FloatColumn) IsNull(row int) bool {
	return c.array.IsNull(row)
}

func (c *FloatColumn) Len() int {
	return c.array.Len()
}

func (c *FloatColumn) SizeBytes() int {
	return 8 * (c.array.Len() - c.array.NullN())
}

type BoolColBuilder struct {
	builder *array.BooleanBuilder
}

func NewBoolColBuilder() *BoolColBuilder {
	return &BoolColBuilder{builder: array.NewBooleanBuilder(allocator)}
}

func (b *BoolColBuilder) AppendNull() {
	b.builder.AppendNull()
}

func (b *BoolColBuilder) Append(val bool) {
	b.builder.Append(val)
}

func (b *BoolColBuilder) Len() int {
	return b.builder.Len()
}

func (b *BoolColBuilder) Build() Column {
	return &BoolColumn{array: b.builder.NewBooleanArray()}
}

var _ Column = &BoolColumn{}

type BoolColumn struct {
	array *array.Boolean
}

func (c *BoolColumn) Get(row int) bool {
	return c.array.Value(row)
}

func (c *BoolColumn) IsNull(row int) bool {
	return c.array.IsNull(row)
}

func (c *BoolColumn) Len() int {
	return c.array.Len()
}

func (c *BoolColumn) SizeBytes() int {
	return c.array.Len() - c.array.NullN()
}

type DecimalColBuilder struct {
	decimalType *types.DecimalType
	builder     *array.Decimal128Builder
}

func NewDecimalColBuilder(decimalType *types.DecimalType) *DecimalColBuilder {
	dt := &arrow.Decimal128Type{
		Precision: int32(decimalType.Precision),
		Scale:     int32(decimalType.Scale),
	}
	return &DecimalColBuilder{
		decimalType: decimalType,
		builder:     array.NewDecimal128Builder(allocator, dt),
	}
}

func (b *DecimalColBuilder) AppendNull() {
	b.builder.AppendNull()
}

// Append rescales the value to the column's precision and scale if they differ.
func (b *DecimalColBuilder) Append(val types.Decimal) {
	if val.Scale != b.decimalType.Scale {
		val = val.ConvertPrecisionAndScale(b.decimalType.Precision, b.decimalType.Scale)
	}
	b.builder.Append(val.Num)
}

func (b *DecimalColBuilder) Len() int {
	return b.builder.Len()
}

func (b *DecimalColBuilder) Build() Column {
	return &DecimalColumn{
		precision: b.decimalType.Precision,
		scale:     b.decimalType.Scale,
		array:     b.builder.NewDecimal128Array(),
	}
}

var _ Column = &DecimalColumn{}

type DecimalColumn struct {
	precision int
	scale     int
	array     *array.Decimal128
}

func (c *DecimalColumn) Get(row int) types.Decimal {
	return types.Decimal{
		Num:       c.array.Value(row),
		Precision: c.precision,
		Scale:     c.scale,
	}
}

func (c *DecimalColumn) IsNull(row int) bool {
	return c.array.IsNull(row)
}

func (c *DecimalColumn) Len() int {
	return c.array.Len()
}

func (c *DecimalColumn) SizeBytes() int {
	return 16 * (c.array.Len() - c.array.NullN())
}

type StringColBuilder struct {
	builder *array.StringBuilder
}

func NewStringColBuilder() *StringColBuilder {
	return &StringColBuilder{builder: array.NewStringBuilder(allocator)}
}

func (b *StringColBuilder) AppendNull() {
	b.builder.AppendNull()
}

func (b *StringColBuilder) Append(val string) {
	b.builder.Append(val)
}

func (b *StringColBuilder) Len() int {
	return b.builder.Len()
}

func (b *StringColBuilder) Build() Column {
	return &StringColumn{array: b.builder.NewStringArray()}
}

var _ Column = &StringColumn{}

type StringColumn struct {
	array *array.String
}

// Get returns a string backed by the column buffer.
func (c *StringColumn) Get(row int) string {
	return c.array.Value(row)
}

func (c *StringColumn) IsNull(row int) bool {
	return c.array.IsNull(row)
}

func (c *StringColumn) Len() int {
	return c.array.Len()
}

func (c *StringColumn) SizeBytes() int {
	size := 0
	for i := 0; i < c.array.Len(); i++ {
		if !c.array.IsNull(i) {
			size += len(c.array.Value(i))
		}
	}
	return size
}

type BytesColBuilder struct {
	builder *array.BinaryBuilder
}

func NewBytesColBuilder() *BytesColBuilder {
	return &BytesColBuilder{builder: array.NewBinaryBuilder(allocator, arrow.BinaryTypes.Binary)}
}

func (b *BytesColBuilder) AppendNull() {
	b.builder.AppendNull()
}

func (b *BytesColBuilder) Append(val []byte) {
	b.builder.Append(val)
}

func (b *BytesColBuilder) Len() int {
	return b.builder.Len()
}

func (b *BytesColBuilder) Build() Column {
	return &BytesColumn{array: b.builder.NewBinaryArray()}
}

var _ Column = &BytesColumn{}

type BytesColumn struct {
	array *array.Binary
}

// Get returns a slice of the column buffer which must not be modified.
func (c *BytesColumn) Get(row int) []byte {
	return c.array.Value(row)
}

func (c *BytesColumn) IsNull(row int) bool {
	return c.array.IsNull(row)
}

func (c *BytesColumn) Len() int {
	return c.array.Len()
}

func (c *BytesColumn) SizeBytes() int {
	size := 0
	for i := 0; i < c.array.Len(); i++ {
		if !c.array.IsNull(i) {
			size += len(c.array.Value(i))
		}
	}
	return size
}

type TimestampColBuilder struct {
	builder *array.Int64Builder
}

func NewTimestampColBuilder() *TimestampColBuilder {
	return &TimestampColBuilder{builder: array.NewInt64Builder(allocator)}
}

func (b *TimestampColBuilder) AppendNull() {
	b.builder.AppendNull()
}

func (b *TimestampColBuilder) Append(val types.Timestamp) {
	b.builder.Append(val.Val)
}

func (b *TimestampColBuilder) Len() int {
	return b.builder.Len()
}

func (b *TimestampColBuilder) Build() Column {
	return &TimestampColumn{array: b.builder.NewInt64Array()}
}

var _ Column = &TimestampColumn{}

type TimestampColumn struct {
	array *array.Int64
}

func (c *TimestampColumn) Get(row int) types.Timestamp {
	return types.NewTimestamp(c.array.Value(row))
}

func (c *TimestampColumn) IsNull(row int) bool {
	return c.array.IsNull(row)
}

func (c *TimestampColumn) Len() int {
	return c.array.Len()
}

func (c *TimestampColumn) SizeBytes() int {
	return 8 * (c.array.Len() - c.array.NullN())
}

func NewColBuilder(ct types.ColumnType) ColumnBuilder {
	switch ct.ID() {
	case types.ColumnTypeIDInt:
		return NewIntColBuilder()
	case types.ColumnTypeIDFloat:
		return NewFloatColBuilder()
	case types.ColumnTypeIDBool:
		return NewBoolColBuilder()
	case types.ColumnTypeIDDecimal:
		return NewDecimalColBuilder(ct.(*types.DecimalType))
	case types.ColumnTypeIDString:
		return NewStringColBuilder()
	case types.ColumnTypeIDBytes:
		return NewBytesColBuilder()
	case types.ColumnTypeIDTimestamp:
		return NewTimestampColBuilder()
	default:
		panic(fmt.Sprintf("unknown column type %d", ct.ID()))
	}
}

func CreateColBuilders(columnTypes []types.ColumnType) []ColumnBuilder {
	colBuilders := make([]ColumnBuilder, len(columnTypes))
	for i, ct := range columnTypes {
		colBuilders[i] = NewColBuilder(ct)
	}
	return colBuilders
}
