package evbatch

import (
	"fmt"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/types"
)

// Values cross the column boundary as int64, float64, bool, types.Decimal, string, []byte or types.Timestamp.
// A nil value is NULL.

func GetValue(col Column, ct types.ColumnType, row int) any {
	if col.IsNull(row) {
		return nil
	}
	switch ct.ID() {
	case types.ColumnTypeIDInt:
		return col.(*IntColumn).Get(row)
	case types.ColumnTypeIDFloat:
		return col.(*FloatColumn).Get(row)
	case types.ColumnTypeIDBool:
		return col.(*BoolColumn).Get(row)
	case types.ColumnTypeIDDecimal:
		return col.(*DecimalColumn).Get(row)
	case types.ColumnTypeIDString:
		return col.(*StringColumn).Get(row)
	case types.ColumnTypeIDBytes:
		return col.(*BytesColumn).Get(row)
	case types.ColumnTypeIDTimestamp:
		return col.(*TimestampColumn).Get(row)
	default:
		panic(fmt.Sprintf("unknown column type %d", ct.ID()))
	}
}

// AppendValue appends val to a builder created for ct. Strings and byte slices are copied into the builder.
func AppendValue(builder ColumnBuilder, ct types.ColumnType, val any) error {
	if val == nil {
		builder.AppendNull()
		return nil
	}
	ok := true
	switch ct.ID() {
	case types.ColumnTypeIDInt:
		var v int64
		if v, ok = val.(int64); ok {
			builder.(*IntColBuilder).Append(v)
		}
	case types.ColumnTypeIDFloat:
		var v float64
		if v, ok = val.(float64); ok {
			builder.(*FloatColBuilder).Append(v)
		}
	case types.ColumnTypeIDBool:
		var v bool
		if v, ok = val.(bool); ok {
			builder.(*BoolColBuilder).Append(v)
		}
	case types.ColumnTypeIDDecimal:
		var v types.Decimal
		if v, ok = val.(types.Decimal); ok {
			builder.(*DecimalColBuilder).Append(v)
		}
	case types.ColumnTypeIDString:
		var v string
		if v, ok = val.(string); ok {
			builder.(*StringColBuilder).Append(v)
		}
	case types.ColumnTypeIDBytes:
		var v []byte
		if v, ok = val.([]byte); ok {
			builder.(*BytesColBuilder).Append(v)
		}
	case types.ColumnTypeIDTimestamp:
		var v types.Timestamp
		if v, ok = val.(types.Timestamp); ok {
			builder.(*TimestampColBuilder).Append(v)
		}
	default:
		panic(fmt.Sprintf("unknown column type %d", ct.ID()))
	}
	if !ok {
		return errors.Errorf("cannot append value of type %T to column of type %s", val, ct.String())
	}
	return nil
}

func CopyColumnEntry(ct types.ColumnType, col Column, colBuilder ColumnBuilder, row int) {
	if col.IsNull(row) {
		colBuilder.AppendNull()
		return
	}
	switch ct.ID() {
	case types.ColumnTypeIDInt:
		colBuilder.(*IntColBuilder).Append(col.(*IntColumn).Get(row))
	case types.ColumnTypeIDFloat:
		colBuilder.(*FloatColBuilder).Append(col.(*FloatColumn).Get(row))
	case types.ColumnTypeIDBool:
		colBuilder.(*BoolColBuilder).Append(col.(*BoolColumn).Get(row))
	case types.ColumnTypeIDDecimal:
		colBuilder.(*DecimalColBuilder).Append(col.(*DecimalColumn).Get(row))
	case types.ColumnTypeIDString:
		colBuilder.(*StringColBuilder).Append(col.(*StringColumn).Get(row))
	case types.ColumnTypeIDBytes:
		colBuilder.(*BytesColBuilder).Append(col.(*BytesColumn).Get(row))
	case types.ColumnTypeIDTimestamp:
		colBuilder.(*TimestampColBuilder).Append(col.(*TimestampColumn).Get(row))
	default:
		panic(fmt.Sprintf("unknown column type %d", ct.ID()))
	}
}
