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

package evbatch

import (
	"fmt"

	"github.com/spirit-labs/tekagg/encoding"
	"github.com/spirit-labs/tekagg/types"
)

// EncodeKeyCols appends the byte-comparable key encoding of the given columns of a row to buffer.
func EncodeKeyCols(batch *Batch, rowIndex int, colIndexes []int, buffer []byte) []byte {
	columnTypes := batch.Schema.columnTypes
	for _, colIndex := range colIndexes {
		buffer = EncodeKeyCol(rowIndex, batch.Columns[colIndex], columnTypes[colIndex], buffer)
	}
	return buffer
}

// EncodeKeyCol writes a null marker byte, 0 for NULL and 1 otherwise, followed by the encoded value.
func EncodeKeyCol(rowIndex int, col Column, colType types.ColumnType, buffer []byte) []byte {
	if col.IsNull(rowIndex) {
		return append(buffer, 0)
	}
	buffer = append(buffer, 1)
	switch colType.ID() {
	case types.ColumnTypeIDInt:
		buffer = encoding.KeyEncodeInt(buffer, col.(*IntColumn).Get(rowIndex))
	case types.ColumnTypeIDFloat:
		buffer = encoding.KeyEncodeFloat(buffer, col.(*FloatColumn).Get(rowIndex))
	case types.ColumnTypeIDBool:
		buffer = encoding.AppendBoolToBuffer(buffer, col.(*BoolColumn).Get(rowIndex))
	case types.ColumnTypeIDDecimal:
		buffer = encoding.KeyEncodeDecimal(buffer, col.(*DecimalColumn).Get(rowIndex))
	case types.ColumnTypeIDString:
		buffer = encoding.KeyEncodeString(buffer, col.(*StringColumn).Get(rowIndex))
	case types.ColumnTypeIDBytes:
		buffer = encoding.KeyEncodeBytes(buffer, col.(*BytesColumn).Get(rowIndex))
	case types.ColumnTypeIDTimestamp:
		buffer = encoding.KeyEncodeTimestamp(buffer, col.(*TimestampColumn).Get(rowIndex))
	default:
		panic(fmt.Sprintf("unexpected column type %d", colType.ID()))
	}
	return buffer
}

// LoadColsFromKey decodes a key written by EncodeKeyCols and appends one value to each builder.
func LoadColsFromKey(colBuilders []ColumnBuilder, keyTypes []types.ColumnType, key []byte) error {
	vals, _, err := encoding.DecodeKeyToSlice(key, 0, keyTypes)
	if err != nil {
		return err
	}
	for i, val := range vals {
		if err := AppendValue(colBuilders[i], keyTypes[i], val); err != nil {
			return err
		}
	}
	return nil
}
