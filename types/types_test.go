package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringToColumnType(t *testing.T) {
	for _, ct := range []ColumnType{ColumnTypeInt, ColumnTypeFloat, ColumnTypeBool, ColumnTypeString,
		ColumnTypeBytes, ColumnTypeTimestamp, &DecimalType{Precision: 10, Scale: 2}} {
		parsed, err := StringToColumnType(ct.String())
		require.NoError(t, err)
		require.True(t, ColumnTypesEqual(ct, parsed))
	}
	parsed, err := StringToColumnType(" decimal( 20 , 4 ) ")
	require.NoError(t, err)
	require.Equal(t, &DecimalType{Precision: 20, Scale: 4}, parsed)
}

func TestStringToColumnTypeInvalid(t *testing.T) {
	for _, s := range []string{"int64", "decimal(10)", "decimal(x,2)", "decimal(10,y)", "decimal(0,0)",
		"decimal(39,2)", "decimal(5,6)", "decimal(5,-1)"} {
		_, err := StringToColumnType(s)
		require.Error(t, err, s)
	}
}

func TestColumnTypesEqual(t *testing.T) {
	require.True(t, ColumnTypesEqual(ColumnTypeInt, ColumnTypeInt))
	require.False(t, ColumnTypesEqual(ColumnTypeInt, ColumnTypeTimestamp))
	require.True(t, ColumnTypesEqual(&DecimalType{Precision: 10, Scale: 2}, &DecimalType{Precision: 10, Scale: 2}))
	require.False(t, ColumnTypesEqual(&DecimalType{Precision: 10, Scale: 2}, &DecimalType{Precision: 10, Scale: 3}))
	require.True(t, ColumnTypeSlicesEqual([]ColumnType{ColumnTypeInt, ColumnTypeString},
		[]ColumnType{ColumnTypeInt, ColumnTypeString}))
	require.False(t, ColumnTypeSlicesEqual([]ColumnType{ColumnTypeInt}, []ColumnType{ColumnTypeInt, ColumnTypeString}))
}

func TestColumnTypesToString(t *testing.T) {
	require.Equal(t, "int,decimal(10,2),string",
		ColumnTypesToString([]ColumnType{ColumnTypeInt, &DecimalType{Precision: 10, Scale: 2}, ColumnTypeString}))
	require.Equal(t, "", ColumnTypesToString(nil))
}

func TestAddressOf(t *testing.T) {
	p := AddressOf(1024)
	require.Equal(t, 1024, *p)
	b := AddressOf(true)
	require.True(t, *b)
}
