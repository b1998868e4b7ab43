package tablestore

import (
	"strings"
	"testing"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	"github.com/spirit-labs/tekagg/types"
	"github.com/stretchr/testify/require"
)

func intBatch(schema *evbatch.EventSchema, vals ...int64) *evbatch.Batch {
	builder := evbatch.NewIntColBuilder()
	for _, v := range vals {
		builder.Append(v)
	}
	return evbatch.NewBatchFromBuilders(schema, builder)
}

func TestTableAddBatch(t *testing.T) {
	schema := evbatch.NewEventSchema([]string{"x"}, []types.ColumnType{types.ColumnTypeInt})
	table := NewTable(schema)
	require.NoError(t, table.AddBatch(intBatch(schema, 1, 2, 3).WithTags(true, true)))
	require.NoError(t, table.AddBatch(intBatch(schema, 4)))
	require.Equal(t, 4, table.NumRows())
	require.Equal(t, 2, table.NumBatches())
	batches := table.Batches()
	require.False(t, batches[0].Eow)
	require.False(t, batches[0].Eos)

	other := evbatch.NewEventSchema([]string{"s"}, []types.ColumnType{types.ColumnTypeString})
	err := table.AddBatch(evbatch.CreateEmptyBatch(other))
	require.True(t, errors.IsEngineErrorWithCode(err, errors.SchemaMismatch))
}

func TestTableStoreNamesSorted(t *testing.T) {
	schema := evbatch.NewEventSchema([]string{"x"}, []types.ColumnType{types.ColumnTypeInt})
	store := NewTableStore()
	require.NoError(t, store.AddTable("orders", NewTable(schema)))
	require.NoError(t, store.AddTable("customers", NewTable(schema)))
	require.NoError(t, store.AddTablet("events", "1", NewTable(schema)))
	require.Equal(t, []string{"customers", "events", "orders"}, store.TableNames())

	require.Error(t, store.AddTable("orders", NewTable(schema)))
	require.Error(t, store.AddTablet("events", "1", NewTable(schema)))
	require.NotNil(t, store.GetTable("orders"))
	require.Nil(t, store.GetTable("events"))
	require.Nil(t, store.GetTable("missing"))
	require.NotNil(t, store.GetTablet("events", "1"))
	require.Nil(t, store.GetTablet("events", "2"))
	require.Nil(t, store.GetTablet("orders", "1"))
}

func TestGetOrCreateTable(t *testing.T) {
	schema := evbatch.NewEventSchema([]string{"x"}, []types.ColumnType{types.ColumnTypeInt})
	store := NewTableStore()
	t1, err := store.GetOrCreateTable("out", schema)
	require.NoError(t, err)
	t2, err := store.GetOrCreateTable("out", schema)
	require.NoError(t, err)
	require.Same(t, t1, t2)

	other := evbatch.NewEventSchema([]string{"s"}, []types.ColumnType{types.ColumnTypeString})
	_, err = store.GetOrCreateTable("out", other)
	require.True(t, errors.IsEngineErrorWithCode(err, errors.SchemaMismatch))
}

func TestLoadJSONLines(t *testing.T) {
	schema, err := evbatch.ParseEventSchema("id:int,name:string,amount:float,ok:bool,price:decimal(10,2),ts:timestamp,raw:bytes")
	require.NoError(t, err)
	input := `{"id": 1, "name": "a", "amount": 1.5, "ok": true, "price": "12.34", "ts": 1000, "raw": "xy"}

{"id": 2, "name": null, "amount": 2, "ok": false, "price": 5.1}
{"id": 3}
`
	table, err := LoadJSONLines(strings.NewReader(input), schema, 2)
	require.NoError(t, err)
	require.Equal(t, 3, table.NumRows())
	require.Equal(t, 2, table.NumBatches())

	batches := table.Batches()
	row := batches[0].Row(0)
	require.Equal(t, int64(1), row[0])
	require.Equal(t, "a", row[1])
	require.Equal(t, 1.5, row[2])
	require.Equal(t, true, row[3])
	price := row[4].(types.Decimal)
	require.Equal(t, "12.34", price.String())
	require.Equal(t, types.NewTimestamp(1000), row[5])
	require.Equal(t, []byte("xy"), row[6])

	row = batches[0].Row(1)
	require.Nil(t, row[1])
	require.Equal(t, 2.0, row[2])
	price = row[4].(types.Decimal)
	require.Equal(t, "5.10", price.String())
	require.Nil(t, row[5])

	row = batches[1].Row(0)
	require.Equal(t, int64(3), row[0])
	for _, v := range row[1:] {
		require.Nil(t, v)
	}
}

func TestLoadJSONLinesNestedPath(t *testing.T) {
	schema, err := evbatch.ParseEventSchema("customer.id:int")
	require.NoError(t, err)
	table, err := LoadJSONLines(strings.NewReader(`{"customer": {"id": 7}}`), schema, 10)
	require.NoError(t, err)
	require.Equal(t, int64(7), table.Batches()[0].Row(0)[0])
}

func TestLoadJSONLinesErrors(t *testing.T) {
	schema, err := evbatch.ParseEventSchema("id:int,name:string")
	require.NoError(t, err)

	_, err = LoadJSONLines(strings.NewReader("{\"id\": 1}\n{\"id\": \"x\"}"), schema, 10)
	require.Error(t, err)
	require.Equal(t, `line 2: column id: expected integer but found "x"`, err.Error())

	_, err = LoadJSONLines(strings.NewReader(`{"id": 1.5}`), schema, 10)
	require.Error(t, err)

	_, err = LoadJSONLines(strings.NewReader(`{"name": 3}`), schema, 10)
	require.Equal(t, "line 1: column name: expected string but found 3", err.Error())

	_, err = LoadJSONLines(strings.NewReader(`{"id": `), schema, 10)
	require.Equal(t, "line 1: invalid json", err.Error())

	_, err = LoadJSONLines(strings.NewReader(``), schema, 0)
	require.Error(t, err)
}

func TestLoadJSONLinesEmpty(t *testing.T) {
	schema, err := evbatch.ParseEventSchema("id:int")
	require.NoError(t, err)
	table, err := LoadJSONLines(strings.NewReader("\n\n"), schema, 10)
	require.NoError(t, err)
	require.Equal(t, 0, table.NumRows())
	require.Equal(t, 0, table.NumBatches())
}
