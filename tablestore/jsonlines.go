package tablestore

import (
	"bufio"
	"bytes"
	"io"
	"math"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	"github.com/spirit-labs/tekagg/types"
	"github.com/tidwall/gjson"
)

const maxLineSize = 16 * 1024 * 1024

// LoadJSONLines reads one JSON object per line and returns a table with the given schema. Each column is read
// from the field path named after it. Missing or null fields are NULL. Blank lines are skipped.
func LoadJSONLines(r io.Reader, schema *evbatch.EventSchema, maxBatchRows int) (*Table, error) {
	if maxBatchRows <= 0 {
		return nil, errors.Errorf("invalid max batch rows %d", maxBatchRows)
	}
	table := NewTable(schema)
	colTypes := schema.ColumnTypes()
	colNames := schema.ColumnNames()
	builders := evbatch.CreateColBuilders(colTypes)
	rows := 0
	flush := func() error {
		if rows == 0 {
			return nil
		}
		if err := table.AddBatch(evbatch.NewBatchFromBuilders(schema, builders...)); err != nil {
			return err
		}
		builders = evbatch.CreateColBuilders(colTypes)
		rows = 0
		return nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, errors.Errorf("line %d: invalid json", lineNum)
		}
		for i, colName := range colNames {
			res := gjson.GetBytes(line, colName)
			val, err := jsonValue(res, colTypes[i])
			if err != nil {
				return nil, errors.Errorf("line %d: column %s: %v", lineNum, colName, err)
			}
			if err := evbatch.AppendValue(builders[i], colTypes[i], val); err != nil {
				return nil, err
			}
		}
		rows++
		if rows == maxBatchRows {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return table, nil
}

func jsonValue(res gjson.Result, ct types.ColumnType) (any, error) {
	if !res.Exists() || res.Type == gjson.Null {
		return nil, nil
	}
	switch ct.ID() {
	case types.ColumnTypeIDInt:
		if res.Type != gjson.Number || res.Num != math.Trunc(res.Num) {
			return nil, errors.Errorf("expected integer but found %s", res.Raw)
		}
		return res.Int(), nil
	case types.ColumnTypeIDFloat:
		if res.Type != gjson.Number {
			return nil, errors.Errorf("expected number but found %s", res.Raw)
		}
		return res.Float(), nil
	case types.ColumnTypeIDBool:
		if res.Type != gjson.True && res.Type != gjson.False {
			return nil, errors.Errorf("expected bool but found %s", res.Raw)
		}
		return res.Bool(), nil
	case types.ColumnTypeIDDecimal:
		// decimals may be given as numbers or strings, strings keep full precision
		if res.Type != gjson.Number && res.Type != gjson.String {
			return nil, errors.Errorf("expected decimal but found %s", res.Raw)
		}
		s := res.Str
		if res.Type == gjson.Number {
			s = res.Raw
		}
		dt := ct.(*types.DecimalType)
		d, err := types.NewDecimalFromString(s, dt.Precision, dt.Scale)
		if err != nil {
			return nil, err
		}
		return d, nil
	case types.ColumnTypeIDString:
		if res.Type != gjson.String {
			return nil, errors.Errorf("expected string but found %s", res.Raw)
		}
		return res.Str, nil
	case types.ColumnTypeIDBytes:
		if res.Type != gjson.String {
			return nil, errors.Errorf("expected string but found %s", res.Raw)
		}
		return []byte(res.Str), nil
	case types.ColumnTypeIDTimestamp:
		// unix millis
		if res.Type != gjson.Number || res.Num != math.Trunc(res.Num) {
			return nil, errors.Errorf("expected timestamp millis but found %s", res.Raw)
		}
		return types.NewTimestamp(res.Int()), nil
	default:
		return nil, errors.Errorf("unsupported column type %s", ct.String())
	}
}
