package evbatch

import (
	"strings"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/types"
)

// EventSchema is the row descriptor of a batch. Column names are labels only, the types define the layout.
type EventSchema struct {
	columnNames []string
	columnTypes []types.ColumnType
}

func NewEventSchema(columnNames []string, columnTypes []types.ColumnType) *EventSchema {
	if len(columnNames) != len(columnTypes) {
		panic("columnNames and columnTypes must be same length")
	}
	return &EventSchema{
		columnNames: columnNames,
		columnTypes: columnTypes,
	}
}

// ParseEventSchema parses a schema of the form "name:type,name:type". Decimal types may contain a comma, e.g.
// "amount:decimal(10,2)".
func ParseEventSchema(s string) (*EventSchema, error) {
	var names []string
	var colTypes []types.ColumnType
	for _, part := range splitSchemaColumns(s) {
		name, sType, ok := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.NewSchemaMismatchError("invalid schema column '%s', expected name:type", part)
		}
		colType, err := types.StringToColumnType(sType)
		if err != nil {
			return nil, errors.NewSchemaMismatchError("invalid schema column '%s': %v", part, err)
		}
		names = append(names, name)
		colTypes = append(colTypes, colType)
	}
	if len(names) == 0 {
		return nil, errors.NewSchemaMismatchError("schema must have at least one column")
	}
	return NewEventSchema(names, colTypes), nil
}

func splitSchemaColumns(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		parts = append(parts, s[start:])
	}
	return parts
}

func (s *EventSchema) ColumnNames() []string {
	return s.columnNames
}

func (s *EventSchema) ColumnTypes() []types.ColumnType {
	return s.columnTypes
}

func (s *EventSchema) NumColumns() int {
	return len(s.columnTypes)
}

// ColumnIndex returns the index of the first column with the given name, or -1.
func (s *EventSchema) ColumnIndex(name string) int {
	for i, n := range s.columnNames {
		if n == name {
			return i
		}
	}
	return -1
}

// TypesEqual compares the column types only.
func (s *EventSchema) TypesEqual(other *EventSchema) bool {
	return types.ColumnTypeSlicesEqual(s.columnTypes, other.columnTypes)
}

func (s *EventSchema) String() string {
	sb := strings.Builder{}
	for i, colName := range s.columnNames {
		sb.WriteString(colName)
		sb.WriteString(": ")
		sb.WriteString(s.columnTypes[i].String())
		if i != len(s.columnNames)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}
