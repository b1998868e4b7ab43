package plan

import (
	"fmt"
	"os"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const AggregateOperatorType = "AGGREGATE_OPERATOR"

// ColumnRef identifies a column of the output of the node with id NodeID.
type ColumnRef struct {
	NodeID int `json:"node_id"`
	Index  int `json:"index"`
}

func (c ColumnRef) String() string {
	return fmt.Sprintf("%d:$%d", c.NodeID, c.Index)
}

type AggregateExpression struct {
	Name string      `json:"name"`
	Args []ColumnRef `json:"args"`
}

// AggregateOperator is the physical plan of an aggregation. Output columns are the groups in order followed by
// the values in order. Names are labels only.
type AggregateOperator struct {
	Windowed   bool                  `json:"windowed"`
	Groups     []ColumnRef           `json:"groups"`
	GroupNames []string              `json:"group_names"`
	Values     []AggregateExpression `json:"values"`
	ValueNames []string              `json:"value_names"`
}

// Validate performs structural checks only. Column references are resolved against the input schema when the
// operator is initialised.
func (a *AggregateOperator) Validate() error {
	if len(a.GroupNames) != 0 && len(a.GroupNames) != len(a.Groups) {
		return errors.NewPlanParseError("aggregate has %d groups but %d group names", len(a.Groups), len(a.GroupNames))
	}
	if len(a.ValueNames) != 0 && len(a.ValueNames) != len(a.Values) {
		return errors.NewPlanParseError("aggregate has %d values but %d value names", len(a.Values), len(a.ValueNames))
	}
	for i, val := range a.Values {
		if val.Name == "" {
			return errors.NewPlanParseError("aggregate value %d has no function name", i)
		}
	}
	return nil
}

// ApplyDefaultNames names unnamed groups g<i> and values v<i>.
func (a *AggregateOperator) ApplyDefaultNames() {
	if len(a.GroupNames) == 0 && len(a.Groups) > 0 {
		a.GroupNames = make([]string, len(a.Groups))
		for i := range a.Groups {
			a.GroupNames[i] = fmt.Sprintf("g%d", i)
		}
	}
	if len(a.ValueNames) == 0 && len(a.Values) > 0 {
		a.ValueNames = make([]string, len(a.Values))
		for i := range a.Values {
			a.ValueNames[i] = fmt.Sprintf("v%d", i)
		}
	}
}

// MemorySourceOperator reads a table, or one tablet of it, from the table store.
type MemorySourceOperator struct {
	TableName string `json:"name"`
	Tablet    string `json:"tablet"`
	// ColumnIndexes projects the table columns, all columns are read when empty
	ColumnIndexes []int `json:"column_idxs"`
	// Streaming sources never end the stream and pick up batches added after open
	Streaming bool `json:"streaming"`
	// WindowRows marks the end of a window every WindowRows rows, splitting batches where needed
	WindowRows int `json:"window_rows"`
}

func (m *MemorySourceOperator) Validate() error {
	if m.TableName == "" {
		return errors.NewPlanParseError("memory source has no table name")
	}
	if m.WindowRows < 0 {
		return errors.NewPlanParseError("memory source window rows must be >= 0")
	}
	for _, idx := range m.ColumnIndexes {
		if idx < 0 {
			return errors.NewPlanParseError("memory source column index %d is negative", idx)
		}
	}
	return nil
}

// MemorySinkOperator appends its input to a table in the table store.
type MemorySinkOperator struct {
	TableName string `json:"name"`
}

// Operator is the envelope used in plan files.
type Operator struct {
	OpType string             `json:"op_type"`
	AggOp  *AggregateOperator `json:"agg_op"`
}

// UnmarshalOperator parses a JSON5 operator and returns the validated aggregate it holds.
func UnmarshalOperator(data []byte) (*AggregateOperator, error) {
	var op Operator
	if err := json5.Unmarshal(data, &op); err != nil {
		return nil, errors.NewPlanParseError("invalid operator: %v", err)
	}
	if op.OpType != AggregateOperatorType {
		return nil, errors.NewPlanParseError("unsupported operator type '%s'", op.OpType)
	}
	if op.AggOp == nil {
		return nil, errors.NewPlanParseError("operator of type %s has no agg_op", AggregateOperatorType)
	}
	if err := op.AggOp.Validate(); err != nil {
		return nil, err
	}
	op.AggOp.ApplyDefaultNames()
	return op.AggOp, nil
}

func LoadOperatorFile(path string) (*AggregateOperator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return UnmarshalOperator(data)
}
