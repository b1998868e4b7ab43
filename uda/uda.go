// Package uda defines user defined aggregate functions, the registry that resolves them by signature and the
// builtin aggregates.
package uda

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spirit-labs/tekagg/errors"
	log "github.com/spirit-labs/tekagg/logger"
	"github.com/spirit-labs/tekagg/types"
	"go.uber.org/zap"
)

// UDA is one instance of an aggregate function holding the state for one group. Instances are only ever called
// from a single goroutine and must not share mutable state with other instances.
//
// Update receives the values of the declared argument columns for one row, as int64, float64, bool,
// types.Decimal, string, []byte or types.Timestamp. A nil argument is NULL.
// Merge folds the state of another instance created by the same definition into this one.
// Finalize returns the result, which must be of the definition's return type, or nil for NULL.
type UDA interface {
	Update(ctx *FunctionContext, args []any) error
	Merge(ctx *FunctionContext, other UDA) error
	Finalize(ctx *FunctionContext) (any, error)
}

type Factory func() UDA

// FunctionContext is passed to every UDA call.
type FunctionContext struct {
	QueryID uuid.UUID
	Log     *zap.SugaredLogger
}

func NewFunctionContext(queryID uuid.UUID) *FunctionContext {
	return &FunctionContext{
		QueryID: queryID,
		Log:     log.Named("uda").With("query_id", queryID.String()),
	}
}

// AnyDecimal in a definition's argument types matches a decimal of any precision and scale.
var AnyDecimal = &types.DecimalType{}

type Definition struct {
	Name     string
	ArgTypes []types.ColumnType
	// ReturnType is used unless ReturnTypeFunc is set.
	ReturnType     types.ColumnType
	ReturnTypeFunc func(argTypes []types.ColumnType) types.ColumnType
	Factory        Factory
	Doc            *Doc
}

func (d *Definition) Validate() error {
	if d.Name == "" {
		return errors.New("aggregate function must have a name")
	}
	if d.Factory == nil {
		return errors.Errorf("aggregate function '%s' has no factory", d.Name)
	}
	if d.ReturnType == nil && d.ReturnTypeFunc == nil {
		return errors.Errorf("aggregate function '%s' has no return type", d.Name)
	}
	for i, at := range d.ArgTypes {
		if at == nil {
			return errors.Errorf("aggregate function '%s' argument %d has no type", d.Name, i)
		}
	}
	if d.Doc != nil && len(d.Doc.args) > 0 && len(d.Doc.args) != len(d.ArgTypes) {
		return errors.Errorf("aggregate function '%s' documents %d arguments but takes %d", d.Name,
			len(d.Doc.args), len(d.ArgTypes))
	}
	return nil
}

// Signature is the registry key of the definition, e.g. "sum(int)".
func (d *Definition) Signature() string {
	return Signature(d.Name, d.ArgTypes)
}

// ResolveReturnType returns the result type for the given concrete argument types.
func (d *Definition) ResolveReturnType(argTypes []types.ColumnType) types.ColumnType {
	if d.ReturnTypeFunc != nil {
		return d.ReturnTypeFunc(argTypes)
	}
	return d.ReturnType
}

func Signature(name string, argTypes []types.ColumnType) string {
	return fmt.Sprintf("%s(%s)", name, argTypesString(argTypes))
}

func argTypesString(argTypes []types.ColumnType) string {
	s := ""
	for i, at := range argTypes {
		if i > 0 {
			s += ","
		}
		if at == AnyDecimal {
			s += "decimal"
		} else {
			s += at.String()
		}
	}
	return s
}

func argTypeMatches(declared types.ColumnType, actual types.ColumnType) bool {
	if declared == AnyDecimal {
		return actual.ID() == types.ColumnTypeIDDecimal
	}
	return types.ColumnTypesEqual(declared, actual)
}

func argTypesMatch(declared []types.ColumnType, actual []types.ColumnType) bool {
	if len(declared) != len(actual) {
		return false
	}
	for i, dt := range declared {
		if !argTypeMatches(dt, actual[i]) {
			return false
		}
	}
	return true
}
