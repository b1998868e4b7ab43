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

package uda

import (
	"bytes"
	"strings"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/types"
)

// Builtin aggregates skip NULL arguments. All of them return NULL when no non-NULL value was seen, except count
// which returns 0.

var allArgTypes = []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeFloat, types.ColumnTypeBool, AnyDecimal,
	types.ColumnTypeString, types.ColumnTypeBytes, types.ColumnTypeTimestamp}

func RegisterBuiltins(reg *Registry) error {
	var defs []*Definition
	defs = append(defs, &Definition{
		Name:       "count",
		ReturnType: types.ColumnTypeInt,
		Factory:    func() UDA { return &countUDA{countNulls: true} },
		Doc:        NewDoc("Counts the rows in the group."),
	})
	for _, at := range allArgTypes {
		defs = append(defs, &Definition{
			Name:       "count",
			ArgTypes:   []types.ColumnType{at},
			ReturnType: types.ColumnTypeInt,
			Factory:    func() UDA { return &countUDA{} },
			Doc: NewDoc("Counts the non-null values in the group.").
				Arg("val", "the value to count").
				Returns("the number of non-null values, 0 for an empty group").
				Example("count(amount)"),
		})
	}

	defs = append(defs,
		sumDef(types.ColumnTypeInt, func() UDA { return &sumUDA[int64]{} }),
		sumDef(types.ColumnTypeFloat, func() UDA { return &sumUDA[float64]{} }),
		sumDef(AnyDecimal, func() UDA { return &decimalSumUDA{} }),
	)

	for _, at := range []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeFloat, AnyDecimal,
		types.ColumnTypeString, types.ColumnTypeBytes, types.ColumnTypeTimestamp} {
		defs = append(defs, extremeDef("min", at, true), extremeDef("max", at, false))
	}

	defs = append(defs,
		avgDef(types.ColumnTypeInt, types.ColumnTypeFloat),
		avgDef(types.ColumnTypeFloat, types.ColumnTypeFloat),
		avgDef(AnyDecimal, types.DefaultDecimalType),
		avgDef(types.ColumnTypeTimestamp, types.ColumnTypeTimestamp),
	)

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func sameAsArg(argTypes []types.ColumnType) types.ColumnType {
	return argTypes[0]
}

func sumDef(argType types.ColumnType, factory Factory) *Definition {
	def := &Definition{
		Name:     "sum",
		ArgTypes: []types.ColumnType{argType},
		Factory:  factory,
		Doc: NewDoc("Sums the non-null values in the group.").
			Arg("val", "the value to sum").
			Returns("the sum, or null if the group has no non-null values").
			Example("sum(amount)"),
	}
	if argType == AnyDecimal {
		// widen to the maximum precision keeping the scale
		def.ReturnTypeFunc = func(argTypes []types.ColumnType) types.ColumnType {
			return &types.DecimalType{Precision: types.DefaultDecimalPrecision, Scale: argTypes[0].(*types.DecimalType).Scale}
		}
	} else {
		def.ReturnType = argType
	}
	return def
}

func extremeDef(name string, argType types.ColumnType, isMin bool) *Definition {
	def := &Definition{
		Name:     name,
		ArgTypes: []types.ColumnType{argType},
		Doc: NewDoc("Returns the " + name + "imum non-null value in the group.").
			Arg("val", "the value to compare").
			Returns("the " + name + "imum, or null if the group has no non-null values").
			Example(name + "(amount)"),
	}
	if argType == AnyDecimal {
		def.ReturnTypeFunc = sameAsArg
	} else {
		def.ReturnType = argType
	}
	switch argType.ID() {
	case types.ColumnTypeIDInt:
		def.Factory = extremeFactory(isMin, func(a, b int64) bool { return a < b })
	case types.ColumnTypeIDFloat:
		def.Factory = extremeFactory(isMin, func(a, b float64) bool { return a < b })
	case types.ColumnTypeIDDecimal:
		def.Factory = extremeFactory(isMin, func(a, b types.Decimal) bool { return a.LessThan(&b) })
	case types.ColumnTypeIDString:
		def.Factory = extremeFactory(isMin, func(a, b string) bool { return a < b })
	case types.ColumnTypeIDBytes:
		def.Factory = extremeFactory(isMin, func(a, b []byte) bool { return bytes.Compare(a, b) < 0 })
	case types.ColumnTypeIDTimestamp:
		def.Factory = extremeFactory(isMin, func(a, b types.Timestamp) bool { return a.Val < b.Val })
	default:
		panic("unsupported type")
	}
	return def
}

func avgDef(argType types.ColumnType, returnType types.ColumnType) *Definition {
	def := &Definition{
		Name:       "avg",
		ArgTypes:   []types.ColumnType{argType},
		ReturnType: returnType,
		Doc: NewDoc("Returns the mean of the non-null values in the group.").
			Arg("val", "the value to average").
			Returns("the mean, or null if the group has no non-null values").
			Example("avg(latency)"),
	}
	switch argType.ID() {
	case types.ColumnTypeIDDecimal:
		def.Factory = func() UDA { return &decimalAvgUDA{} }
	case types.ColumnTypeIDTimestamp:
		def.Factory = func() UDA { return &avgUDA{timestamp: true} }
	default:
		def.Factory = func() UDA { return &avgUDA{} }
	}
	return def
}

type countUDA struct {
	countNulls bool
	count      int64
}

func (c *countUDA) Update(_ *FunctionContext, args []any) error {
	if c.countNulls || args[0] != nil {
		c.count++
	}
	return nil
}

func (c *countUDA) Merge(_ *FunctionContext, other UDA) error {
	o, err := mergeSource[*countUDA](c, other)
	if err != nil {
		return err
	}
	c.count += o.count
	return nil
}

func (c *countUDA) Finalize(*FunctionContext) (any, error) {
	return c.count, nil
}

type sumUDA[T int64 | float64] struct {
	sum  T
	seen bool
}

func (s *sumUDA[T]) Update(_ *FunctionContext, args []any) error {
	if args[0] == nil {
		return nil
	}
	s.sum += args[0].(T)
	s.seen = true
	return nil
}

func (s *sumUDA[T]) Merge(_ *FunctionContext, other UDA) error {
	o, err := mergeSource[*sumUDA[T]](s, other)
	if err != nil {
		return err
	}
	if o.seen {
		s.sum += o.sum
		s.seen = true
	}
	return nil
}

func (s *sumUDA[T]) Finalize(*FunctionContext) (any, error) {
	if !s.seen {
		return nil, nil
	}
	return s.sum, nil
}

type decimalSumUDA struct {
	sum  types.Decimal
	seen bool
}

func (s *decimalSumUDA) add(d types.Decimal) error {
	if !s.seen {
		s.sum = d.ConvertPrecisionAndScale(types.DefaultDecimalPrecision, d.Scale)
		s.seen = true
		return nil
	}
	res, err := s.sum.Add(&d)
	if err != nil {
		return err
	}
	s.sum = res
	return nil
}

func (s *decimalSumUDA) Update(_ *FunctionContext, args []any) error {
	if args[0] == nil {
		return nil
	}
	return s.add(args[0].(types.Decimal))
}

func (s *decimalSumUDA) Merge(_ *FunctionContext, other UDA) error {
	o, err := mergeSource[*decimalSumUDA](s, other)
	if err != nil {
		return err
	}
	if !o.seen {
		return nil
	}
	return s.add(o.sum)
}

func (s *decimalSumUDA) Finalize(*FunctionContext) (any, error) {
	if !s.seen {
		return nil, nil
	}
	return s.sum, nil
}

// extremeUDA keeps the minimum (or maximum) according to less.
type extremeUDA[T any] struct {
	val   T
	seen  bool
	isMin bool
	less  func(a, b T) bool
}

func extremeFactory[T any](isMin bool, less func(a, b T) bool) Factory {
	return func() UDA {
		return &extremeUDA[T]{isMin: isMin, less: less}
	}
}

func (e *extremeUDA[T]) offer(v T) {
	if !e.seen {
		e.val = retainable(v)
		e.seen = true
		return
	}
	if e.isMin && e.less(v, e.val) || !e.isMin && e.less(e.val, v) {
		e.val = retainable(v)
	}
}

// retainable copies values that may alias batch memory.
func retainable[T any](v T) T {
	switch tv := any(v).(type) {
	case []byte:
		return any(bytes.Clone(tv)).(T)
	case string:
		return any(strings.Clone(tv)).(T)
	}
	return v
}

func (e *extremeUDA[T]) Update(_ *FunctionContext, args []any) error {
	if args[0] == nil {
		return nil
	}
	e.offer(args[0].(T))
	return nil
}

func (e *extremeUDA[T]) Merge(_ *FunctionContext, other UDA) error {
	o, err := mergeSource[*extremeUDA[T]](e, other)
	if err != nil {
		return err
	}
	if o.isMin != e.isMin {
		return errors.New("cannot merge min with max")
	}
	if o.seen {
		e.offer(o.val)
	}
	return nil
}

func (e *extremeUDA[T]) Finalize(*FunctionContext) (any, error) {
	if !e.seen {
		return nil, nil
	}
	return e.val, nil
}

type avgUDA struct {
	timestamp bool
	total     float64
	count     int64
}

func (a *avgUDA) Update(_ *FunctionContext, args []any) error {
	switch v := args[0].(type) {
	case nil:
		return nil
	case int64:
		a.total += float64(v)
	case float64:
		a.total += v
	case types.Timestamp:
		a.total += float64(v.Val)
	default:
		return errors.Errorf("avg does not support argument of type %T", v)
	}
	a.count++
	return nil
}

func (a *avgUDA) Merge(_ *FunctionContext, other UDA) error {
	o, err := mergeSource[*avgUDA](a, other)
	if err != nil {
		return err
	}
	a.total += o.total
	a.count += o.count
	return nil
}

func (a *avgUDA) Finalize(*FunctionContext) (any, error) {
	if a.count == 0 {
		return nil, nil
	}
	avg := a.total / float64(a.count)
	if a.timestamp {
		return types.NewTimestamp(int64(avg)), nil
	}
	return avg, nil
}

type decimalAvgUDA struct {
	sum   decimalSumUDA
	count int64
}

func (a *decimalAvgUDA) Update(ctx *FunctionContext, args []any) error {
	if args[0] == nil {
		return nil
	}
	if err := a.sum.Update(ctx, args); err != nil {
		return err
	}
	a.count++
	return nil
}

func (a *decimalAvgUDA) Merge(ctx *FunctionContext, other UDA) error {
	o, err := mergeSource[*decimalAvgUDA](a, other)
	if err != nil {
		return err
	}
	if err := a.sum.Merge(ctx, &o.sum); err != nil {
		return err
	}
	a.count += o.count
	return nil
}

func (a *decimalAvgUDA) Finalize(*FunctionContext) (any, error) {
	if a.count == 0 {
		return nil, nil
	}
	sum := a.sum.sum.ConvertPrecisionAndScale(types.DefaultDecimalPrecision, types.DefaultDecimalScale)
	avg, err := sum.DivideByInt64(a.count)
	if err != nil {
		return nil, err
	}
	return avg, nil
}

func mergeSource[T UDA](target UDA, other UDA) (T, error) {
	o, ok := other.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("cannot merge %T into %T", other, target)
	}
	return o, nil
}
