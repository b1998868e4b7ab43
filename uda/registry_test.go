package uda

import (
	"testing"

	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/types"
	"github.com/stretchr/testify/require"
)

func minSumFactory() Factory {
	return NewFuncFactory(func(sum *int64, args []any) error {
		*sum += min(args[0].(int64), args[1].(int64))
		return nil
	}, func(sum *int64, other *int64) error {
		*sum += *other
		return nil
	}, func(sum *int64) (any, error) {
		return *sum, nil
	})
}

func minSumDef() *Definition {
	return &Definition{
		Name:       "minsum",
		ArgTypes:   []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeInt},
		ReturnType: types.ColumnTypeInt,
		Factory:    minSumFactory(),
		Doc: NewDoc("Sums the smaller of two values.").
			Arg("a", "first value").
			Arg("b", "second value").
			Returns("the sum of min(a, b)"),
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg, err := NewRegistry(10)
	require.NoError(t, err)
	require.NoError(t, reg.Register(minSumDef()))

	def, err := reg.Lookup("minsum", []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeInt})
	require.NoError(t, err)
	require.Equal(t, "minsum(int,int)", def.Signature())

	// cached resolution returns the same definition
	def2, err := reg.Lookup("minsum", []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeInt})
	require.NoError(t, err)
	require.Same(t, def, def2)

	require.Equal(t, []string{"minsum"}, reg.Names())
	require.Equal(t, 1, len(reg.Definitions("minsum")))
	require.Equal(t, 0, len(reg.Definitions("nope")))
}

func TestRegisterDuplicateSignature(t *testing.T) {
	reg, err := NewRegistry(10)
	require.NoError(t, err)
	require.NoError(t, reg.Register(minSumDef()))
	err = reg.Register(minSumDef())
	require.Error(t, err)
	require.Equal(t, "aggregate function minsum(int,int) is already registered", err.Error())
}

func TestRegisterInvalidDefinition(t *testing.T) {
	reg, err := NewRegistry(10)
	require.NoError(t, err)

	def := minSumDef()
	def.Factory = nil
	require.Error(t, reg.Register(def))

	def = minSumDef()
	def.Name = ""
	require.Error(t, reg.Register(def))

	def = minSumDef()
	def.ReturnType = nil
	require.Error(t, reg.Register(def))

	def = minSumDef()
	def.Doc = NewDoc("one arg only").Arg("a", "first value")
	err = reg.Register(def)
	require.Error(t, err)
	require.Equal(t, "aggregate function 'minsum' documents 1 arguments but takes 2", err.Error())
}

func TestLookupUnknownFunction(t *testing.T) {
	reg, err := NewRegistry(10)
	require.NoError(t, err)
	require.NoError(t, reg.Register(minSumDef()))

	_, err = reg.Lookup("maxsum", []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeInt})
	require.True(t, errors.IsEngineErrorWithCode(err, errors.UnknownFunction))

	_, err = reg.Lookup("minsum", []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeString})
	require.True(t, errors.IsEngineErrorWithCode(err, errors.UnknownFunction))
	require.Equal(t, "aggregate function 'minsum' does not accept argument types [int,string]", err.Error())

	_, err = reg.Lookup("minsum", []types.ColumnType{types.ColumnTypeInt})
	require.True(t, errors.IsEngineErrorWithCode(err, errors.UnknownFunction))
}

func TestLookupPrefersConcreteDecimalOverload(t *testing.T) {
	reg, err := NewRegistry(10)
	require.NoError(t, err)
	wildcard := &Definition{Name: "f", ArgTypes: []types.ColumnType{AnyDecimal}, ReturnType: types.ColumnTypeInt,
		Factory: minSumFactory()}
	concrete := &Definition{Name: "f", ArgTypes: []types.ColumnType{&types.DecimalType{Precision: 10, Scale: 2}},
		ReturnType: types.ColumnTypeString, Factory: minSumFactory()}
	require.NoError(t, reg.Register(wildcard))

	dec102 := []types.ColumnType{&types.DecimalType{Precision: 10, Scale: 2}}
	def, err := reg.Lookup("f", dec102)
	require.NoError(t, err)
	require.Same(t, wildcard, def)

	// registering purges cached resolutions
	require.NoError(t, reg.Register(concrete))
	def, err = reg.Lookup("f", dec102)
	require.NoError(t, err)
	require.Same(t, concrete, def)

	def, err = reg.Lookup("f", []types.ColumnType{&types.DecimalType{Precision: 20, Scale: 4}})
	require.NoError(t, err)
	require.Same(t, wildcard, def)
	require.Equal(t, "f(decimal)", wildcard.Signature())
}

func TestCacheEviction(t *testing.T) {
	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, RegisterBuiltins(reg))
	for i := 0; i < 3; i++ {
		for _, at := range []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeFloat} {
			def, err := reg.Lookup("sum", []types.ColumnType{at})
			require.NoError(t, err)
			require.True(t, types.ColumnTypesEqual(at, def.ResolveReturnType([]types.ColumnType{at})))
		}
	}
}

func TestDocString(t *testing.T) {
	doc := NewDoc("Sums the smaller of two values.").
		Details("Rows where either value is null are skipped.").
		Arg("a", "first value").
		Arg("b", "second value").
		Returns("the sum").
		Example("minsum(x, y)")
	require.Equal(t, "Sums the smaller of two values.\n\n"+
		"Rows where either value is null are skipped.\n\n"+
		"Arguments:\n  a: first value\n  b: second value\n\n"+
		"Returns: the sum\n\n"+
		"Examples:\n  minsum(x, y)", doc.String())
	require.Equal(t, "Sums the smaller of two values.", doc.Brief())
	require.Equal(t, 2, len(doc.Args()))
	require.Equal(t, []string{"minsum(x, y)"}, doc.Examples())
}

func TestFuncUDAMerge(t *testing.T) {
	factory := minSumFactory()
	ctx := &FunctionContext{}
	u1 := factory()
	u2 := factory()
	require.NoError(t, u1.Update(ctx, []any{int64(1), int64(2)}))
	require.NoError(t, u2.Update(ctx, []any{int64(7), int64(5)}))
	require.NoError(t, u1.Merge(ctx, u2))
	res, err := u1.Finalize(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(6), res)

	require.Error(t, u1.Merge(ctx, &countUDA{}))
}
