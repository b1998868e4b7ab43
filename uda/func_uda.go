package uda

// FuncUDA adapts plain functions over a state value S into a UDA. Each instance gets its own zero S.
type FuncUDA[S any] struct {
	state    S
	update   func(state *S, args []any) error
	merge    func(state *S, other *S) error
	finalize func(state *S) (any, error)
}

func NewFuncFactory[S any](update func(state *S, args []any) error, merge func(state *S, other *S) error,
	finalize func(state *S) (any, error)) Factory {
	return func() UDA {
		return &FuncUDA[S]{update: update, merge: merge, finalize: finalize}
	}
}

func (f *FuncUDA[S]) Update(_ *FunctionContext, args []any) error {
	return f.update(&f.state, args)
}

func (f *FuncUDA[S]) Merge(_ *FunctionContext, other UDA) error {
	o, err := mergeSource[*FuncUDA[S]](f, other)
	if err != nil {
		return err
	}
	return f.merge(&f.state, &o.state)
}

func (f *FuncUDA[S]) Finalize(*FunctionContext) (any, error) {
	return f.finalize(&f.state)
}
