package types

import "golang.org/x/exp/constraints"

type Ordered interface {
	constraints.Ordered | bool
}

// AddressOf is used to fill pointer config fields with literal defaults.
func AddressOf[T Ordered](x T) *T {
	return &x
}
