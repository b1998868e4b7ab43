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

package types

import (
	"math/big"

	"github.com/apache/arrow/go/v11/arrow/decimal128"
	"github.com/spirit-labs/tekagg/errors"
)

const (
	DefaultDecimalPrecision = 38
	DefaultDecimalScale     = 6
)

type Decimal struct {
	Num       decimal128.Num
	Precision int
	Scale     int
}

func NewDecimalFromInt64(val int64, precision int, scale int) Decimal {
	decNum := decimal128.FromI64(val)
	if scale > 0 {
		decNum = decNum.IncreaseScaleBy(int32(scale))
	} else if scale < 0 {
		decNum = decNum.ReduceScaleBy(-int32(scale), true)
	}
	return Decimal{
		Num:       decNum,
		Precision: precision,
		Scale:     scale,
	}
}

func NewDecimalFromFloat64(val float64, precision int, scale int) (Decimal, error) {
	decNum, err := decimal128.FromFloat64(val, int32(precision), int32(scale))
	if err != nil {
		return Decimal{}, errors.WithStack(err)
	}
	return Decimal{
		Num:       decNum,
		Precision: precision,
		Scale:     scale,
	}, nil
}

func NewDecimalFromString(val string, precision int, scale int) (Decimal, error) {
	decNum, err := decimal128.FromString(val, int32(precision), int32(scale))
	if err != nil {
		return Decimal{}, errors.WithStack(err)
	}
	return Decimal{
		Num:       decNum,
		Precision: precision,
		Scale:     scale,
	}, nil
}

func (d *Decimal) ConvertPrecisionAndScale(prec int, scale int) Decimal {
	num := d.Num
	if scaleDiff := scale - d.Scale; scaleDiff > 0 {
		num = num.IncreaseScaleBy(int32(scaleDiff))
	} else if scaleDiff < 0 {
		num = num.ReduceScaleBy(-int32(scaleDiff), true)
	}
	return Decimal{
		Num:       num,
		Precision: prec,
		Scale:     scale,
	}
}

// Compare returns -1, 0 or 1. Operands with different scales are compared at the larger scale.
func (d *Decimal) Compare(d2 *Decimal) int {
	n1, n2 := d.Num, d2.Num
	if d.Scale > d2.Scale {
		n2 = n2.IncreaseScaleBy(int32(d.Scale - d2.Scale))
	} else if d2.Scale > d.Scale {
		n1 = n1.IncreaseScaleBy(int32(d2.Scale - d.Scale))
	}
	if n1.Less(n2) {
		return -1
	}
	if n1.Greater(n2) {
		return 1
	}
	return 0
}

func (d *Decimal) LessThan(d2 *Decimal) bool {
	return d.Compare(d2) < 0
}

func (d *Decimal) GreaterThan(d2 *Decimal) bool {
	return d.Compare(d2) > 0
}

func (d *Decimal) Equals(d2 *Decimal) bool {
	return d.Compare(d2) == 0
}

func (d *Decimal) Add(d2 *Decimal) (Decimal, error) {
	prec, scale := AddResultPrecScale(d.Precision, d.Scale, d2.Precision, d2.Scale)
	var n decimal128.Num
	if d.Scale == d2.Scale {
		n = d.Num.Add(d2.Num)
	} else if d2.Scale > d.Scale {
		n = d2.Num.Add(d.Num.IncreaseScaleBy(int32(d2.Scale - d.Scale)))
	} else {
		n = d.Num.Add(d2.Num.IncreaseScaleBy(int32(d.Scale - d2.Scale)))
	}
	if err := checkResultFits(n, prec); err != nil {
		return Decimal{}, err
	}
	return Decimal{
		Num:       n,
		Precision: prec,
		Scale:     scale,
	}, nil
}

// DivideByInt64 divides keeping precision and scale, truncating towards zero.
func (d *Decimal) DivideByInt64(divisor int64) (Decimal, error) {
	if divisor == 0 {
		return Decimal{}, errors.New("decimal division by zero")
	}
	quo := new(big.Int).Quo(d.Num.BigInt(), big.NewInt(divisor))
	return Decimal{
		Num:       decimal128.FromBigInt(quo),
		Precision: d.Precision,
		Scale:     d.Scale,
	}, nil
}

func AddResultPrecScale(prec1 int, scale1 int, prec2 int, scale2 int) (int, int) {
	return max(prec1, prec2), max(scale1, scale2)
}

func (d *Decimal) ToFloat64() float64 {
	return d.Num.ToFloat64(int32(d.Scale))
}

func (d *Decimal) String() string {
	return d.Num.ToString(int32(d.Scale))
}

func checkResultFits(n decimal128.Num, prec int) error {
	if !n.FitsInPrecision(int32(prec)) {
		return errors.Errorf("result of decimal arithmetic does not fit in precision %d", prec)
	}
	return nil
}
