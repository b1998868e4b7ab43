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

package encoding

import (
	"bytes"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/apache/arrow/go/v11/arrow/decimal128"
	"github.com/spirit-labs/tekagg/types"
	"github.com/stretchr/testify/require"
)

func TestKeyEncodeIntOrdering(t *testing.T) {
	vals := []int64{math.MinInt64, math.MinInt64 + 1, -1000, -1, 0, 1, 1000, math.MaxInt64 - 1, math.MaxInt64}
	for i := 0; i < len(vals)-1; i++ {
		checkLessThan(t, KeyEncodeInt(nil, vals[i]), KeyEncodeInt(nil, vals[i+1]))
	}
}

func TestKeyEncodeFloatOrdering(t *testing.T) {
	vals := []float64{-math.MaxFloat64, -1.234e10, -1e3, -1.1, -0.5, 0.0, 0.5, 1.1, 1e3, math.MaxFloat64}
	for i := 0; i < len(vals)-1; i++ {
		checkLessThan(t, KeyEncodeFloat(nil, vals[i]), KeyEncodeFloat(nil, vals[i+1]))
	}
}

func TestKeyEncodeFloatNegativeZero(t *testing.T) {
	negZero := math.Copysign(0, -1)
	require.Equal(t, KeyEncodeFloat(nil, 0), KeyEncodeFloat(nil, negZero))
	require.Equal(t, KeyEncodeFloat(nil, math.NaN()), KeyEncodeFloat(nil, -math.NaN()))
	f, _ := KeyDecodeFloat(KeyEncodeFloat(nil, negZero), 0)
	require.Equal(t, 0.0, f)
	require.False(t, math.Signbit(f))
}

func TestKeyEncodeStringOrdering(t *testing.T) {
	vals := []string{"", "a", "aa", "aaaa", "aab", "ab", "antelopes", "antelopesz", "b", "zzz"}
	for i := 0; i < len(vals)-1; i++ {
		checkLessThan(t, KeyEncodeString(nil, vals[i]), KeyEncodeString(nil, vals[i+1]))
	}
}

func TestKeyEncodeDecimalOrdering(t *testing.T) {
	vals := []types.Decimal{
		createDec(math.MinInt64, 0),
		createDec(-62536253, 354343),
		createDec(-1, 0),
		createDec(-1, 232),
		createDec(1, 32434),
		createDec(math.MaxInt64, math.MaxUint64),
	}
	for i := 0; i < len(vals)-1; i++ {
		require.True(t, vals[i+1].Num.Greater(vals[i].Num))
		checkLessThan(t, KeyEncodeDecimal(nil, vals[i]), KeyEncodeDecimal(nil, vals[i+1]))
	}
}

func TestKeyEncodeDecodeRoundTrip(t *testing.T) {
	var buff []byte
	buff = KeyEncodeInt(buff, -165213365)
	buff = KeyEncodeFloat(buff, 6152652.25)
	buff = AppendBoolToBuffer(buff, true)
	buff = KeyEncodeDecimal(buff, createDec(-1, 232))
	buff = KeyEncodeString(buff, "antelopes")
	buff = KeyEncodeBytes(buff, []byte("aardvarks"))
	buff = KeyEncodeTimestamp(buff, types.NewTimestamp(-1000))

	offset := 0
	i, offset := KeyDecodeInt(buff, offset)
	require.Equal(t, int64(-165213365), i)
	f, offset := KeyDecodeFloat(buff, offset)
	require.Equal(t, 6152652.25, f)
	b, offset := ReadBoolFromBuffer(buff, offset)
	require.True(t, b)
	d, offset := KeyDecodeDecimal(buff, offset)
	require.Equal(t, decimal128.New(-1, 232), d.Num)
	s, offset, err := KeyDecodeString(buff, offset)
	require.NoError(t, err)
	require.Equal(t, "antelopes", s)
	bs, offset, err := KeyDecodeBytes(buff, offset)
	require.NoError(t, err)
	require.Equal(t, []byte("aardvarks"), bs)
	ts, offset := KeyDecodeTimestamp(buff, offset)
	require.Equal(t, types.NewTimestamp(-1000), ts)
	require.Equal(t, len(buff), offset)
}

func TestDecodeKeyToSlice(t *testing.T) {
	decType := &types.DecimalType{Precision: 10, Scale: 2}
	colTypes := []types.ColumnType{types.ColumnTypeInt, types.ColumnTypeString, decType, types.ColumnTypeBytes,
		types.ColumnTypeBool}
	var buff []byte
	buff = append(buff, 1)
	buff = KeyEncodeInt(buff, 23)
	buff = append(buff, 0)
	buff = append(buff, 1)
	buff = KeyEncodeDecimal(buff, createDec(0, 12345))
	buff = append(buff, 1)
	buff = KeyEncodeBytes(buff, nil)
	buff = append(buff, 1)
	buff = AppendBoolToBuffer(buff, false)

	key, offset, err := DecodeKeyToSlice(buff, 0, colTypes)
	require.NoError(t, err)
	require.Equal(t, len(buff), offset)
	require.Equal(t, int64(23), key[0])
	require.Nil(t, key[1])
	require.Equal(t, types.Decimal{Num: decimal128.New(0, 12345), Precision: 10, Scale: 2}, key[2])
	require.Equal(t, []byte{}, key[3])
	require.Equal(t, false, key[4])
}

func TestDecodeKeyToSliceTruncated(t *testing.T) {
	buff := append([]byte{1}, KeyEncodeString(nil, "antelopes")...)
	_, _, err := DecodeKeyToSlice(buff[:len(buff)-3], 0, []types.ColumnType{types.ColumnTypeString})
	require.Error(t, err)
	_, _, err = DecodeKeyToSlice(buff, 0, []types.ColumnType{types.ColumnTypeString, types.ColumnTypeInt})
	require.Error(t, err)
}

func TestKeyDecodeStringInvalidMarker(t *testing.T) {
	buff := KeyEncodeString(nil, "abc")
	buff[encGroupSize] = 10
	_, _, err := KeyDecodeString(buff, 0)
	require.Error(t, err)
}

func TestStringKeyEncodeDecodeExistingBuffer(t *testing.T) {
	for _, str := range generateRandomStrings(100) {
		buff := append([]byte("aardvarks"), KeyEncodeString(nil, str)...)
		off := len(buff)
		buff = append(buff, []byte("antelopes")...)
		res, offset, err := KeyDecodeString(buff, 9)
		require.NoError(t, err)
		require.Equal(t, off, offset)
		require.Equal(t, str, res)
	}
}

func TestStringBinaryOrdering(t *testing.T) {
	strs := generateRandomStrings(100)
	encoded := make([][]byte, len(strs))
	for i, str := range strs {
		encoded[i] = KeyEncodeString(nil, str)
	}
	sort.Strings(strs)
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })
	for i, b := range encoded {
		decoded, _, err := KeyDecodeString(b, 0)
		require.NoError(t, err)
		require.Equal(t, strs[i], decoded)
	}
}

func generateRandomStrings(n int) []string {
	rnd := rand.New(rand.NewSource(7))
	res := make([]string, n)
	for i := range res {
		b := make([]byte, rnd.Intn(40))
		for j := range b {
			b[j] = byte(rnd.Intn(256))
		}
		res[i] = string(b)
	}
	return res
}

func createDec(hi int64, lo uint64) types.Decimal {
	return types.Decimal{
		Num:       decimal128.New(hi, lo),
		Precision: 32,
		Scale:     6,
	}
}

func checkLessThan(t *testing.T, b1, b2 []byte) {
	t.Helper()
	require.Equal(t, -1, bytes.Compare(b1, b2), "expected %x < %x", b1, b2)
}
