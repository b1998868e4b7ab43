package encoding

import (
	"math"

	"github.com/apache/arrow/go/v11/arrow/decimal128"
	"github.com/spirit-labs/tekagg/common"
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/types"
)

// Key encodings are byte-comparable: comparing two encoded keys with bytes.Compare orders them the same way as
// comparing the decoded values. Two values encode to the same bytes if and only if they are equal as group keys.

const (
	SignBitMask  uint64 = 1 << 63
	encGroupSize        = 8
	encMarker    byte   = 255
	encPad       byte   = 0
)

var stringKeyEncodingPads = make([]byte, encGroupSize)

// DecodeKeyToSlice decodes a composite key written with a null marker byte before every column. A marker of 0 means
// NULL and leaves the slot nil. Decimal precision and scale are taken from the column type.
func DecodeKeyToSlice(buffer []byte, offset int, columnTypes []types.ColumnType) ([]any, int, error) {
	key := make([]any, len(columnTypes))
	for i, keyColType := range columnTypes {
		if offset >= len(buffer) {
			return nil, 0, errors.New("insufficient bytes to decode key")
		}
		isNull := buffer[offset] == 0
		offset++
		if isNull {
			continue
		}
		switch keyColType.ID() {
		case types.ColumnTypeIDInt:
			key[i], offset = KeyDecodeInt(buffer, offset)
		case types.ColumnTypeIDFloat:
			key[i], offset = KeyDecodeFloat(buffer, offset)
		case types.ColumnTypeIDBool:
			key[i], offset = ReadBoolFromBuffer(buffer, offset)
		case types.ColumnTypeIDDecimal:
			decType := keyColType.(*types.DecimalType)
			var dec types.Decimal
			dec, offset = KeyDecodeDecimal(buffer, offset)
			dec.Precision = decType.Precision
			dec.Scale = decType.Scale
			key[i] = dec
		case types.ColumnTypeIDString:
			var err error
			key[i], offset, err = KeyDecodeString(buffer, offset)
			if err != nil {
				return nil, 0, err
			}
		case types.ColumnTypeIDBytes:
			var err error
			key[i], offset, err = KeyDecodeBytes(buffer, offset)
			if err != nil {
				return nil, 0, err
			}
		case types.ColumnTypeIDTimestamp:
			key[i], offset = KeyDecodeTimestamp(buffer, offset)
		default:
			panic("unknown type")
		}
	}
	return key, offset, nil
}

func KeyEncodeInt(buffer []byte, val int64) []byte {
	return AppendUint64ToBufferBE(buffer, uint64(val)^SignBitMask)
}

func KeyDecodeInt(buffer []byte, offset int) (int64, int) {
	u, offset := ReadUint64FromBufferBE(buffer, offset)
	return int64(u ^ SignBitMask), offset
}

// KeyEncodeFloat folds -0.0 into +0.0 and every NaN into a single NaN so numerically equal floats share a key.
func KeyEncodeFloat(buffer []byte, val float64) []byte {
	if val == 0 {
		val = 0
	} else if math.IsNaN(val) {
		val = math.NaN()
	}
	uVal := math.Float64bits(val)
	if uVal&SignBitMask == 0 {
		uVal |= SignBitMask
	} else {
		uVal = ^uVal
	}
	return AppendUint64ToBufferBE(buffer, uVal)
}

func KeyDecodeFloat(buffer []byte, offset int) (float64, int) {
	u, offset := ReadUint64FromBufferBE(buffer, offset)
	if u&SignBitMask == SignBitMask {
		u &= ^SignBitMask
	} else {
		u = ^u
	}
	return math.Float64frombits(u), offset
}

func KeyEncodeDecimal(buffer []byte, val types.Decimal) []byte {
	buffer = KeyEncodeInt(buffer, val.Num.HighBits())
	return AppendUint64ToBufferBE(buffer, val.Num.LowBits())
}

func KeyDecodeDecimal(buffer []byte, offset int) (types.Decimal, int) {
	var hi int64
	hi, offset = KeyDecodeInt(buffer, offset)
	var lo uint64
	lo, offset = ReadUint64FromBufferBE(buffer, offset)
	return types.Decimal{
		Num: decimal128.New(hi, lo),
	}, offset
}

func KeyEncodeTimestamp(buffer []byte, val types.Timestamp) []byte {
	return KeyEncodeInt(buffer, val.Val)
}

func KeyDecodeTimestamp(buffer []byte, offset int) (types.Timestamp, int) {
	v, off := KeyDecodeInt(buffer, offset)
	return types.NewTimestamp(v), off
}

func KeyEncodeBytes(buffer []byte, val []byte) []byte {
	return KeyEncodeString(buffer, common.ByteSliceToStringZeroCopy(val))
}

// KeyDecodeBytes always returns a freshly allocated slice.
func KeyDecodeBytes(buffer []byte, offset int) ([]byte, int, error) {
	s, off, err := KeyDecodeString(buffer, offset)
	if err != nil {
		return nil, 0, err
	}
	if len(s) == 0 {
		return []byte{}, off, nil
	}
	return common.StringToByteSliceZeroCopy(s), off, nil
}

/*
KeyEncodeString
The string is split into groups of 8 bytes. Each group is followed by a marker byte of 255 minus the number of pad
bytes in that group. The final group is right padded with zeros, so an empty string is one all-pad group.
*/
func KeyEncodeString(buff []byte, val string) []byte {
	data := common.StringToByteSliceZeroCopy(val)
	dLen := len(data)
	for idx := 0; idx <= dLen; idx += encGroupSize {
		remain := dLen - idx
		padCount := 0
		if remain >= encGroupSize {
			buff = append(buff, data[idx:idx+encGroupSize]...)
		} else {
			padCount = encGroupSize - remain
			buff = append(buff, data[idx:]...)
			buff = append(buff, stringKeyEncodingPads[:padCount]...)
		}
		buff = append(buff, encMarker-byte(padCount))
	}
	return buff
}

func KeyDecodeString(buffer []byte, offset int) (string, int, error) {
	res := make([]byte, 0, 2*encGroupSize)
	buffer = buffer[offset:]
	for {
		if len(buffer) < encGroupSize+1 {
			return "", 0, errors.New("insufficient bytes to decode value")
		}
		groupBytes := buffer[:encGroupSize+1]
		group := groupBytes[:encGroupSize]
		padCount := encMarker - groupBytes[encGroupSize]
		if padCount > encGroupSize {
			return "", 0, errors.Errorf("invalid marker byte, group bytes %q", groupBytes)
		}
		realGroupSize := encGroupSize - padCount
		res = append(res, group[:realGroupSize]...)
		buffer = buffer[encGroupSize+1:]
		offset += encGroupSize + 1
		if padCount != 0 {
			for _, v := range group[realGroupSize:] {
				if v != encPad {
					return "", 0, errors.Errorf("invalid padding byte, group bytes %q", groupBytes)
				}
			}
			break
		}
	}
	return common.ByteSliceToStringZeroCopy(res), offset, nil
}
