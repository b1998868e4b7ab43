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
	"encoding/binary"
)

func AppendUint64ToBufferBE(buffer []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buffer, v)
}

func ReadUint64FromBufferBE(buffer []byte, offset int) (uint64, int) {
	return binary.BigEndian.Uint64(buffer[offset:]), offset + 8
}

func AppendBoolToBuffer(buffer []byte, val bool) []byte {
	if val {
		return append(buffer, 1)
	}
	return append(buffer, 0)
}

func ReadBoolFromBuffer(buffer []byte, offset int) (bool, int) {
	return buffer[offset] == 1, offset + 1
}
