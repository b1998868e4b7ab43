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

package errors

import (
	"fmt"
)

type ErrorCode int

const (
	SchemaMismatch ErrorCode = iota + 1000
	UnknownFunction
	PlanParseError
	InvalidState ErrorCode = iota + 2000
	ResourceFailure
	InvalidConfiguration ErrorCode = iota + 3000
	InternalError        ErrorCode = iota + 5000
)

func (c ErrorCode) String() string {
	switch c {
	case SchemaMismatch:
		return "SchemaMismatch"
	case UnknownFunction:
		return "UnknownFunction"
	case PlanParseError:
		return "PlanParseError"
	case InvalidState:
		return "InvalidState"
	case ResourceFailure:
		return "ResourceFailure"
	case InvalidConfiguration:
		return "InvalidConfiguration"
	case InternalError:
		return "InternalError"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

func NewInternalError(errReference string) EngineError {
	return NewEngineErrorf(InternalError, "internal error - reference: %s please consult logs for details", errReference)
}

func NewInvalidConfigurationError(msg string) EngineError {
	return NewEngineErrorf(InvalidConfiguration, "invalid configuration: %s", msg)
}

func NewSchemaMismatchError(msgFormat string, args ...interface{}) EngineError {
	return NewEngineErrorf(SchemaMismatch, msgFormat, args...)
}

func NewUnknownFunctionError(msgFormat string, args ...interface{}) EngineError {
	return NewEngineErrorf(UnknownFunction, msgFormat, args...)
}

func NewInvalidStateError(msgFormat string, args ...interface{}) EngineError {
	return NewEngineErrorf(InvalidState, msgFormat, args...)
}

func NewResourceFailureError(msgFormat string, args ...interface{}) EngineError {
	return NewEngineErrorf(ResourceFailure, msgFormat, args...)
}

func NewPlanParseError(msgFormat string, args ...interface{}) EngineError {
	return NewEngineErrorf(PlanParseError, msgFormat, args...)
}

func NewEngineErrorf(errorCode ErrorCode, msgFormat string, args ...interface{}) EngineError {
	msg := fmt.Sprintf(msgFormat, args...)
	return EngineError{Code: errorCode, Msg: msg}
}

// IsEngineErrorWithCode reports whether err, or any error it wraps, is an EngineError with the given code.
func IsEngineErrorWithCode(err error, code ErrorCode) bool {
	var eerr EngineError
	if As(err, &eerr) {
		return eerr.Code == code
	}
	return false
}

func Error(msg string) error {
	return New(msg)
}

type EngineError struct {
	Code ErrorCode
	Msg  string
}

func (e EngineError) Error() string {
	return e.Msg
}
