package april

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic             = errors.New("april: invalid container magic")
	ErrTruncated            = errors.New("april: truncated container")
	ErrInvalidEncoding      = errors.New("april: invalid UTF-8")
	ErrTooManyNetworks      = errors.New("april: too many networks")
	ErrInvalidOffset        = errors.New("april: offset out of range")
	ErrCorruptFile          = errors.New("april: corrupt container")
	ErrParamOutOfRange      = errors.New("april: parameter out of range")
	ErrUnsupportedModelType = errors.New("april: unsupported model type")
)

// ParamRangeError reports the first parameter that violated its
// documented bound. It matches ErrParamOutOfRange under errors.Is.
type ParamRangeError struct {
	Field string
	Value int32
}

func (e *ParamRangeError) Error() string {
	return fmt.Sprintf("april: parameter %s out of range: %d", e.Field, e.Value)
}

func (e *ParamRangeError) Is(target error) bool {
	return target == ErrParamOutOfRange
}
