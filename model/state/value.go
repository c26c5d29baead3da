package state

import (
	"fmt"
	"time"

	"github.com/viant/structology/conv"
	"github.com/viant/toolbox"
)

// Kind discriminates the closed set of variable value types.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
	KindNull   Kind = "null"
)

// Value is a tagged union over the variable types an instance may hold.
// The zero value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	flag bool
	at   time.Time
}

// String creates a string value.
func String(v string) Value { return Value{kind: KindString, str: v} }

// Number creates a number value.
func Number(v float64) Value { return Value{kind: KindNumber, num: v} }

// Bool creates a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, flag: v} }

// Time creates a timestamp value.
func Time(v time.Time) Value { return Value{kind: KindTime, at: v} }

// Null creates a null value.
func Null() Value { return Value{kind: KindNull} }

// Kind returns the value kind.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind() == KindNull }

// Text returns the string payload.
func (v Value) Text() (string, error) {
	if v.Kind() != KindString {
		return "", conversionError(v.Kind(), KindString)
	}
	return v.str, nil
}

// Float returns the numeric payload.
func (v Value) Float() (float64, error) {
	if v.Kind() != KindNumber {
		return 0, conversionError(v.Kind(), KindNumber)
	}
	return v.num, nil
}

// Truth returns the boolean payload.
func (v Value) Truth() (bool, error) {
	if v.Kind() != KindBool {
		return false, conversionError(v.Kind(), KindBool)
	}
	return v.flag, nil
}

// Timestamp returns the time payload; a string value holding an RFC-3339
// timestamp is converted on the fly.
func (v Value) Timestamp() (time.Time, error) {
	switch v.Kind() {
	case KindTime:
		return v.at, nil
	case KindString:
		ts, err := toolbox.ToTime(v.str, time.RFC3339)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot convert %q to %v: %w", v.str, KindTime, err)
		}
		return *ts, nil
	}
	return time.Time{}, conversionError(v.Kind(), KindTime)
}

// Interface exports the value as a plain Go value.
func (v Value) Interface() interface{} {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindTime:
		return v.at
	}
	return nil
}

// Equal reports value equality; values of different kinds are never equal,
// except that two nulls are.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.flag == other.flag
	case KindTime:
		return v.at.Equal(other.at)
	}
	return true
}

// String implements fmt.Stringer.
func (v Value) String() string { return fmt.Sprintf("%v(%v)", v.Kind(), v.Interface()) }

var converter *conv.Converter

func init() {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	converter = conv.NewConverter(options)
}

// Coerce maps an arbitrary Go value onto the closed union. Unsupported types
// surface an explicit error rather than a silent cast.
func Coerce(value interface{}) (Value, error) {
	switch actual := value.(type) {
	case nil:
		return Null(), nil
	case Value:
		return actual, nil
	case string:
		return String(actual), nil
	case bool:
		return Bool(actual), nil
	case float64:
		return Number(actual), nil
	case time.Time:
		return Time(actual), nil
	case *time.Time:
		if actual == nil {
			return Null(), nil
		}
		return Time(*actual), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		var num float64
		if err := converter.Convert(actual, &num); err != nil {
			return Null(), fmt.Errorf("cannot convert %T to %v: %w", value, KindNumber, err)
		}
		return Number(num), nil
	}
	return Null(), fmt.Errorf("unsupported variable type %T", value)
}

func conversionError(from, to Kind) error {
	return fmt.Errorf("cannot convert %v value to %v", from, to)
}
