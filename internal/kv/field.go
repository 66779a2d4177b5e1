package kv

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

const (
	InvalidType FieldType = iota
	IntType
	Int64Type
	StringType
	BoolType
	DurationType
	StringsType
	ErrorType
	AnyType
	StringerType
	endType
)

// FieldType indicates type info about the KeyValue. This enum might be extended in future releases.
// Do not add custom types.
type FieldType int

var fieldTypeNames = [...]string{
	InvalidType:  "invalid",
	IntType:      "int",
	Int64Type:    "int64",
	StringType:   "string",
	BoolType:     "bool",
	DurationType: "time.Duration",
	StringsType:  "[]string",
	ErrorType:    "error",
	AnyType:      "any",
	StringerType: "stringer",
}

func (ft FieldType) String() string {
	if ft < 0 || ft >= endType {
		return fieldTypeNames[InvalidType]
	}

	return fieldTypeNames[ft]
}

// KeyValue represents typed log field (a key-value pair). Adapters should determine
// KeyValue's type based on Type and use the corresponding getter method to retrieve
// the value:
//
//	switch f.Type() {
//	case kv.IntType:
//		var i int = f.Int()
//		// handle int value
//	case kv.StringType:
//		var s string = f.String()
//		// handle string value
//	//...
//	}
//
// Getter methods must not be called on fields with wrong Type (e.g. calling String()
// on fields with Type != StringType).
// KeyValue must not be initialized directly as a struct literal.
type KeyValue struct {
	ftype FieldType
	key   string

	vint int64
	vstr string
	vany interface{}
}

func (f KeyValue) Type() FieldType {
	return f.ftype
}

func (f KeyValue) Key() string {
	return f.key
}

// StringValue is a value getter for fields with StringType type
func (f KeyValue) StringValue() string {
	f.checkType(StringType)

	return f.vstr
}

// IntValue is a value getter for fields with IntType type
func (f KeyValue) IntValue() int {
	f.checkType(IntType)

	return int(f.vint)
}

// Int64Value is a value getter for fields with Int64Type type
func (f KeyValue) Int64Value() int64 {
	f.checkType(Int64Type)

	return f.vint
}

// BoolValue is a value getter for fields with BoolType type
func (f KeyValue) BoolValue() bool {
	f.checkType(BoolType)

	return f.vint != 0
}

// DurationValue is a value getter for fields with DurationType type
func (f KeyValue) DurationValue() time.Duration {
	f.checkType(DurationType)

	return time.Nanosecond * time.Duration(f.vint)
}

// StringsValue is a value getter for fields with StringsType type
func (f KeyValue) StringsValue() []string {
	f.checkType(StringsType)
	if f.vany == nil {
		return nil
	}
	val, _ := f.vany.([]string)

	return val
}

// ErrorValue is a value getter for fields with ErrorType type
func (f KeyValue) ErrorValue() error {
	f.checkType(ErrorType)
	if f.vany == nil {
		return nil
	}
	val, _ := f.vany.(error)

	return val
}

// AnyValue is a value getter for fields with any type
func (f KeyValue) AnyValue() interface{} {
	switch f.ftype {
	case IntType:
		return f.IntValue()
	case Int64Type:
		return f.Int64Value()
	case StringType:
		return f.StringValue()
	case BoolType:
		return f.BoolValue()
	case DurationType:
		return f.DurationValue()
	case StringsType:
		return f.StringsValue()
	case ErrorType:
		return f.ErrorValue()
	case AnyType, StringerType:
		return f.vany
	default:
		panic(fmt.Sprintf("unknown FieldType %d", f.ftype))
	}
}

// String is a value getter for fields with StringerType type or any type converted to a string
func (f KeyValue) String() string {
	switch f.ftype {
	case IntType, Int64Type:
		return strconv.FormatInt(f.vint, 10)
	case StringType:
		return f.vstr
	case BoolType:
		return strconv.FormatBool(f.BoolValue())
	case DurationType:
		return f.DurationValue().String()
	case StringsType:
		return fmt.Sprintf("%v", f.StringsValue())
	case ErrorType:
		if f.vany == nil {
			return "<nil>"
		}

		return f.ErrorValue().Error()
	case AnyType:
		if f.vany == nil {
			return "<nil>"
		}
		if v := reflect.ValueOf(f.vany); v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return "<nil>"
			}

			return fmt.Sprintf("%T(%v)", f.vany, v.Elem())
		}

		return fmt.Sprint(f.vany)
	case StringerType:
		if s, ok := f.vany.(fmt.Stringer); ok && s != nil {
			return s.String()
		}

		return "<nil>"
	default:
		panic(fmt.Sprintf("unknown FieldType %d", f.ftype))
	}
}

func (f KeyValue) checkType(want FieldType) {
	if f.ftype != want {
		panic(fmt.Sprintf("bad type. have: %s, want: %s", f.ftype, want))
	}
}

// String constructs KeyValue with StringType
func String(k, v string) KeyValue {
	return KeyValue{
		ftype: StringType,
		key:   k,
		vstr:  v,
	}
}

// Int constructs KeyValue with IntType
func Int(k string, v int) KeyValue {
	return KeyValue{
		ftype: IntType,
		key:   k,
		vint:  int64(v),
	}
}

func Int64(k string, v int64) KeyValue {
	return KeyValue{
		ftype: Int64Type,
		key:   k,
		vint:  v,
	}
}

// Bool constructs KeyValue with BoolType
func Bool(key string, value bool) KeyValue {
	var byteVal int64
	if value {
		byteVal = 1
	}

	return KeyValue{
		ftype: BoolType,
		key:   key,
		vint:  byteVal,
	}
}

// Duration constructs field with DurationType
func Duration(key string, value time.Duration) KeyValue {
	return KeyValue{
		ftype: DurationType,
		key:   key,
		vint:  value.Nanoseconds(),
	}
}

// Strings constructs KeyValue with StringsType
func Strings(key string, value []string) KeyValue {
	return KeyValue{
		ftype: StringsType,
		key:   key,
		vany:  value,
	}
}

// NamedError constructs field of error type
func NamedError(key string, value error) KeyValue {
	return KeyValue{
		ftype: ErrorType,
		key:   key,
		vany:  value,
	}
}

// Error is the same as NamedError("error", value)
func Error(value error) KeyValue {
	return NamedError("error", value)
}

// Any constructs untyped KeyValue.
func Any(key string, value interface{}) KeyValue {
	return KeyValue{
		ftype: AnyType,
		key:   key,
		vany:  value,
	}
}

// Stringer constructs KeyValue with StringerType. If value is nil,
// resulting KeyValue will be of AnyType instead of StringerType.
func Stringer(key string, value fmt.Stringer) KeyValue {
	if value == nil {
		return Any(key, nil)
	}

	return KeyValue{
		ftype: StringerType,
		key:   key,
		vany:  value,
	}
}
