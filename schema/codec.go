package schema

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// kind is the codec category of a column's Go type.
type kind uint8

const (
	kindInvalid kind = iota
	kindBool
	kindInt
	kindUint
	kindFloat
	kindString
	kindBytes
	kindTime
	kindUUID
	kindValuer
)

func (k kind) integer() bool { return k == kindInt || k == kindUint }

// sqlType returns the declared column type for the kind.
func (k kind) sqlType(size int) string {
	switch k {
	case kindBool, kindInt, kindUint:
		return "integer"
	case kindFloat:
		return "float"
	case kindString:
		if size > 0 {
			return "varchar(" + strconv.Itoa(size) + ")"
		}
		return "varchar"
	case kindTime:
		return "bigint"
	case kindUUID:
		return "varchar(36)"
	default:
		return "blob"
	}
}

var (
	timeType    = reflect.TypeFor[time.Time]()
	uuidType    = reflect.TypeFor[uuid.UUID]()
	bytesType   = reflect.TypeFor[[]byte]()
	valuerType  = reflect.TypeFor[driver.Valuer]()
	scannerType = reflect.TypeFor[sql.Scanner]()
	enumType    = reflect.TypeFor[Enum]()
)

// resolveKind maps a Go field type to its codec kind.
func resolveKind(t reflect.Type) (k kind, ptr bool, enum []int64, ok bool) {
	if t.Kind() == reflect.Pointer {
		t, ptr = t.Elem(), true
		if t.Kind() == reflect.Pointer {
			return kindInvalid, false, nil, false
		}
	}
	switch {
	case t == timeType:
		return kindTime, ptr, nil, true
	case t == uuidType:
		return kindUUID, ptr, nil, true
	case t.Implements(enumType) && isInteger(t.Kind()):
		enum = reflect.Zero(t).Interface().(Enum).EnumValues()
		if enum == nil {
			enum = []int64{}
		}
		if t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uintptr {
			return kindUint, ptr, enum, true
		}
		return kindInt, ptr, enum, true
	case (t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType)) && reflect.PointerTo(t).Implements(scannerType):
		return kindValuer, ptr, nil, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return kindBool, ptr, nil, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindInt, ptr, nil, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindUint, ptr, nil, true
	case reflect.Float32, reflect.Float64:
		return kindFloat, ptr, nil, true
	case reflect.String:
		return kindString, ptr, nil, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return kindBytes, ptr, nil, true
		}
	}
	return kindInvalid, false, nil, false
}

func isInteger(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Int64) || (k >= reflect.Uint && k <= reflect.Uint64)
}

var (
	errOverflow = errors.New("value out of range")
	errEnum     = errors.New("value is not a member of the enumeration")
	errTime     = errors.New("time outside the range of Unix nanoseconds")
)

// FieldValue returns the field of the struct value sv mapped by the column.
func (c *Column) FieldValue(sv reflect.Value) reflect.Value {
	return sv.FieldByIndex(c.FieldIndex)
}

// EncodeField encodes the column's field of the struct value sv.
func (c *Column) EncodeField(sv reflect.Value) (driver.Value, error) {
	return c.encode(c.FieldValue(sv))
}

// Encode converts v to the value passed to the engine for this column.
// A nil or nil pointer value encodes to NULL.
func (c *Column) Encode(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return c.encode(reflect.ValueOf(v))
}

func (c *Column) encode(rv reflect.Value) (driver.Value, error) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch t := rv.Type(); {
	case t == timeType:
		return c.encodeTime(rv.Interface().(time.Time))
	case t == uuidType:
		return rv.Interface().(uuid.UUID).String(), nil
	case t == bytesType:
		return rv.Bytes(), nil
	case t.Implements(valuerType):
		return c.valuer(rv.Interface().(driver.Valuer))
	case rv.CanAddr() && reflect.PointerTo(t).Implements(valuerType):
		return c.valuer(rv.Addr().Interface().(driver.Valuer))
	}
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return int64(1), nil
		}
		return int64(0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, c.dataError(u, errOverflow)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), nil
		}
	}
	return nil, c.dataError(rv.Interface(), fmt.Errorf("unsupported type %s", rv.Type()))
}

// Times are stored as Unix nanoseconds. The zero time is stored as NULL.
var (
	minTime = time.Unix(0, math.MinInt64)
	maxTime = time.Unix(0, math.MaxInt64)
)

func (c *Column) encodeTime(t time.Time) (driver.Value, error) {
	switch {
	case t.IsZero():
		return nil, nil
	case t.Before(minTime) || t.After(maxTime):
		return nil, c.dataError(t, errTime)
	}
	return t.UnixNano(), nil
}

func (c *Column) valuer(v driver.Valuer) (driver.Value, error) {
	dv, err := v.Value()
	if err != nil {
		return nil, c.dataError(v, err)
	}
	return dv, nil
}

// Decode stores the engine value src into dst, the field mapped by the column.
// NULL leaves the zero value, or nil for pointer fields.
func (c *Column) Decode(src any, dst reflect.Value) error {
	if src == nil {
		dst.SetZero()
		return nil
	}
	if c.ptr && dst.Kind() == reflect.Pointer {
		nv := reflect.New(dst.Type().Elem())
		if err := c.decode(src, nv.Elem()); err != nil {
			return err
		}
		dst.Set(nv)
		return nil
	}
	return c.decode(src, dst)
}

// DecodeField stores src into the column's field of the struct value sv.
func (c *Column) DecodeField(sv reflect.Value, src any) error {
	return c.Decode(src, c.FieldValue(sv))
}

func (c *Column) decode(src any, dst reflect.Value) error {
	switch c.kind {
	case kindBool:
		n, err := toInt64(src)
		if err != nil {
			return c.dataError(src, err)
		}
		dst.SetBool(n != 0)
	case kindInt:
		n, err := toInt64(src)
		if err != nil {
			return c.dataError(src, err)
		}
		if err := c.checkEnum(n); err != nil {
			return c.dataError(src, err)
		}
		if dst.OverflowInt(n) {
			return c.dataError(src, errOverflow)
		}
		dst.SetInt(n)
	case kindUint:
		n, err := toInt64(src)
		if err != nil {
			return c.dataError(src, err)
		}
		if err := c.checkEnum(n); err != nil {
			return c.dataError(src, err)
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return c.dataError(src, errOverflow)
		}
		dst.SetUint(uint64(n))
	case kindFloat:
		var f float64
		switch v := src.(type) {
		case float64:
			f = v
		case int64:
			f = float64(v)
		case []byte:
			p, err := strconv.ParseFloat(string(v), 64)
			if err != nil {
				return c.dataError(src, err)
			}
			f = p
		case string:
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return c.dataError(src, err)
			}
			f = p
		default:
			return c.dataError(src, fmt.Errorf("cannot decode %T into %s", src, dst.Type()))
		}
		if dst.OverflowFloat(f) {
			return c.dataError(src, errOverflow)
		}
		dst.SetFloat(f)
	case kindString:
		switch v := src.(type) {
		case string:
			dst.SetString(v)
		case []byte:
			dst.SetString(string(v))
		default:
			return c.dataError(src, fmt.Errorf("cannot decode %T into %s", src, dst.Type()))
		}
	case kindBytes:
		switch v := src.(type) {
		case []byte:
			dst.SetBytes(append([]byte(nil), v...))
		case string:
			dst.SetBytes([]byte(v))
		default:
			return c.dataError(src, fmt.Errorf("cannot decode %T into %s", src, dst.Type()))
		}
	case kindTime:
		t, err := toTime(src)
		if err != nil {
			return c.dataError(src, err)
		}
		dst.Set(reflect.ValueOf(t))
	case kindUUID:
		var (
			u   uuid.UUID
			err error
		)
		switch v := src.(type) {
		case string:
			u, err = uuid.Parse(v)
		case []byte:
			if len(v) == 16 {
				u, err = uuid.FromBytes(v)
			} else {
				u, err = uuid.ParseBytes(v)
			}
		default:
			err = fmt.Errorf("cannot decode %T into uuid", src)
		}
		if err != nil {
			return c.dataError(src, err)
		}
		dst.Set(reflect.ValueOf(u))
	case kindValuer:
		s, ok := dst.Addr().Interface().(sql.Scanner)
		if !ok {
			return c.dataError(src, fmt.Errorf("%s does not implement sql.Scanner", dst.Type()))
		}
		if err := s.Scan(src); err != nil {
			return c.dataError(src, err)
		}
	default:
		return c.dataError(src, fmt.Errorf("unsupported column type %s", c.Type))
	}
	return nil
}

func (c *Column) checkEnum(n int64) error {
	if c.enum == nil {
		return nil
	}
	if _, ok := c.enum[n]; !ok {
		return errEnum
	}
	return nil
}

func (c *Column) dataError(v any, err error) *DataError {
	return &DataError{Table: c.table, Column: c.Name, Value: v, Err: err}
}

func toInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("non-integral value %v", v)
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot decode %T as integer", src)
	}
}

// timeLayouts are accepted for times stored as text by other writers.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func toTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case int64:
		return time.Unix(0, v).UTC(), nil
	case time.Time:
		return v.UTC(), nil
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	default:
		return time.Time{}, fmt.Errorf("cannot decode %T as time", src)
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
