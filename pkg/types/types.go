// Package types defines VanirDB's logical type system.
//
// A LogicalType is the database's internal value-kind tag, distinct from any Go
// primitive type. Every value that flows through the vectorized execution engine
// carries a LogicalType, and every Go type used in a registered function
// signature maps onto one (see mapping.go for the canonical table).
//
// Most kinds are plain tags. Parametric kinds carry metadata: DECIMAL has a
// precision and scale, LIST has a child type, STRUCT has a field list.
//
// Example Usage:
//
//	lt := types.Int64()
//	fmt.Println(lt)                    // INT64
//	fmt.Println(lt.PhysicalSize())     // 8
//
//	dec := types.Decimal(18, 3)
//	list := types.List(types.String())
//
//	inferred, err := types.Infer(reflect.TypeOf(int32(0)))
//	// inferred == types.Int32(), never DATE: ambiguous host types resolve
//	// to their default logical type, DATE requires explicit annotation.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TypeID enumerates the supported value kinds. The set is closed: the
// execution engine switches over these tags and treats anything else as a
// programming error.
type TypeID uint8

const (
	IDAny TypeID = iota
	IDBool
	IDInt16
	IDInt32
	IDInt64
	IDFloat
	IDDouble
	IDString
	IDBlob
	IDDate
	IDTimestamp
	IDInterval
	IDDecimal
	IDUUID
	IDList
	IDStruct
	IDInternalID
)

// String returns the SQL-ish name of the type tag.
func (id TypeID) String() string {
	switch id {
	case IDAny:
		return "ANY"
	case IDBool:
		return "BOOL"
	case IDInt16:
		return "INT16"
	case IDInt32:
		return "INT32"
	case IDInt64:
		return "INT64"
	case IDFloat:
		return "FLOAT"
	case IDDouble:
		return "DOUBLE"
	case IDString:
		return "STRING"
	case IDBlob:
		return "BLOB"
	case IDDate:
		return "DATE"
	case IDTimestamp:
		return "TIMESTAMP"
	case IDInterval:
		return "INTERVAL"
	case IDDecimal:
		return "DECIMAL"
	case IDUUID:
		return "UUID"
	case IDList:
		return "LIST"
	case IDStruct:
		return "STRUCT"
	case IDInternalID:
		return "INTERNAL_ID"
	default:
		return fmt.Sprintf("TypeID(%d)", uint8(id))
	}
}

// StructField is one named member of a STRUCT type.
type StructField struct {
	Name string
	Type LogicalType
}

// extraInfo holds metadata for parametric kinds. Nil for plain tags.
type extraInfo struct {
	precision uint8         // DECIMAL
	scale     uint8         // DECIMAL
	child     *LogicalType  // LIST
	fields    []StructField // STRUCT
}

// LogicalType is a type tag plus metadata for parametric kinds. The zero
// value is ANY. LogicalType values are immutable and safe to copy and share.
type LogicalType struct {
	id    TypeID
	extra *extraInfo
}

// Plain-tag constructors.
func Any() LogicalType           { return LogicalType{id: IDAny} }
func Bool() LogicalType          { return LogicalType{id: IDBool} }
func Int16() LogicalType         { return LogicalType{id: IDInt16} }
func Int32() LogicalType         { return LogicalType{id: IDInt32} }
func Int64() LogicalType         { return LogicalType{id: IDInt64} }
func Float() LogicalType         { return LogicalType{id: IDFloat} }
func Double() LogicalType        { return LogicalType{id: IDDouble} }
func String() LogicalType        { return LogicalType{id: IDString} }
func Blob() LogicalType          { return LogicalType{id: IDBlob} }
func DateType() LogicalType      { return LogicalType{id: IDDate} }
func TimestampType() LogicalType { return LogicalType{id: IDTimestamp} }
func IntervalType() LogicalType  { return LogicalType{id: IDInterval} }
func UUIDType() LogicalType      { return LogicalType{id: IDUUID} }
func InternalID() LogicalType    { return LogicalType{id: IDInternalID} }

// Decimal returns a DECIMAL type with the given precision and scale.
func Decimal(precision, scale uint8) LogicalType {
	return LogicalType{id: IDDecimal, extra: &extraInfo{precision: precision, scale: scale}}
}

// List returns a LIST type with the given child element type.
func List(child LogicalType) LogicalType {
	return LogicalType{id: IDList, extra: &extraInfo{child: &child}}
}

// Struct returns a STRUCT type with the given field list.
func Struct(fields ...StructField) LogicalType {
	return LogicalType{id: IDStruct, extra: &extraInfo{fields: fields}}
}

// ID returns the type tag.
func (t LogicalType) ID() TypeID { return t.id }

// DecimalPrecisionScale returns the precision and scale of a DECIMAL type.
// Zero for any other kind.
func (t LogicalType) DecimalPrecisionScale() (uint8, uint8) {
	if t.id != IDDecimal || t.extra == nil {
		return 0, 0
	}
	return t.extra.precision, t.extra.scale
}

// ListChild returns the element type of a LIST. ANY for any other kind.
func (t LogicalType) ListChild() LogicalType {
	if t.id != IDList || t.extra == nil {
		return Any()
	}
	return *t.extra.child
}

// StructFields returns the field list of a STRUCT. Nil for any other kind.
func (t LogicalType) StructFields() []StructField {
	if t.id != IDStruct || t.extra == nil {
		return nil
	}
	return t.extra.fields
}

// Equal reports whether two logical types are identical, including
// parametric metadata.
func (t LogicalType) Equal(other LogicalType) bool {
	if t.id != other.id {
		return false
	}
	switch t.id {
	case IDDecimal:
		p1, s1 := t.DecimalPrecisionScale()
		p2, s2 := other.DecimalPrecisionScale()
		return p1 == p2 && s1 == s2
	case IDList:
		return t.ListChild().Equal(other.ListChild())
	case IDStruct:
		f1, f2 := t.StructFields(), other.StructFields()
		if len(f1) != len(f2) {
			return false
		}
		for i := range f1 {
			if f1[i].Name != f2[i].Name || !f1[i].Type.Equal(f2[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the type including parametric metadata, e.g.
// DECIMAL(18,3) or LIST(STRING).
func (t LogicalType) String() string {
	switch t.id {
	case IDDecimal:
		p, s := t.DecimalPrecisionScale()
		return fmt.Sprintf("DECIMAL(%d,%d)", p, s)
	case IDList:
		return fmt.Sprintf("LIST(%s)", t.ListChild())
	case IDStruct:
		parts := make([]string, 0, len(t.StructFields()))
		for _, f := range t.StructFields() {
			parts = append(parts, f.Name+" "+f.Type.String())
		}
		return "STRUCT(" + strings.Join(parts, ", ") + ")"
	default:
		return t.id.String()
	}
}

// PhysicalSize returns the fixed cell width in bytes a value of this type
// occupies in a vector's backing buffer. Variable-length kinds (STRING, BLOB,
// LIST, STRUCT) store an 8-byte slot that references the vector's auxiliary
// buffer, so their cell width is the slot width, not the payload size.
func (t LogicalType) PhysicalSize() int {
	switch t.id {
	case IDBool:
		return 1
	case IDInt16:
		return 2
	case IDInt32, IDFloat, IDDate:
		return 4
	case IDInt64, IDDouble, IDTimestamp, IDDecimal:
		return 8
	case IDInterval, IDUUID, IDInternalID:
		return 16
	case IDString, IDBlob, IDList, IDStruct:
		return 8 // auxiliary buffer slot
	default:
		return 0
	}
}

// Date is a calendar date stored as days since the Unix epoch (1970-01-01).
// Negative values are dates before the epoch.
type Date int32

// Timestamp is a moment in time stored as microseconds since the Unix epoch.
type Timestamp int64

// Interval is a calendar-aware duration. Months and days are kept separate
// from the sub-day microsecond component because they have no fixed length.
type Interval struct {
	Months int32
	Days   int32
	Micros int64
}

// NodeRef identifies a graph entity by table and offset. This is the value
// kind behind INTERNAL_ID vectors.
type NodeRef struct {
	TableID uint64
	Offset  uint64
}

// MakeDate builds a Date from a calendar year, month and day (UTC).
func MakeDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DateFromTime(t)
}

// DateFromTime truncates a time.Time to its UTC calendar date.
func DateFromTime(t time.Time) Date {
	t = t.UTC()
	days := t.Unix() / 86400
	if t.Unix()%86400 < 0 {
		days--
	}
	return Date(days)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// AddDays returns the date shifted by n days.
func (d Date) AddDays(n int32) Date { return d + Date(n) }

// String renders the date as YYYY-MM-DD.
func (d Date) String() string { return d.Time().Format("2006-01-02") }

// TimestampFromTime converts a time.Time to microsecond precision.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMicro())
}

// Time converts the timestamp back to a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return time.UnixMicro(int64(ts)).UTC()
}

// String renders the timestamp in RFC 3339 format with microseconds.
func (ts Timestamp) String() string {
	return ts.Time().Format("2006-01-02T15:04:05.000000Z07:00")
}

// UUID re-exports the wire representation used by UUID vectors.
type UUID = uuid.UUID

// ParseUUID parses the canonical textual UUID form.
func ParseUUID(s string) (UUID, error) {
	return uuid.Parse(s)
}
