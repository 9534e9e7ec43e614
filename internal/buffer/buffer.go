// Package buffer implements the caller-supplied typed output slot that query
// results are written into, with NULL indicators, bounded character data and
// conversion between the backend's values and the requested target kind.
package buffer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

// Kind is the target representation of a buffer.
type Kind int

const (
	KindDefault Kind = iota
	KindChar
	KindWChar
	KindBit
	KindInt8
	KindUInt8
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindFloat
	KindDouble
	KindDate
	KindTime
	KindTimestamp
)

var kindNames = [...]string{
	KindDefault:   "DEFAULT",
	KindChar:      "CHAR",
	KindWChar:     "WCHAR",
	KindBit:       "BIT",
	KindInt8:      "INT8",
	KindUInt8:     "UINT8",
	KindInt16:     "INT16",
	KindUInt16:    "UINT16",
	KindInt32:     "INT32",
	KindUInt32:    "UINT32",
	KindInt64:     "INT64",
	KindUInt64:    "UINT64",
	KindFloat:     "FLOAT",
	KindDouble:    "DOUBLE",
	KindDate:      "DATE",
	KindTime:      "TIME",
	KindTimestamp: "TIMESTAMP",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// NullData is the length indicator written for SQL NULL.
const NullData int64 = -1

// ConversionResult reports how a value fitted into a buffer.
type ConversionResult int

const (
	ConversionSuccess ConversionResult = iota
	ConversionNoData
	ConversionVarlenTruncated
	ConversionFractionalTruncated
	ConversionIndicatorNeeded
	ConversionUnsupported
	ConversionFailure
)

func (r ConversionResult) String() string {
	switch r {
	case ConversionSuccess:
		return "SUCCESS"
	case ConversionNoData:
		return "NO_DATA"
	case ConversionVarlenTruncated:
		return "VARLEN_DATA_TRUNCATED"
	case ConversionFractionalTruncated:
		return "FRACTIONAL_TRUNCATED"
	case ConversionIndicatorNeeded:
		return "INDICATOR_NEEDED"
	case ConversionUnsupported:
		return "UNSUPPORTED_CONVERSION"
	default:
		return "FAILURE"
	}
}

// Timestamp is a UTC instant split into epoch seconds and a nanosecond fraction.
type Timestamp struct {
	Seconds  int64
	Fraction int32
}

// Time returns ts as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Fraction)).UTC()
}

// TimestampOf converts t into a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Fraction: int32(t.Nanosecond())}
}

const timestampLayout = "2006-01-02 15:04:05.999999999"

// Buffer is one output slot.
type Buffer struct {
	kind      Kind
	capacity  int
	indicator bool

	value   any
	length  int64
	written bool
}

// New creates a buffer of kind with room for capacity bytes of character data
// (capacity includes the terminator and is ignored by fixed-size kinds).
func New(kind Kind, capacity int) *Buffer {
	return &Buffer{kind: kind, capacity: capacity, indicator: true}
}

// NewChar creates a narrow character buffer.
func NewChar(capacity int) *Buffer {
	return New(KindChar, capacity)
}

// NewWChar creates a wide character buffer; capacity is in bytes.
func NewWChar(capacity int) *Buffer {
	return New(KindWChar, capacity)
}

// WithoutIndicator drops the length/indicator slot, making NULL unrepresentable.
func (b *Buffer) WithoutIndicator() *Buffer {
	b.indicator = false
	return b
}

// Kind returns the target kind.
func (b *Buffer) Kind() Kind { return b.kind }

// Capacity returns the byte capacity for character kinds.
func (b *Buffer) Capacity() int { return b.capacity }

// Length returns the length indicator of the last write: the full byte length
// of character data before truncation, the fixed size otherwise, or NullData.
func (b *Buffer) Length() int64 { return b.length }

// Written reports whether anything has been written since the last Reset.
func (b *Buffer) Written() bool { return b.written }

// IsNull reports whether the last write was SQL NULL.
func (b *Buffer) IsNull() bool { return b.written && b.length == NullData }

// Value returns the stored value, nil for NULL or an untouched buffer.
func (b *Buffer) Value() any { return b.value }

// Reset clears the stored value so the buffer can be reused for the next row.
func (b *Buffer) Reset() {
	b.value = nil
	b.length = 0
	b.written = false
}

// String returns the stored value as text.
func (b *Buffer) String() string {
	switch v := b.value.(type) {
	case nil:
		return ""
	case string:
		return v
	case Timestamp:
		return v.Time().Format(timestampLayout)
	case time.Time:
		if b.kind == KindDate {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.TimeOnly)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the stored value as an integer when it is integral.
func (b *Buffer) Int64() (int64, bool) {
	switch v := b.value.(type) {
	case int8:
		return int64(v), true
	case uint8:
		return int64(v), true
	case int16:
		return int64(v), true
	case uint16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint32:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// Float64 returns the stored value as a float when it is numeric.
func (b *Buffer) Float64() (float64, bool) {
	switch v := b.value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		if i, ok := b.Int64(); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// Timestamp returns the stored timestamp.
func (b *Buffer) Timestamp() (Timestamp, bool) {
	ts, ok := b.value.(Timestamp)
	return ts, ok
}

// Time returns the stored date, time or timestamp as a time.Time.
func (b *Buffer) Time() (time.Time, bool) {
	switch v := b.value.(type) {
	case Timestamp:
		return v.Time(), true
	case time.Time:
		return v, true
	default:
		return time.Time{}, false
	}
}

func (b *Buffer) store(v any, length int64) {
	b.value = v
	b.length = length
	b.written = true
}

func (b *Buffer) isChar() bool {
	return b.kind == KindChar || b.kind == KindWChar || b.kind == KindDefault
}

// PutNull writes SQL NULL.
func (b *Buffer) PutNull() ConversionResult {
	if !b.indicator {
		return ConversionIndicatorNeeded
	}
	b.store(nil, NullData)
	return ConversionSuccess
}

// PutString writes text, converting it when the target is not a character kind.
func (b *Buffer) PutString(s string) ConversionResult {
	switch b.kind {
	case KindChar, KindDefault:
		return b.putNarrow(s)
	case KindWChar:
		return b.putWide(s)
	case KindFloat, KindDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return ConversionFailure
		}
		return b.PutDouble(f)
	case KindDate, KindTime, KindTimestamp:
		t, ok := parseTemporal(strings.TrimSpace(s))
		if !ok {
			return ConversionFailure
		}
		return b.PutTimestamp(TimestampOf(t))
	default:
		trimmed := strings.TrimSpace(s)
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return b.PutInt64(i)
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return ConversionFailure
		}
		return b.PutDouble(f)
	}
}

func (b *Buffer) putNarrow(s string) ConversionResult {
	full := int64(len(s))
	room := b.capacity - 1
	if room < 0 {
		room = 0
	}
	if len(s) <= room {
		b.store(s, full)
		return ConversionSuccess
	}
	cut := room
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	b.store(s[:cut], full)
	return ConversionVarlenTruncated
}

func (b *Buffer) putWide(s string) ConversionResult {
	units := utf16.Encode([]rune(s))
	full := int64(len(units) * 2)
	room := b.capacity/2 - 1
	if room < 0 {
		room = 0
	}
	if len(units) <= room {
		b.store(s, full)
		return ConversionSuccess
	}
	cut := room
	if cut > 0 && utf16.IsSurrogate(rune(units[cut-1])) {
		cut--
	}
	b.store(string(utf16.Decode(units[:cut])), full)
	return ConversionVarlenTruncated
}

func parseTemporal(s string) (time.Time, bool) {
	for _, layout := range []string{timestampLayout, time.DateOnly, time.TimeOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PutInt8 writes an 8-bit integer.
func (b *Buffer) PutInt8(v int8) ConversionResult { return b.PutInt64(int64(v)) }

// PutInt16 writes a 16-bit integer.
func (b *Buffer) PutInt16(v int16) ConversionResult { return b.PutInt64(int64(v)) }

// PutInt32 writes a 32-bit integer.
func (b *Buffer) PutInt32(v int32) ConversionResult { return b.PutInt64(int64(v)) }

// PutInt64 writes an integer, range-checking narrower integer targets.
func (b *Buffer) PutInt64(v int64) ConversionResult {
	if b.isChar() {
		return b.PutString(strconv.FormatInt(v, 10))
	}
	switch b.kind {
	case KindBit:
		if v != 0 && v != 1 {
			return ConversionFailure
		}
		b.store(uint8(v), 1)
	case KindInt8:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return ConversionFailure
		}
		b.store(int8(v), 1)
	case KindUInt8:
		if v < 0 || v > math.MaxUint8 {
			return ConversionFailure
		}
		b.store(uint8(v), 1)
	case KindInt16:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return ConversionFailure
		}
		b.store(int16(v), 2)
	case KindUInt16:
		if v < 0 || v > math.MaxUint16 {
			return ConversionFailure
		}
		b.store(uint16(v), 2)
	case KindInt32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return ConversionFailure
		}
		b.store(int32(v), 4)
	case KindUInt32:
		if v < 0 || v > math.MaxUint32 {
			return ConversionFailure
		}
		b.store(uint32(v), 4)
	case KindInt64:
		b.store(v, 8)
	case KindUInt64:
		if v < 0 {
			return ConversionFailure
		}
		b.store(uint64(v), 8)
	case KindFloat:
		b.store(float32(v), 4)
	case KindDouble:
		b.store(float64(v), 8)
	default:
		return ConversionUnsupported
	}
	return ConversionSuccess
}

// PutDouble writes a floating point value. Integer targets receive the value
// truncated toward zero.
func (b *Buffer) PutDouble(v float64) ConversionResult {
	if b.isChar() {
		return b.PutString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	switch b.kind {
	case KindFloat:
		if !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
			return ConversionFailure
		}
		b.store(float32(v), 4)
		return ConversionSuccess
	case KindDouble:
		b.store(v, 8)
		return ConversionSuccess
	case KindDate, KindTime, KindTimestamp:
		return ConversionUnsupported
	}

	if math.IsNaN(v) || math.IsInf(v, 0) || v < math.MinInt64 || v >= math.MaxInt64 {
		return ConversionFailure
	}
	whole := math.Trunc(v)
	res := b.PutInt64(int64(whole))
	if res == ConversionSuccess && whole != v {
		return ConversionFractionalTruncated
	}
	return res
}

// PutTimestamp writes a timestamp. Date and time targets keep their part and
// report fractional truncation when the dropped part was not zero.
func (b *Buffer) PutTimestamp(ts Timestamp) ConversionResult {
	t := ts.Time()
	if b.isChar() {
		return b.PutString(t.Format(timestampLayout))
	}
	switch b.kind {
	case KindTimestamp:
		b.store(ts, 16)
		return ConversionSuccess
	case KindDate:
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		b.store(date, 6)
		if !date.Equal(t) {
			return ConversionFractionalTruncated
		}
		return ConversionSuccess
	case KindTime:
		clock := time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		b.store(clock, 6)
		if t.Nanosecond() != 0 {
			return ConversionFractionalTruncated
		}
		return ConversionSuccess
	default:
		return ConversionUnsupported
	}
}
