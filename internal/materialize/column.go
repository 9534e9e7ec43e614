// Package materialize writes backend datums into application buffers
// according to the declared column type.
package materialize

import (
	"strconv"
	"strings"
	"time"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/meta"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// elementBufferSize bounds the text of each array or row element.
const elementBufferSize = 1024

// TimestampLayout is the text form of backend timestamps.
const TimestampLayout = "2006-01-02 15:04:05.999999999"

// Column reads one result column.
type Column struct {
	Index int
	Meta  meta.ColumnMeta
}

// ReadToBuffer writes datum into buf.
func (c Column) ReadToBuffer(datum database.Datum, buf *buffer.Buffer) buffer.ConversionResult {
	log := logging.WithComponent("materialize")

	info, ok := c.Meta.ColumnInfo.Get()
	if !ok {
		log.Error("column has no backend type information", "column", c.Index)
		return buffer.ConversionFailure
	}

	t := info.Type.ScalarType.Or(sqltype.String)
	if dt, ok := c.Meta.DataType.Get(); ok {
		t = dt
	}

	switch {
	case datum.IsScalar():
		return parseScalar(t, *datum.ScalarValue, buf)
	case datum.IsArray():
		return c.parseArray(t, datum.ArrayValue, buf)
	case datum.IsRow():
		return c.parseRow(t, *datum.RowValue, buf)
	case datum.IsNull():
		return buf.PutNull()
	}

	log.Error("datum has no value set", "column", c.Index)
	return buffer.ConversionFailure
}

func parseScalar(t sqltype.ScalarType, text string, buf *buffer.Buffer) buffer.ConversionResult {
	switch t {
	case sqltype.String:
		return buf.PutString(text)
	case sqltype.Double:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return buffer.ConversionFailure
		}
		return buf.PutDouble(v)
	case sqltype.Boolean:
		var v int8
		if text == "true" {
			v = 1
		}
		return buf.PutInt8(v)
	case sqltype.Int:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return buffer.ConversionFailure
		}
		return buf.PutInt32(int32(v))
	case sqltype.Timestamp:
		ts, err := ParseTimestamp(text)
		if err != nil {
			return buffer.ConversionFailure
		}
		return buf.PutTimestamp(ts)
	case sqltype.NotSet:
		return buf.PutNull()
	}
	logging.WithComponent("materialize").Warn("unsupported scalar type", "type", t.String())
	return buffer.ConversionUnsupported
}

// ParseTimestamp reads a backend timestamp as UTC.
func ParseTimestamp(text string) (buffer.Timestamp, error) {
	t, err := time.ParseInLocation(TimestampLayout, text, time.UTC)
	if err != nil {
		return buffer.Timestamp{}, err
	}
	return buffer.TimestampOf(t), nil
}

// elementText renders one nested datum through a bounded temporary char
// buffer. Element failures render as empty text.
func (c Column) elementText(t sqltype.ScalarType, d database.Datum) string {
	tmp := buffer.NewChar(elementBufferSize)
	switch {
	case d.IsScalar():
		parseScalar(t, *d.ScalarValue, tmp)
	case d.IsArray():
		c.parseArray(t, d.ArrayValue, tmp)
	case d.IsRow():
		c.parseRow(t, *d.RowValue, tmp)
	case d.IsNull():
		tmp.PutNull()
	}
	return tmp.String()
}

func (c Column) join(t sqltype.ScalarType, items []database.Datum) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = c.elementText(t, item)
	}
	return strings.Join(parts, ",")
}

func (c Column) parseArray(t sqltype.ScalarType, items []database.Datum, buf *buffer.Buffer) buffer.ConversionResult {
	if len(items) == 0 {
		return buf.PutString("")
	}
	return buf.PutString("[" + c.join(t, items) + "]")
}

func (c Column) parseRow(t sqltype.ScalarType, row database.Row, buf *buffer.Buffer) buffer.ConversionResult {
	if !row.HasData() {
		return buffer.ConversionNoData
	}
	return buf.PutString("(" + c.join(t, row.Data) + ")")
}
