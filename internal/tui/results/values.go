package results

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/joacominatel/sitewisedb/internal/app"
)

// typed converts a cell to the Go value its SQL type name describes. Values
// that do not parse stay text; NULL becomes nil.
func typed(c app.Cell, typeName string) any {
	if c.Null {
		return nil
	}
	switch strings.ToUpper(typeName) {
	case "INTEGER", "BIGINT", "SMALLINT", "TINYINT":
		if n, err := strconv.ParseInt(c.Text, 10, 64); err == nil {
			return n
		}
	case "DOUBLE", "FLOAT", "REAL", "DECIMAL", "NUMERIC":
		if f, err := strconv.ParseFloat(c.Text, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return json.Number(c.Text)
		}
	case "BIT":
		switch c.Text {
		case "1":
			return true
		case "0":
			return false
		}
	}
	return c.Text
}

// quotedType reports whether literals of typeName need single quotes.
func quotedType(typeName string) bool {
	switch strings.ToUpper(typeName) {
	case "INTEGER", "BIGINT", "SMALLINT", "TINYINT",
		"DOUBLE", "FLOAT", "REAL", "DECIMAL", "NUMERIC", "BIT":
		return false
	}
	return true
}

// literal renders a cell as a SQL literal of typeName. Text in a numeric
// column that does not parse is quoted so the statement stays valid.
func literal(c app.Cell, typeName string) string {
	if c.Null {
		return "NULL"
	}
	if !quotedType(typeName) {
		switch v := typed(c, typeName).(type) {
		case bool:
			return strconv.FormatBool(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case json.Number:
			return v.String()
		}
	}
	return "'" + strings.ReplaceAll(c.Text, "'", "''") + "'"
}

// rowToJSON encodes a row as a JSON object with typed values, keeping the
// column order.
func rowToJSON(columns, types []string, row []app.Cell) string {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		key, _ := json.Marshal(col)
		b.Write(key)
		b.WriteString(": ")
		var v any
		if i < len(row) {
			v = typed(row[i], typeAt(types, i))
		}
		val, err := json.Marshal(v)
		if err != nil {
			val = []byte("null")
		}
		b.Write(val)
	}
	b.WriteString("}")
	return b.String()
}

// csvRecord renders a row for CSV. NULL is an empty field.
func csvRecord(row []app.Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		if !c.Null {
			out[i] = c.Text
		}
	}
	return out
}

func typeAt(types []string, i int) string {
	if i < len(types) {
		return types[i]
	}
	return ""
}
