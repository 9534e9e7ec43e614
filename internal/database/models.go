package database

import (
	"encoding/json"
	"strings"

	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// Datum is one dynamically-typed value. Exactly one field is expected to be
// set; a datum with none set is malformed.
type Datum struct {
	ScalarValue *string `json:"scalarValue,omitempty"`
	ArrayValue  []Datum `json:"arrayValue"`
	RowValue    *Row    `json:"rowValue,omitempty"`
	NullValue   *bool   `json:"nullValue,omitempty"`
}

// Scalar returns a datum holding s.
func Scalar(s string) Datum {
	return Datum{ScalarValue: &s}
}

// Null returns a null datum.
func Null() Datum {
	t := true
	return Datum{NullValue: &t}
}

// Array returns an array datum. A nil or empty list still counts as an array.
func Array(items ...Datum) Datum {
	if items == nil {
		items = []Datum{}
	}
	return Datum{ArrayValue: items}
}

// RowOf returns a row datum.
func RowOf(items ...Datum) Datum {
	if items == nil {
		items = []Datum{}
	}
	return Datum{RowValue: &Row{Data: items}}
}

// IsScalar reports whether d holds a scalar.
func (d Datum) IsScalar() bool { return d.ScalarValue != nil }

// IsArray reports whether d holds an array.
func (d Datum) IsArray() bool { return d.ArrayValue != nil }

// IsRow reports whether d holds a nested row.
func (d Datum) IsRow() bool { return d.RowValue != nil }

// IsNull reports whether d holds null.
func (d Datum) IsNull() bool { return d.NullValue != nil && *d.NullValue }

// Row is an ordered list of datums.
type Row struct {
	Data []Datum `json:"data"`
}

// HasData reports whether the row carries a data list.
func (r Row) HasData() bool { return r.Data != nil }

// ColumnType describes a result column type. Only scalar columns carry a type.
type ColumnType struct {
	ScalarType opt.Value[sqltype.ScalarType]
}

type columnTypeJSON struct {
	ScalarType string `json:"scalarType,omitempty"`
}

// MarshalJSON encodes the scalar type by name.
func (c ColumnType) MarshalJSON() ([]byte, error) {
	var out columnTypeJSON
	if st, ok := c.ScalarType.Get(); ok {
		out.ScalarType = st.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a type written by MarshalJSON.
func (c *ColumnType) UnmarshalJSON(data []byte) error {
	var in columnTypeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.ScalarType = opt.None[sqltype.ScalarType]()
	if in.ScalarType != "" {
		c.ScalarType = opt.Some(sqltype.ParseScalarType(in.ScalarType))
	}
	return nil
}

// ColumnInfo is one result column as described by the backend.
type ColumnInfo struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// ScalarColumn returns a named column of scalar type t.
func ScalarColumn(name string, t sqltype.ScalarType) ColumnInfo {
	return ColumnInfo{Name: name, Type: ColumnType{ScalarType: opt.Some(t)}}
}

// Page is one page of a query result. An empty NextToken marks the last page.
type Page struct {
	Columns   []ColumnInfo `json:"columns"`
	Rows      []Row        `json:"rows"`
	NextToken string       `json:"nextToken,omitempty"`
}

// HasNext reports whether another page follows.
func (p *Page) HasNext() bool {
	return p != nil && p.NextToken != ""
}

// IsIntrospection reports whether sql reads one of the system catalog tables.
func IsIntrospection(sql string) bool {
	lower := strings.ToLower(sql)
	return strings.Contains(lower, "system.tables") || strings.Contains(lower, "system.columns")
}
