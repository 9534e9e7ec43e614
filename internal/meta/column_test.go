package meta

import (
	"testing"

	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

func TestStringColumnAttributes(t *testing.T) {
	t.Parallel()

	m := NewColumnMeta(config.DefaultSettings(), "", "turbine", "asset_name", sqltype.String, Nullable)

	ints := []struct {
		field uint16
		want  int64
	}{
		{sqltype.DescConciseType, int64(sqltype.SQLVarchar)},
		{sqltype.DescType, int64(sqltype.SQLVarchar)},
		{sqltype.DescDisplaySize, sqltype.MaxLength},
		{sqltype.DescLength, sqltype.MaxLength},
		{sqltype.DescOctetLength, sqltype.MaxLength},
		{sqltype.DescPrecision, sqltype.MaxLength},
		{sqltype.DescScale, -1},
		{sqltype.DescNumPrecRadix, 0},
		{sqltype.DescCaseSensitive, sqltype.True},
		{sqltype.DescUnsigned, sqltype.True},
		{sqltype.DescNullable, sqltype.Nullable},
		{sqltype.DescSearchable, sqltype.PredBasic},
		{sqltype.DescUnnamed, sqltype.Named},
		{sqltype.DescUpdatable, sqltype.AttrReadWriteUnknown},
		{sqltype.DescFixedPrecScale, sqltype.False},
		{sqltype.DescAutoUniqueValue, sqltype.False},
	}
	for _, tt := range ints {
		got, ok := m.GetAttributeInt(tt.field)
		if !ok || got != tt.want {
			t.Errorf("%s = %d (found %v), want %d", AttrIDString(tt.field), got, ok, tt.want)
		}
	}

	strs := []struct {
		field uint16
		want  string
	}{
		{sqltype.DescLabel, "asset_name"},
		{sqltype.DescName, "asset_name"},
		{sqltype.DescTableName, "turbine"},
		{sqltype.DescTypeName, "VARCHAR"},
		{sqltype.DescLiteralPrefix, "'"},
		{sqltype.DescLiteralSuffix, "'"},
		{sqltype.DescSchemaName, ""},
	}
	for _, tt := range strs {
		got, ok := m.GetAttributeString(tt.field)
		if !ok || got != tt.want {
			t.Errorf("%s = %q (found %v), want %q", AttrIDString(tt.field), got, ok, tt.want)
		}
	}

	if _, ok := m.GetAttributeString(sqltype.DescPrecision); ok {
		t.Errorf("string precision without override should not be found")
	}
}

func TestDoubleColumnAttributes(t *testing.T) {
	t.Parallel()

	m := NewColumnMeta(config.DefaultSettings(), "", "turbine", "double_value", sqltype.Double, NoNull)

	want := map[uint16]int64{
		sqltype.DescConciseType:   int64(sqltype.SQLDouble),
		sqltype.DescDisplaySize:   24,
		sqltype.DescOctetLength:   8,
		sqltype.DescPrecision:     15,
		sqltype.ColumnPrecision:   15,
		sqltype.DescScale:         15,
		sqltype.DescNumPrecRadix:  2,
		sqltype.DescUnsigned:      sqltype.False,
		sqltype.DescCaseSensitive: sqltype.False,
		sqltype.DescNullable:      sqltype.NoNulls,
	}
	for field, w := range want {
		got, ok := m.GetAttributeInt(field)
		if !ok || got != w {
			t.Errorf("%s = %d (found %v), want %d", AttrIDString(field), got, ok, w)
		}
	}
	if s, _ := m.GetAttributeString(sqltype.DescLiteralPrefix); s != "" {
		t.Errorf("double literal prefix = %q", s)
	}
	if s, _ := m.GetAttributeString(sqltype.DescTypeName); s != "DOUBLE" {
		t.Errorf("type name = %q", s)
	}
}

func TestPrecisionScaleOverride(t *testing.T) {
	t.Parallel()

	m := NewColumnMeta(config.DefaultSettings(), "", "t", "c", sqltype.Double, NoNull)
	m.Precision = opt.Some[int32](10)
	m.Scale = opt.Some[int32](2)

	if v, _ := m.GetAttributeInt(sqltype.DescPrecision); v != 10 {
		t.Errorf("precision = %d", v)
	}
	if s, ok := m.GetAttributeString(sqltype.DescScale); !ok || s != "2" {
		t.Errorf("string scale = %q, %v", s, ok)
	}
	if v, _ := m.GetAttributeInt(sqltype.DescFixedPrecScale); v != sqltype.True {
		t.Errorf("fixed prec scale = %d", v)
	}
}

func TestWideStringType(t *testing.T) {
	t.Parallel()

	settings := config.DefaultSettings()
	settings.AnsiStringOnly = false
	m := NewColumnMeta(settings, "", "t", "c", sqltype.String, Nullable)

	if v, _ := m.GetAttributeInt(sqltype.DescConciseType); v != int64(sqltype.SQLWVarchar) {
		t.Errorf("concise type = %d", v)
	}
	if s, _ := m.GetAttributeString(sqltype.DescTypeName); s != "VARCHAR" {
		t.Errorf("type name = %q", s)
	}
}

func TestUnknownAttribute(t *testing.T) {
	t.Parallel()

	var m ColumnMeta
	if _, ok := m.GetAttributeInt(9999); ok {
		t.Errorf("unknown int field found")
	}
	if _, ok := m.GetAttributeString(9999); ok {
		t.Errorf("unknown string field found")
	}
	if AttrIDString(9999) != "<< UNKNOWN ID >>" {
		t.Errorf("AttrIDString(9999) = %q", AttrIDString(9999))
	}
	if v, _ := m.GetAttributeInt(sqltype.DescUnnamed); v != sqltype.Unnamed {
		t.Errorf("unnamed = %d", v)
	}
	if v, _ := m.GetAttributeInt(sqltype.DescNullable); v != sqltype.NullableUnknown {
		t.Errorf("nullable = %d", v)
	}
}

func TestDatabasePlacement(t *testing.T) {
	t.Parallel()

	settings := config.DefaultSettings()
	m := NewColumnMeta(settings, "db", "t", "c", sqltype.Int, NoNull)
	if s, _ := m.SchemaName.Get(); s != "db" || m.CatalogName.IsSet() {
		t.Errorf("database as schema: schema=%v catalog=%v", m.SchemaName, m.CatalogName)
	}

	settings.DatabaseAsSchema = false
	m = NewColumnMeta(settings, "db", "t", "c", sqltype.Int, NoNull)
	if c, _ := m.CatalogName.Get(); c != "db" || m.SchemaName.IsSet() {
		t.Errorf("database as catalog: schema=%v catalog=%v", m.SchemaName, m.CatalogName)
	}
}

func TestFromColumnInfo(t *testing.T) {
	t.Parallel()

	settings := config.DefaultSettings()

	m := FromColumnInfo(settings, database.ScalarColumn("value", sqltype.Int))
	if m.ScalarType() != sqltype.Int || m.Nullability.IsSet() || !m.ColumnInfo.IsSet() {
		t.Errorf("scalar column: %+v", m)
	}

	m = FromColumnInfo(settings, database.ColumnInfo{Name: "tags"})
	if m.ScalarType() != sqltype.String {
		t.Errorf("untyped column type = %v, want STRING", m.ScalarType())
	}
	if m.NullableCode() != sqltype.NullableUnknown {
		t.Errorf("nullable = %d", m.NullableCode())
	}
}

func TestReadColumnMetadata(t *testing.T) {
	t.Parallel()

	settings := config.DefaultSettings()

	tests := []struct {
		row      database.Row
		wantType sqltype.ScalarType
		wantNull Nullability
	}{
		{database.Row{Data: []database.Datum{database.Scalar("double_value")}}, sqltype.NotSet, Nullable},
		{database.Row{Data: []database.Datum{database.Scalar("int_value"), database.Scalar("INTEGER")}}, sqltype.Int, Nullable},
		{database.Row{Data: []database.Datum{database.Scalar("asset_id"), database.Scalar("STRING")}}, sqltype.String, NoNull},
		{database.Row{Data: []database.Datum{database.Scalar("event_timestamp"), database.Scalar("TIMESTAMP")}}, sqltype.Timestamp, NoNull},
	}
	for _, tt := range tests {
		m, err := ReadColumnMetadata(settings, tt.row, 3)
		if err != nil {
			t.Fatalf("ReadColumnMetadata: %v", err)
		}
		if m.ScalarType() != tt.wantType {
			t.Errorf("%s type = %v, want %v", m.Name(), m.ScalarType(), tt.wantType)
		}
		if n, _ := m.Nullability.Get(); n != tt.wantNull {
			t.Errorf("%s nullability = %v, want %v", m.Name(), n, tt.wantNull)
		}
		if p, _ := m.OrdinalPosition.Get(); p != 3 {
			t.Errorf("%s ordinal = %d", m.Name(), p)
		}
	}

	if _, err := ReadColumnMetadata(settings, database.Row{}, 1); err == nil {
		t.Errorf("empty row should fail")
	}
}
