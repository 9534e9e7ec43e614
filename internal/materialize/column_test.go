package materialize

import (
	"testing"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/meta"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

func column(t sqltype.ScalarType) Column {
	return Column{Index: 1, Meta: meta.FromColumnInfo(config.DefaultSettings(), database.ScalarColumn("c", t))}
}

func untyped() Column {
	return Column{Index: 1, Meta: meta.FromColumnInfo(config.DefaultSettings(), database.ColumnInfo{Name: "c"})}
}

func TestScalarDouble(t *testing.T) {
	t.Parallel()

	buf := buffer.New(buffer.KindDouble, 0)
	if res := column(sqltype.Double).ReadToBuffer(database.Scalar("515.0"), buf); res != buffer.ConversionSuccess {
		t.Fatalf("res = %v", res)
	}
	if v, _ := buf.Float64(); v != 515.0 {
		t.Errorf("value = %v", v)
	}

	if res := column(sqltype.Double).ReadToBuffer(database.Scalar("abc"), buf); res != buffer.ConversionFailure {
		t.Errorf("bad double res = %v", res)
	}
}

func TestScalarTimestamp(t *testing.T) {
	t.Parallel()

	buf := buffer.New(buffer.KindTimestamp, 0)
	res := column(sqltype.Timestamp).ReadToBuffer(database.Scalar("2022-11-09 23:52:51.554000000"), buf)
	if res != buffer.ConversionSuccess {
		t.Fatalf("res = %v", res)
	}
	ts, _ := buf.Timestamp()
	if ts.Seconds != 1668037971 || ts.Fraction != 554000000 {
		t.Errorf("timestamp = %+v", ts)
	}

	if res := column(sqltype.Timestamp).ReadToBuffer(database.Scalar("yesterday"), buf); res != buffer.ConversionFailure {
		t.Errorf("bad timestamp res = %v", res)
	}
}

func TestScalarKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  sqltype.ScalarType
		in   string
		want string
		null bool
	}{
		{"string", sqltype.String, "turbine-1", "turbine-1", false},
		{"boolean true", sqltype.Boolean, "true", "1", false},
		{"boolean other", sqltype.Boolean, "TRUE", "0", false},
		{"int", sqltype.Int, "-17", "-17", false},
		{"not set", sqltype.NotSet, "ignored", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buffer.NewChar(64)
			if res := column(tt.typ).ReadToBuffer(database.Scalar(tt.in), buf); res != buffer.ConversionSuccess {
				t.Fatalf("res = %v", res)
			}
			if buf.IsNull() != tt.null || buf.String() != tt.want {
				t.Errorf("got %q (null %v), want %q (null %v)", buf.String(), buf.IsNull(), tt.want, tt.null)
			}
		})
	}
}

func TestIntOverflow(t *testing.T) {
	t.Parallel()

	buf := buffer.New(buffer.KindInt32, 0)
	if res := column(sqltype.Int).ReadToBuffer(database.Scalar("9999999999"), buf); res != buffer.ConversionFailure {
		t.Errorf("res = %v", res)
	}
}

func TestArrayAndRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		datum database.Datum
		want  string
	}{
		{"empty array", database.Array(), ""},
		{"array", database.Array(database.Scalar("a"), database.Scalar("b")), "[a,b]"},
		{"array with null", database.Array(database.Scalar("a"), database.Null()), "[a,]"},
		{"row", database.RowOf(database.Scalar("a"), database.Scalar("b")), "(a,b)"},
		{"empty row", database.RowOf(), "()"},
		{"nested", database.RowOf(database.Scalar("a"), database.Array(database.Scalar("x"), database.Scalar("y"))), "(a,[x,y])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buffer.NewChar(256)
			if res := untyped().ReadToBuffer(tt.datum, buf); res != buffer.ConversionSuccess {
				t.Fatalf("res = %v", res)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRowWithoutData(t *testing.T) {
	t.Parallel()

	d := database.Datum{RowValue: &database.Row{}}
	if res := untyped().ReadToBuffer(d, buffer.NewChar(16)); res != buffer.ConversionNoData {
		t.Errorf("res = %v", res)
	}
}

func TestMalformedInputs(t *testing.T) {
	t.Parallel()

	if res := untyped().ReadToBuffer(database.Datum{}, buffer.NewChar(16)); res != buffer.ConversionFailure {
		t.Errorf("empty datum res = %v", res)
	}

	noInfo := Column{Index: 1, Meta: meta.NewColumnMeta(config.DefaultSettings(), "", "t", "c", sqltype.String, meta.NoNull)}
	if res := noInfo.ReadToBuffer(database.Scalar("x"), buffer.NewChar(16)); res != buffer.ConversionFailure {
		t.Errorf("meta without column info res = %v", res)
	}
}

func TestNullDatum(t *testing.T) {
	t.Parallel()

	buf := buffer.NewChar(16)
	if res := untyped().ReadToBuffer(database.Null(), buf); res != buffer.ConversionSuccess || !buf.IsNull() {
		t.Errorf("res = %v null = %v", res, buf.IsNull())
	}

	if res := untyped().ReadToBuffer(database.Null(), buffer.NewChar(16).WithoutIndicator()); res != buffer.ConversionIndicatorNeeded {
		t.Errorf("no indicator res = %v", res)
	}
}
