package meta

import (
	"strconv"

	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

var attrNames = map[uint16]string{
	sqltype.DescLabel:           "SQL_DESC_LABEL",
	sqltype.DescBaseColumnName:  "SQL_DESC_BASE_COLUMN_NAME",
	sqltype.DescName:            "SQL_DESC_NAME",
	sqltype.DescTableName:       "SQL_DESC_TABLE_NAME",
	sqltype.DescBaseTableName:   "SQL_DESC_BASE_TABLE_NAME",
	sqltype.DescSchemaName:      "SQL_DESC_SCHEMA_NAME",
	sqltype.DescCatalogName:     "SQL_DESC_CATALOG_NAME",
	sqltype.DescLiteralPrefix:   "SQL_DESC_LITERAL_PREFIX",
	sqltype.DescLiteralSuffix:   "SQL_DESC_LITERAL_SUFFIX",
	sqltype.DescTypeName:        "SQL_DESC_TYPE_NAME",
	sqltype.DescLocalTypeName:   "SQL_DESC_LOCAL_TYPE_NAME",
	sqltype.DescFixedPrecScale:  "SQL_DESC_FIXED_PREC_SCALE",
	sqltype.DescAutoUniqueValue: "SQL_DESC_AUTO_UNIQUE_VALUE",
	sqltype.DescCaseSensitive:   "SQL_DESC_CASE_SENSITIVE",
	sqltype.DescConciseType:     "SQL_DESC_CONCISE_TYPE",
	sqltype.DescType:            "SQL_DESC_TYPE",
	sqltype.DescDisplaySize:     "SQL_DESC_DISPLAY_SIZE",
	sqltype.DescLength:          "SQL_DESC_LENGTH",
	sqltype.DescOctetLength:     "SQL_DESC_OCTET_LENGTH",
	sqltype.DescNullable:        "SQL_DESC_NULLABLE",
	sqltype.DescNumPrecRadix:    "SQL_DESC_NUM_PREC_RADIX",
	sqltype.DescPrecision:       "SQL_DESC_PRECISION",
	sqltype.DescScale:           "SQL_DESC_SCALE",
	sqltype.DescSearchable:      "SQL_DESC_SEARCHABLE",
	sqltype.DescUnnamed:         "SQL_DESC_UNNAMED",
	sqltype.DescUnsigned:        "SQL_DESC_UNSIGNED",
	sqltype.DescUpdatable:       "SQL_DESC_UPDATABLE",
	sqltype.ColumnLength:        "SQL_COLUMN_LENGTH",
	sqltype.ColumnPrecision:     "SQL_COLUMN_PRECISION",
	sqltype.ColumnScale:         "SQL_COLUMN_SCALE",
}

// AttrIDString names a descriptor field for log lines.
func AttrIDString(id uint16) string {
	if name, ok := attrNames[id]; ok {
		return name
	}
	return "<< UNKNOWN ID >>"
}

func (m ColumnMeta) precisionOverride() (int32, bool) {
	p, ok := m.Precision.Get()
	return p, ok && p != -1
}

func (m ColumnMeta) scaleOverride() (int32, bool) {
	s, ok := m.Scale.Get()
	return s, ok && s != -1
}

// GetAttributeString resolves a character descriptor field. Absent names
// resolve to the empty string; found is false for fields this column cannot
// answer as text.
func (m ColumnMeta) GetAttributeString(field uint16) (value string, found bool) {
	logging.WithComponent("meta").Debug("get string attribute", "field", AttrIDString(field))

	switch field {
	case sqltype.DescLabel, sqltype.DescBaseColumnName, sqltype.DescName:
		return m.ColumnName.Or(""), true

	case sqltype.DescTableName, sqltype.DescBaseTableName:
		return m.TableName.Or(""), true

	case sqltype.DescSchemaName:
		return m.SchemaName.Or(""), true

	case sqltype.DescCatalogName:
		return m.CatalogName.Or(""), true

	// No binary types exist, so prefix and suffix agree.
	case sqltype.DescLiteralPrefix, sqltype.DescLiteralSuffix:
		return sqltype.LiteralAffix(m.ScalarType()), true

	case sqltype.DescTypeName, sqltype.DescLocalTypeName:
		if t, ok := m.DataType.Get(); ok {
			name, _ := sqltype.TypeName(t)
			return name, true
		}
		return "", true

	case sqltype.DescPrecision, sqltype.ColumnLength, sqltype.ColumnPrecision:
		p, ok := m.precisionOverride()
		if !ok {
			return "", false
		}
		return strconv.FormatInt(int64(p), 10), true

	case sqltype.DescScale, sqltype.ColumnScale:
		s, ok := m.scaleOverride()
		if !ok {
			return "", false
		}
		return strconv.FormatInt(int64(s), 10), true
	}
	return "", false
}

// GetAttributeInt resolves a numeric descriptor field. Fields the column has
// no value for resolve to -1.
func (m ColumnMeta) GetAttributeInt(field uint16) (value int64, found bool) {
	logging.WithComponent("meta").Debug("get int attribute", "field", AttrIDString(field))

	t, hasType := m.DataType.Get()
	value = -1

	switch field {
	case sqltype.DescFixedPrecScale:
		_, hasPrecision := m.precisionOverride()
		s, hasScale := m.scaleOverride()
		if hasPrecision && hasScale && s != 0 {
			return sqltype.True, true
		}
		return sqltype.False, true

	case sqltype.DescAutoUniqueValue:
		if m.IsAutoIncrement == "YES" {
			return sqltype.True, true
		}
		return sqltype.False, true

	case sqltype.DescCaseSensitive:
		if sqltype.IsCaseSensitive(m.ScalarType()) {
			return sqltype.True, true
		}
		return sqltype.False, true

	case sqltype.DescConciseType, sqltype.DescType:
		if code, ok := m.SQLType(); ok {
			value = int64(code)
		}
		return value, true

	case sqltype.DescLength, sqltype.ColumnLength, sqltype.DescDisplaySize:
		if hasType {
			if v, ok := sqltype.DisplaySize(t); ok {
				value = int64(v)
			}
		}
		return value, true

	case sqltype.DescOctetLength:
		if hasType {
			if v, ok := sqltype.TransferLength(t); ok {
				value = int64(v)
			}
		}
		return value, true

	case sqltype.DescNullable:
		return int64(m.NullableCode()), true

	case sqltype.DescNumPrecRadix:
		if hasType {
			if v, ok := sqltype.NumPrecRadix(t); ok {
				value = int64(v)
			}
		}
		return value, true

	case sqltype.DescPrecision, sqltype.ColumnPrecision:
		if p, ok := m.precisionOverride(); ok {
			return int64(p), true
		}
		if hasType {
			if v, ok := sqltype.ColumnSize(t); ok {
				value = int64(v)
			}
		}
		return value, true

	case sqltype.DescScale, sqltype.ColumnScale:
		if s, ok := m.scaleOverride(); ok {
			return int64(s), true
		}
		if hasType {
			if v, ok := sqltype.DecimalDigits(t); ok {
				value = int64(v)
			}
		}
		return value, true

	case sqltype.DescSearchable:
		return sqltype.PredBasic, true

	case sqltype.DescUnnamed:
		if m.ColumnName.Or("") != "" {
			return sqltype.Named, true
		}
		return sqltype.Unnamed, true

	case sqltype.DescUnsigned:
		if sqltype.IsUnsigned(m.ScalarType()) {
			return sqltype.True, true
		}
		return sqltype.False, true

	case sqltype.DescUpdatable:
		return sqltype.AttrReadWriteUnknown, true
	}
	return -1, false
}
