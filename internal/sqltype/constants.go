package sqltype

// SQL data type codes.
const (
	SQLUnknownType   int16 = 0
	SQLChar          int16 = 1
	SQLInteger       int16 = 4
	SQLSmallInt      int16 = 5
	SQLDouble        int16 = 8
	SQLDatetime      int16 = 9
	SQLVarchar       int16 = 12
	SQLTypeTimestamp int16 = 93
	SQLBigInt        int16 = -5
	SQLTinyInt       int16 = -6
	SQLBit           int16 = -7
	SQLWVarchar      int16 = -9
)

// MaxLength is the column size reported for variable-length strings.
const MaxLength = 32768

// Descriptor field identifiers.
const (
	DescConciseType     uint16 = 2
	ColumnLength        uint16 = 3
	ColumnPrecision     uint16 = 4
	ColumnScale         uint16 = 5
	DescDisplaySize     uint16 = 6
	DescUnsigned        uint16 = 8
	DescFixedPrecScale  uint16 = 9
	DescUpdatable       uint16 = 10
	DescAutoUniqueValue uint16 = 11
	DescCaseSensitive   uint16 = 12
	DescSearchable      uint16 = 13
	DescTypeName        uint16 = 14
	DescTableName       uint16 = 15
	DescSchemaName      uint16 = 16
	DescCatalogName     uint16 = 17
	DescLabel           uint16 = 18
	DescBaseColumnName  uint16 = 22
	DescBaseTableName   uint16 = 23
	DescLiteralPrefix   uint16 = 27
	DescLiteralSuffix   uint16 = 28
	DescLocalTypeName   uint16 = 29
	DescNumPrecRadix    uint16 = 32
	DescType            uint16 = 1002
	DescLength          uint16 = 1003
	DescPrecision       uint16 = 1005
	DescScale           uint16 = 1006
	DescNullable        uint16 = 1008
	DescName            uint16 = 1011
	DescUnnamed         uint16 = 1012
	DescOctetLength     uint16 = 1013
)

// Nullable codes.
const (
	NoNulls         = 0
	Nullable        = 1
	NullableUnknown = 2
)

// Attribute values.
const (
	False                = 0
	True                 = 1
	PredBasic            = 2
	AttrReadWriteUnknown = 2
	Named                = 0
	Unnamed              = 1
)

// Wildcards accepted by catalog functions.
const (
	AllCatalogs   = "%"
	AllSchemas    = "%"
	AllTableTypes = "%"
)

// Declared protocol versions.
const (
	ODBCVersion2 = 2
	ODBCVersion3 = 3
)
