package sqltype

// typeInfo is one row of the type-mapping table.
type typeInfo struct {
	sqlType       int16
	name          string
	displaySize   int32
	transferLen   int32
	columnSize    int32
	decimalDigits int16
	numPrecRadix  int32
	unsigned      bool
}

var typeTable = map[ScalarType]typeInfo{
	String:    {SQLVarchar, "VARCHAR", MaxLength, MaxLength, MaxLength, -1, 0, true},
	Boolean:   {SQLBit, "BIT", 1, 1, 1, -1, 10, false},
	Double:    {SQLDouble, "DOUBLE", 24, 8, 15, 15, 2, false},
	Timestamp: {SQLTypeTimestamp, "TIMESTAMP", 20, 16, 19, -1, 0, true},
	Int:       {SQLInteger, "INTEGER", 11, 4, 10, 0, 10, false},
	NotSet:    {SQLVarchar, "NOT_SET", MaxLength, MaxLength, MaxLength, -1, 0, true},
}

func lookup(t ScalarType) (typeInfo, bool) {
	info, ok := typeTable[t]
	return info, ok
}

// ToSQLType returns the SQL type code for t. Strings report SQLWVarchar unless
// ansiOnly is set.
func ToSQLType(t ScalarType, ansiOnly bool) (int16, bool) {
	info, ok := lookup(t)
	if !ok {
		return 0, false
	}
	if info.sqlType == SQLVarchar && !ansiOnly {
		return SQLWVarchar, true
	}
	return info.sqlType, true
}

// TypeName returns the SQL type name for t.
func TypeName(t ScalarType) (string, bool) {
	info, ok := lookup(t)
	return info.name, ok
}

// DisplaySize returns the maximum number of characters needed to display t.
func DisplaySize(t ScalarType) (int32, bool) {
	info, ok := lookup(t)
	return info.displaySize, ok
}

// TransferLength returns the octet length of t in its default C representation.
func TransferLength(t ScalarType) (int32, bool) {
	info, ok := lookup(t)
	return info.transferLen, ok
}

// ColumnSize returns the column size (precision) of t.
func ColumnSize(t ScalarType) (int32, bool) {
	info, ok := lookup(t)
	return info.columnSize, ok
}

// DecimalDigits returns the default scale of t, -1 when not applicable.
func DecimalDigits(t ScalarType) (int16, bool) {
	info, ok := lookup(t)
	return info.decimalDigits, ok
}

// NumPrecRadix returns 2 or 10 for numeric types and 0 otherwise.
func NumPrecRadix(t ScalarType) (int32, bool) {
	info, ok := lookup(t)
	return info.numPrecRadix, ok
}

// CharOctetLength returns the maximum byte length of character types.
func CharOctetLength(t ScalarType) (int32, bool) {
	switch t {
	case String, NotSet:
		return MaxLength, true
	default:
		return 0, false
	}
}

// IsUnsigned reports whether t is unsigned or non-numeric.
func IsUnsigned(t ScalarType) bool {
	info, ok := lookup(t)
	if !ok {
		return true
	}
	return info.unsigned
}

// IsCaseSensitive reports whether comparisons on t are case sensitive.
func IsCaseSensitive(t ScalarType) bool {
	return t == String
}

// LiteralAffix returns the prefix and suffix used for literals of t.
func LiteralAffix(t ScalarType) string {
	if t == String {
		return "'"
	}
	return ""
}

// NullableToIsNullable renders a nullable code as the IS_NULLABLE text.
func NullableToIsNullable(code int) string {
	switch code {
	case NoNulls:
		return "NO"
	case Nullable:
		return "YES"
	default:
		return ""
	}
}
