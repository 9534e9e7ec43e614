// Package sqltype holds the protocol constants and the lookup tables that map the
// backend's scalar types onto SQL type codes, sizes and names.
package sqltype

// ScalarType is the backend's scalar type enumeration.
type ScalarType int16

const (
	NotSet ScalarType = iota
	Boolean
	Int
	Double
	Timestamp
	String
)

func (t ScalarType) String() string {
	switch t {
	case NotSet:
		return "NOT_SET"
	case Boolean:
		return "BOOLEAN"
	case Int:
		return "INT"
	case Double:
		return "DOUBLE"
	case Timestamp:
		return "TIMESTAMP"
	case String:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// ParseScalarType maps a backend data type name to a ScalarType.
// Unrecognized names map to NotSet.
func ParseScalarType(name string) ScalarType {
	switch name {
	case "STRING":
		return String
	case "DOUBLE":
		return Double
	case "BOOLEAN":
		return Boolean
	case "TIMESTAMP":
		return Timestamp
	case "INTEGER", "INT":
		return Int
	default:
		return NotSet
	}
}

// DataTypeName returns the name system.columns reports for t.
func (t ScalarType) DataTypeName() string {
	if t == Int {
		return "INTEGER"
	}
	return t.String()
}
