package types

import "fmt"

// Dimension is one of the independently tracked boolean status attributes of
// a vein.  The set is closed: every value maps to exactly one log table.
type Dimension int

const (
	DimensionConfirmation Dimension = iota + 1
	DimensionDepletion
	DimensionRevocation
	DimensionBedrock
)

// Dimensions lists every status dimension in display order.
var Dimensions = []Dimension{
	DimensionConfirmation,
	DimensionDepletion,
	DimensionRevocation,
	DimensionBedrock,
}

// Key is the stable wire name used in URLs, JSON and the CLI.
func (d Dimension) Key() string {
	switch d {
	case DimensionConfirmation:
		return "confirmation"
	case DimensionDepletion:
		return "depletion"
	case DimensionRevocation:
		return "revocation"
	case DimensionBedrock:
		return "is_bedrock"
	}
	return ""
}

// Table is the name of the append-only log table backing the dimension.
func (d Dimension) Table() string {
	switch d {
	case DimensionConfirmation:
		return "vein_confirmation"
	case DimensionDepletion:
		return "vein_depletion"
	case DimensionRevocation:
		return "vein_revocation"
	case DimensionBedrock:
		return "vein_is_bedrock"
	}
	return ""
}

func (d Dimension) Valid() bool { return d.Key() != "" }

func (d Dimension) String() string {
	if k := d.Key(); k != "" {
		return k
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

// ParseDimension maps a wire key back to its Dimension.  "bedrock" is
// accepted as an alias of "is_bedrock".
func ParseDimension(key string) (Dimension, bool) {
	switch key {
	case "confirmation":
		return DimensionConfirmation, true
	case "depletion":
		return DimensionDepletion, true
	case "revocation":
		return DimensionRevocation, true
	case "is_bedrock", "bedrock":
		return DimensionBedrock, true
	}
	return 0, false
}
