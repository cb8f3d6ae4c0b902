package domain

import (
	"fmt"
	"strings"
)

// TransportType is a mode of transport a trip used.
type TransportType string

const (
	TransportBus               TransportType = "bus"
	TransportTram              TransportType = "tram"
	TransportSubway            TransportType = "subway"
	TransportSuburban          TransportType = "suburban"
	TransportRegionalTrain     TransportType = "regional_train"
	TransportLongDistanceTrain TransportType = "long_distance_train"
	TransportFerry             TransportType = "ferry"
	TransportOther             TransportType = "other"
)

// transportOrder is the canonical ordering of the set.
var transportOrder = []TransportType{
	TransportBus,
	TransportTram,
	TransportSubway,
	TransportSuburban,
	TransportRegionalTrain,
	TransportLongDistanceTrain,
	TransportFerry,
	TransportOther,
}

// ParseTransportType maps a wire name (case-insensitive) to a TransportType.
func ParseTransportType(s string) (TransportType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range transportOrder {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown transport type %q", ErrValidation, s)
}

// TransportTypes is an ordered set of transport modes.
// A nil value means "not recorded", which is distinct from an empty set.
type TransportTypes []TransportType

// NewTransportTypes builds the canonical form of the set: duplicates removed,
// members in declaration order. A nil input stays nil.
func NewTransportTypes(types ...TransportType) TransportTypes {
	if types == nil {
		return nil
	}
	seen := make(map[TransportType]bool, len(types))
	for _, t := range types {
		seen[t] = true
	}
	out := TransportTypes{}
	for _, t := range transportOrder {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns the lowercase wire names of the set members.
func (ts TransportTypes) Strings() []string {
	if ts == nil {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

// ParseTransportTypes converts wire names into a canonical set.
func ParseTransportTypes(names []string) (TransportTypes, error) {
	if names == nil {
		return nil, nil
	}
	types := make([]TransportType, 0, len(names))
	for _, n := range names {
		t, err := ParseTransportType(n)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return NewTransportTypes(types...), nil
}

// TransportCodecVersion tags the storage encoding produced by
// EncodeTransportTypes. Bump it together with a migration when the encoding
// changes.
const TransportCodecVersion = 1

// EncodeTransportTypes renders the set for storage as "v1:bus,tram".
// The empty set encodes as "v1:"; nil is the caller's concern (NULL column).
func EncodeTransportTypes(ts TransportTypes) string {
	return fmt.Sprintf("v%d:%s", TransportCodecVersion, strings.Join(ts.Strings(), ","))
}

// DecodeTransportTypes is the inverse of EncodeTransportTypes.
func DecodeTransportTypes(s string) (TransportTypes, error) {
	version, body, ok := strings.Cut(s, ":")
	if !ok || version != fmt.Sprintf("v%d", TransportCodecVersion) {
		return nil, fmt.Errorf("decode transport types: unsupported encoding %q", s)
	}
	if body == "" {
		return TransportTypes{}, nil
	}
	return ParseTransportTypes(strings.Split(body, ","))
}
