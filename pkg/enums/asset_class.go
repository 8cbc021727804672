package enums

import "fmt"

// AssetClass is the top-byte discriminator of a token identifier. The numeric
// values are part of the public codec layout and must never be reordered.
type AssetClass uint8

const (
	AssetClassEventTicket     AssetClass = 1
	AssetClassAttendanceBadge AssetClass = 2
	AssetClassOrganizerCred   AssetClass = 3
	AssetClassVenueCred       AssetClass = 4
)

var validAssetClasses = []AssetClass{
	AssetClassEventTicket,
	AssetClassAttendanceBadge,
	AssetClassOrganizerCred,
	AssetClassVenueCred,
}

var assetClassNames = map[AssetClass]string{
	AssetClassEventTicket:     "event_ticket",
	AssetClassAttendanceBadge: "attendance_badge",
	AssetClassOrganizerCred:   "organizer_cred",
	AssetClassVenueCred:       "venue_cred",
}

// String implements fmt.Stringer.
func (a AssetClass) String() string {
	if name, ok := assetClassNames[a]; ok {
		return name
	}
	return fmt.Sprintf("asset_class(%d)", uint8(a))
}

// IsValid reports whether the class is recognized.
func (a AssetClass) IsValid() bool {
	for _, candidate := range validAssetClasses {
		if candidate == a {
			return true
		}
	}
	return false
}

// Soulbound reports whether units of this class are permanently bound to their
// first holder. The transfer path rejects these regardless of allowance or
// operator state.
func (a AssetClass) Soulbound() bool {
	switch a {
	case AssetClassAttendanceBadge, AssetClassOrganizerCred, AssetClassVenueCred:
		return true
	}
	return false
}
