// Package token implements the multi-asset ledger and the deterministic
// identifier codec shared by tickets, badges, and credentials.
package token

import (
	"github.com/openvenue/settlement/pkg/enums"
)

// ID is a bit-packed token identifier. Layout, most significant first:
//
//	bits 56-63  asset class
//	bits 48-55  auxiliary metadata
//	bits 32-47  event id
//	bits 16-31  tier / venue scope
//	bits  0-15  serial
//
// The layout is public: any external observer can compute an ID from ledger
// data alone. Venue credentials put the truncated venue fingerprint in the
// scope slot and zero the event slot, so one credential spans every event at
// a venue.
type ID uint64

const (
	classShift  = 56
	auxShift    = 48
	eventShift  = 32
	scopeShift  = 16
	fieldMask   = 0xffff
	byteMask    = 0xff
	MaxEventID  = fieldMask
	MaxScopeID  = fieldMask
	MaxSerialID = fieldMask
)

// Fields is the decoded form of an ID.
type Fields struct {
	Class  enums.AssetClass
	Aux    uint8
	Event  uint16
	Scope  uint16
	Serial uint16
}

// Encode packs the fields into a single identifier. Encode and Decode form a
// bijection over the full fixed-width domain.
func (f Fields) Encode() ID {
	return ID(uint64(f.Class)<<classShift |
		uint64(f.Aux)<<auxShift |
		uint64(f.Event)<<eventShift |
		uint64(f.Scope)<<scopeShift |
		uint64(f.Serial))
}

// Decode unpacks the identifier.
func (id ID) Decode() Fields {
	return Fields{
		Class:  enums.AssetClass(uint64(id) >> classShift & byteMask),
		Aux:    uint8(uint64(id) >> auxShift & byteMask),
		Event:  uint16(uint64(id) >> eventShift & fieldMask),
		Scope:  uint16(uint64(id) >> scopeShift & fieldMask),
		Serial: uint16(uint64(id) & fieldMask),
	}
}

// Class returns the asset class without a full decode. Soulbound dispatch in
// the transfer path reads only this.
func (id ID) Class() enums.AssetClass {
	return enums.AssetClass(uint64(id) >> classShift & byteMask)
}

// TicketID identifies one ticket unit of a tier.
func TicketID(event uint16, tier uint16, serial uint16) ID {
	return Fields{Class: enums.AssetClassEventTicket, Event: event, Scope: tier, Serial: serial}.Encode()
}

// BadgeID identifies the attendance badge of an event. One id per event;
// per-holder balances enforce one badge per attendee.
func BadgeID(event uint16) ID {
	return Fields{Class: enums.AssetClassAttendanceBadge, Event: event}.Encode()
}

// OrganizerCredID identifies the organizer credential of an event.
func OrganizerCredID(event uint16) ID {
	return Fields{Class: enums.AssetClassOrganizerCred, Event: event}.Encode()
}

// VenueCredID identifies the venue credential for a venue scope. The event
// slot stays zero so the credential is shared by all events at the venue.
func VenueCredID(scope uint16) ID {
	return Fields{Class: enums.AssetClassVenueCred, Scope: scope}.Encode()
}
