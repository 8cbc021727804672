package token

import (
	"testing"

	"github.com/openvenue/settlement/pkg/enums"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	classes := []enums.AssetClass{
		enums.AssetClassEventTicket,
		enums.AssetClassAttendanceBadge,
		enums.AssetClassOrganizerCred,
		enums.AssetClassVenueCred,
	}
	edges := []uint16{0, 1, 255, 256, 32768, 65534, 65535}
	auxEdges := []uint8{0, 1, 127, 255}

	for _, class := range classes {
		for _, aux := range auxEdges {
			for _, event := range edges {
				for _, scope := range edges {
					for _, serial := range edges {
						in := Fields{Class: class, Aux: aux, Event: event, Scope: scope, Serial: serial}
						out := in.Encode().Decode()
						if out != in {
							t.Fatalf("round trip mismatch: in=%+v out=%+v", in, out)
						}
					}
				}
			}
		}
	}
}

func TestCodecLayout(t *testing.T) {
	id := Fields{
		Class:  enums.AssetClassEventTicket,
		Aux:    0x02,
		Event:  0x0304,
		Scope:  0x0506,
		Serial: 0x0708,
	}.Encode()
	require.Equal(t, ID(0x0102_0304_0506_0708), id)
}

func TestCodecInjectiveAcrossClasses(t *testing.T) {
	seen := map[ID]Fields{}
	for _, class := range []enums.AssetClass{enums.AssetClassEventTicket, enums.AssetClassVenueCred} {
		for event := uint16(0); event < 64; event++ {
			for serial := uint16(0); serial < 64; serial++ {
				f := Fields{Class: class, Event: event, Serial: serial}
				id := f.Encode()
				if prev, dup := seen[id]; dup {
					t.Fatalf("collision between %+v and %+v", prev, f)
				}
				seen[id] = f
			}
		}
	}
}

func TestClassShortcutMatchesDecode(t *testing.T) {
	id := VenueCredID(0xBEEF)
	require.Equal(t, enums.AssetClassVenueCred, id.Class())
	require.Equal(t, id.Decode().Class, id.Class())
	require.Equal(t, uint16(0), id.Decode().Event)
	require.Equal(t, uint16(0xBEEF), id.Decode().Scope)
}
