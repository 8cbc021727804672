package enums

import "fmt"

// JournalAggregateType names the aggregate a journal entry belongs to.
type JournalAggregateType string

const (
	AggregateEvent       JournalAggregateType = "event"
	AggregateToken       JournalAggregateType = "token"
	AggregateTreasury    JournalAggregateType = "treasury"
	AggregateParticipant JournalAggregateType = "participant"
	AggregateProtocol    JournalAggregateType = "protocol"
)

var validJournalAggregateTypes = []JournalAggregateType{
	AggregateEvent,
	AggregateToken,
	AggregateTreasury,
	AggregateParticipant,
	AggregateProtocol,
}

// IsValid reports whether the value is a known aggregate type.
func (a JournalAggregateType) IsValid() bool {
	for _, candidate := range validJournalAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseJournalAggregateType converts raw input into a JournalAggregateType.
func ParseJournalAggregateType(value string) (JournalAggregateType, error) {
	for _, candidate := range validJournalAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// JournalEventType enumerates every transition the core records. The journal is
// the only way an external observer can reconstruct history; there is no
// list-all-events query.
type JournalEventType string

const (
	EventEventCreated       JournalEventType = "event_created"
	EventEventCancelled     JournalEventType = "event_cancelled"
	EventTicketsPurchased   JournalEventType = "tickets_purchased"
	EventTipReceived        JournalEventType = "tip_received"
	EventPaymentDistributed JournalEventType = "payment_distributed"
	EventWithdrawal         JournalEventType = "withdrawal"
	EventRefundClaimed      JournalEventType = "refund_claimed"
	EventRefundForced       JournalEventType = "refund_forced"
	EventTokenTransferred   JournalEventType = "token_transferred"
	EventTokenMinted        JournalEventType = "token_minted"
	EventCredentialMinted   JournalEventType = "credential_minted"
	EventCheckedIn          JournalEventType = "checked_in"
	EventProtocolFeeUpdated JournalEventType = "protocol_fee_updated"
	EventCurrencyAllowed    JournalEventType = "currency_allowed"
	EventParticipantBanned  JournalEventType = "participant_banned"
)

var validJournalEventTypes = []JournalEventType{
	EventEventCreated,
	EventEventCancelled,
	EventTicketsPurchased,
	EventTipReceived,
	EventPaymentDistributed,
	EventWithdrawal,
	EventRefundClaimed,
	EventRefundForced,
	EventTokenTransferred,
	EventTokenMinted,
	EventCredentialMinted,
	EventCheckedIn,
	EventProtocolFeeUpdated,
	EventCurrencyAllowed,
	EventParticipantBanned,
}

// IsValid reports whether the value is a known journal event type.
func (e JournalEventType) IsValid() bool {
	for _, candidate := range validJournalEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseJournalEventType converts raw input into a JournalEventType.
func ParseJournalEventType(value string) (JournalEventType, error) {
	for _, candidate := range validJournalEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid journal event type %q", value)
}
