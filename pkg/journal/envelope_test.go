package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecodeMatchesEmit(t *testing.T) {
	caller := uuid.New()
	envelope := PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Actor:      &ActorRef{CallerID: caller, Role: enums.ActorRoleParticipant},
		Data:       json.RawMessage(`{"eventId":3,"gross":1003}`),
	}

	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	var decoded PayloadEnvelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, envelope.Version, decoded.Version)
	require.Equal(t, envelope.EventID, decoded.EventID)
	require.True(t, envelope.OccurredAt.Equal(decoded.OccurredAt))
	require.Equal(t, caller, decoded.Actor.CallerID)
	require.JSONEq(t, string(envelope.Data), string(decoded.Data))
}
