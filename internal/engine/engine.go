// Package engine is the settlement core. One Engine owns all mutable
// state and serializes every operation: registry, token ledger, treasury,
// and the payer refund book move together or not at all. External funds
// move through the bank gateway; every completed transition lands in the
// journal.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openvenue/settlement/internal/bank"
	"github.com/openvenue/settlement/internal/pricing"
	"github.com/openvenue/settlement/internal/refunds"
	"github.com/openvenue/settlement/internal/registry"
	"github.com/openvenue/settlement/internal/token"
	"github.com/openvenue/settlement/internal/treasury"
	"github.com/openvenue/settlement/pkg/config"
	"github.com/openvenue/settlement/pkg/enums"
	"github.com/openvenue/settlement/pkg/errors"
	"github.com/openvenue/settlement/pkg/journal"
	"github.com/openvenue/settlement/pkg/logger"
	"github.com/openvenue/settlement/pkg/metrics"
)

// Journal is the slice of the journal service the engine uses.
type Journal interface {
	AppendAll(ctx context.Context, entries []journal.Entry) error
}

// State is the full serializable settlement state. Snapshot writes it out
// verbatim; Restore reads it back.
type State struct {
	Ledger   *token.Ledger      `json:"ledger"`
	Registry *registry.Registry `json:"registry"`
	Treasury *treasury.Treasury `json:"treasury"`
	Refunds  *refunds.Book      `json:"refunds"`
	Banned   map[uuid.UUID]bool `json:"banned"`
}

// NewState builds an empty settlement state from protocol parameters.
func NewState(cfg config.ProtocolConfig) (*State, error) {
	feeCollector, err := uuid.Parse(cfg.FeeCollectorID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "parsing fee collector id")
	}
	return &State{
		Ledger:   token.NewLedger(),
		Registry: registry.NewRegistry(),
		Treasury: treasury.New(feeCollector, cfg.ProtocolFeeBps, cfg.MaxProtocolFeeBps, cfg.MaxPlatformFeeBps),
		Refunds:  refunds.NewBook(),
		Banned:   map[uuid.UUID]bool{},
	}, nil
}

// Engine serializes settlement operations over one State.
type Engine struct {
	mu      sync.RWMutex
	state   *State
	quoter  pricing.Quoter
	cfg     config.ProtocolConfig
	gateway bank.Gateway
	journal Journal
	metrics *metrics.SettlementMetrics
	logg    *logger.Logger
	clock   func() time.Time

	// entries buffered during the current operation, flushed once its
	// state transition is complete.
	pending []journal.Entry
}

// New wires an engine. Journal, metrics, and logger may be nil; the gateway
// and state may not.
func New(state *State, cfg config.ProtocolConfig, gateway bank.Gateway, jrnl Journal, m *metrics.SettlementMetrics, logg *logger.Logger) (*Engine, error) {
	if state == nil {
		return nil, errors.New(errors.CodeInternal, "state is required")
	}
	if gateway == nil {
		return nil, errors.New(errors.CodeInternal, "funds gateway is required")
	}
	return &Engine{
		state:   state,
		quoter:  pricing.Quoter{CapBps: cfg.PriceCapBps},
		cfg:     cfg,
		gateway: gateway,
		journal: jrnl,
		metrics: m,
		logg:    logg,
		clock:   time.Now,
	}, nil
}

// WithClock replaces the engine clock, for tests.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

func (e *Engine) requireNotBanned(caller uuid.UUID) error {
	if e.state.Banned[caller] {
		return errors.New(errors.CodeForbidden, "participant is banned")
	}
	return nil
}

func (e *Engine) emit(entry journal.Entry) {
	entry.OccurredAt = e.clock()
	if entry.Version == 0 {
		entry.Version = 1
	}
	e.pending = append(e.pending, entry)
}

// flush writes the buffered entries. The state transition already
// committed, so a journal failure is logged and counted, not propagated.
func (e *Engine) flush(ctx context.Context) {
	entries := e.pending
	e.pending = nil
	if len(entries) == 0 || e.journal == nil {
		return
	}
	if err := e.journal.AppendAll(ctx, entries); err != nil {
		e.metrics.IncJournalError()
		if e.logg != nil {
			e.logg.Error(ctx, "appending journal entries", err)
		}
	}
}

func participantActor(caller uuid.UUID) *journal.ActorRef {
	return &journal.ActorRef{CallerID: caller, Role: enums.ActorRoleParticipant}
}

func adminActor(caller uuid.UUID) *journal.ActorRef {
	return &journal.ActorRef{CallerID: caller, Role: enums.ActorRoleAdmin}
}
