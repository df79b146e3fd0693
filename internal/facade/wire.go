package facade

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/flammafex/rendezvous/internal/adapters/attest"
	"github.com/flammafex/rendezvous/internal/adapters/tokenauth"
	"github.com/flammafex/rendezvous/internal/clock"
	"github.com/flammafex/rendezvous/internal/config"
	iface "github.com/flammafex/rendezvous/internal/domain/interfaces"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	"github.com/flammafex/rendezvous/internal/federation"
	"github.com/flammafex/rendezvous/internal/gate"
	"github.com/flammafex/rendezvous/internal/match"
	"github.com/flammafex/rendezvous/internal/poolmgr"
	"github.com/flammafex/rendezvous/internal/psi"
	"github.com/flammafex/rendezvous/internal/store/memory"
	"github.com/flammafex/rendezvous/internal/store/postgres"
	"github.com/flammafex/rendezvous/internal/submission"
)

// Wire bundles the fully assembled Facade together with the background
// loops (federation sync, deadline scheduler) a daemon entrypoint needs to
// run alongside it.
type Wire struct {
	Facade    *Facade
	Federation *federation.Manager
	Scheduler *Scheduler
	Transport *federation.Transport
}

// NewWire constructs the dependency graph from cfg: store selection, core
// components, optional adapters, and the federation manager bound to a
// real grpc transport listening on cfg.ListenAddr.
func NewWire(ctx context.Context, cfg config.Config, log *zap.Logger) (*Wire, error) {
	clk := clock.System{}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	issuer := tokenauth.New(cfg.TokenIssuerID, cfg.TokenSigningKey, cfg.TokenTTL, clk)

	witnesses, err := attest.GenerateWitnesses(cfg.AttestationWitnesses)
	if err != nil {
		return nil, err
	}
	attestor := attest.New(cfg.AttestationNetworkID, witnesses, cfg.AttestationThreshold, clk)

	pools := poolmgr.New(store, clk)
	gates := gate.New(map[string]iface.TokenIssuerVerifier{cfg.TokenIssuerID: issuer})
	submit := submission.New(store, clk)
	matcher := match.New(store, clk, attestor)
	psiSvc := psi.New(store, clk)

	instanceID, err := resolveInstanceID(cfg.InstanceIDHex)
	if err != nil {
		return nil, err
	}
	self := types.InstanceRecord{ID: instanceID, Name: cfg.InstanceName, Endpoint: cfg.ListenAddr}

	transport := federation.NewTransport(cfg.ListenAddr)
	fed := federation.New(self, store, clk, transport, issuer, submit)

	f := New(store, clk, pools, gates, submit, matcher, psiSvc, issuer, attestor, fed)
	fed.SetJoinHandler(f)

	sched := NewScheduler(f, clk, log, cfg.SchedulerInterval, cfg.PrivacyDelayMin, cfg.PrivacyDelayMax)

	return &Wire{Facade: f, Federation: fed, Scheduler: sched, Transport: transport}, nil
}

func resolveInstanceID(hexID string) (types.InstanceID, error) {
	if hexID == "" {
		v4, err := uuid.NewV4()
		if err != nil {
			return types.InstanceID{}, err
		}
		return types.InstanceID([16]byte(v4)), nil
	}
	raw, err := hex.DecodeString(hexID)
	if err != nil || len(raw) != 16 {
		return types.InstanceID{}, fmt.Errorf("RENDEZVOUS_INSTANCE_ID must be 16 bytes of hex: %w", err)
	}
	var id types.InstanceID
	copy(id[:], raw)
	return id, nil
}

func openStore(ctx context.Context, cfg config.Config) (iface.Store, error) {
	if cfg.PostgresDSN == "" {
		return memory.New(), nil
	}
	db, err := postgres.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	return postgres.NewStore(db), nil
}
