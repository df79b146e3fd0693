// Command rendezvousd runs a rendezvous instance as a long-lived daemon:
// it wires config into a facade, then runs the federation manager's peer
// transport and the deadline scheduler alongside each other until an OS
// signal arrives.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flammafex/rendezvous/internal/config"
	types "github.com/flammafex/rendezvous/internal/domain/types"
	"github.com/flammafex/rendezvous/internal/facade"
	"github.com/flammafex/rendezvous/internal/logging"
	"github.com/flammafex/rendezvous/internal/migrate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rendezvousd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.LogEnv)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.PostgresDSN != "" {
		if err := migrate.Up(ctx, cfg.PostgresDSN); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	wire, err := facade.NewWire(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wiring instance: %w", err)
	}
	defer wire.Facade.Close()

	log.Info("starting",
		zap.String("instance", cfg.InstanceName),
		zap.String("listen_addr", cfg.ListenAddr),
	)

	peers, err := parsePeerSeeds(cfg.PeerSeeds)
	if err != nil {
		return fmt.Errorf("parsing peer seeds: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return wire.Federation.Run(gctx) })
	g.Go(func() error { return wire.Scheduler.Run(gctx) })

	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			if err := wire.Federation.ConnectPeer(gctx, peer); err != nil {
				log.Warn("connecting to peer", zap.String("peer", peer.ID.String()), zap.Error(err))
			}
			return nil
		})
	}

	<-gctx.Done()
	log.Info("shutting down")

	err = g.Wait()
	if err != nil && gctx.Err() != nil {
		// ctx cancellation unwound the group; that's a clean shutdown, not a failure.
		return nil
	}
	return err
}

// parsePeerSeeds turns "instance_id_hex@host:port" seeds into
// InstanceRecords ConnectPeer can dial.
func parsePeerSeeds(seeds []string) ([]types.InstanceRecord, error) {
	out := make([]types.InstanceRecord, 0, len(seeds))
	for _, seed := range seeds {
		idHex, endpoint, ok := strings.Cut(seed, "@")
		if !ok {
			return nil, fmt.Errorf("peer seed %q: expected instance_id_hex@host:port", seed)
		}
		raw, err := hex.DecodeString(idHex)
		if err != nil || len(raw) != 16 {
			return nil, fmt.Errorf("peer seed %q: invalid instance id", seed)
		}
		var id types.InstanceID
		copy(id[:], raw)
		out = append(out, types.InstanceRecord{ID: id, Endpoint: endpoint})
	}
	return out, nil
}
