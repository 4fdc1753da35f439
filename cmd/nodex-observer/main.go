// NodeX Observer - Network Topology Client
//
// This is the main entry point for the NodeX observer. It subscribes to
// the NodeX Core broadcast channel, maintains a local network topology
// from the snapshot stream, and can cascade on/off switches across a
// node's dependent tree through the registration API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/nodex-core/internal/cascade"
	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
	"github.com/nerrad567/nodex-core/internal/infrastructure/logging"
	"github.com/nerrad567/nodex-core/internal/netclient"
	"github.com/nerrad567/nodex-core/internal/registry"
	"github.com/nerrad567/nodex-core/internal/topology"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown" //nolint:unused // Kept for build-time injection parity with nodexd
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// firstSnapshotTimeout bounds how long a one-shot toggle waits for the
// initial snapshot before giving up.
const firstSnapshotTimeout = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Without flags the observer runs until interrupted, applying every
// snapshot to its local topology. With -toggle it waits for the first
// snapshot, cascades the switch, reports the outcome, and exits.
func run(ctx context.Context) error {
	configPath := flag.String("config", getConfigPath(), "path to configuration file")
	toggleID := flag.String("toggle", "", "node ID to switch, cascading to its dependents (one-shot)")
	state := flag.String("state", "off", "target state for -toggle: on or off")
	flag.Parse()

	log := logging.Default()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("starting NodeX observer",
		"version", version,
		"server", cfg.Client.ServerURL,
	)

	var turnOn bool
	if *toggleID != "" {
		switch *state {
		case "on":
			turnOn = true
		case "off":
			turnOn = false
		default:
			return fmt.Errorf("invalid -state %q: must be on or off", *state)
		}
	}

	// Local topology, fed by the snapshot stream
	topo := topology.NewSynchronizer(cfg.Topology)
	topo.SetLogger(log)

	// Cascade engine over the local topology and the registration API
	regClient := netclient.NewRegistrationClient(cfg.Client)
	engine := cascade.NewEngine(topo, regClient)
	engine.SetLogger(log)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	firstSnapshot := make(chan struct{})
	var once sync.Once

	manager := netclient.NewManager(cfg.Client)
	manager.SetLogger(log)
	manager.OnMessage(func(msg *registry.SnapshotMessage) {
		topo.Apply(msg)
		once.Do(func() { close(firstSnapshot) })
		log.Debug("snapshot applied",
			"type", msg.Type,
			"devices", len(msg.Devices),
			"online", msg.NetworkStats.OnlineDevices,
		)
	})
	manager.OnStateChange(func(s netclient.State) {
		log.Info("connection state changed", "state", s.String())
	})
	manager.OnError(func(err error) {
		if errors.Is(err, netclient.ErrRetriesExhausted) {
			log.Error("reconnect attempts exhausted, shutting down", "error", err)
			cancel()
			return
		}
		log.Warn("channel error", "error", err)
	})

	manager.Start(runCtx)
	defer func() {
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing connection manager", "error", closeErr)
		}
	}()

	if *toggleID != "" {
		return runToggle(runCtx, engine, *toggleID, turnOn, firstSnapshot, log)
	}

	log.Info("observing broadcast channel, waiting for shutdown signal")
	<-runCtx.Done()
	log.Info("NodeX observer stopped")
	return nil
}

// runToggle waits for the topology to be populated by the first
// snapshot, then cascades the requested switch and reports the outcome.
func runToggle(ctx context.Context, engine *cascade.Engine, nodeID string, turnOn bool, firstSnapshot <-chan struct{}, log *logging.Logger) error {
	select {
	case <-firstSnapshot:
	case <-time.After(firstSnapshotTimeout):
		return fmt.Errorf("timed out waiting for first snapshot")
	case <-ctx.Done():
		return ctx.Err()
	}

	result, err := engine.Toggle(ctx, nodeID, turnOn)
	if err != nil {
		return fmt.Errorf("cascading switch for %s: %w", nodeID, err)
	}

	log.Info("cascade complete",
		"node_id", nodeID,
		"turn_on", turnOn,
		"applied", len(result.Applied),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	for id, stepErr := range result.Failed {
		log.Warn("cascade step failed", "node_id", id, "error", stepErr)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("cascade finished with %d failed steps", len(result.Failed))
	}
	return nil
}

// getConfigPath returns the default configuration file path.
// Uses NODEX_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NODEX_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
