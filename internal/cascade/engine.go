package cascade

import (
	"context"
	"errors"

	"github.com/nerrad567/nodex-core/internal/registry"
)

// Registrar performs the per-device lifecycle calls a cascade step
// needs. *netclient.RegistrationClient satisfies it.
type Registrar interface {
	Unregister(ctx context.Context, deviceID string) (registry.NetworkStats, error)
	Reactivate(ctx context.Context, deviceID string) (registry.NetworkStats, error)
}

// Logger is the minimal logging interface the engine needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Result reports what a cascade actually did. Skipped lists nodes left
// untouched because a step upstream of them failed; Failed maps node
// IDs to the error their own step returned.
type Result struct {
	Applied []string
	Skipped []string
	Failed  map[string]error
}

// Engine plans and applies cascading on/off switches across the
// dependent tree of a node.
type Engine struct {
	topo      Topology
	registrar Registrar
	logger    Logger
}

// NewEngine creates a cascade engine over the given topology view and
// registrar.
func NewEngine(topo Topology, registrar Registrar) *Engine {
	return &Engine{
		topo:      topo,
		registrar: registrar,
		logger:    noopLogger{},
	}
}

// SetLogger attaches a logger. Call before Toggle.
func (e *Engine) SetLogger(l Logger) {
	if l != nil {
		e.logger = l
	}
}

// Toggle switches nodeID and its dependent tree on or off, plan first,
// apply second.
//
// The plan is applied root-first. Each step issues the matching
// lifecycle call through the registrar and, on success, updates the
// local topology. A failed step poisons its own branch: descendants of
// the failure are skipped, siblings carry on.
//
// Switching a permanent seed off is a no-op. A node already at the
// target status yields an empty result.
func (e *Engine) Toggle(ctx context.Context, nodeID string, turnOn bool) (*Result, error) {
	target := registry.StatusOffline
	if turnOn {
		target = registry.StatusOnline
	}

	plan, err := BuildPlan(e.topo, nodeID, target)
	if errors.Is(err, ErrPermanentDevice) {
		e.logger.Info("cascade ignored for permanent device", "node_id", nodeID)
		return &Result{Failed: map[string]error{}}, nil
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("applying cascade",
		"node_id", nodeID,
		"target", string(target),
		"steps", len(plan.Steps))

	return e.apply(ctx, plan), nil
}

func (e *Engine) apply(ctx context.Context, plan *Plan) *Result {
	result := &Result{Failed: map[string]error{}}
	poisoned := make(map[string]bool)

	for _, step := range plan.Steps {
		if step.Trigger != "" && poisoned[step.Trigger] {
			poisoned[step.NodeID] = true
			result.Skipped = append(result.Skipped, step.NodeID)
			continue
		}

		var err error
		if plan.Target == registry.StatusOnline {
			_, err = e.registrar.Reactivate(ctx, step.NodeID)
		} else {
			_, err = e.registrar.Unregister(ctx, step.NodeID)
		}
		if err != nil {
			poisoned[step.NodeID] = true
			result.Failed[step.NodeID] = err
			e.logger.Warn("cascade step failed",
				"node_id", step.NodeID,
				"trigger", step.Trigger,
				"error", err)
			continue
		}

		e.topo.SetStatus(step.NodeID, plan.Target)
		result.Applied = append(result.Applied, step.NodeID)
	}

	return result
}
