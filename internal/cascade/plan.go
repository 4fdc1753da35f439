package cascade

import (
	"fmt"

	"github.com/nerrad567/nodex-core/internal/registry"
	"github.com/nerrad567/nodex-core/internal/topology"
)

// Topology is the view of the network graph the engine plans over.
// *topology.Synchronizer satisfies it.
type Topology interface {
	Node(id string) (topology.Node, bool)
	Dependents(id string) []string
	SetStatus(id string, status registry.Status)
}

// Step is one node change in a cascade plan. Trigger is the node whose
// change cascaded here; it is empty for the toggled node itself.
type Step struct {
	NodeID  string
	Trigger string
}

// Plan is an ordered list of node changes, root-first: a step's trigger
// always precedes it.
type Plan struct {
	Target registry.Status
	Steps  []Step
}

// BuildPlan walks the dependent tree of rootID breadth-first and
// collects every node that needs to change to reach the target status.
//
// The walk runs over a snapshot of the edge set and carries a visited
// set, so it terminates even if the edges were somehow cyclic. Nodes
// already at the target status are skipped and not traversed through:
// their subtree was handled when they changed.
//
// A rootID already at the target yields an empty plan. Switching a
// permanent seed off returns ErrPermanentDevice.
func BuildPlan(topo Topology, rootID string, target registry.Status) (*Plan, error) {
	start, ok := topo.Node(rootID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, rootID)
	}
	if target == registry.StatusOffline && registry.IsPermanent(rootID) {
		return nil, fmt.Errorf("%w: %s", ErrPermanentDevice, rootID)
	}

	plan := &Plan{Target: target}
	if start.Status == target {
		return plan, nil
	}

	plan.Steps = append(plan.Steps, Step{NodeID: rootID})
	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range topo.Dependents(current) {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}

			n, ok := topo.Node(dep)
			if !ok {
				continue
			}
			if n.Status == target {
				continue
			}
			if target == registry.StatusOffline && registry.IsPermanent(dep) {
				continue
			}

			plan.Steps = append(plan.Steps, Step{NodeID: dep, Trigger: current})
			queue = append(queue, dep)
		}
	}

	return plan, nil
}
