package cascade

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/nodex-core/internal/registry"
	"github.com/nerrad567/nodex-core/internal/topology"
)

// fakeTopology is an in-memory Topology with hand-wired edges.
type fakeTopology struct {
	nodes map[string]*topology.Node
	edges map[string][]string
}

func newFakeTopology() *fakeTopology {
	return &fakeTopology{
		nodes: make(map[string]*topology.Node),
		edges: make(map[string][]string),
	}
}

func (f *fakeTopology) add(id string, status registry.Status, dependents ...string) {
	f.nodes[id] = &topology.Node{ID: id, Status: status}
	f.edges[id] = dependents
}

func (f *fakeTopology) Node(id string) (topology.Node, bool) {
	n, ok := f.nodes[id]
	if !ok {
		return topology.Node{}, false
	}
	return *n, true
}

func (f *fakeTopology) Dependents(id string) []string {
	return f.edges[id]
}

func (f *fakeTopology) SetStatus(id string, status registry.Status) {
	if n, ok := f.nodes[id]; ok {
		n.Status = status
	}
}

// fakeRegistrar records lifecycle calls and fails for chosen IDs.
type fakeRegistrar struct {
	unregistered []string
	reactivated  []string
	failFor      map[string]error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{failFor: make(map[string]error)}
}

func (f *fakeRegistrar) Unregister(_ context.Context, id string) (registry.NetworkStats, error) {
	if err := f.failFor[id]; err != nil {
		return registry.NetworkStats{}, err
	}
	f.unregistered = append(f.unregistered, id)
	return registry.NetworkStats{}, nil
}

func (f *fakeRegistrar) Reactivate(_ context.Context, id string) (registry.NetworkStats, error) {
	if err := f.failFor[id]; err != nil {
		return registry.NetworkStats{}, err
	}
	f.reactivated = append(f.reactivated, id)
	return registry.NetworkStats{}, nil
}

func TestBuildPlanOrdersRootFirst(t *testing.T) {
	topo := newFakeTopology()
	topo.add("hub", registry.StatusOnline, "child-a", "child-b")
	topo.add("child-a", registry.StatusOnline, "grandchild")
	topo.add("child-b", registry.StatusOnline)
	topo.add("grandchild", registry.StatusOnline)

	plan, err := BuildPlan(topo, "hub", registry.StatusOffline)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	var order []string
	for _, step := range plan.Steps {
		order = append(order, step.NodeID)
	}
	want := []string{"hub", "child-a", "child-b", "grandchild"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("plan order %v, want %v", order, want)
	}

	// Every step's trigger precedes it.
	seen := map[string]bool{}
	for _, step := range plan.Steps {
		if step.Trigger != "" && !seen[step.Trigger] {
			t.Errorf("step %s ordered before its trigger %s", step.NodeID, step.Trigger)
		}
		seen[step.NodeID] = true
	}
}

func TestBuildPlanSkipsSubtreesAlreadyAtTarget(t *testing.T) {
	topo := newFakeTopology()
	topo.add("hub", registry.StatusOnline, "child-a", "child-b")
	topo.add("child-a", registry.StatusOffline, "grandchild") // already off
	topo.add("child-b", registry.StatusOnline)
	topo.add("grandchild", registry.StatusOnline)

	plan, err := BuildPlan(topo, "hub", registry.StatusOffline)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	for _, step := range plan.Steps {
		if step.NodeID == "child-a" {
			t.Error("node already at target included in plan")
		}
		if step.NodeID == "grandchild" {
			t.Error("traversed through a node already at target")
		}
	}
}

func TestBuildPlanTerminatesOnCyclicEdges(t *testing.T) {
	topo := newFakeTopology()
	topo.add("a", registry.StatusOnline, "b")
	topo.add("b", registry.StatusOnline, "a")

	plan, err := BuildPlan(topo, "a", registry.StatusOffline)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Errorf("expected 2 steps for a two-node cycle, got %d", len(plan.Steps))
	}
}

func TestBuildPlanUnknownNode(t *testing.T) {
	_, err := BuildPlan(newFakeTopology(), "ghost", registry.StatusOffline)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestToggleOffCascades(t *testing.T) {
	topo := newFakeTopology()
	topo.add("hub", registry.StatusOnline, "sensor-1", "sensor-2")
	topo.add("sensor-1", registry.StatusOnline)
	topo.add("sensor-2", registry.StatusOnline)
	reg := newFakeRegistrar()

	result, err := NewEngine(topo, reg).Toggle(context.Background(), "hub", false)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	want := []string{"hub", "sensor-1", "sensor-2"}
	if !reflect.DeepEqual(result.Applied, want) {
		t.Errorf("applied %v, want %v", result.Applied, want)
	}
	if !reflect.DeepEqual(reg.unregistered, want) {
		t.Errorf("unregistered %v, want %v", reg.unregistered, want)
	}
	for _, id := range want {
		if n, _ := topo.Node(id); n.Status != registry.StatusOffline {
			t.Errorf("node %s still %s locally", id, n.Status)
		}
	}
}

func TestToggleOnUsesReactivate(t *testing.T) {
	topo := newFakeTopology()
	topo.add("hub", registry.StatusOffline, "sensor-1")
	topo.add("sensor-1", registry.StatusOffline)
	reg := newFakeRegistrar()

	result, err := NewEngine(topo, reg).Toggle(context.Background(), "hub", true)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	want := []string{"hub", "sensor-1"}
	if !reflect.DeepEqual(result.Applied, want) {
		t.Errorf("applied %v, want %v", result.Applied, want)
	}
	if !reflect.DeepEqual(reg.reactivated, want) {
		t.Errorf("reactivated %v, want %v", reg.reactivated, want)
	}
	if len(reg.unregistered) != 0 {
		t.Errorf("unexpected unregister calls: %v", reg.unregistered)
	}
}

func TestToggleFailureStaysBranchLocal(t *testing.T) {
	topo := newFakeTopology()
	topo.add("hub", registry.StatusOnline, "branch-a", "branch-b")
	topo.add("branch-a", registry.StatusOnline, "leaf-a")
	topo.add("branch-b", registry.StatusOnline, "leaf-b")
	topo.add("leaf-a", registry.StatusOnline)
	topo.add("leaf-b", registry.StatusOnline)

	reg := newFakeRegistrar()
	stepErr := errors.New("boom")
	reg.failFor["branch-a"] = stepErr

	result, err := NewEngine(topo, reg).Toggle(context.Background(), "hub", false)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	wantApplied := []string{"hub", "branch-b", "leaf-b"}
	if !reflect.DeepEqual(result.Applied, wantApplied) {
		t.Errorf("applied %v, want %v", result.Applied, wantApplied)
	}
	if !reflect.DeepEqual(result.Skipped, []string{"leaf-a"}) {
		t.Errorf("skipped %v, want [leaf-a]", result.Skipped)
	}
	if !errors.Is(result.Failed["branch-a"], stepErr) {
		t.Errorf("failed map %v, want branch-a -> boom", result.Failed)
	}

	// The failed branch keeps its local status; the rest changed.
	if n, _ := topo.Node("branch-a"); n.Status != registry.StatusOnline {
		t.Error("failed node status changed locally")
	}
	if n, _ := topo.Node("leaf-a"); n.Status != registry.StatusOnline {
		t.Error("skipped node status changed locally")
	}
	if n, _ := topo.Node("leaf-b"); n.Status != registry.StatusOffline {
		t.Error("sibling branch not applied")
	}
}

func TestToggleNoopWhenAlreadyAtTarget(t *testing.T) {
	topo := newFakeTopology()
	topo.add("sensor-1", registry.StatusOnline)
	reg := newFakeRegistrar()

	result, err := NewEngine(topo, reg).Toggle(context.Background(), "sensor-1", true)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if len(result.Applied)+len(result.Skipped)+len(result.Failed) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if len(reg.reactivated) != 0 {
		t.Errorf("unexpected registrar calls: %v", reg.reactivated)
	}
}

func TestToggleOffPermanentIsNoop(t *testing.T) {
	topo := newFakeTopology()
	topo.add(registry.PermanentRootID, registry.StatusOnline, "sensor-1")
	topo.add("sensor-1", registry.StatusOnline)
	reg := newFakeRegistrar()

	result, err := NewEngine(topo, reg).Toggle(context.Background(), registry.PermanentRootID, false)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if len(result.Applied) != 0 {
		t.Errorf("permanent device cascade applied steps: %v", result.Applied)
	}
	if len(reg.unregistered) != 0 {
		t.Errorf("unexpected unregister calls: %v", reg.unregistered)
	}
}

func TestToggleUnknownNode(t *testing.T) {
	_, err := NewEngine(newFakeTopology(), newFakeRegistrar()).Toggle(context.Background(), "ghost", false)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestBuildPlanSkipsPermanentDependentsOnSwitchOff(t *testing.T) {
	topo := newFakeTopology()
	topo.add("computer-1", registry.StatusOnline, registry.PermanentControlID, "sensor-1")
	topo.add(registry.PermanentControlID, registry.StatusOnline)
	topo.add("sensor-1", registry.StatusOnline)

	plan, err := BuildPlan(topo, "computer-1", registry.StatusOffline)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	for _, step := range plan.Steps {
		if step.NodeID == registry.PermanentControlID {
			t.Error("permanent device included in switch-off plan")
		}
	}
}
