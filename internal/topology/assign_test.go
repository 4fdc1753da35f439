package topology

import (
	"reflect"
	"testing"

	"github.com/nerrad567/nodex-core/internal/registry"
)

func TestAssignEdgesComputer(t *testing.T) {
	f := NewSeededForest()

	edges := AssignEdges(f, registry.DeviceTypeComputer)
	if !reflect.DeepEqual(edges, []string{registry.PermanentRootID}) {
		t.Errorf("computer edges %v, want [server-1]", edges)
	}
}

func TestAssignEdgesSensorFansOutToRoot(t *testing.T) {
	f := NewSeededForest()

	// The control unit carries no incoming edges yet, so it is the
	// least-loaded computer; a sensor links to it and fans out to the root.
	edges := AssignEdges(f, registry.DeviceTypeTemperature)
	want := []string{registry.PermanentControlID, registry.PermanentRootID}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("sensor edges %v, want %v", edges, want)
	}
}

func TestAssignEdgesNoFanOutWhenRootIsTarget(t *testing.T) {
	f := NewSeededForest()
	f.Remove(registry.PermanentControlID)

	// With the root as the only computer there is nothing to fan out to.
	edges := AssignEdges(f, registry.DeviceTypeCamera)
	if !reflect.DeepEqual(edges, []string{registry.PermanentRootID}) {
		t.Errorf("edges %v, want [server-1]", edges)
	}
}

func TestAssignEdgesPrefersLeastLoadedComputer(t *testing.T) {
	f := NewSeededForest()
	f.Add(&Node{
		ID:          "computer-1",
		Type:        registry.DeviceTypeComputer,
		Status:      registry.StatusOnline,
		Connections: []string{registry.PermanentRootID},
	})

	// Load the control unit with two devices; the fresh computer wins.
	for _, id := range []string{"sound-1", "sound-2"} {
		f.Add(&Node{
			ID:          id,
			Type:        registry.DeviceTypeSound,
			Status:      registry.StatusOnline,
			Connections: []string{registry.PermanentControlID, registry.PermanentRootID},
		})
	}

	edges := AssignEdges(f, registry.DeviceTypeSpeaker)
	want := []string{"computer-1", registry.PermanentRootID}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges %v, want %v", edges, want)
	}
}

func TestAssignEdgesTieBreaksByInsertionOrder(t *testing.T) {
	f := NewSeededForest()
	f.Remove(registry.PermanentControlID)
	f.Add(&Node{ID: "computer-a", Type: registry.DeviceTypeComputer, Status: registry.StatusOnline})
	f.Add(&Node{ID: "computer-b", Type: registry.DeviceTypeComputer, Status: registry.StatusOnline})

	// computer-a and computer-b are equally unloaded; insertion order
	// decides. (The root carries no incoming edges either but shares
	// first place with computer-a only if inserted earlier, which it is.)
	edges := AssignEdges(f, registry.DeviceTypeSound)
	if edges[0] != registry.PermanentRootID {
		t.Errorf("tie not broken by insertion order: %v", edges)
	}
}

func TestDependents(t *testing.T) {
	f := NewSeededForest()
	f.Add(&Node{
		ID:          "camera-1",
		Type:        registry.DeviceTypeCamera,
		Connections: []string{registry.PermanentControlID, registry.PermanentRootID},
	})

	deps := f.Dependents(registry.PermanentControlID)
	if !reflect.DeepEqual(deps, []string{"camera-1"}) {
		t.Errorf("control dependents %v, want [camera-1]", deps)
	}

	deps = f.Dependents(registry.PermanentRootID)
	want := []string{registry.PermanentControlID, "camera-1"}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("root dependents %v, want %v", deps, want)
	}
}
