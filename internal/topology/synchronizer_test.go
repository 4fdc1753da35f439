package topology

import (
	"reflect"
	"testing"
	"time"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
	"github.com/nerrad567/nodex-core/internal/registry"
)

func testTopologyConfig() config.TopologyConfig {
	return config.TopologyConfig{
		MinSeparation:        120,
		MaxPlacementAttempts: 100,
		Canvas: config.CanvasConfig{
			MinX: 100,
			MaxX: 900,
			MinY: 100,
			MaxY: 600,
		},
	}
}

func snapshotWith(devices ...registry.Device) *registry.SnapshotMessage {
	seeds := []registry.Device{
		{ID: registry.PermanentRootID, Type: registry.DeviceTypeComputer, Status: registry.StatusOnline},
		{ID: registry.PermanentControlID, Type: registry.DeviceTypeComputer, Status: registry.StatusOnline},
	}
	return &registry.SnapshotMessage{
		Type:      registry.SnapshotUpdate,
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Devices:   append(seeds, devices...),
	}
}

func TestSeededForestLayout(t *testing.T) {
	f := NewSeededForest()

	root, ok := f.Get(registry.PermanentRootID)
	if !ok {
		t.Fatal("seeded forest missing root")
	}
	if root.X != 500 || root.Y != 250 {
		t.Errorf("root at (%v,%v), want (500,250)", root.X, root.Y)
	}
	if root.Quality != seedQuality {
		t.Errorf("root quality %d, want %d", root.Quality, seedQuality)
	}
	if len(root.Connections) != 0 {
		t.Errorf("root has outgoing edges: %v", root.Connections)
	}

	control, ok := f.Get(registry.PermanentControlID)
	if !ok {
		t.Fatal("seeded forest missing control unit")
	}
	if control.X != 300 || control.Y != 250 {
		t.Errorf("control at (%v,%v), want (300,250)", control.X, control.Y)
	}
	if len(control.Connections) != 1 || control.Connections[0] != registry.PermanentRootID {
		t.Errorf("control connections %v, want [server-1]", control.Connections)
	}
}

func TestApplyCreatesNodesWithinCanvas(t *testing.T) {
	s := NewSynchronizer(testTopologyConfig())

	s.Apply(snapshotWith(
		registry.Device{ID: "temperature-1", Type: registry.DeviceTypeTemperature, Status: registry.StatusOnline},
		registry.Device{ID: "camera-1", Type: registry.DeviceTypeCamera, Status: registry.StatusOnline},
	))

	nodes := s.Nodes()
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(nodes))
	}

	for _, n := range nodes[2:] {
		if n.X < 100 || n.X >= 900 || n.Y < 100 || n.Y >= 600 {
			t.Errorf("node %s placed off-canvas at (%v,%v)", n.ID, n.X, n.Y)
		}
		if n.Quality < minQuality || n.Quality > maxQuality {
			t.Errorf("node %s quality %d outside [%d,%d]", n.ID, n.Quality, minQuality, maxQuality)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	s := NewSynchronizer(testTopologyConfig())
	snap := snapshotWith(
		registry.Device{ID: "sound-1", Type: registry.DeviceTypeSound, Status: registry.StatusOnline},
		registry.Device{ID: "speaker-1", Type: registry.DeviceTypeSpeaker, Status: registry.StatusOnline},
	)

	s.Apply(snap)
	first := s.Nodes()
	s.Apply(snap)
	second := s.Nodes()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("node set changed under identical snapshot:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestApplyUpdatesExistingNodesInPlaceOnly(t *testing.T) {
	s := NewSynchronizer(testTopologyConfig())

	s.Apply(snapshotWith(
		registry.Device{ID: "camera-1", Type: registry.DeviceTypeCamera, Status: registry.StatusOnline},
	))
	before, ok := s.Node("camera-1")
	if !ok {
		t.Fatal("camera-1 not created")
	}

	motion := true
	s.Apply(snapshotWith(
		registry.Device{
			ID:      "camera-1",
			Type:    registry.DeviceTypeCamera,
			Status:  registry.StatusOffline,
			Reading: registry.Reading{Movimiento: &motion, Timestamp: time.Now()},
		},
	))

	after, _ := s.Node("camera-1")
	if after.X != before.X || after.Y != before.Y {
		t.Errorf("position moved: (%v,%v) -> (%v,%v)", before.X, before.Y, after.X, after.Y)
	}
	if after.Quality != before.Quality {
		t.Errorf("quality changed: %d -> %d", before.Quality, after.Quality)
	}
	if !reflect.DeepEqual(after.Connections, before.Connections) {
		t.Errorf("edges changed: %v -> %v", before.Connections, after.Connections)
	}
	if after.Status != registry.StatusOffline {
		t.Errorf("status not updated: %s", after.Status)
	}
	if after.Reading.Movimiento == nil || !*after.Reading.Movimiento {
		t.Error("reading not updated")
	}
}

func TestApplyRetainsMissingDevicesByDefault(t *testing.T) {
	s := NewSynchronizer(testTopologyConfig())

	s.Apply(snapshotWith(
		registry.Device{ID: "sound-1", Type: registry.DeviceTypeSound, Status: registry.StatusOnline},
	))
	s.Apply(snapshotWith()) // sound-1 gone from the snapshot

	if _, ok := s.Node("sound-1"); !ok {
		t.Error("missing device evicted without evict_missing")
	}
}

func TestApplyEvictMissing(t *testing.T) {
	cfg := testTopologyConfig()
	cfg.EvictMissing = true
	s := NewSynchronizer(cfg)

	s.Apply(snapshotWith(
		registry.Device{ID: "sound-1", Type: registry.DeviceTypeSound, Status: registry.StatusOnline},
	))
	s.Apply(&registry.SnapshotMessage{
		Type:      registry.SnapshotUpdate,
		Timestamp: time.Now(),
		// Even an empty snapshot must not evict the seeds.
		Devices: nil,
	})

	if _, ok := s.Node("sound-1"); ok {
		t.Error("missing device survived with evict_missing set")
	}
	if _, ok := s.Node(registry.PermanentRootID); !ok {
		t.Error("root seed evicted")
	}
	if _, ok := s.Node(registry.PermanentControlID); !ok {
		t.Error("control seed evicted")
	}
}

func TestSetStatus(t *testing.T) {
	s := NewSynchronizer(testTopologyConfig())

	s.SetStatus(registry.PermanentControlID, registry.StatusOffline)
	n, _ := s.Node(registry.PermanentControlID)
	if n.Status != registry.StatusOffline {
		t.Errorf("status = %s, want offline", n.Status)
	}
}
