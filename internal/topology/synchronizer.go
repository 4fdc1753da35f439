package topology

import (
	"math/rand"
	"sync"
	"time"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
	"github.com/nerrad567/nodex-core/internal/registry"
)

// New node quality scores are drawn from [minQuality, maxQuality].
const (
	minQuality = 60
	maxQuality = 99
)

// Logger defines the logging interface used by the Synchronizer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Synchronizer folds broadcast snapshots into the topology forest.
//
// Identity is sticky: a device the synchronizer has already seen keeps
// its position, edges, and quality forever; snapshots only refresh its
// status and reading. New devices are placed and wired exactly once.
// Applying the same snapshot twice is a no-op.
//
// All public methods are thread-safe.
type Synchronizer struct {
	cfg    config.TopologyConfig
	logger Logger

	mu     sync.Mutex
	forest *Forest
	rng    *rand.Rand
}

// NewSynchronizer creates a synchronizer over a freshly seeded forest.
func NewSynchronizer(cfg config.TopologyConfig) *Synchronizer {
	return &Synchronizer{
		cfg:    cfg,
		logger: noopLogger{},
		forest: NewSeededForest(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Layout, not crypto
	}
}

// SetLogger sets the logger for the synchronizer.
func (s *Synchronizer) SetLogger(logger Logger) {
	s.logger = logger
}

// Apply folds one snapshot into the forest.
//
// Known devices (the permanent seeds included) get their status and
// reading updated in place. Unknown devices become new nodes: a
// rejection-sampled position, a quality score, and edges assigned once
// by AssignEdges. Devices missing from the snapshot are kept unless
// evict_missing is set; the seeds are never evicted.
func (s *Synchronizer) Apply(msg *registry.SnapshotMessage) {
	if msg == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(msg.Devices))
	for i := range msg.Devices {
		d := &msg.Devices[i]
		seen[d.ID] = struct{}{}

		if n, ok := s.forest.Get(d.ID); ok {
			n.Status = d.Status
			n.Reading = d.Reading.DeepCopy()
			continue
		}

		s.addNodeLocked(d)
	}

	if s.cfg.EvictMissing {
		for _, id := range s.forest.IDs() {
			if _, ok := seen[id]; ok || registry.IsPermanent(id) {
				continue
			}
			s.forest.Remove(id)
			s.logger.Debug("node evicted", "node_id", id)
		}
	}
}

// addNodeLocked creates and wires a node for a newly seen device.
// Caller must hold s.mu.
func (s *Synchronizer) addNodeLocked(d *registry.Device) {
	x, y := PlaceNode(s.forest, s.cfg, s.rng)

	n := &Node{
		ID:          d.ID,
		Type:        d.Type,
		Name:        d.Name,
		Status:      d.Status,
		X:           x,
		Y:           y,
		Connections: AssignEdges(s.forest, d.Type),
		Quality:     minQuality + s.rng.Intn(maxQuality-minQuality+1),
		Reading:     d.Reading.DeepCopy(),
	}
	s.forest.Add(n)

	s.logger.Debug("node added",
		"node_id", n.ID,
		"type", n.Type,
		"connections", n.Connections,
	)
}

// Nodes returns deep copies of all nodes in insertion order.
func (s *Synchronizer) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Nodes()
}

// Node returns a copy of one node.
func (s *Synchronizer) Node(id string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.forest.Get(id)
	if !ok {
		return Node{}, false
	}
	return *n.DeepCopy(), true
}

// Dependents returns the IDs of nodes whose edges point at id.
func (s *Synchronizer) Dependents(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Dependents(id)
}

// SetStatus updates a node's status locally. The cascade engine calls
// this after the server confirms a toggle; the next snapshot would carry
// the same state anyway.
func (s *Synchronizer) SetStatus(id string, status registry.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.forest.Get(id); ok {
		n.Status = status
	}
}
