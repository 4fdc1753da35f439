package topology

import "github.com/nerrad567/nodex-core/internal/registry"

// Seed node positions and quality. The root and the control unit sit at
// fixed canvas positions so the layout is stable across restarts.
const (
	rootX    = 500
	rootY    = 250
	controlX = 300
	controlY = 250

	seedQuality = 100
)

// Forest is an insertion-ordered node set whose edges form a forest
// rooted at server-1.
//
// Forest is not safe for concurrent use; the Synchronizer serialises
// access to it.
type Forest struct {
	nodes map[string]*Node
	order []string
}

// NewSeededForest creates a forest holding the two permanent nodes:
// the root at (500,250) and the control unit at (300,250), linked to
// the root.
func NewSeededForest() *Forest {
	f := &Forest{
		nodes: make(map[string]*Node),
	}

	f.Add(&Node{
		ID:      registry.PermanentRootID,
		Type:    registry.DeviceTypeComputer,
		Name:    "Servidor NodeX",
		Status:  registry.StatusOnline,
		X:       rootX,
		Y:       rootY,
		Quality: seedQuality,
	})
	f.Add(&Node{
		ID:          registry.PermanentControlID,
		Type:        registry.DeviceTypeComputer,
		Name:        "PC Control",
		Status:      registry.StatusOnline,
		X:           controlX,
		Y:           controlY,
		Connections: []string{registry.PermanentRootID},
		Quality:     seedQuality,
	})

	return f
}

// Add inserts a node, appending it to the insertion order.
// Adding an existing ID replaces the node without moving it.
func (f *Forest) Add(n *Node) {
	if _, exists := f.nodes[n.ID]; !exists {
		f.order = append(f.order, n.ID)
	}
	f.nodes[n.ID] = n
}

// Get returns the live node for an ID.
func (f *Forest) Get(id string) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// Remove deletes a node from the forest.
func (f *Forest) Remove(id string) {
	if _, ok := f.nodes[id]; !ok {
		return
	}
	delete(f.nodes, id)
	for i, v := range f.order {
		if v == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of nodes.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// IDs returns the node IDs in insertion order.
func (f *Forest) IDs() []string {
	ids := make([]string, len(f.order))
	copy(ids, f.order)
	return ids
}

// Nodes returns deep copies of all nodes in insertion order.
func (f *Forest) Nodes() []Node {
	nodes := make([]Node, 0, len(f.order))
	for _, id := range f.order {
		nodes = append(nodes, *f.nodes[id].DeepCopy())
	}
	return nodes
}

// IncomingCount returns the number of nodes whose edges point at id.
// For a computer this is its device load.
func (f *Forest) IncomingCount(id string) int {
	count := 0
	for _, n := range f.nodes {
		for _, target := range n.Connections {
			if target == id {
				count++
			}
		}
	}
	return count
}

// Dependents returns, in insertion order, the IDs of nodes whose edges
// point at id. These are the nodes that rely on id being up.
func (f *Forest) Dependents(id string) []string {
	var deps []string
	for _, nodeID := range f.order {
		for _, target := range f.nodes[nodeID].Connections {
			if target == id {
				deps = append(deps, nodeID)
				break
			}
		}
	}
	return deps
}

// Computers returns the live computer nodes in insertion order.
func (f *Forest) Computers() []*Node {
	var computers []*Node
	for _, id := range f.order {
		if n := f.nodes[id]; n.Type == registry.DeviceTypeComputer {
			computers = append(computers, n)
		}
	}
	return computers
}
