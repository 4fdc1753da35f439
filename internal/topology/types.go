package topology

import "github.com/nerrad567/nodex-core/internal/registry"

// Node is the observer-side projection of a device onto the canvas.
//
// Connections is the list of outgoing edge targets: the IDs this node
// links up to (its hub, and the root when fanned out). The edge set over
// all nodes forms a forest rooted at server-1.
type Node struct {
	ID          string              `json:"id"`
	Type        registry.DeviceType `json:"type"`
	Name        string              `json:"name,omitempty"`
	Status      registry.Status     `json:"status"`
	X           float64             `json:"x"`
	Y           float64             `json:"y"`
	Connections []string            `json:"connections"`
	Quality     int                 `json:"quality"`
	Reading     registry.Reading    `json:"data"`
}

// DeepCopy creates an independent copy of the Node.
func (n *Node) DeepCopy() *Node {
	if n == nil {
		return nil
	}
	cpy := *n
	cpy.Reading = n.Reading.DeepCopy()
	if n.Connections != nil {
		cpy.Connections = make([]string, len(n.Connections))
		copy(cpy.Connections, n.Connections)
	}
	return &cpy
}
