package topology

import "github.com/nerrad567/nodex-core/internal/registry"

// AssignEdges computes the outgoing edges for a new node of the given
// type. It is pure: edges are decided once, at placement, from the
// forest as it stands.
//
// Policy:
//   - computer: links straight to the root.
//   - every other type: links to the least-loaded computer; when that
//     computer is not the root itself, a second edge fans out to the
//     root so the device stays reachable if its hub goes down.
//
// Least-loaded means fewest incoming edges; ties resolve to the earliest
// inserted computer, which keeps assignment deterministic.
func AssignEdges(f *Forest, deviceType registry.DeviceType) []string {
	if deviceType == registry.DeviceTypeComputer {
		return []string{registry.PermanentRootID}
	}

	target := leastLoadedComputer(f)
	if target == "" || target == registry.PermanentRootID {
		return []string{registry.PermanentRootID}
	}
	return []string{target, registry.PermanentRootID}
}

// leastLoadedComputer returns the computer with the fewest incoming
// edges, ties broken by insertion order. Empty string if the forest has
// no computers.
func leastLoadedComputer(f *Forest) string {
	best := ""
	bestLoad := -1
	for _, c := range f.Computers() {
		load := f.IncomingCount(c.ID)
		if best == "" || load < bestLoad {
			best = c.ID
			bestLoad = load
		}
	}
	return best
}
