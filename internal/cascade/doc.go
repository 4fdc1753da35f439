// Package cascade switches a node and its dependent tree on or off as
// one operation.
//
// A toggle is planned before it is applied. BuildPlan walks the
// dependent tree breadth-first and collects every node not yet at the
// target status; the engine then replays the plan root-first, issuing
// one lifecycle call per node and mirroring each success into the local
// topology. Failures stay branch-local: the subtree under a failed step
// is skipped while sibling branches proceed.
package cascade
