// Package l6smoothing owns Layer 6 (Smoothing) of the motion-vector data model.
//
// Responsibilities: grouping an action timeline into monotone nodes,
// rescaling stroke distances, and a bounded local search that moves node
// positions towards their target distances.
// Key types: Optimizer, Node.
//
// Dependency rule: L6 may depend on L1-L5.
// No SQL/database code is allowed in this package.
package l6smoothing
