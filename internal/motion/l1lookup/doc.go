// Package l1lookup owns Layer 1 (Lookup) of the motion-vector data model.
//
// Responsibilities: the process-wide directional projection table that
// scores a motion vector against each of the twelve base directions.
// Key types: Table.
//
// Dependency rule: L1 depends on nothing else in internal/motion.
package l1lookup
