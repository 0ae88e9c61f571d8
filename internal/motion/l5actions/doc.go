// Package l5actions owns Layer 5 (Actions) of the motion-vector data model.
//
// Responsibilities: turning scored frames into up/down runs, snapping run
// transitions onto the specialised peaks/valleys rulesets, computing stroke
// intensity, and normalising peak positions onto the 0-100 scale.
// Key types: Action, ActionPoint, Synthesizer.
//
// Dependency rule: L5 may depend on L1-L4, but never on L6.
// No SQL/database code is allowed in this package.
package l5actions
