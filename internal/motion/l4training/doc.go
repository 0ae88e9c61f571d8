// Package l4training owns Layer 4 (Training) of the motion-vector data model.
//
// Responsibilities: learning per-cell direction rules from frames aligned
// with a reference action timeline, locating the timeline's extrema, and
// keeping a down-sampled copy of the frames for visualisation.
// Key types: Trainer, Options, Result.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
// No SQL/database code is allowed in this package.
package l4training
