// Package l3rules owns Layer 3 (Rules) of the motion-vector data model.
//
// Responsibilities: per-cell direction rules, immutable rulesets, spatial
// masking, activity/quality filtering, frame scoring, and ruleset blob
// serialisation for persistence.
// Key types: Rule, RuleSet, FrameScore.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
// No SQL/database code is allowed in this package.
package l3rules
