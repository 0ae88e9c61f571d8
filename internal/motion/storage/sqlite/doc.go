// Package sqlite persists training runs and their rulesets in SQLite.
//
// All SQL for the motion packages lives here. The layer packages (l1-l6)
// never import this package; the CLI moves rulesets between the two.
package sqlite
