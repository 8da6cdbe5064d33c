// Package saga orchestrates multi-step workflows with compensation.
//
// An Orchestrator runs an ordered list of steps against a shared Context.
// When a step fails, the steps completed so far are compensated in reverse
// order and the run ends in a terminal failure state. Every state
// transition is persisted to a Store as an audit trail.
package saga
