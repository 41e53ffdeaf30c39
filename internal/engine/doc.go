// Package engine orchestrates form state: it owns value updates, runs
// validation and dependency recomputation transactionally, dispatches
// declared actions, and publishes each result as a new immutable
// snapshot.
//
// One Engine exists per loaded configuration. All mutations go through
// a single serialized transaction path; any number of readers can pull
// the current snapshot from the state store without blocking. Each
// transaction is bounded to the dependency closure of one changed
// element, runs to completion before the next is applied, and becomes
// visible atomically when its snapshot is published.
package engine
