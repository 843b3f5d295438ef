// Package registry tracks which live connections belong to which instance.
//
// An instance is an opaque, client-supplied token that partitions connections
// into non-overlapping groups for event routing. There is no registration
// step: an instance exists while at least one session is a member and its
// entry is pruned when the last member leaves, so memory is bounded by live
// tenants only.
//
// The Registry maintains two views that are always mutated together under one
// lock: the instance -> member-set map and the session -> instance reverse
// index. Switch performs the remove-then-add pair of a membership move as a
// single critical section, so no caller ever observes a session in zero or
// two instances mid-switch.
package registry
