package registry

import "sync"

// Registry owns the mapping from instance identifier to the set of member
// session ids, plus the reverse index from session id to its current instance.
// All operations are synchronous, in-memory, and safe for concurrent use.
//
// A session is a member of at most one instance at any time. An instance
// exists only while it has at least one member; the last Leave or
// RemoveSession prunes the entry.
type Registry struct {
	mu      sync.Mutex
	members map[string]map[string]struct{} // instance -> session ids
	current map[string]string              // session id -> instance
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		members: make(map[string]map[string]struct{}),
		current: make(map[string]string),
	}
}

// Join adds sessionID to instance's member set. If the session is already a
// member of that instance this is a no-op. If it is a member of a different
// instance it is moved: the previous membership is removed under the same
// lock, so the single-membership invariant holds at every point.
func (r *Registry) Join(sessionID, instance string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joinLocked(sessionID, instance)
}

// Leave removes sessionID from instance's member set. Unknown instances and
// non-members are ignored. An emptied member set is pruned entirely.
func (r *Registry) Leave(sessionID, instance string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(sessionID, instance)
}

// Switch moves sessionID from whichever instance it currently occupies (if
// any) to newInstance, as one atomic transition. It returns the previous
// instance, or "" if the session was unaffiliated.
func (r *Registry) Switch(sessionID, newInstance string) (previous string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous = r.current[sessionID]
	r.joinLocked(sessionID, newInstance)
	return previous
}

// RemoveSession removes the session from whichever instance set it occupies,
// if any. Used on disconnect; idempotent.
func (r *Registry) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instance, ok := r.current[sessionID]; ok {
		r.leaveLocked(sessionID, instance)
	}
}

// MembersOf returns a snapshot of instance's current member ids. The returned
// slice is a copy and may be iterated without holding any registry lock.
// Unknown instances yield an empty slice, never an error.
func (r *Registry) MembersOf(instance string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.members[instance]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// InstanceOf returns the instance the session currently belongs to, and
// whether it belongs to one at all.
func (r *Registry) InstanceOf(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	instance, ok := r.current[sessionID]
	return instance, ok
}

// Instances returns the number of instances that currently have members.
func (r *Registry) Instances() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// --- internal ---------------------------------------------------------------

func (r *Registry) joinLocked(sessionID, instance string) {
	if prev, ok := r.current[sessionID]; ok {
		if prev == instance {
			return
		}
		r.leaveLocked(sessionID, prev)
	}
	set := r.members[instance]
	if set == nil {
		set = make(map[string]struct{})
		r.members[instance] = set
	}
	set[sessionID] = struct{}{}
	r.current[sessionID] = instance
}

func (r *Registry) leaveLocked(sessionID, instance string) {
	set := r.members[instance]
	if set == nil {
		return
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.members, instance)
	}
	if r.current[sessionID] == instance {
		delete(r.current, sessionID)
	}
}
