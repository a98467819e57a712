package engine

// conditionalEdge is a predicate-guarded edge awaiting resolution.
// Conditional edges accumulate in the builder and are grouped by source
// at compile time; declaration order is preserved because it fixes the
// deterministic ordering of fan-out branches.
type conditionalEdge struct {
	from string
	to   string
	when Predicate
}

// BranchRouter is the compiled routing function for one source node.
// It evaluates every sibling edge's predicate against the current state
// snapshot, in declaration order, and returns all matched targets.
type BranchRouter struct {
	source string
	edges  []conditionalEdge
}

// Route returns the targets whose predicates hold for state, in edge
// declaration order. Zero targets means the branch halts; one continues
// serially; more than one fans out into parallel branches.
func (r *BranchRouter) Route(state State) []string {
	var targets []string
	for _, e := range r.edges {
		if e.when(state) {
			targets = append(targets, e.to)
		}
	}
	return targets
}

// Targets returns the distinct target ids this router can reach, in
// declaration order. Used for introspection and visualization only.
func (r *BranchRouter) Targets() []string {
	seen := make(map[string]bool, len(r.edges))
	targets := make([]string, 0, len(r.edges))
	for _, e := range r.edges {
		if !seen[e.to] {
			seen[e.to] = true
			targets = append(targets, e.to)
		}
	}
	return targets
}

// resolveConditionalEdges groups pending conditional edges by source
// node and builds one BranchRouter per group. Relative declaration
// order within a group is preserved.
func resolveConditionalEdges(edges []conditionalEdge) map[string]*BranchRouter {
	routers := make(map[string]*BranchRouter)
	for _, e := range edges {
		r, ok := routers[e.from]
		if !ok {
			r = &BranchRouter{source: e.from}
			routers[e.from] = r
		}
		r.edges = append(r.edges, e)
	}
	return routers
}
