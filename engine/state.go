package engine

// State is the schema-typed field map shared by all nodes in one
// execution. Handlers receive the full current state and return a
// partial state: the subset of fields they want to overwrite.
type State map[string]any

// Clone returns a shallow copy of the state. Branches executing in the
// same superstep each receive their own clone so they cannot observe
// one another's updates.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns a new state with update applied by field-level
// replacement: a returned field wholly replaces the prior value, with
// no deep merge of nested structures. Neither input is mutated.
func (s State) Merge(update State) State {
	out := s.Clone()
	for k, v := range update {
		out[k] = v
	}
	return out
}

// Get returns the value for key and whether it is present.
func (s State) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// GetString returns the string value for key, or "" when absent or not
// a string.
func (s State) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// GetBool returns the bool value for key, or false when absent or not a
// bool.
func (s State) GetBool(key string) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return false
}
