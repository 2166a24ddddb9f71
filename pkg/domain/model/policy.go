package model

// Policy holds the per-workspace filtering switches of the normalizer.
type Policy struct {
	IgnoreFallbackOnGroupChannels bool
	ListenMentionsOnGroupChannels bool
}

// PolicySet resolves the policy of each workspace from a default and overrides.
type PolicySet struct {
	defaults  Policy
	overrides map[string]Policy
}

func NewPolicySet(defaults Policy, overrides map[string]Policy) *PolicySet {
	copied := make(map[string]Policy, len(overrides))
	for teamID, p := range overrides {
		copied[teamID] = p
	}
	return &PolicySet{defaults: defaults, overrides: copied}
}

// For returns the policy of teamID. A nil set yields the zero policy.
func (s *PolicySet) For(teamID string) Policy {
	if s == nil {
		return Policy{}
	}
	if p, ok := s.overrides[teamID]; ok {
		return p
	}
	return s.defaults
}

// Default returns the policy used for workspaces without an override.
func (s *PolicySet) Default() Policy {
	if s == nil {
		return Policy{}
	}
	return s.defaults
}

// Overrides returns the number of workspace specific policies.
func (s *PolicySet) Overrides() int {
	if s == nil {
		return 0
	}
	return len(s.overrides)
}
