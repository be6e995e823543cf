package catalogue

// Catalogue owns one provider's static list of model profiles and exposes
// filtered candidates. Ownership is exclusive: the catalogue never mutates a
// profile once registered, and callers must treat GetAll's result as
// read-only.
type Catalogue struct {
	provider string
	models   []ModelProfile
}

// New builds a Catalogue for provider from a fixed list of profiles. Every
// profile must satisfy ModelProfile.Validate; New panics on an invalid seed
// list since that is a programming error, never a runtime condition.
func New(provider string, models []ModelProfile) *Catalogue {
	for _, m := range models {
		if err := m.Validate(); err != nil {
			panic(err)
		}
	}
	cp := make([]ModelProfile, len(models))
	copy(cp, models)
	return &Catalogue{provider: provider, models: cp}
}

// Provider returns the provider name this catalogue was built for.
func (c *Catalogue) Provider() string { return c.provider }

// GetAll returns every registered model profile for this provider, in
// declaration order. The returned slice is a copy; mutating it does not
// affect the catalogue.
func (c *Catalogue) GetAll() []ModelProfile {
	out := make([]ModelProfile, len(c.models))
	copy(out, c.models)
	return out
}

// GetCandidates returns every model that passes the shared filter: if
// sensitivity requires it, supportsSensitive must be true; contextWindow
// must be at least minContextWindow; and if maxCostPer1M is set,
// costPer1MInput must not exceed it. Order matches GetAll.
func (c *Catalogue) GetCandidates(sensitivity PrivacySensitivity, minContextWindow int, maxCostPer1M *float64) []ModelProfile {
	var out []ModelProfile
	for _, m := range c.models {
		if sensitivity.RequiresSensitiveSupport() && !m.SupportsSensitive {
			continue
		}
		if m.ContextWindow < minContextWindow {
			continue
		}
		if maxCostPer1M != nil && m.CostPer1MInput > *maxCostPer1M {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Find returns the profile with the given id, or false if none is
// registered under that id.
func (c *Catalogue) Find(id string) (ModelProfile, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelProfile{}, false
}
