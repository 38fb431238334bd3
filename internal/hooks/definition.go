package hooks

// Definition is one authored hook rule, in the shape hook templates use:
// a mapping from event name to objects with these fields.
type Definition struct {
	// Event is the map key the definition was registered under.
	Event string `json:"-" yaml:"-" toml:"-"`

	Name        string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Tool        string   `json:"tool,omitempty" yaml:"tool,omitempty" toml:"tool,omitempty"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	Field       string   `json:"field,omitempty" yaml:"field,omitempty" toml:"field,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty" toml:"threshold,omitempty"`
	Action      string   `json:"action" yaml:"action" toml:"action"`
	Message     string   `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
	RequirePlan bool     `json:"require_plan,omitempty" yaml:"require_plan,omitempty" toml:"require_plan,omitempty"`
}

// Float64 returns a pointer to v, for building definitions with a threshold.
func Float64(v float64) *float64 {
	return &v
}
