package core

// Config holds the UI and runtime settings.
type Config struct {
	IsSideNavFolded bool           `json:"isSideNavFolded" yaml:"isSideNavFolded"`
	Zoom            float64        `json:"zoom" yaml:"zoom"`
	ListWidth       int            `json:"listWidth" yaml:"listWidth"`
	Extra           map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// DefaultConfig returns the settings used when nothing has been saved yet.
func DefaultConfig() Config {
	return Config{
		IsSideNavFolded: false,
		Zoom:            1,
		ListWidth:       250,
	}
}

// ConfigPatch is a partial Config. Nil fields are left untouched by a merge;
// Extra entries are merged key by key.
type ConfigPatch struct {
	IsSideNavFolded *bool          `json:"isSideNavFolded,omitempty" yaml:"isSideNavFolded,omitempty"`
	Zoom            *float64       `json:"zoom,omitempty" yaml:"zoom,omitempty"`
	ListWidth       *int           `json:"listWidth,omitempty" yaml:"listWidth,omitempty"`
	Extra           map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Merge returns a new Config with p applied over c. It is a shallow merge:
// values stored in Extra are shared, the Extra map itself is fresh when p
// carries entries.
func (c Config) Merge(p ConfigPatch) Config {
	out := c
	if p.IsSideNavFolded != nil {
		out.IsSideNavFolded = *p.IsSideNavFolded
	}
	if p.Zoom != nil {
		out.Zoom = *p.Zoom
	}
	if p.ListWidth != nil {
		out.ListWidth = *p.ListWidth
	}
	if len(p.Extra) > 0 {
		out.Extra = make(map[string]any, len(c.Extra)+len(p.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
