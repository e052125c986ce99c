package param

import "maps"

// Registry is the flat table of parameters of one DSP instance. It is
// built once while the instance declares its controls and is read many
// times afterwards. Registry is not safe for concurrent use and must not
// outlive the instance owning the zones.
type Registry struct {
	params []Param
	paths  map[string]int
	meta   map[Zone]map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		paths: make(map[string]int),
	}
}

// Register appends a parameter with path "/" + label. A path registered
// earlier is remapped to the new parameter.
func (r *Registry) Register(label string, zone Zone, init, min, max, step float64, kind Kind) {
	p := Param{
		Label: label,
		Path:  "/" + label,
		Kind:  kind,
		Zone:  zone,
		Init:  init,
		Min:   min,
		Max:   max,
		Step:  step,
	}
	if m, ok := r.meta[zone]; ok {
		p.Meta = m
		delete(r.meta, zone)
	}
	r.paths[p.Path] = len(r.params)
	r.params = append(r.params, p)
}

// Set writes value into the zone of the parameter at path. Values are not
// clamped to the declared range. It returns false if path is unknown.
func (r *Registry) Set(path string, value float64) bool {
	i, ok := r.paths[path]
	if !ok {
		return false
	}
	r.params[i].Zone.Store(value)
	return true
}

// Get returns the current value of the parameter at path, or 0 if path
// is unknown. Use Lookup to tell the two apart.
func (r *Registry) Get(path string) float64 {
	i, ok := r.paths[path]
	if !ok {
		return 0
	}
	return r.params[i].Zone.Load()
}

// Lookup returns the parameter registered at path.
func (r *Registry) Lookup(path string) (Param, bool) {
	i, ok := r.paths[path]
	if !ok {
		return Param{}, false
	}
	p := r.params[i]
	p.Meta = maps.Clone(p.Meta)
	return p, true
}

// List returns a copy of parameters in declaration order. Zones are
// shared with the registry, metadata is not.
func (r *Registry) List() []Param {
	result := make([]Param, len(r.params))
	for i, p := range r.params {
		p.Meta = maps.Clone(p.Meta)
		result[i] = p
	}
	return result
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int {
	return len(r.params)
}

// UI returns the callback a DSP instance drives to populate the registry.
// Boxes are ignored, widgets are registered and metadata declared for a
// zone is attached to the widget later registered with that zone.
func (r *Registry) UI() UI {
	return func(c Control) {
		switch c.Op {
		case OpenTabBox, OpenHorizontalBox, OpenVerticalBox, CloseBox:
		case AddButton, AddCheckButton:
			kind, _ := c.Kind()
			r.Register(c.Label, c.Zone, 0, 0, 1, 1, kind)
		case AddVerticalSlider, AddHorizontalSlider, AddNumEntry:
			kind, _ := c.Kind()
			r.Register(c.Label, c.Zone, c.Init, c.Min, c.Max, c.Step, kind)
		case Declare:
			// zone-less declarations describe the DSP or a box.
			if c.Zone == nil {
				return
			}
			if r.meta == nil {
				r.meta = make(map[Zone]map[string]string)
			}
			m, ok := r.meta[c.Zone]
			if !ok {
				m = make(map[string]string)
				r.meta[c.Zone] = m
			}
			m[c.Key] = c.Value
		}
	}
}
