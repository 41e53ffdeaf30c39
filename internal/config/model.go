package config

import "sort"

// ElementID uniquely identifies one interactive component within a
// configuration, across pages and sections.
type ElementID string

// RuleType identifies a validation rule kind.
type RuleType string

const (
	RuleRequired   RuleType = "required"
	RulePattern    RuleType = "pattern"
	RuleLength     RuleType = "length"
	RuleRange      RuleType = "range"
	RuleCrossField RuleType = "crossField"
	RuleCustom     RuleType = "custom"
)

// Relation names the comparison a crossField rule applies between the
// owning element's value and the related element's value.
type Relation string

const (
	RelationEq  Relation = "eq"
	RelationNeq Relation = "neq"
	RelationGt  Relation = "gt"
	RelationLt  Relation = "lt"
	RelationGte Relation = "gte"
	RelationLte Relation = "lte"
)

// Rule is one validation rule owned by a component. Which fields are
// meaningful depends on Type; the compiler rejects rules whose fields
// don't match their type.
type Rule struct {
	Type    RuleType `json:"type"`
	Message string   `json:"message,omitempty"`

	// Pattern rules
	Pattern string `json:"pattern,omitempty"`

	// Length rules (nil bound = unbounded on that side)
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`

	// Range rules
	MinValue *float64 `json:"minValue,omitempty"`
	MaxValue *float64 `json:"maxValue,omitempty"`

	// CrossField rules. Expression, when set, overrides Relation and is
	// evaluated with the rule owner's element in scope.
	RelatedField ElementID `json:"relatedField,omitempty"`
	Relation     Relation  `json:"relation,omitempty"`
	Expression   Node      `json:"-"`

	// Custom rules. Function must be registered with the engine.
	// Async functions run off the update path and report back as a
	// follow-up transaction.
	Function string `json:"function,omitempty"`
	Params   Object `json:"params,omitempty"`
	Async    bool   `json:"async,omitempty"`
}

// ActionKind identifies what dispatching an action does.
type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionSubmit   ActionKind = "submit"
	ActionReset    ActionKind = "reset"
	ActionCustom   ActionKind = "custom"
)

// Action is a declared effect attached to a component (typically a
// button). Target is a page id for navigate, a handler name for custom.
type Action struct {
	ID     string     `json:"id"`
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target,omitempty"`
	Params Object     `json:"params,omitempty"`
}

// Component is one interactive element. Immutable once loaded.
//
// DependentIDs is the precomputed reverse edge of the dependency graph:
// the elements whose derived state must be recomputed when this
// element's value changes. The engine never scans the whole tree on an
// edit; it walks these edges breadth-first.
type Component struct {
	ID          ElementID `json:"id"`
	Type        string    `json:"type"`
	Order       int       `json:"order"`
	Label       string    `json:"label,omitempty"`
	BindingPath Path      `json:"bindingPath,omitempty"`

	Rules        []Rule      `json:"rules,omitempty"`
	VisibleWhen  Node        `json:"-"`
	EnabledWhen  Node        `json:"-"`
	DependentIDs []ElementID `json:"dependentIds,omitempty"`

	Action *Action `json:"action,omitempty"`

	// DebounceMillis coalesces rapid edits to this element before
	// validation fires. Zero means validate immediately.
	DebounceMillis int `json:"debounceMillis,omitempty"`

	Default Value `json:"-"`
}

// Section groups components; components render in ascending Order.
type Section struct {
	ID         string      `json:"id"`
	Order      int         `json:"order"`
	Theme      string      `json:"theme,omitempty"`
	Components []Component `json:"components"`
}

// Page groups ordered sections.
type Page struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Order    int       `json:"order"`
	Sections []Section `json:"sections"`
}

// Journey is an ordered sequence of page ids plus navigation
// permissions.
type Journey struct {
	ID           string   `json:"id"`
	Pages        []string `json:"pages"`
	AllowBack    bool     `json:"allowBack"`
	AllowForward bool     `json:"allowForward"`
}

// Config is the immutable parsed configuration handed to the engine.
// Loading and schema validation happen upstream (cli loader + compiler);
// the engine only ever sees a compiled Config.
type Config struct {
	ID       string    `json:"id"`
	Pages    []Page    `json:"pages"`
	Journeys []Journey `json:"journeys,omitempty"`
}

// Index provides constant-time lookups over a Config. Built once at
// load time and shared read-only.
type Index struct {
	components map[ElementID]*Component
	sections   map[ElementID]string // element -> owning section id
	aliases    map[string]ElementID // "sectionID.componentID" -> element id
	order      []ElementID          // declaration order (page, section, component order)
}

// BuildIndex indexes every component in the configuration.
// Duplicate ids are not detected here; the compiler reports them as
// configuration errors before an Index is ever used.
func (c *Config) BuildIndex() *Index {
	idx := &Index{
		components: make(map[ElementID]*Component),
		sections:   make(map[ElementID]string),
		aliases:    make(map[string]ElementID),
	}
	for pi := range c.Pages {
		page := &c.Pages[pi]
		for si := range page.Sections {
			sec := &page.Sections[si]
			for ci := range sec.Components {
				comp := &sec.Components[ci]
				idx.components[comp.ID] = comp
				idx.sections[comp.ID] = sec.ID
				idx.aliases[sec.ID+"."+string(comp.ID)] = comp.ID
				idx.order = append(idx.order, comp.ID)
			}
		}
	}
	return idx
}

// Component returns the component for an element id, or nil.
func (i *Index) Component(id ElementID) *Component {
	return i.components[id]
}

// ResolveAlias maps a "sectionID.componentID" pair to its element id.
func (i *Index) ResolveAlias(alias string) (ElementID, bool) {
	id, ok := i.aliases[alias]
	return id, ok
}

// SectionOf returns the id of the section owning an element.
func (i *Index) SectionOf(id ElementID) (string, bool) {
	s, ok := i.sections[id]
	return s, ok
}

// Len returns the total element count. The engine uses this as the
// visited-set bound for dependency closure traversal.
func (i *Index) Len() int {
	return len(i.components)
}

// Elements returns all element ids in declaration order.
func (i *Index) Elements() []ElementID {
	out := make([]ElementID, len(i.order))
	copy(out, i.order)
	return out
}

// SortSections orders a page's sections and each section's components
// by ascending Order in place. The renderer relies on this ordering.
func (p *Page) SortSections() {
	sort.SliceStable(p.Sections, func(a, b int) bool {
		return p.Sections[a].Order < p.Sections[b].Order
	})
	for si := range p.Sections {
		sec := &p.Sections[si]
		sort.SliceStable(sec.Components, func(a, b int) bool {
			return sec.Components[a].Order < sec.Components[b].Order
		})
	}
}
