package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/formic/internal/config"
)

// Raw mirror structs: same shape as the config model, but expressions
// and values are untyped JSON until ParseExpr/FromAny compile them.

type rawConfig struct {
	ID       string           `json:"id"`
	Pages    []rawPage        `json:"pages"`
	Journeys []config.Journey `json:"journeys,omitempty"`
}

type rawPage struct {
	ID       string       `json:"id"`
	Title    string       `json:"title,omitempty"`
	Order    int          `json:"order"`
	Sections []rawSection `json:"sections"`
}

type rawSection struct {
	ID         string         `json:"id"`
	Order      int            `json:"order"`
	Theme      string         `json:"theme,omitempty"`
	Components []rawComponent `json:"components"`
}

type rawComponent struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Order          int            `json:"order"`
	Label          string         `json:"label,omitempty"`
	BindingPath    string         `json:"bindingPath,omitempty"`
	Rules          []rawRule      `json:"rules,omitempty"`
	VisibleWhen    any            `json:"visibleWhen,omitempty"`
	EnabledWhen    any            `json:"enabledWhen,omitempty"`
	DependentIDs   []string       `json:"dependentIds,omitempty"`
	Action         *config.Action `json:"action,omitempty"`
	DebounceMillis int            `json:"debounceMillis,omitempty"`
	Default        any            `json:"default,omitempty"`
}

type rawRule struct {
	Type         string         `json:"type"`
	Message      string         `json:"message,omitempty"`
	Pattern      string         `json:"pattern,omitempty"`
	MinLength    *int           `json:"minLength,omitempty"`
	MaxLength    *int           `json:"maxLength,omitempty"`
	MinValue     *float64       `json:"minValue,omitempty"`
	MaxValue     *float64       `json:"maxValue,omitempty"`
	RelatedField string         `json:"relatedField,omitempty"`
	Relation     string         `json:"relation,omitempty"`
	Expression   any            `json:"expression,omitempty"`
	Function     string         `json:"function,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
	Async        bool           `json:"async,omitempty"`
}

// Decode parses raw configuration JSON into the typed model,
// compiling every embedded expression. Decode does not validate
// references or graph structure; Compile does.
func Decode(data []byte) (*config.Config, []ConfigError) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []ConfigError{errf(ErrDecode, "config", "decode configuration: %v", err)}
	}
	return convert(&raw)
}

func convert(raw *rawConfig) (*config.Config, []ConfigError) {
	var errs []ConfigError
	cfg := &config.Config{ID: raw.ID, Journeys: raw.Journeys}

	for _, rp := range raw.Pages {
		page := config.Page{ID: rp.ID, Title: rp.Title, Order: rp.Order}
		for _, rs := range rp.Sections {
			sec := config.Section{ID: rs.ID, Order: rs.Order, Theme: rs.Theme}
			for _, rc := range rs.Components {
				comp, cerrs := convertComponent(rp.ID, rs.ID, rc)
				errs = append(errs, cerrs...)
				sec.Components = append(sec.Components, comp)
			}
			page.Sections = append(page.Sections, sec)
		}
		page.SortSections()
		cfg.Pages = append(cfg.Pages, page)
	}
	return cfg, errs
}

func convertComponent(pageID, sectionID string, rc rawComponent) (config.Component, []ConfigError) {
	var errs []ConfigError
	field := fmt.Sprintf("pages.%s.sections.%s.components.%s", pageID, sectionID, rc.ID)

	comp := config.Component{
		ID:             config.ElementID(rc.ID),
		Type:           rc.Type,
		Order:          rc.Order,
		Label:          rc.Label,
		Action:         rc.Action,
		DebounceMillis: rc.DebounceMillis,
	}

	if rc.BindingPath != "" {
		p, err := config.ParsePath(rc.BindingPath)
		if err != nil {
			errs = append(errs, errf(ErrBadExpression, field+".bindingPath", "%v", err))
		} else {
			comp.BindingPath = p
		}
	}

	for _, id := range rc.DependentIDs {
		comp.DependentIDs = append(comp.DependentIDs, config.ElementID(id))
	}

	if rc.VisibleWhen != nil {
		n, err := config.ParseExpr(rc.VisibleWhen)
		if err != nil {
			errs = append(errs, errf(ErrBadExpression, field+".visibleWhen", "%v", err))
		} else {
			comp.VisibleWhen = n
		}
	}
	if rc.EnabledWhen != nil {
		n, err := config.ParseExpr(rc.EnabledWhen)
		if err != nil {
			errs = append(errs, errf(ErrBadExpression, field+".enabledWhen", "%v", err))
		} else {
			comp.EnabledWhen = n
		}
	}

	if rc.Default != nil {
		v, err := config.FromAny(rc.Default)
		if err != nil {
			errs = append(errs, errf(ErrDecode, field+".default", "%v", err))
		} else {
			comp.Default = v
		}
	}

	for i, rr := range rc.Rules {
		rule, rerrs := convertRule(fmt.Sprintf("%s.rules[%d]", field, i), rr)
		errs = append(errs, rerrs...)
		comp.Rules = append(comp.Rules, rule)
	}

	return comp, errs
}

func convertRule(field string, rr rawRule) (config.Rule, []ConfigError) {
	var errs []ConfigError
	rule := config.Rule{
		Type:         config.RuleType(rr.Type),
		Message:      rr.Message,
		Pattern:      rr.Pattern,
		MinLength:    rr.MinLength,
		MaxLength:    rr.MaxLength,
		MinValue:     rr.MinValue,
		MaxValue:     rr.MaxValue,
		RelatedField: config.ElementID(rr.RelatedField),
		Relation:     config.Relation(rr.Relation),
		Function:     rr.Function,
		Async:        rr.Async,
	}

	if rr.Expression != nil {
		n, err := config.ParseExpr(rr.Expression)
		if err != nil {
			errs = append(errs, errf(ErrBadExpression, field+".expression", "%v", err))
		} else {
			rule.Expression = n
		}
	}

	if len(rr.Params) > 0 {
		v, err := config.FromAny(rr.Params)
		if err != nil {
			errs = append(errs, errf(ErrDecode, field+".params", "%v", err))
		} else if obj, ok := v.(config.Object); ok {
			rule.Params = obj
		}
	}

	return rule, errs
}
