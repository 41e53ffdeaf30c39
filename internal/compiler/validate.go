package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/formic/internal/config"
)

// Validate performs all static checks on a decoded configuration.
// Returns every error found (does not fail fast) so an operator can
// fix a configuration in one pass.
//
// Anything reported here is fatal: the engine constructor refuses a
// configuration with validation errors, which is why evaluation-time
// code never has to handle unknown references in dependentIds.
func Validate(cfg *config.Config) []ConfigError {
	var errs []ConfigError

	if len(cfg.Pages) == 0 {
		errs = append(errs, errf(ErrEmptyConfig, "pages", "configuration has no pages"))
		return errs
	}

	idx := cfg.BuildIndex()
	pageIDs := make(map[string]bool)
	sectionIDs := make(map[string]bool)
	elementIDs := make(map[config.ElementID]bool)

	for pi := range cfg.Pages {
		page := &cfg.Pages[pi]
		if page.ID == "" {
			errs = append(errs, errf(ErrMissingID, "pages", "page without id"))
		}
		if pageIDs[page.ID] {
			errs = append(errs, errf(ErrDuplicatePage, "pages."+page.ID, "duplicate page id %q", page.ID))
		}
		pageIDs[page.ID] = true

		for si := range page.Sections {
			sec := &page.Sections[si]
			if sec.ID == "" {
				errs = append(errs, errf(ErrMissingID, "pages."+page.ID, "section without id"))
			}
			if sectionIDs[sec.ID] {
				errs = append(errs, errf(ErrDuplicateSection, "sections."+sec.ID, "duplicate section id %q", sec.ID))
			}
			sectionIDs[sec.ID] = true

			for ci := range sec.Components {
				comp := &sec.Components[ci]
				if comp.ID == "" {
					errs = append(errs, errf(ErrMissingID, "sections."+sec.ID, "component without id"))
					continue
				}
				if elementIDs[comp.ID] {
					errs = append(errs, errf(ErrDuplicateElement, "components."+string(comp.ID), "duplicate element id %q", comp.ID))
				}
				elementIDs[comp.ID] = true

				errs = append(errs, validateComponent(idx, comp)...)
			}
		}
	}

	errs = append(errs, validateJourneys(cfg, pageIDs)...)
	errs = append(errs, validateNavTargets(cfg, pageIDs)...)
	return errs
}

func validateComponent(idx *config.Index, comp *config.Component) []ConfigError {
	var errs []ConfigError
	field := "components." + string(comp.ID)

	// Reverse dependency edges must point at real elements. A broken
	// edge would silently drop recomputation of the missing target.
	for _, dep := range comp.DependentIDs {
		if idx.Component(dep) == nil {
			errs = append(errs, errf(ErrUnknownDependent, field+".dependentIds",
				"dependent element %q does not exist", dep))
		}
	}

	errs = append(errs, validateExprRefs(idx, field+".visibleWhen", comp.VisibleWhen)...)
	errs = append(errs, validateExprRefs(idx, field+".enabledWhen", comp.EnabledWhen)...)

	for i, rule := range comp.Rules {
		errs = append(errs, validateRule(idx, field, i, rule)...)
	}
	return errs
}

func validateRule(idx *config.Index, field string, i int, rule config.Rule) []ConfigError {
	var errs []ConfigError
	rf := field + ".rules[" + strconv.Itoa(i) + "]"

	switch rule.Type {
	case config.RuleRequired:
		// No extra fields

	case config.RulePattern:
		if rule.Pattern == "" {
			errs = append(errs, errf(ErrBadBounds, rf, "pattern rule without a pattern"))
		} else if _, err := regexp.Compile(rule.Pattern); err != nil {
			errs = append(errs, errf(ErrBadPattern, rf, "invalid pattern %q: %v", rule.Pattern, err))
		}

	case config.RuleLength:
		if rule.MinLength == nil && rule.MaxLength == nil {
			errs = append(errs, errf(ErrBadBounds, rf, "length rule without bounds"))
		}
		if rule.MinLength != nil && rule.MaxLength != nil && *rule.MinLength > *rule.MaxLength {
			errs = append(errs, errf(ErrBadBounds, rf, "minLength %d > maxLength %d", *rule.MinLength, *rule.MaxLength))
		}

	case config.RuleRange:
		if rule.MinValue == nil && rule.MaxValue == nil {
			errs = append(errs, errf(ErrBadBounds, rf, "range rule without bounds"))
		}
		if rule.MinValue != nil && rule.MaxValue != nil && *rule.MinValue > *rule.MaxValue {
			errs = append(errs, errf(ErrBadBounds, rf, "minValue %v > maxValue %v", *rule.MinValue, *rule.MaxValue))
		}

	case config.RuleCrossField:
		if rule.RelatedField == "" {
			errs = append(errs, errf(ErrBadBounds, rf, "crossField rule without relatedField"))
		} else if idx.Component(rule.RelatedField) == nil {
			errs = append(errs, errf(ErrUnknownRelated, rf, "related element %q does not exist", rule.RelatedField))
		}
		if rule.Expression == nil {
			switch rule.Relation {
			case config.RelationEq, config.RelationNeq, config.RelationGt,
				config.RelationLt, config.RelationGte, config.RelationLte:
			default:
				errs = append(errs, errf(ErrBadRelation, rf, "unknown relation %q", rule.Relation))
			}
		} else {
			errs = append(errs, validateExprRefs(idx, rf+".expression", rule.Expression)...)
		}

	case config.RuleCustom:
		if rule.Function == "" {
			errs = append(errs, errf(ErrMissingFunction, rf, "custom rule without function name"))
		}

	default:
		errs = append(errs, errf(ErrBadRuleType, rf, "unknown rule type %q", rule.Type))
	}
	return errs
}

// validateExprRefs checks that every binding path in an expression
// names an element the configuration defines. The evaluator recovers
// from unknown references at runtime too, but a strict load path
// reports them to the operator instead of defaulting silently.
func validateExprRefs(idx *config.Index, field string, n config.Node) []ConfigError {
	if n == nil {
		return nil
	}
	var errs []ConfigError
	for _, p := range config.Refs(n) {
		if !refResolves(idx, p) {
			errs = append(errs, errf(ErrUnknownRef, field, "expression references unknown element %q", p))
		}
	}
	return errs
}

func refResolves(idx *config.Index, p config.Path) bool {
	segs := p.Segments()
	if idx.Component(config.ElementID(segs[0])) != nil {
		return true
	}
	if len(segs) >= 2 {
		if _, ok := idx.ResolveAlias(segs[0] + "." + segs[1]); ok {
			return true
		}
	}
	return false
}

func validateJourneys(cfg *config.Config, pageIDs map[string]bool) []ConfigError {
	var errs []ConfigError
	for _, j := range cfg.Journeys {
		for _, pid := range j.Pages {
			if !pageIDs[pid] {
				errs = append(errs, errf(ErrUnknownJourneyPage, "journeys."+j.ID,
					"journey references unknown page %q", pid))
			}
		}
	}
	return errs
}

func validateNavTargets(cfg *config.Config, pageIDs map[string]bool) []ConfigError {
	var errs []ConfigError
	for pi := range cfg.Pages {
		for si := range cfg.Pages[pi].Sections {
			for _, comp := range cfg.Pages[pi].Sections[si].Components {
				a := comp.Action
				if a == nil || a.Kind != config.ActionNavigate {
					continue
				}
				if a.Target == "" || pageIDs[a.Target] || isRelativeTarget(a.Target) {
					continue
				}
				errs = append(errs, errf(ErrUnknownNavTarget, "components."+string(comp.ID),
					"navigate action targets unknown page %q", a.Target))
			}
		}
	}
	return errs
}

// isRelativeTarget recognizes the navigation pseudo-targets that do
// not name a page.
func isRelativeTarget(t string) bool {
	switch strings.ToLower(t) {
	case "back", "home", "next":
		return true
	}
	return false
}
