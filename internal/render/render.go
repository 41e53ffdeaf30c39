// Package render walks the configuration tree in declared order,
// consults the form engine for visibility, and hands visible nodes to
// the widget-rendering collaborator. It performs no validation or
// dependency logic of its own; edits and action triggers from the
// collaborator are forwarded verbatim to the engine.
package render

import (
	"fmt"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/engine"
	"github.com/roach88/formic/internal/state"
)

// ComponentView is what the widget collaborator receives for each
// visible component: everything needed to draw it, nothing about how.
type ComponentView struct {
	ID      config.ElementID
	Type    string
	Label   string
	Value   config.Value
	Enabled bool
	Errors  []state.ValidationError
	Action  *config.Action
}

// SectionPlan is one visible section with its visible components in
// ascending order.
type SectionPlan struct {
	ID         string
	Theme      string
	Components []ComponentView
}

// Plan is the render output for one page at one snapshot version.
type Plan struct {
	PageID   string
	Version  int64
	Sections []SectionPlan
}

// Widget is the external rendering collaborator. The renderer makes no
// assumption about the rendering technology behind it.
type Widget interface {
	Render(view ComponentView) error
}

// Renderer walks pages for one engine.
type Renderer struct {
	eng *engine.Engine
}

// New creates a renderer over an engine.
func New(eng *engine.Engine) *Renderer {
	return &Renderer{eng: eng}
}

// Walk builds the render plan for a page against the current snapshot:
// sections in ascending order, then components in ascending order,
// skipping every hidden node. A hidden section prunes its whole
// subtree without per-component checks.
//
// Sections carry no visibility expression of their own. The snapshot
// keys visibility by element id, so a section hides exactly when a
// component sharing its id does; sections without such a component are
// always visible.
func (r *Renderer) Walk(pageID string) (*Plan, error) {
	page := r.findPage(pageID)
	if page == nil {
		return nil, fmt.Errorf("page %q not found in configuration", pageID)
	}

	snap := r.eng.Snapshot()
	plan := &Plan{PageID: pageID, Version: snap.Version}

	for si := range page.Sections {
		sec := &page.Sections[si]
		if !snap.Visible(config.ElementID(sec.ID)) {
			continue // a like-named component turned the section off
		}
		sp := SectionPlan{ID: sec.ID, Theme: sec.Theme}
		for ci := range sec.Components {
			comp := &sec.Components[ci]
			if !snap.Visible(comp.ID) {
				continue
			}
			sp.Components = append(sp.Components, r.view(comp, snap))
		}
		plan.Sections = append(plan.Sections, sp)
	}
	return plan, nil
}

// Render walks a page and hands each visible component to the widget
// collaborator in declared order.
func (r *Renderer) Render(pageID string, w Widget) error {
	plan, err := r.Walk(pageID)
	if err != nil {
		return err
	}
	for _, sec := range plan.Sections {
		for _, view := range sec.Components {
			if err := w.Render(view); err != nil {
				return fmt.Errorf("render component %s: %w", view.ID, err)
			}
		}
	}
	return nil
}

// OnValueChange forwards a widget edit verbatim to the engine.
func (r *Renderer) OnValueChange(id config.ElementID, v config.Value) error {
	_, err := r.eng.UpdateValue(id, v)
	return err
}

// OnAction forwards a widget action trigger verbatim to the engine.
func (r *Renderer) OnAction(origin config.ElementID) (*engine.DispatchResult, error) {
	return r.eng.DispatchAction(origin)
}

func (r *Renderer) view(comp *config.Component, snap *state.Snapshot) ComponentView {
	value, _ := snap.Value(comp.ID)
	return ComponentView{
		ID:      comp.ID,
		Type:    comp.Type,
		Label:   comp.Label,
		Value:   value,
		Enabled: snap.IsEnabled(comp.ID),
		Errors:  snap.ErrorsFor(comp.ID),
		Action:  comp.Action,
	}
}

func (r *Renderer) findPage(pageID string) *config.Page {
	cfg := r.eng.Config()
	for pi := range cfg.Pages {
		if cfg.Pages[pi].ID == pageID {
			return &cfg.Pages[pi]
		}
	}
	return nil
}
