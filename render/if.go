package render

import (
	"fmt"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// IfDefinition registers the if template controller.
var IfDefinition = &CustomAttributeDefinition{
	Name:               "if",
	TemplateController: true,
	Create:             func(ctx *HydrationContext) any { return NewIf(ctx) },
}

// If shows its view while value is truthy. The view is kept and rebound
// when value turns truthy again.
type If struct {
	ctx        *HydrationContext
	value      any
	view       *Controller
	controller *Controller
}

func NewIf(ctx *HydrationContext) *If {
	return &If{ctx: ctx}
}

// View returns the view of the if, nil before it was first shown.
func (i *If) View() *Controller { return i.view }

func (i *If) GetProperty(key string) any {
	if key == "value" {
		return i.value
	}
	return nil
}

func (i *If) SetProperty(key string, v any) error {
	if key != "value" {
		return fmt.Errorf("render: if has no property %s: %w", key, observation.ErrNotSettable)
	}
	i.value = v
	if i.controller != nil && i.controller.IsBound() {
		return i.update(observation.FlagsNone)
	}
	return nil
}

func (i *If) Bound(c *Controller, flags observation.Flags) error {
	i.controller = c
	return i.update(flags)
}

func (i *If) Unbinding(_ *Controller, flags observation.Flags) error {
	if i.view == nil {
		return nil
	}
	return i.view.Deactivate(flags)
}

func (i *If) update(flags observation.Flags) error {
	if !expression.Truthy(i.value) {
		if i.view != nil {
			return i.view.Deactivate(flags)
		}
		return nil
	}
	if i.view == nil {
		v, err := i.ctx.Factory.Create(i.ctx.Container)
		if err != nil {
			return err
		}
		v.SetLocation(i.ctx.Location)
		i.view = v
	}
	return i.view.Activate(flags, i.controller.ParentScope)
}
