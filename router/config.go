package router

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan is how much of the component lifecycle an update re-runs.
type Plan uint8

const (
	// PlanDefault defers to the router options, then to convention: the
	// same component with the same parameters is left alone, anything else
	// is replaced.
	PlanDefault Plan = iota
	// PlanReplace deactivates the old component and activates a new one.
	PlanReplace
	// PlanInvokeLifecycles keeps the component and runs its hooks.
	PlanInvokeLifecycles
	// PlanNone skips the component and only updates its children.
	PlanNone
)

var planNames = []string{"default", "replace", "invoke-lifecycles", "none"}

func (p Plan) String() string {
	if int(p) < len(planNames) {
		return planNames[p]
	}
	return fmt.Sprintf("Plan(%d)", uint8(p))
}

// ParsePlan is the inverse of Plan.String.
func ParsePlan(s string) (Plan, error) {
	if i := slices.Index(planNames, s); i >= 0 {
		return Plan(i), nil
	}
	return PlanDefault, &RouteConfigError{Property: "transitionPlan", Value: s}
}

func (p Plan) MarshalYAML() (any, error) { return p.String(), nil }

// PlanFunc picks a plan from the node being replaced and its successor.
type PlanFunc func(current, next *RouteNode) Plan

// RouteConfig is one route of a component. Children are the routes of
// the routed component itself.
type RouteConfig struct {
	ID        string   `yaml:"id,omitempty"`
	Path      []string `yaml:"path"`
	Component string   `yaml:"component,omitempty"`
	Viewport  string   `yaml:"viewport,omitempty"`
	Title     string   `yaml:"title,omitempty"`
	// Redirect is an instruction string navigated to instead.
	Redirect       string         `yaml:"redirectTo,omitempty"`
	TransitionPlan Plan           `yaml:"transitionPlan,omitempty"`
	PlanFunc       PlanFunc       `yaml:"-"`
	Data           map[string]any `yaml:"data,omitempty"`
	Children       []*RouteConfig `yaml:"routes,omitempty"`
}

var routeConfigFields = []string{"id", "path", "component", "viewport", "title", "redirectTo", "transitionPlan", "data", "routes"}

// UnmarshalYAML validates the property names of a route before decoding
// it. Path accepts a single string or a list.
func (c *RouteConfig) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return &RouteConfigError{Property: "route", Value: n.Value, Line: n.Line}
	}
	var plan, path *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if !slices.Contains(routeConfigFields, k.Value) {
			return &RouteConfigError{Property: k.Value, Value: v.Value, Line: k.Line}
		}
		switch k.Value {
		case "transitionPlan":
			plan = v
		case "path":
			path = v
		}
	}
	type plain struct {
		ID        string         `yaml:"id"`
		Component string         `yaml:"component"`
		Viewport  string         `yaml:"viewport"`
		Title     string         `yaml:"title"`
		Redirect  string         `yaml:"redirectTo"`
		Data      map[string]any `yaml:"data"`
		Children  []*RouteConfig `yaml:"routes"`
	}
	var p plain
	if err := decodeFields(n, &p, "path", "transitionPlan"); err != nil {
		return err
	}
	*c = RouteConfig{
		ID:        p.ID,
		Component: p.Component,
		Viewport:  p.Viewport,
		Title:     p.Title,
		Redirect:  p.Redirect,
		Data:      p.Data,
		Children:  p.Children,
	}
	if path != nil {
		switch path.Kind {
		case yaml.ScalarNode:
			c.Path = []string{path.Value}
		case yaml.SequenceNode:
			if err := path.Decode(&c.Path); err != nil {
				return &RouteConfigError{Property: "path", Value: err.Error(), Line: path.Line}
			}
		default:
			return &RouteConfigError{Property: "path", Value: path.Value, Line: path.Line}
		}
	}
	if plan != nil {
		pl, err := ParsePlan(plan.Value)
		if err != nil {
			var rce *RouteConfigError
			if errors.As(err, &rce) {
				rce.Line = plan.Line
			}
			return err
		}
		c.TransitionPlan = pl
	}
	return c.validate(n.Line)
}

// decodeFields decodes the mapping n into v without the named keys.
func decodeFields(n *yaml.Node, v any, skip ...string) error {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: n.Tag, Line: n.Line, Column: n.Column}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if slices.Contains(skip, n.Content[i].Value) {
			continue
		}
		m.Content = append(m.Content, n.Content[i], n.Content[i+1])
	}
	return m.Decode(v)
}

func (c *RouteConfig) validate(line int) error {
	if c.Component == "" && c.Redirect == "" {
		return &RouteConfigError{Property: "component", Value: "", Line: line}
	}
	if c.Path == nil && c.ID == "" {
		return &RouteConfigError{Property: "path", Value: "", Line: line}
	}
	for _, p := range c.Path {
		if strings.ContainsAny(p, "+()@?#") {
			return &RouteConfigError{Property: "path", Value: p, Line: line}
		}
	}
	return nil
}

// Paths returns the paths the route is recognized by. A route without a
// path is recognized by its id.
func (c *RouteConfig) Paths() []string {
	if len(c.Path) == 0 && c.ID != "" {
		return []string{c.ID}
	}
	return c.Path
}

// plan resolves the plan for replacing current with next in this route.
func (c *RouteConfig) plan(current, next *RouteNode, fallback Plan) Plan {
	if c != nil {
		if c.PlanFunc != nil {
			if p := c.PlanFunc(current, next); p != PlanDefault {
				return p
			}
		}
		if c.TransitionPlan != PlanDefault {
			return c.TransitionPlan
		}
	}
	if fallback != PlanDefault {
		return fallback
	}
	if current.sameTarget(next) {
		return PlanNone
	}
	return PlanReplace
}

// RouteFile is the document LoadRouteConfigs reads.
type RouteFile struct {
	// Root is the custom element the router is started with.
	Root   string         `yaml:"root"`
	Routes []*RouteConfig `yaml:"routes"`
}

// LoadRouteConfigs decodes a YAML route file. Unknown properties at any
// level are a *RouteConfigError.
func LoadRouteConfigs(r io.Reader) (*RouteFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f RouteFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		var rce *RouteConfigError
		if errors.As(err, &rce) {
			return nil, rce
		}
		return nil, fmt.Errorf("router: route file: %w", err)
	}
	return &f, nil
}
