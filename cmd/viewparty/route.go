package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
	"github.com/delaneyj/viewparty/router"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "Work with router instructions",
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Parse instruction strings and print their tree",
				ArgsUsage: "<instructions>...",
				Action:    routeParse,
			},
			{
				Name:      "navigate",
				Usage:     "Navigate a headless router and print the viewport states",
				ArgsUsage: "<instructions>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     configKey,
						Usage:    "YAML route file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  verboseKey,
						Usage: "Log router traces to stderr",
					},
				},
				Action: routeNavigate,
			},
		},
	}
}

func routeParse(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errors.New("route parse: no instructions given")
	}
	for _, s := range args {
		vit, err := router.ParseInstructions(s)
		if err != nil {
			return err
		}
		fmt.Printf("%s => %s\n", s, vit)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"depth", "component", "params", "viewport"})
		var walk func(vis []*router.ViewportInstruction, depth int)
		walk = func(vis []*router.ViewportInstruction, depth int) {
			for _, vi := range vis {
				var params []string
				for _, p := range vi.Params {
					if p.Key == "" {
						params = append(params, p.Value)
					} else {
						params = append(params, p.Key+"="+p.Value)
					}
				}
				table.Append([]string{
					fmt.Sprint(depth),
					strings.Repeat("  ", depth) + vi.Component,
					strings.Join(params, ","),
					vi.Viewport,
				})
				walk(vi.Children, depth+1)
			}
		}
		walk(vit.Children, 0)
		table.Render()
		if len(vit.Query) > 0 {
			fmt.Printf("query: %s\n", vit.Query.Encode())
		}
		if vit.Fragment != "" {
			fmt.Printf("fragment: %s\n", vit.Fragment)
		}
	}
	return nil
}

func routeNavigate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String(configKey)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	rf, err := router.LoadRouteConfigs(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("Loaded %d routes from %s", len(rf.Routes), path)

	r, err := headlessRouter(rf, logger(cmd))
	if err != nil {
		return err
	}
	host := render.NewElement("body")
	if err := r.Start(host); err != nil {
		return err
	}
	defer r.Stop()
	printStates(r, "<start>")

	for _, s := range cmd.Args().Slice() {
		ok, err := r.Load(s, router.NavigationOptions{})
		switch {
		case err != nil:
			log.Printf("Navigation to %q failed: %v", s, err)
		case !ok:
			log.Printf("Navigation to %q was cancelled", s)
		}
		printStates(r, s)
	}
	return nil
}

// headlessRouter registers a placeholder component for every component
// the routes name. A component gets one viewport per viewport name its
// child routes use.
func headlessRouter(rf *router.RouteFile, l *log.Logger) (*router.Router, error) {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{Logger: l})
	c := render.NewContainer(nil)
	render.RegisterStandardResources(c)
	renderer := render.NewRenderer(render.RendererOptions{
		Container:   c,
		Locator:     observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs, Logger: l}),
		Expressions: expression.NewCache(),
		Logger:      l,
	})

	rootName := rf.Root
	if rootName == "" {
		rootName = "app"
	}
	root := placeholder(rootName, viewportNames(rf.Routes))
	var register func(routes []*router.RouteConfig)
	register = func(routes []*router.RouteConfig) {
		for _, rc := range routes {
			if rc.Component != "" {
				if _, err := render.LookupElement(c, rc.Component); err != nil {
					c.RegisterElement(placeholder(rc.Component, viewportNames(rc.Children)))
				}
			}
			register(rc.Children)
		}
	}
	register(rf.Routes)

	return router.New(router.Options{
		Renderer: renderer,
		Root:     root,
		Routes:   rf.Routes,
		History:  router.NewMemoryHistory(""),
		Logger:   l,
	})
}

func viewportNames(routes []*router.RouteConfig) []string {
	var names []string
	for _, rc := range routes {
		name := rc.Viewport
		if name == "" {
			name = router.DefaultViewport
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func placeholder(name string, viewports []string) *render.CustomElementDefinition {
	tpl := render.NewFragment(render.NewElement("h1").Append(render.NewText(name)))
	var rows [][]render.Instruction
	for _, vp := range viewports {
		tpl.Append(render.Target(render.NewElement("viewport")))
		rows = append(rows, []render.Instruction{render.HydrateElementInstruction{
			Res:          "viewport",
			Instructions: []render.Instruction{render.SetPropertyInstruction{To: "name", Value: vp}},
		}})
	}
	return &render.CustomElementDefinition{
		Name:     name,
		Template: &render.Definition{Name: name, Template: tpl, Instructions: rows},
	}
}

func printStates(r *router.Router, label string) {
	fmt.Printf("%s => %s", label, r.URL())
	if t := r.Title(); t != "" {
		fmt.Printf(" (%s)", t)
	}
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"viewport", "state", "component", "params"})
	var walk func(agents []*router.ViewportAgent, prefix string)
	walk = func(agents []*router.ViewportAgent, prefix string) {
		for _, a := range agents {
			path := prefix + a.Viewport.Name
			component, params := "", ""
			if n := a.Node(); n != nil {
				component = n.Component
				params = formatParams(n.Params)
			}
			table.Append([]string{path, a.State(), component, params})
			if n := a.Node(); n != nil {
				walk(n.Context().ViewportAgents(), path+"/")
			}
		}
	}
	walk(r.Agents(), "")
	table.Render()
}

func formatParams(p router.Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + p[k]
	}
	return strings.Join(parts, ",")
}
