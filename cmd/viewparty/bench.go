package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/viewparty/observation"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Time change propagation through chains of computed properties",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  widthKey,
				Usage: "Largest number of chains, grown by powers of ten",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  heightKey,
				Usage: "Largest chain length, grown by powers of ten",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Flushes timed per shape",
				Value: 100,
			},
		},
		Action: bench,
	}
}

func bench(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Propagate benchmark started")
	defer func() {
		log.Printf("Propagate benchmark finished in %v", time.Since(start))
	}()

	iters := int(cmd.Uint(itersKey))
	tbl := table.NewWriter()
	tbl.SetTitle("Observation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "notifications", "avg", "min", "p75", "p99", "max"})

	for w := 1; w <= int(cmd.Uint(widthKey)); w *= 10 {
		for h := 1; h <= int(cmd.Uint(heightKey)); h *= 10 {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			p, err := newPropagation(w, h)
			if err != nil {
				return err
			}
			for i := 0; i < iters; i++ {
				begin := time.Now()
				if err := p.step(); err != nil {
					return err
				}
				tach.AddTime(time.Since(begin))
			}
			if want := int64(w * iters); p.leaves.count != want {
				return fmt.Errorf("propagate %d * %d: %d leaf notifications, want %d", w, h, p.leaves.count, want)
			}

			calc := tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate: %d * %d", w, h),
				humanize.Comma(p.leaves.count),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			})
		}
	}
	tbl.Render()
	return nil
}

type counter struct{ count int64 }

func (c *counter) HandleChange(_, _ any, _ observation.Flags) { c.count++ }

// propagation is w chains of h computed properties, each adding one to
// the property before it, all reading the same source.
type propagation struct {
	cs     *observation.ChangeSet
	src    *observation.Record
	leaves *counter
}

func newPropagation(w, h int) (*propagation, error) {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{})
	locator := observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs})
	src := observation.RecordFromMap(map[string]any{"value": 0})
	p := &propagation{cs: cs, src: src, leaves: &counter{}}

	for i := 0; i < w; i++ {
		last := src
		for j := 0; j < h; j++ {
			prev := last
			next := observation.NewRecord()
			err := next.Define("value", observation.Descriptor{
				Get: func(_ *observation.Record, t *observation.Tracker) any {
					return t.Get(prev, "value").(int) + 1
				},
			})
			if err != nil {
				return nil, err
			}
			last = next
		}
		locator.GetObserver(last, "value").Subscribe(p.leaves)
	}
	return p, nil
}

func (p *propagation) step() error {
	p.src.Set("value", p.src.Get("value").(int)+1)
	return p.cs.Flush()
}
