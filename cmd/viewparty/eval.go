package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func evalCommand() *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "Evaluate a binding expression against a YAML model",
		ArgsUsage: "<expression>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  modelKey,
				Usage: "YAML file holding the binding context",
			},
		},
		Action: eval,
	}
}

func eval(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("eval: expected one expression")
	}
	model := observation.NewRecord()
	if path := cmd.String(modelKey); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if model, err = loadModel(f); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	out, err := evaluate(cmd.Args().First(), model)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// evaluate parses raw as a property expression and renders its value
// against model, with the standard resources plus upper and lower
// converters available.
func evaluate(raw string, model *observation.Record) (string, error) {
	expr, err := expression.Parse(raw, expression.IsProperty)
	if err != nil {
		return "", err
	}
	c := render.NewContainer(nil)
	render.RegisterStandardResources(c)
	c.RegisterValueConverter("upper", expression.ConverterFuncs{To: func(v any, _ ...any) (any, error) {
		return strings.ToUpper(expression.ToString(v)), nil
	}})
	c.RegisterValueConverter("lower", expression.ConverterFuncs{To: func(v any, _ ...any) (any, error) {
		return strings.ToLower(expression.ToString(v)), nil
	}})
	v, err := expr.Evaluate(observation.FlagsNone, observation.CreateScope(model), c)
	if err != nil {
		return "", err
	}
	return expression.ToString(v), nil
}

// loadModel decodes a YAML mapping into a record. Nested mappings become
// records, sequences arrays and integers float64.
func loadModel(r io.Reader) (*observation.Record, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return toValue(doc).(*observation.Record), nil
}

func toValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = toValue(e)
		}
		return observation.RecordFromMap(m)
	case []any:
		items := make([]any, len(v))
		for i, e := range v {
			items[i] = toValue(e)
		}
		return observation.NewArray(items...)
	case int:
		return float64(v)
	}
	return v
}
