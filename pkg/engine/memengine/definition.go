package memengine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
)

// Supported output operations.
const (
	OpCopy = "copy"
	OpSum  = "sum"
)

// Definition describes an in-process pipeline: its feature columns and how
// each output column is computed from them.
//
//	uuid: c30815f6-f6cb-475d-9f32-64d4152bce2d
//	inputs:
//	  - {name: a, type: int32}
//	  - {name: b, type: float64}
//	outputs:
//	  - {name: v, type: int32, op: copy, args: [a]}
type Definition struct {
	UUID          string       `yaml:"uuid"`
	TimeCreated   time.Time    `yaml:"time_created"`
	MissingValues []string     `yaml:"missing_values"`
	Inputs        []ColumnSpec `yaml:"inputs"`
	Outputs       []OutputSpec `yaml:"outputs"`
}

// ColumnSpec declares one feature column.
type ColumnSpec struct {
	Name string              `yaml:"name"`
	Type coltype.LogicalType `yaml:"type"`
}

// OutputSpec declares one produced column.
type OutputSpec struct {
	Name string              `yaml:"name"`
	Type coltype.LogicalType `yaml:"type"`
	Op   string              `yaml:"op"`
	Args []string            `yaml:"args"`
}

// ReadDefinition parses a YAML pipeline definition file.
func ReadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline definition: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition parses and validates a YAML pipeline definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks names, types and operation arguments.
func (d *Definition) Validate() error {
	if len(d.Inputs) == 0 {
		return fmt.Errorf("pipeline definition has no inputs")
	}
	if len(d.Outputs) == 0 {
		return fmt.Errorf("pipeline definition has no outputs")
	}

	inputs := make(map[string]coltype.LogicalType, len(d.Inputs))
	for _, in := range d.Inputs {
		if in.Name == "" {
			return fmt.Errorf("input column without name")
		}
		if _, dup := inputs[in.Name]; dup {
			return fmt.Errorf("duplicate input column %q", in.Name)
		}
		inputs[in.Name] = in.Type
	}

	seen := make(map[string]struct{}, len(d.Outputs))
	for _, out := range d.Outputs {
		if out.Name == "" {
			return fmt.Errorf("output column without name")
		}
		if _, dup := seen[out.Name]; dup {
			return fmt.Errorf("duplicate output column %q", out.Name)
		}
		seen[out.Name] = struct{}{}

		argTypes := make([]coltype.LogicalType, len(out.Args))
		for i, arg := range out.Args {
			typ, ok := inputs[arg]
			if !ok {
				return fmt.Errorf("output %q references unknown input %q", out.Name, arg)
			}
			argTypes[i] = typ
		}

		switch out.Op {
		case OpCopy:
			if len(argTypes) != 1 {
				return fmt.Errorf("output %q: copy takes exactly one argument", out.Name)
			}
			if !convertible(argTypes[0], out.Type) {
				return fmt.Errorf("output %q: cannot copy %s into %s", out.Name, argTypes[0], out.Type)
			}
		case OpSum:
			if len(argTypes) == 0 {
				return fmt.Errorf("output %q: sum needs at least one argument", out.Name)
			}
			if !out.Type.Numeric() {
				return fmt.Errorf("output %q: sum produces numbers, not %s", out.Name, out.Type)
			}
			for _, typ := range argTypes {
				if !typ.Numeric() && typ != coltype.Bool {
					return fmt.Errorf("output %q: cannot sum %s", out.Name, typ)
				}
			}
		default:
			return fmt.Errorf("output %q: unknown op %q", out.Name, out.Op)
		}
	}
	return nil
}

func convertible(from, to coltype.LogicalType) bool {
	if from == to {
		return true
	}
	return (from.Numeric() || from == coltype.Bool) && to.Numeric()
}
