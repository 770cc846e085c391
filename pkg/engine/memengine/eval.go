package memengine

import (
	"math"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
	"github.com/ajitpratap0/mojoframe/pkg/column"
)

// evaluate computes rows values of one output column. A missing argument
// makes the result missing.
func (f *Frame) evaluate(op outputOp, out *column.Buffer, rows int) error {
	if rows == 0 {
		return nil
	}
	if op.kind == OpCopy {
		in := f.inputs[op.args[0]]
		switch {
		case in.Type == coltype.String && out.Type == coltype.String:
			return copyStrings(in, out, rows)
		case !in.Type.FixedWidth() || !out.Type.FixedWidth():
			return nil
		}
	}

	args := make([]*column.Cursor, len(op.args))
	for i, idx := range op.args {
		args[i] = f.inputs[idx].Cursor()
	}
	dst := out.Cursor()

	for row := 0; row < rows; row++ {
		var (
			acc     float64
			missing bool
			first   coltype.Value
		)
		for i, cur := range args {
			v, err := cur.ReadValue()
			if err != nil {
				return err
			}
			if i == 0 {
				first = v
			}
			if v.Missing() {
				missing = true
				continue
			}
			acc += toFloat(v)
		}

		var result coltype.Value
		switch {
		case missing:
			result = coltype.Missing(out.Type)
		case op.kind == OpCopy && first.Type == out.Type:
			result = first
		default:
			result = fromFloat(out.Type, acc)
		}
		if err := dst.WriteValue(result); err != nil {
			return err
		}
	}
	return nil
}

func copyStrings(in, out *column.Buffer, rows int) error {
	for row := 0; row < rows; row++ {
		s, err := in.ReadString(row)
		if err != nil {
			return err
		}
		if err := out.WriteString(row, s); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(v coltype.Value) float64 {
	switch v.Type {
	case coltype.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case coltype.Int32:
		return float64(v.Int32())
	case coltype.Int64:
		return float64(v.Int64())
	case coltype.Float32:
		return float64(v.Float32())
	case coltype.Float64:
		return v.Float64()
	}
	return math.NaN()
}

func fromFloat(t coltype.LogicalType, x float64) coltype.Value {
	switch t {
	case coltype.Bool:
		return coltype.BoolValue(x != 0)
	case coltype.Int32:
		if math.IsNaN(x) || x >= math.MaxInt32 || x < math.MinInt32 {
			return coltype.Missing(t)
		}
		return coltype.Int32Value(int32(x))
	case coltype.Int64:
		if math.IsNaN(x) || x >= math.MaxInt64 || x < math.MinInt64 {
			return coltype.Missing(t)
		}
		return coltype.Int64Value(int64(x))
	case coltype.Float32:
		return coltype.Float32Value(float32(x))
	}
	return coltype.Float64Value(x)
}
