package natives

import "math"

// registerMath adapts the teacher's stdlib.registerMath (math.abs,
// math.floor, math.max, math.min) from GCW's types.Value argument model to
// dfruntime's scalar float64/*Output model. Every DSL dataflow payload is a
// float64 here, so int/double distinction the teacher's AsNumber() performed
// at the types.Value layer simply disappears — there is nothing left to
// coerce.
func (r *Registry) registerMath() {
	r.Register("math_abs", func(args []any) error {
		if err := requireArgs("math_abs", args, 2); err != nil {
			return err
		}
		output(args, 1).Set(math.Abs(scalar(args, 0)))
		return nil
	})

	r.Register("math_floor", func(args []any) error {
		if err := requireArgs("math_floor", args, 2); err != nil {
			return err
		}
		output(args, 1).Set(math.Floor(scalar(args, 0)))
		return nil
	})

	r.Register("math_max", func(args []any) error {
		if err := requireArgs("math_max", args, 3); err != nil {
			return err
		}
		output(args, 2).Set(math.Max(scalar(args, 0), scalar(args, 1)))
		return nil
	})

	r.Register("math_min", func(args []any) error {
		if err := requireArgs("math_min", args, 3); err != nil {
			return err
		}
		output(args, 2).Set(math.Min(scalar(args, 0), scalar(args, 1)))
		return nil
	})
}
