package natives

import "time"

// registerTime adapts the teacher's stdlib.registerTime (time.format,
// time.parse) to dfruntime's scalar model. The teacher's functions trade in
// RFC3339 strings, which the DSL's type system (Int/Long/Float/Double/Value/
// Name, spec.md §2) has no representation for, so the string-formatting
// half of the teacher's pair is dropped; what survives is the part that was
// always scalar underneath the string dressing — epoch seconds arithmetic —
// exposed directly as time_now/time_add.
func (r *Registry) registerTime() {
	r.Register("time_now", func(args []any) error {
		if err := requireArgs("time_now", args, 1); err != nil {
			return err
		}
		output(args, 0).Set(float64(time.Now().Unix()))
		return nil
	})

	r.Register("time_add", func(args []any) error {
		if err := requireArgs("time_add", args, 3); err != nil {
			return err
		}
		t := scalar(args, 0)
		seconds := scalar(args, 1)
		output(args, 2).Set(t + seconds)
		return nil
	})
}
