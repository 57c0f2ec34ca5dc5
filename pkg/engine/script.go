package engine

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/inlet"
)

// Patch is one evaluated patch form. Nil fields leave the inlet unchanged.
type Patch struct {
	Name      string
	Rename    string
	Type      *inlet.Type
	Condition *inlet.ConditionKind
	Value     *float64
	Vector    *r3.Vec
}

// Script is the result of a successful evaluation.
type Script struct {
	Patches  []Patch
	Warnings []EvalWarning
}

// Apply edits set according to the script's patches, in order. A patch
// naming no inlet, or a rename onto a taken name, is reported and skipped;
// the remaining patches still apply.
func (s *Script) Apply(set *inlet.Set) []EvalError {
	var errs []EvalError
	for _, p := range s.Patches {
		in, ok := set.ByName(p.Name)
		if !ok {
			errs = append(errs, EvalError{Message: fmt.Sprintf("patch %q: no such inlet", p.Name)})
			continue
		}
		if p.Type != nil {
			_ = set.SetType(p.Name, *p.Type)
		}
		cond := in.Condition
		if p.Condition != nil {
			cond.Kind = *p.Condition
		}
		if p.Value != nil {
			cond.Value = *p.Value
		}
		if p.Vector != nil {
			cond.Vector = *p.Vector
		}
		_ = set.SetCondition(p.Name, cond)
		if p.Rename != "" && p.Rename != p.Name {
			if err := set.Rename(p.Name, p.Rename); err != nil {
				errs = append(errs, EvalError{Message: fmt.Sprintf("patch %q: %v", p.Name, err)})
			}
		}
	}
	return errs
}

// Emit writes inlets as a script that Evaluate and Apply turn back into the
// same types and conditions.
func Emit(inlets []inlet.Inlet) string {
	var b strings.Builder
	for _, in := range inlets {
		fmt.Fprintf(&b, "(patch %q :type :%s :condition :%s", in.Name, in.Type, in.Condition.Kind)
		switch in.Condition.Kind {
		case inlet.FixedValue:
			v := in.Condition.Vector
			fmt.Fprintf(&b, " :vector (vec3 %s %s %s)", num(v.X), num(v.Y), num(v.Z))
		case inlet.FlowRate, inlet.Pressure:
			fmt.Fprintf(&b, " :value %s", num(in.Condition.Value))
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// num formats f without an exponent and with a decimal point, so zygomys
// reads it back as a float.
func num(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
