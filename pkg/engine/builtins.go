package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexsr/of-vis-sub000/pkg/inlet"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites script source for zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so option names
//     never collide with user variables.
//  2. kebab-case identifiers become snake_case, since zygomys reads a
//     hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	b := []byte(source)
	out := make([]byte, 0, len(b)+len(b)/4)
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '"':
			end := quotedEnd(b, i, '"', true)
			out = append(out, b[i:end]...)
			i = end
		case c == '`':
			end := quotedEnd(b, i, '`', false)
			out = append(out, b[i:end]...)
			i = end
		case c == ';':
			for i < len(b) && b[i] == ';' {
				i++
			}
			out = append(out, '/', '/')
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// quotedEnd returns the index just past the literal opened by quote at
// b[start]. An unterminated literal runs to the end of b.
func quotedEnd(b []byte, start int, quote byte, escapes bool) int {
	i := start + 1
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' {
			i++
		}
		i++
	}
	if i < len(b) {
		i++
	}
	return min(i, len(b))
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an r3.Vec returned by vec3.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPatch is the value of a patch form.
type sexpPatch struct {
	patch Patch
}

func (p *sexpPatch) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(patch %q)", p.patch.Name)
}
func (p *sexpPatch) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword names rewritten by preprocessSource.
const kwPrefix = "__kw_"

// isKW returns the keyword name of s if s is a rewritten keyword.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
	order      []string
}

// parseArgs separates keyword options from positional arguments. A keyword
// at the end of the list gets the value nil.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		result.order = append(result.order, name)
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a SexpInt or SexpFloat.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a plain string.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts either a keyword (:outlet) or a string ("outlet").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toType(s zygo.Sexp) (inlet.Type, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	return inlet.ParseType(name)
}

func toConditionKind(s zygo.Sexp) (inlet.ConditionKind, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	return inlet.ParseConditionKind(name)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the script builtins into env. Every patch form
// appends to s.Patches. Source must go through preprocessSource first so
// keyword options are recognizable.
func registerBuiltins(env *zygo.Zlisp, s *Script) {

	// -----------------------------------------------------------------------
	// (vec3 0 0 1.5)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: r3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (patch "inlet_0" :type :inlet :condition :fixed-value
	//        :vector (vec3 0 0 0.4) :value 2.5 :rename "aorta")
	// -----------------------------------------------------------------------
	env.AddFunction("patch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("patch requires exactly one name argument")
		}
		patchName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("patch: name: %w", err)
		}
		p := Patch{Name: patchName}

		for _, key := range pa.order {
			v := pa.kw[key]
			switch key {
			case "type":
				t, err := toType(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("patch %q: type: %w", patchName, err)
				}
				p.Type = &t
			case "condition":
				k, err := toConditionKind(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("patch %q: condition: %w", patchName, err)
				}
				p.Condition = &k
			case "value":
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("patch %q: value: %w", patchName, err)
				}
				p.Value = &f
			case "vector":
				vec, err := toVec3(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("patch %q: vector: %w", patchName, err)
				}
				p.Vector = &vec
			case "rename":
				to, err := toString(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("patch %q: rename: %w", patchName, err)
				}
				if to == "" {
					return zygo.SexpNull, fmt.Errorf("patch %q: rename: empty name", patchName)
				}
				p.Rename = to
			default:
				return zygo.SexpNull, fmt.Errorf("patch %q: unknown option :%s", patchName, key)
			}
		}

		s.Patches = append(s.Patches, p)
		return &sexpPatch{patch: p}, nil
	})
}
