// Package engine evaluates boundary-condition scripts. A script is a list of
// Lisp forms run by zygomys in a fresh sandbox; each (patch ...) form records
// the role and condition of one named inlet. Emit writes the same forms back
// out, so a script is also the text form of an inlet set.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a non-fatal error found while evaluating or applying a script,
// such as a parse error or a patch naming no inlet.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is advisory output of an evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	Patch   string
}

// Engine runs scripts. It is safe for concurrent use; every call to Evaluate
// gets its own sandbox, and only the most recent call's result is returned.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine returns an Engine that aborts evaluations after timeout. A
// non-positive timeout means EvalTimeout.
func NewEngine(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	return &Engine{timeout: timeout}
}

// Evaluate runs source and returns the patches it declares.
//
// Return semantics:
//   - On success: script + nil errors + nil error
//   - On parse/eval failure: nil script + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): nil + nil + error
func (e *Engine) Evaluate(source string) (*Script, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()
		s, evalErrs, err := evaluate(source)
		ch <- evalResult{script: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, e.timeout, &e.mu, &e.generation)
}

func evaluate(source string) (*Script, []EvalError, error) {
	s := &Script{}
	if strings.TrimSpace(source) == "" {
		return s, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	s.Warnings = duplicateWarnings(s.Patches)
	return s, nil, nil
}

func duplicateWarnings(patches []Patch) []EvalWarning {
	seen := make(map[string]bool, len(patches))
	var out []EvalWarning
	for _, p := range patches {
		if seen[p.Name] {
			out = append(out, EvalWarning{
				Message: fmt.Sprintf("patch %q given more than once; later forms win", p.Name),
				Patch:   p.Name,
			})
		}
		seen[p.Name] = true
	}
	return out
}

// linePattern matches zygomys errors of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError turns a zygomys error into eval errors, keeping the line
// number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
