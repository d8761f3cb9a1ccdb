// Package assert provides the per-invocation test context T and the
// assertions test methods call on it.
//
// A failing assertion records the failure on the method's ExecutionStatus and
// terminates the method goroutine with runtime.Goexit, so no code after it
// runs. Assertions must therefore be called from the goroutine running the
// test method.
package assert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/go-cmp/cmp"

	"github.com/ngs-bits/tfw/compare"
	"github.com/ngs-bits/tfw/executor"
	"github.com/ngs-bits/tfw/types"
)

// FloatEpsilon is the tolerance used by FEqual.
const FloatEpsilon = 1e-8

// T is handed to every test method.
type T struct {
	ctx    context.Context
	name   string
	outDir string
	log    log.Logger
	status *types.ExecutionStatus
}

// NewT creates the context for one method invocation. Outcomes are recorded on
// status.
func NewT(ctx context.Context, name, outDir string, logger log.Logger, status *types.ExecutionStatus) *T {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = log.Root()
	}
	if status == nil {
		status = types.NewExecutionStatus()
	}
	return &T{ctx: ctx, name: name, outDir: outDir, log: logger, status: status}
}

func (t *T) Context() context.Context { return t.ctx }

// Name returns the qualified name "<case>::<method>".
func (t *T) Name() string { return t.name }

// OutDir is the scratch directory for files the test produces.
func (t *T) OutDir() string { return t.outDir }

func (t *T) Log() log.Logger { return t.log }

func (t *T) IsTrue(cond bool) {
	if !cond {
		t.fail(here(), "IS_TRUE", "IsTrue", []any{cond}, nil, "")
	}
}

func (t *T) IsFalse(cond bool) {
	if cond {
		t.fail(here(), "IS_FALSE", "IsFalse", []any{cond}, nil, "")
	}
}

// IEqual compares two values of any integer kinds. Signed and unsigned values
// compare by numeric value; non-integer arguments always fail.
func (t *T) IEqual(actual, expected any) {
	a, aok := toInteger(actual)
	e, eok := toInteger(expected)
	if aok && eok && a == e {
		return
	}
	t.fail(here(), "I_EQUAL", "IEqual", []any{actual, expected}, []string{
		"actual   : " + formatInteger(actual, aok),
		"expected : " + formatInteger(expected, eok),
	}, "")
}

func (t *T) FEqual(actual, expected float64) {
	if math.Abs(actual-expected) <= FloatEpsilon {
		return
	}
	t.fail(here(), "F_EQUAL", "FEqual", []any{actual, expected}, floatDetails(actual, expected, FloatEpsilon), "")
}

// FEqualDelta is FEqual with a caller supplied tolerance.
func (t *T) FEqualDelta(actual, expected, delta float64) {
	if math.Abs(actual-expected) <= delta {
		return
	}
	t.fail(here(), "F_EQUAL2", "FEqualDelta", []any{actual, expected}, floatDetails(actual, expected, delta), "")
}

func (t *T) SEqual(actual, expected string) {
	if actual == expected {
		return
	}
	t.fail(here(), "S_EQUAL", "SEqual", []any{actual, expected}, []string{
		"actual   : " + actual,
		"expected : " + expected,
	}, "")
}

// XEqual compares arbitrary values with go-cmp. Types with an Equal method
// and cmp.Comparer options are honoured. Values go-cmp refuses to compare
// (unexported fields without options) fall back to reflect.DeepEqual.
func (t *T) XEqual(actual, expected any, opts ...cmp.Option) {
	if equalValues(actual, expected, opts) {
		return
	}
	t.fail(here(), "X_EQUAL", "XEqual", []any{actual, expected}, []string{
		fmt.Sprintf("actual   : %+v", actual),
		fmt.Sprintf("expected : %+v", expected),
	}, "")
}

// IsThrown calls fn and requires it to return or panic with an error that
// matches target in the sense of errors.As. A nil target accepts any error.
// A target errors.As cannot use raises an Exception before fn is called.
func (t *T) IsThrown(target any, fn func() error) {
	s := here()
	if target != nil {
		if msg := checkTarget(target); msg != "" {
			panic(&Exception{Message: msg, File: s.file, Line: s.line})
		}
	}
	thrown, err := catch(fn)
	if !thrown {
		t.fail(s, "IS_THROWN", "IsThrown", []any{target, fn}, nil, "no exception thrown")
	}
	if target == nil {
		return
	}
	if err == nil || !errors.As(err, target) {
		t.fail(s, "IS_THROWN", "IsThrown", []any{target, fn}, nil, "exception thrown, but not a '"+targetName(target)+"'")
	}
}

// Execute runs an external tool and requires a zero exit code. Output goes to
// <OutDir>/<source file>_line<N>.log.
func (t *T) Execute(tool, args string) {
	s := here()
	if err := t.execute(s, tool, args, false); err != nil {
		t.fail(s, "EXECUTE", "Execute", []any{tool, args}, nil, err.Error())
	}
}

// ExecuteFail is Execute for tools that are expected to fail: any exit code is
// accepted as long as the tool started and finished.
func (t *T) ExecuteFail(tool, args string) {
	s := here()
	if err := t.execute(s, tool, args, true); err != nil {
		t.fail(s, "EXECUTE_FAIL", "ExecuteFail", []any{tool, args}, nil, err.Error())
	}
}

func (t *T) execute(s site, tool, args string, ignoreExitCode bool) error {
	return executor.Run(t.ctx, executor.Request{
		Tool:           tool,
		Args:           args,
		IgnoreExitCode: ignoreExitCode,
		LogFile:        executor.LogFileName(t.outDir, s.file, s.line),
		Log:            t.log,
	})
}

// CompareFiles requires two text files to be identical apart from line
// endings and trailing whitespace.
func (t *T) CompareFiles(actual, expected string) {
	if err := compare.TextFiles(actual, expected, 0, true, '\t'); err != nil {
		t.fail(here(), "COMPARE_FILES", "CompareFiles", []any{actual, expected}, nil, err.Error())
	}
}

// CompareFilesDelta is CompareFiles with a numeric tolerance for fields split
// on separator. See compare.TextFiles.
func (t *T) CompareFilesDelta(actual, expected string, delta float64, deltaIsPercentage bool, separator rune) {
	if err := compare.TextFiles(actual, expected, delta, deltaIsPercentage, separator); err != nil {
		t.fail(here(), "COMPARE_FILES_DELTA", "CompareFilesDelta",
			[]any{actual, expected, delta, deltaIsPercentage, separator}, nil, err.Error())
	}
}

func (t *T) CompareGzFiles(actual, expected string) {
	if err := compare.GzipFiles(actual, expected); err != nil {
		t.fail(here(), "COMPARE_GZ_FILES", "CompareGzFiles", []any{actual, expected}, nil, err.Error())
	}
}

// RemoveLines removes all lines matching the regular expression pattern from
// filename.
func (t *T) RemoveLines(filename, pattern string) {
	if err := compare.RemoveMatchingLines(filename, pattern); err != nil {
		t.fail(here(), "REMOVE_LINES", "RemoveLines", []any{filename, pattern}, nil, err.Error())
	}
}

// Skip marks the method as skipped and stops it.
func (t *T) Skip(reason string) {
	t.skip(here(), reason)
}

// SkipUnless skips the method when cond is false.
func (t *T) SkipUnless(cond bool, reason string) {
	if !cond {
		t.skip(here(), reason)
	}
}

// SkipIfMissing skips the method when one of paths does not exist. Use it for
// optional fixtures that are not shipped with the sources.
func (t *T) SkipIfMissing(paths ...string) {
	for _, p := range paths {
		if !exists(p) {
			t.skip(here(), "missing test data '"+p+"'")
		}
	}
}

// TestData resolves a fixture relative to the directory of the calling source
// file. Leading path components are dropped until an existing file is found,
// which makes the lookup work from the source tree and from the working
// directory. A fixture that cannot be found raises an Exception.
func (t *T) TestData(name string) string {
	s := here()
	path := filepath.ToSlash(filepath.Join(filepath.Dir(s.file), name))
	for strings.Contains(path, "/") && !exists(path) {
		path = path[strings.Index(path, "/")+1:]
	}
	if !exists(path) {
		panic(&Exception{Message: fmt.Sprintf("could not find test file '%s'", name), File: s.file, Line: s.line})
	}
	return filepath.FromSlash(path)
}

func (t *T) skip(s site, reason string) {
	t.status.Set(types.TestStatusSkip, types.FailureNone, "message  : "+reason, s.location())
	t.log.Debug("Test skipped", "test", t.name, "reason", reason)
	runtime.Goexit()
}

// fail records an assertion failure and stops the method. The header shows the
// argument expressions as written at the call site when the source is
// available, and the formatted values otherwise.
func (t *T) fail(s site, label, method string, values []any, details []string, message string) {
	exprs := callArgs(s.file, s.line, method)
	if len(exprs) < len(values) {
		exprs = make([]string, len(values))
		for i, v := range values {
			exprs[i] = formatArg(v)
		}
	}
	exprs = exprs[:len(values)]

	lines := make([]string, 0, len(details)+4)
	lines = append(lines, label+"("+strings.Join(exprs, ", ")+") failed")
	lines = append(lines, details...)
	lines = append(lines, s.location())
	if message != "" {
		msg := strings.Split(strings.TrimSpace(message), "\n")
		msg[0] = "message  : " + msg[0]
		lines = append(lines, msg...)
	}

	t.status.Set(types.TestStatusFail, types.FailureAssertion, lines...)
	t.log.Debug("Assertion failed", "test", t.name, "assertion", label, "location", s.location())
	runtime.Goexit()
}

type site struct {
	file string
	line int
}

// here returns the call site of the assertion that called it.
func here() site {
	_, file, line, _ := runtime.Caller(2)
	return site{file: file, line: line}
}

func (s site) location() string {
	return "location : " + filepath.Base(s.file) + ":" + strconv.Itoa(s.line)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// integer is a sign-magnitude form of any Go integer.
type integer struct {
	neg bool
	mag uint64
}

func toInteger(v any) (integer, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 {
			return integer{neg: true, mag: uint64(-(i + 1)) + 1}, true
		}
		return integer{mag: uint64(i)}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return integer{mag: rv.Uint()}, true
	}
	return integer{}, false
}

func formatInteger(v any, ok bool) string {
	if !ok {
		return fmt.Sprintf("%v (not an integer)", v)
	}
	return fmt.Sprintf("%d", v)
}

func floatDetails(actual, expected, delta float64) []string {
	return []string{
		"actual   : " + formatFloat(actual),
		"expected : " + formatFloat(expected),
		"max delta: " + formatFloat(delta),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatArg(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case float64:
		return formatFloat(x)
	case nil:
		return "nil"
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "func"
	}
	return fmt.Sprintf("%v", v)
}

func equalValues(actual, expected any, opts []cmp.Option) (equal bool) {
	defer func() {
		if r := recover(); r != nil {
			equal = reflect.DeepEqual(actual, expected)
		}
	}()
	return cmp.Equal(actual, expected, opts...)
}

// catch runs fn and reports whether it returned an error or panicked. err is
// nil when the panic value is not an error.
func catch(fn func() error) (thrown bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			thrown = true
			err, _ = r.(error)
		}
	}()
	err = fn()
	return err != nil, err
}

var errorType = reflect.TypeFor[error]()

// checkTarget returns why target cannot be passed to errors.As, or "".
func checkTarget(target any) string {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Sprintf("IS_THROWN target must be a non-nil pointer, got %T", target)
	}
	if elem := v.Type().Elem(); elem.Kind() != reflect.Interface && !elem.Implements(errorType) {
		return fmt.Sprintf("IS_THROWN target must point to an error or interface type, got %T", target)
	}
	return ""
}

func targetName(target any) string {
	rt := reflect.TypeOf(target)
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.String()
}
