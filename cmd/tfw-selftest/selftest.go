package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ngs-bits/tfw"
	"github.com/ngs-bits/tfw/assert"
)

type someType struct {
	i int
}

func init() {
	tfw.Register(tfw.NewCase("Framework_Test").
		// PASS
		Add("IS_TRUE_pass", func(t *tfw.T) {
			t.IsTrue(1+1 == 2)
		}).
		Add("IS_FALSE_pass", func(t *tfw.T) {
			t.IsFalse(1+1 == 3)
		}).
		Add("I_EQUAL_pass", func(t *tfw.T) {
			t.IEqual(2+2, uint(4))
		}).
		Add("S_EQUAL_pass", func(t *tfw.T) {
			t.SEqual(string([]byte("bla")), "bla")
		}).
		Add("F_EQUAL_pass", func(t *tfw.T) {
			t.FEqual(1.0, 1.0+0.000000001)
		}).
		Add("F_EQUAL2_pass", func(t *tfw.T) {
			t.FEqualDelta(1.0, 1.0+0.1, 0.11)
		}).
		Add("X_EQUAL_pass", func(t *tfw.T) {
			t.XEqual(someType{1}, someType{1})
		}).
		Add("IS_THROWN_pass", func(t *tfw.T) {
			var ex *assert.Exception
			t.IsThrown(&ex, func() error {
				assert.Throw("test")
				return nil
			})
		}).
		Add("COMPARE_FILES_pass", func(t *tfw.T) {
			t.CompareFiles(t.TestData("data/in1.txt"), t.TestData("data/in1.txt"))
		}).
		Add("COMPARE_FILES_DELTA_pass", func(t *tfw.T) {
			t.CompareFilesDelta(t.TestData("data/in2.txt"), t.TestData("data/in1.txt"), 0.11, false, '\t')
		}).
		Add("REMOVE_LINES_pass", func(t *tfw.T) {
			tmp := copyToOut(t, t.TestData("data/in3.txt"), "in3.tmp")
			t.RemoveLines(tmp, "fourth")
			t.CompareFiles(tmp, t.TestData("data/in1.txt"))
		}).
		Add("COMPARE_GZ_FILES_pass", func(t *tfw.T) {
			t.CompareGzFiles(t.TestData("data/in1.txt.gz"), t.TestData("data/in1.txt.gz"))
		}).
		Add("EXECUTE_pass", func(t *tfw.T) {
			t.SkipUnless(runtime.GOOS != "windows", "shell scripts need a unix system")
			script := filepath.Join(t.OutDir(), "echo_args.sh")
			if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\"\n"), 0755); err != nil {
				assert.Throwf("could not write %s: %v", script, err)
			}
			t.Execute(script, "hello%20world again")
		}).
		Add("sleeping_pass", func(t *tfw.T) {
			time.Sleep(200 * time.Millisecond)
		}).
		// SKIP
		Add("skipping_inside_test", func(t *tfw.T) {
			t.Skip("skipping test")
			t.SEqual("this assertion is", "never reached")
		}).
		Add("skipping_missing_data", func(t *tfw.T) {
			t.SkipIfMissing(filepath.Join(t.OutDir(), "not_generated.vcf"))
			t.IsTrue(false)
		}).
		// FAIL
		Add("throwing_exception", func(t *tfw.T) {
			assert.Throw("throwing test")
		}).
		Add("panicking_runtime", func(t *tfw.T) {
			var values []int
			_ = values[3]
		}).
		Add("S_EQUAL_fail", func(t *tfw.T) {
			t.SEqual(string([]byte("bla")), "bluff")
		}).
		Add("I_EQUAL_fail", func(t *tfw.T) {
			t.IEqual(2+1, 4)
		}).
		Add("F_EQUAL_fail", func(t *tfw.T) {
			t.FEqual(1.0, 1.0+0.0001)
		}).
		Add("F_EQUAL2_fail", func(t *tfw.T) {
			t.FEqualDelta(1.0, 1.0+0.1, 0.09)
		}).
		Add("IS_TRUE_fail", func(t *tfw.T) {
			t.IsTrue(1+1 == 3)
		}).
		Add("IS_FALSE_fail", func(t *tfw.T) {
			t.IsFalse(2+2 == 4)
		}).
		Add("X_EQUAL_fail", func(t *tfw.T) {
			t.XEqual(someType{1}, someType{2})
		}).
		Add("COMPARE_FILES_fail", func(t *tfw.T) {
			t.CompareFiles(t.TestData("data/in1.txt"), t.TestData("data/in2.txt"))
		}).
		Add("REMOVE_LINES_fail", func(t *tfw.T) {
			tmp := copyToOut(t, t.TestData("data/in3.txt"), "in3.tmp")
			t.RemoveLines(tmp, "string not present")
			t.CompareFiles(tmp, t.TestData("data/in1.txt"))
		}).
		Add("COMPARE_GZ_FILES_fail", func(t *tfw.T) {
			t.CompareGzFiles(t.TestData("data/in1.txt.gz"), t.TestData("data/in2.txt.gz"))
		}).
		Add("EXECUTE_fail", func(t *tfw.T) {
			t.Execute("no_such_tool", "--help")
		}).
		Add("IS_THROWN_fail", func(t *tfw.T) {
			var ex *assert.Exception
			t.IsThrown(&ex, func() error {
				bla := 1
				_ = bla + 1
				return nil
			})
		}).
		Add("IS_THROWN_fail2", func(t *tfw.T) {
			var pathErr *fs.PathError
			t.IsThrown(&pathErr, func() error {
				return errors.New("bla")
			})
		}))
}

// copyToOut copies src into the scratch directory and returns the copy's path.
func copyToOut(t *tfw.T, src, name string) string {
	data, err := os.ReadFile(src)
	if err != nil {
		assert.Throwf("could not read %s: %v", src, err)
	}
	dst := filepath.Join(t.OutDir(), name)
	if err := os.WriteFile(dst, data, 0644); err != nil {
		assert.Throwf("could not write %s: %v", dst, err)
	}
	return dst
}
