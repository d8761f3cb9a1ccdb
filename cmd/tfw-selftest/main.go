// Command tfw-selftest runs a test case that exercises every assertion of the
// framework once passing, once skipping and once failing. A full run reports
// 14 passed, 2 skipped and 15 failed methods.
package main

import "github.com/ngs-bits/tfw"

func main() {
	tfw.Main()
}
