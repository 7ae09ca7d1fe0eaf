// Command csim simulates a set-associative LRU cache on a valgrind memory
// trace and prints the number of hits, misses and evictions.
package main

import (
	"github.com/sarchlab/cachesim/csim/cmd"
)

func main() {
	cmd.Execute()
}
