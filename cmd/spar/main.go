// Command spar builds wing profiles and guide-curve patch networks from
// CPACS profile libraries and spar scripts.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
