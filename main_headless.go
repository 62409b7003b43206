//go:build !desktop

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Without the desktop tag the app evaluates a script from a file or stdin
// and prints the parts it would show.
func main() {
	var (
		src []byte
		err error
	)
	if len(os.Args) > 1 {
		src, err = os.ReadFile(os.Args[1])
	} else {
		src, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		logrus.WithError(err).Fatal("cannot read source")
	}

	result := NewApp().Evaluate(string(src))
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: line %d: %s\n", e.Line, e.Message)
	}
	for _, m := range result.Meshes {
		fmt.Printf("%s\t%s\t%d triangles\n", m.PartName, m.Color, len(m.Indices)/3)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
