// Package graph defines the design graph types for spar.
// The design graph is an immutable DAG of wing profiles, the sections that
// place them, the guide curves running between sections and the patch
// networks built from both.
package graph
