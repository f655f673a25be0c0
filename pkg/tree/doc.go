// Package tree defines the typed block tree for blocktree.
// The tree is a forest of Block roots; functions, objects and string
// leaves nest inside declared child slots. The displayable graph is a
// read-only projection recomputed from the forest on every query.
package tree
