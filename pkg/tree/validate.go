package tree

import (
	"fmt"

	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a validation finding breaks a tree
// invariant or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // breaks an invariant
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if forest-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate checks the structural invariants of the forest and returns every
// finding. An empty slice means the forest is a well-formed block tree.
// Validate is read-only.
func Validate(roots []*Node) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRoots(roots)...)
	errs = append(errs, validateIDs(roots)...)
	errs = append(errs, validateSlots(roots)...)
	return errs
}

// HasErrors reports whether errs holds at least one error-severity finding.
func HasErrors(errs []ValidationError) bool {
	return lo.SomeBy(errs, func(e ValidationError) bool {
		return e.Severity == SeverityError
	})
}

// validateRoots checks that every root is root-eligible and carries no
// parent back-reference.
func validateRoots(roots []*Node) []ValidationError {
	var errs []ValidationError
	for _, r := range roots {
		if !Lookup(r.Kind).RootOnly {
			errs = append(errs, ValidationError{
				NodeID:   r.ID,
				Message:  fmt.Sprintf("%s cannot be a root", r.Kind),
				Severity: SeverityError,
			})
		}
		if !r.Parent.IsZero() {
			errs = append(errs, ValidationError{
				NodeID:   r.ID,
				Message:  fmt.Sprintf("root has parent reference %s", r.Parent.Short()),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateIDs checks that no identifier is used twice and that no node is
// reachable through two slots.
func validateIDs(roots []*Node) []ValidationError {
	var errs []ValidationError
	seen := make(map[NodeID]*Node)
	WalkNodes(roots, func(n *Node) bool {
		if n.ID.IsZero() {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("%s node has an empty id", n.Kind),
				Severity: SeverityError,
			})
			return Continue
		}
		if prev, ok := seen[n.ID]; ok {
			msg := "duplicate id"
			if prev == n {
				msg = "node appears in more than one slot"
			}
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  msg,
				Severity: SeverityError,
			})
			return Continue
		}
		seen[n.ID] = n
		return Continue
	})
	return errs
}

// validateSlots checks slot acceptance, slot homogeneity and parent
// back-references for every child.
func validateSlots(roots []*Node) []ValidationError {
	var errs []ValidationError
	WalkNodes(roots, func(n *Node) bool {
		for _, slot := range ChildSlots(n.Kind) {
			accepts := SlotAccepts(n.Kind, slot)
			children := n.Slot(slot)

			leaves := lo.CountBy(children, func(c Child) bool { return c.IsLeaf() })
			if leaves > 0 && leaves < len(children) {
				errs = append(errs, ValidationError{
					NodeID:   n.ID,
					Message:  fmt.Sprintf("slot %q mixes string leaves and nodes", slot),
					Severity: SeverityError,
				})
			}

			for _, c := range children {
				if !lo.Contains(accepts, c.Kind()) {
					errs = append(errs, ValidationError{
						NodeID:   n.ID,
						Message:  fmt.Sprintf("slot %q does not accept %s", slot, c.Kind()),
						Severity: SeverityError,
					})
				}
				if c.IsLeaf() {
					continue
				}
				if c.Node.Parent != n.ID {
					errs = append(errs, ValidationError{
						NodeID:   c.Node.ID,
						Message:  fmt.Sprintf("parent reference %q does not match holder %s", c.Node.Parent, n.ID.Short()),
						Severity: SeverityError,
					})
				}
			}
		}
		return Continue
	})
	return errs
}
