// Package quest provides quest tracking and the win-condition evaluator.
package quest

import "fmt"

// Quest is a named objective list. A quest is complete when its completed
// set covers all of its objectives.
type Quest struct {
	// ID uniquely identifies the quest within the snapshot.
	ID string
	// Name is the display name.
	Name string
	// Objectives lists the objective identifiers, in presentation order.
	Objectives []string
	// Completed is the set of finished objective identifiers.
	Completed map[string]bool
}

// New returns a Quest with an initialised completion set.
//
// Precondition: id must be non-empty; objectives must not be empty.
func New(id, name string, objectives []string) *Quest {
	return &Quest{
		ID:         id,
		Name:       name,
		Objectives: objectives,
		Completed:  make(map[string]bool),
	}
}

// CompleteObjective marks objective done.
//
// Postcondition: returns an error if objective is not declared by the
// quest; completing an already-complete objective is a no-op.
func (q *Quest) CompleteObjective(objective string) error {
	for _, o := range q.Objectives {
		if o == objective {
			q.Completed[objective] = true
			return nil
		}
	}
	return fmt.Errorf("quest %q has no objective %q", q.ID, objective)
}

// IsComplete reports whether every objective is in the completed set.
func (q *Quest) IsComplete() bool {
	for _, o := range q.Objectives {
		if !q.Completed[o] {
			return false
		}
	}
	return true
}

// Remaining returns the objectives not yet completed, in declaration order.
func (q *Quest) Remaining() []string {
	var out []string
	for _, o := range q.Objectives {
		if !q.Completed[o] {
			out = append(out, o)
		}
	}
	return out
}
