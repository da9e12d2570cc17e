package workshop

import (
	"fmt"
	"slices"
)

// AddFailure appends to the list of ways the work could fail.
func (c *Controller) AddFailure(text string) error {
	return c.mutate(func(s *SessionState) error {
		s.SpotExercises.Failures = append(s.SpotExercises.Failures, text)
		return nil
	})
}

// RemoveFailure removes the failure at index. Out of range is a no-op.
func (c *Controller) RemoveFailure(index int) error {
	return c.mutate(func(s *SessionState) error {
		return removeAt(&s.SpotExercises.Failures, index)
	})
}

// AddPromiseAndProof appends a claim and its visual proof.
func (c *Controller) AddPromiseAndProof(claim, visualProof string) error {
	return c.mutate(func(s *SessionState) error {
		s.SpotExercises.PromisesAndProofs = append(s.SpotExercises.PromisesAndProofs,
			PromiseAndProof{Claim: claim, VisualProof: visualProof})
		return nil
	})
}

// RemovePromiseAndProof removes the pair at index.
func (c *Controller) RemovePromiseAndProof(index int) error {
	return c.mutate(func(s *SessionState) error {
		return removeAt(&s.SpotExercises.PromisesAndProofs, index)
	})
}

// AddConstraint appends a production constraint and its style implication.
func (c *Controller) AddConstraint(description, styleImplication string) error {
	return c.mutate(func(s *SessionState) error {
		s.SpotExercises.Constraints = append(s.SpotExercises.Constraints,
			StyleConstraint{Description: description, StyleImplication: styleImplication})
		return nil
	})
}

// RemoveConstraint removes the constraint at index.
func (c *Controller) RemoveConstraint(index int) error {
	return c.mutate(func(s *SessionState) error {
		return removeAt(&s.SpotExercises.Constraints, index)
	})
}

// SetStoryBeat sets the text of one story beat.
func (c *Controller) SetStoryBeat(id, text string) error {
	return c.mutate(func(s *SessionState) error {
		i := slices.IndexFunc(s.SpotExercises.Story, func(b StoryBeat) bool { return b.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: story beat %q", ErrInvalidReference, id)
		}
		s.SpotExercises.Story[i].Text = text
		return nil
	})
}

func removeAt[T any](s *[]T, index int) error {
	if index < 0 || index >= len(*s) {
		return errNoChange
	}
	*s = slices.Delete(*s, index, index+1)
	return nil
}
