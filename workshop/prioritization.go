package workshop

import (
	"fmt"
	"slices"
)

// NewRequirementCard describes a card to add.
type NewRequirementCard struct {
	Description string
	Source      string
}

// RequirementCardPatch is a partial update of a card.
type RequirementCardPatch struct {
	Description *string
	Source      *string
}

// AddRequirementCard appends a card to the will-have bucket.
func (c *Controller) AddRequirementCard(data NewRequirementCard) (RequirementCard, error) {
	card := RequirementCard{ID: c.newID(), Description: data.Description, Source: data.Source}
	err := c.mutate(func(s *SessionState) error {
		s.Prioritization.WillHave = append(s.Prioritization.WillHave, card)
		return nil
	})
	return card, err
}

// MoveRequirementCard moves a card to the end of bucket, including its own
// bucket. Unknown cards are a no-op; unknown buckets are ErrInvalidBucket.
func (c *Controller) MoveRequirementCard(id string, bucket Bucket) error {
	return c.moveCard(id, bucket, -1)
}

// MoveRequirementCardTo moves a card into bucket at index, which is clamped
// to the bucket bounds. It also reorders within a bucket.
func (c *Controller) MoveRequirementCardTo(id string, bucket Bucket, index int) error {
	return c.moveCard(id, bucket, max(index, 0))
}

func (c *Controller) moveCard(id string, bucket Bucket, index int) error {
	if _, err := ParseBucket(string(bucket)); err != nil {
		return err
	}
	return c.mutate(func(s *SessionState) error {
		from, i, ok := s.findCard(id)
		if !ok {
			return errNoChange
		}

		src := s.Prioritization.bucket(from)
		card := (*src)[i]
		*src = slices.Delete(*src, i, i+1)

		dst := s.Prioritization.bucket(bucket)
		if index < 0 || index > len(*dst) {
			index = len(*dst)
		}
		if from == bucket && index == i {
			return errNoChange
		}
		*dst = slices.Insert(*dst, index, card)
		return nil
	})
}

// UpdateRequirementCard merges p into card id. Unknown ids are a no-op.
func (c *Controller) UpdateRequirementCard(id string, p RequirementCardPatch) error {
	return c.mutate(func(s *SessionState) error {
		b, i, ok := s.findCard(id)
		if !ok {
			return errNoChange
		}
		card := &(*s.Prioritization.bucket(b))[i]
		setIf(&card.Description, p.Description)
		setIf(&card.Source, p.Source)
		return nil
	})
}

// DeleteRequirementCard removes a card from its bucket.
func (c *Controller) DeleteRequirementCard(id string) error {
	return c.mutate(func(s *SessionState) error {
		b, i, ok := s.findCard(id)
		if !ok {
			return errNoChange
		}
		cards := s.Prioritization.bucket(b)
		*cards = slices.Delete(*cards, i, i+1)
		return nil
	})
}

// CardBucket returns the bucket holding card id.
func (s *SessionState) CardBucket(id string) (Bucket, error) {
	b, _, ok := s.findCard(id)
	if !ok {
		return "", fmt.Errorf("%w: card %q", ErrInvalidReference, id)
	}
	return b, nil
}
