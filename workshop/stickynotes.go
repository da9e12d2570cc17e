package workshop

import (
	"fmt"
	"slices"
)

// StickyNotePatch is a partial update of a note.
type StickyNotePatch struct {
	Text *string
	X    *float64
	Y    *float64
}

// NewCluster describes a cluster to create. NoteIDs, if any, are moved into
// the new cluster.
type NewCluster struct {
	Title   string
	NoteIDs []string
	X       float64
	Y       float64
	Width   float64
	Height  float64
}

// ClusterPatch is a partial update of a cluster's title and geometry.
type ClusterPatch struct {
	Title  *string
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
}

// AddStickyNote creates an unclustered note.
func (c *Controller) AddStickyNote(text string, x, y float64) (StickyNote, error) {
	note := StickyNote{ID: c.newID(), Text: text, X: x, Y: y}
	err := c.mutate(func(s *SessionState) error {
		s.StickyNoteExercise.Notes = append(s.StickyNoteExercise.Notes, note)
		return nil
	})
	return note, err
}

// UpdateStickyNote merges p into note id. Unknown ids are a no-op.
func (c *Controller) UpdateStickyNote(id string, p StickyNotePatch) error {
	return c.mutate(func(s *SessionState) error {
		i := s.noteIndex(id)
		if i < 0 {
			return errNoChange
		}
		n := &s.StickyNoteExercise.Notes[i]
		setIf(&n.Text, p.Text)
		setIf(&n.X, p.X)
		setIf(&n.Y, p.Y)
		return nil
	})
}

// MoveStickyNote sets the board position of a note.
func (c *Controller) MoveStickyNote(id string, x, y float64) error {
	return c.UpdateStickyNote(id, StickyNotePatch{X: &x, Y: &y})
}

// DeleteStickyNote removes a note and its cluster membership.
func (c *Controller) DeleteStickyNote(id string) error {
	return c.mutate(func(s *SessionState) error {
		i := s.noteIndex(id)
		if i < 0 {
			return errNoChange
		}
		detachNote(s, id)
		s.StickyNoteExercise.Notes = slices.Delete(s.StickyNoteExercise.Notes, i, i+1)
		return nil
	})
}

// SetFocusPrompt sets the question the sticky note exercise is answering.
func (c *Controller) SetFocusPrompt(prompt string) error {
	return c.mutate(func(s *SessionState) error {
		s.StickyNoteExercise.FocusPrompt = prompt
		return nil
	})
}

// AssignNoteToCluster moves a note into a cluster, or out of any cluster
// when clusterID is nil. An unknown note is a no-op; an unknown cluster is
// ErrInvalidReference.
func (c *Controller) AssignNoteToCluster(noteID string, clusterID *string) error {
	return c.mutate(func(s *SessionState) error {
		if clusterID != nil && s.clusterIndex(*clusterID) < 0 {
			return fmt.Errorf("%w: cluster %q", ErrInvalidReference, *clusterID)
		}
		i := s.noteIndex(noteID)
		if i < 0 {
			return errNoChange
		}
		current := s.StickyNoteExercise.Notes[i].ClusterID
		if current == nil && clusterID == nil {
			return errNoChange
		}
		if current != nil && clusterID != nil && *current == *clusterID {
			return errNoChange
		}

		detachNote(s, noteID)
		if clusterID != nil {
			attachNote(s, noteID, *clusterID)
		}
		return nil
	})
}

// AddCluster creates a cluster, moving any listed notes into it. Unknown
// note ids are rejected with ErrInvalidReference.
func (c *Controller) AddCluster(data NewCluster) (Cluster, error) {
	cluster := Cluster{
		ID:      c.newID(),
		Title:   data.Title,
		NoteIDs: []string{},
		X:       data.X,
		Y:       data.Y,
		Width:   data.Width,
		Height:  data.Height,
	}
	err := c.mutate(func(s *SessionState) error {
		for _, id := range data.NoteIDs {
			if s.noteIndex(id) < 0 {
				return fmt.Errorf("%w: note %q", ErrInvalidReference, id)
			}
		}
		s.StickyNoteExercise.Clusters = append(s.StickyNoteExercise.Clusters, cluster)
		for _, id := range data.NoteIDs {
			detachNote(s, id)
			attachNote(s, id, cluster.ID)
		}
		cluster = s.StickyNoteExercise.Clusters[s.clusterIndex(cluster.ID)]
		cluster.NoteIDs = slices.Clone(cluster.NoteIDs)
		return nil
	})
	if err != nil {
		return Cluster{}, err
	}
	return cluster, nil
}

// UpdateCluster merges p into cluster id. Unknown ids are a no-op.
func (c *Controller) UpdateCluster(id string, p ClusterPatch) error {
	return c.mutate(func(s *SessionState) error {
		i := s.clusterIndex(id)
		if i < 0 {
			return errNoChange
		}
		cl := &s.StickyNoteExercise.Clusters[i]
		setIf(&cl.Title, p.Title)
		setIf(&cl.X, p.X)
		setIf(&cl.Y, p.Y)
		setIf(&cl.Width, p.Width)
		setIf(&cl.Height, p.Height)
		return nil
	})
}

// MoveCluster sets the position of a cluster.
func (c *Controller) MoveCluster(id string, x, y float64) error {
	return c.UpdateCluster(id, ClusterPatch{X: &x, Y: &y})
}

// ResizeCluster sets the size of a cluster.
func (c *Controller) ResizeCluster(id string, width, height float64) error {
	return c.UpdateCluster(id, ClusterPatch{Width: &width, Height: &height})
}

// DeleteCluster removes a cluster and unassigns its notes.
func (c *Controller) DeleteCluster(id string) error {
	return c.mutate(func(s *SessionState) error {
		i := s.clusterIndex(id)
		if i < 0 {
			return errNoChange
		}
		for j := range s.StickyNoteExercise.Notes {
			n := &s.StickyNoteExercise.Notes[j]
			if n.ClusterID != nil && *n.ClusterID == id {
				n.ClusterID = nil
			}
		}
		s.StickyNoteExercise.Clusters = slices.Delete(s.StickyNoteExercise.Clusters, i, i+1)
		return nil
	})
}

// SetClusterSummary stores the AI summary of a cluster.
func (c *Controller) SetClusterSummary(id, summary string) error {
	return c.mutate(func(s *SessionState) error {
		i := s.clusterIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: cluster %q", ErrInvalidReference, id)
		}
		s.StickyNoteExercise.Clusters[i].AISummary = summary
		return nil
	})
}

// ClusterNotes returns the notes of a cluster in cluster order.
func (s *SessionState) ClusterNotes(clusterID string) []StickyNote {
	i := s.clusterIndex(clusterID)
	if i < 0 {
		return nil
	}
	var out []StickyNote
	for _, nid := range s.StickyNoteExercise.Clusters[i].NoteIDs {
		if j := s.noteIndex(nid); j >= 0 {
			out = append(out, s.StickyNoteExercise.Notes[j])
		}
	}
	return out
}

// detachNote removes noteID from whatever cluster holds it and clears the
// note's back-reference.
func detachNote(s *SessionState, noteID string) {
	for i := range s.StickyNoteExercise.Clusters {
		cl := &s.StickyNoteExercise.Clusters[i]
		cl.NoteIDs = slices.DeleteFunc(cl.NoteIDs, func(id string) bool { return id == noteID })
	}
	if i := s.noteIndex(noteID); i >= 0 {
		s.StickyNoteExercise.Notes[i].ClusterID = nil
	}
}

// attachNote links a detached note to an existing cluster.
func attachNote(s *SessionState, noteID, clusterID string) {
	ci := s.clusterIndex(clusterID)
	ni := s.noteIndex(noteID)
	if ci < 0 || ni < 0 {
		return
	}
	cl := &s.StickyNoteExercise.Clusters[ci]
	if !slices.Contains(cl.NoteIDs, noteID) {
		cl.NoteIDs = append(cl.NoteIDs, noteID)
	}
	id := clusterID
	s.StickyNoteExercise.Notes[ni].ClusterID = &id
}
