package workshop

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignNoteToCluster(t *testing.T) {
	c, _ := newTestController(t)
	n, err := c.AddStickyNote("idea", 10, 20)
	require.NoError(t, err)
	a, err := c.AddCluster(NewCluster{Title: "A"})
	require.NoError(t, err)
	b, err := c.AddCluster(NewCluster{Title: "B"})
	require.NoError(t, err)

	require.NoError(t, c.AssignNoteToCluster(n.ID, &a.ID))
	s := c.Snapshot()
	assert.Equal(t, []string{n.ID}, clusterNoteIDs(s, a.ID))
	require.NotNil(t, s.StickyNoteExercise.Notes[0].ClusterID)
	assert.Equal(t, a.ID, *s.StickyNoteExercise.Notes[0].ClusterID)

	// Moving to another cluster leaves exactly one membership.
	require.NoError(t, c.AssignNoteToCluster(n.ID, &b.ID))
	s = c.Snapshot()
	assert.Empty(t, clusterNoteIDs(s, a.ID))
	assert.Equal(t, []string{n.ID}, clusterNoteIDs(s, b.ID))

	require.NoError(t, c.AssignNoteToCluster(n.ID, nil))
	s = c.Snapshot()
	assert.Nil(t, s.StickyNoteExercise.Notes[0].ClusterID)
	assert.Empty(t, clusterNoteIDs(s, b.ID))
}

func TestAssignNoteToCluster_UnknownReferences(t *testing.T) {
	c, _ := newTestController(t)
	n, err := c.AddStickyNote("idea", 0, 0)
	require.NoError(t, err)
	before := c.Snapshot()

	err = c.AssignNoteToCluster(n.ID, String("no-such-cluster"))
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Equal(t, before, c.Snapshot())

	cl, err := c.AddCluster(NewCluster{Title: "A"})
	require.NoError(t, err)
	before = c.Snapshot()

	assert.NoError(t, c.AssignNoteToCluster("no-such-note", &cl.ID))
	assert.Equal(t, before, c.Snapshot())
}

func TestAddCluster_WithInitialNotes(t *testing.T) {
	c, _ := newTestController(t)
	n1, _ := c.AddStickyNote("one", 0, 0)
	n2, _ := c.AddStickyNote("two", 0, 0)
	old, err := c.AddCluster(NewCluster{Title: "old", NoteIDs: []string{n1.ID}})
	require.NoError(t, err)

	cl, err := c.AddCluster(NewCluster{Title: "new", NoteIDs: []string{n1.ID, n2.ID, n2.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{n1.ID, n2.ID}, cl.NoteIDs)

	s := c.Snapshot()
	assert.Empty(t, clusterNoteIDs(s, old.ID))
	assert.NoError(t, s.CheckIntegrity())

	before := c.Snapshot()
	_, err = c.AddCluster(NewCluster{Title: "bad", NoteIDs: []string{n1.ID, "ghost"}})
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Equal(t, before, c.Snapshot())
}

func TestDeleteCluster_ClearsNotes(t *testing.T) {
	c, _ := newTestController(t)
	n, _ := c.AddStickyNote("one", 0, 0)
	cl, _ := c.AddCluster(NewCluster{Title: "A", NoteIDs: []string{n.ID}})

	require.NoError(t, c.DeleteCluster(cl.ID))
	s := c.Snapshot()
	assert.Empty(t, s.StickyNoteExercise.Clusters)
	assert.Nil(t, s.StickyNoteExercise.Notes[0].ClusterID)

	// Deleting again is a no-op.
	assert.NoError(t, c.DeleteCluster(cl.ID))
}

func TestDeleteStickyNote_RemovesMembership(t *testing.T) {
	c, _ := newTestController(t)
	n, _ := c.AddStickyNote("one", 0, 0)
	cl, _ := c.AddCluster(NewCluster{Title: "A", NoteIDs: []string{n.ID}})

	require.NoError(t, c.DeleteStickyNote(n.ID))
	s := c.Snapshot()
	assert.Empty(t, s.StickyNoteExercise.Notes)
	assert.Empty(t, clusterNoteIDs(s, cl.ID))
	assert.NoError(t, c.DeleteStickyNote(n.ID))
}

func TestUpdateAndMoveStickyNote(t *testing.T) {
	c, _ := newTestController(t)
	n, _ := c.AddStickyNote("draft", 0, 0)

	require.NoError(t, c.UpdateStickyNote(n.ID, StickyNotePatch{Text: String("final")}))
	require.NoError(t, c.MoveStickyNote(n.ID, 5, 6))

	got := c.Snapshot().StickyNoteExercise.Notes[0]
	assert.Equal(t, "final", got.Text)
	assert.Equal(t, 5.0, got.X)
	assert.Equal(t, 6.0, got.Y)
}

func TestClusterGeometryAndSummary(t *testing.T) {
	c, _ := newTestController(t)
	cl, _ := c.AddCluster(NewCluster{Title: "A", Width: 100, Height: 100})

	require.NoError(t, c.MoveCluster(cl.ID, 10, 20))
	require.NoError(t, c.ResizeCluster(cl.ID, 300, 400))
	require.NoError(t, c.UpdateCluster(cl.ID, ClusterPatch{Title: String("Renamed")}))
	require.NoError(t, c.SetClusterSummary(cl.ID, "summary"))
	assert.ErrorIs(t, c.SetClusterSummary("ghost", "x"), ErrInvalidReference)

	got := c.Snapshot().StickyNoteExercise.Clusters[0]
	assert.Equal(t, Cluster{
		ID: cl.ID, Title: "Renamed", NoteIDs: []string{}, AISummary: "summary",
		X: 10, Y: 20, Width: 300, Height: 400,
	}, got)
}

// Random sequences of note/cluster operations must keep note.clusterId and
// cluster.noteIds in agreement.
func TestNoteClusterDuality_RandomSequences(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7))
		c, _ := newTestController(t)

		pick := func(ids []string) string {
			if len(ids) == 0 || rng.IntN(10) == 0 {
				return "unknown"
			}
			return ids[rng.IntN(len(ids))]
		}

		for step := 0; step < 200; step++ {
			s := c.Snapshot()
			var noteIDs, clusterIDs []string
			for _, n := range s.StickyNoteExercise.Notes {
				noteIDs = append(noteIDs, n.ID)
			}
			for _, cl := range s.StickyNoteExercise.Clusters {
				clusterIDs = append(clusterIDs, cl.ID)
			}

			switch rng.IntN(7) {
			case 0, 1:
				_, _ = c.AddStickyNote("n", 0, 0)
			case 2:
				var initial []string
				for range rng.IntN(3) {
					initial = append(initial, pick(noteIDs))
				}
				_, _ = c.AddCluster(NewCluster{Title: "c", NoteIDs: initial})
			case 3:
				cid := pick(clusterIDs)
				_ = c.AssignNoteToCluster(pick(noteIDs), &cid)
			case 4:
				_ = c.AssignNoteToCluster(pick(noteIDs), nil)
			case 5:
				_ = c.DeleteStickyNote(pick(noteIDs))
			case 6:
				_ = c.DeleteCluster(pick(clusterIDs))
			}

			snap := c.Snapshot()
			require.NoError(t, snap.CheckIntegrity(), "seed %d step %d", seed, step)
		}
	}
}

func clusterNoteIDs(s SessionState, clusterID string) []string {
	i := slices.IndexFunc(s.StickyNoteExercise.Clusters, func(c Cluster) bool { return c.ID == clusterID })
	if i < 0 {
		return nil
	}
	return s.StickyNoteExercise.Clusters[i].NoteIDs
}
