package workshop

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/briefwork/llm"
)

// Duration bounds for the workshop, in minutes.
const (
	MinDurationMinutes     = 15
	MaxDurationMinutes     = 480
	DefaultDurationMinutes = 60
)

// SessionState is the whole workshop. The JSON form is the persisted format;
// field names are stable.
type SessionState struct {
	SessionID              string                 `json:"sessionId"`
	CurrentPhase           Phase                  `json:"currentPhase"`
	ProjectContext         ProjectContext         `json:"projectContext"`
	ProjectContextMetadata ProjectContextMetadata `json:"projectContextMetadata"`
	CustomerDiscovery      CustomerDiscovery      `json:"customerDiscovery"`
	StickyNoteExercise     StickyNoteExercise     `json:"stickyNoteExercise"`
	SpotExercises          SpotExercises          `json:"spotExercises"`
	Prioritization         Prioritization         `json:"prioritization"`
	CreativeBrief          *CreativeBrief         `json:"creativeBrief,omitempty"`
	LLMConfig              llm.Config             `json:"llmConfig"`
	Timer                  Timer                  `json:"timer"`
	AIPromptState          *AIPromptState         `json:"aiPromptState,omitempty"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

// ProjectContext frames the project.
type ProjectContext struct {
	ProjectName        string `json:"projectName"`
	ProjectDescription string `json:"projectDescription"`
	Stakeholders       string `json:"stakeholders"`
	Constraints        string `json:"constraints"`
	Timeline           string `json:"timeline"`
	Duration           int    `json:"duration"` // minutes
	Completed          bool   `json:"completed"`
}

// Project context field names used as provenance keys.
const (
	FieldProjectName        = "projectName"
	FieldProjectDescription = "projectDescription"
	FieldStakeholders       = "stakeholders"
	FieldConstraints        = "constraints"
	FieldTimeline           = "timeline"
	FieldDuration           = "duration"
)

// Source says who last wrote a field.
type Source string

// Field sources.
const (
	SourceUser Source = "user"
	SourceAI   Source = "ai"
)

// FieldMetadata records the provenance of one project context field.
// Display only; it never gates a transition.
type FieldMetadata struct {
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// ProjectContextMetadata maps a project context field name to its provenance.
type ProjectContextMetadata map[string]FieldMetadata

// CustomerDiscovery holds the four open questions and the granular answers.
type CustomerDiscovery struct {
	WhoIsThisFor       string             `json:"whoIsThisFor"`
	WhatIsBeingOffered string             `json:"whatIsBeingOffered"`
	WhyNow             string             `json:"whyNow"`
	WhatIsSuccess      string             `json:"whatIsSuccess"`
	GranularQuestions  []GranularQuestion `json:"granularQuestions"`
	Completed          bool               `json:"completed"`
}

// StickyNoteExercise holds notes and the clusters they are grouped into.
// StickyNote.ClusterID and Cluster.NoteIDs describe the same relation and
// are kept consistent by every mutator.
type StickyNoteExercise struct {
	Notes       []StickyNote `json:"notes"`
	Clusters    []Cluster    `json:"clusters"`
	FocusPrompt string       `json:"focusPrompt"`
	Completed   bool         `json:"completed"`
}

// StickyNote is one idea on the board.
type StickyNote struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ClusterID *string `json:"clusterId"`
}

// Cluster groups notes under a title.
type Cluster struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	NoteIDs   []string `json:"noteIds"`
	AISummary string   `json:"aiSummary"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
}

// SpotExercises holds the short-form exercises.
type SpotExercises struct {
	OneSentence       string            `json:"oneSentence"`
	ViewersInMirror   string            `json:"viewersInMirror"`
	Story             []StoryBeat       `json:"story"`
	Failures          []string          `json:"failures"`
	PromisesAndProofs []PromiseAndProof `json:"promisesAndProofs"`
	Constraints       []StyleConstraint `json:"constraints"`
	AISynthesis       string            `json:"aiSynthesis,omitempty"`
	Completed         bool              `json:"completed"`
}

// PromiseAndProof pairs a claim with the visual that proves it.
type PromiseAndProof struct {
	Claim       string `json:"claim"`
	VisualProof string `json:"visualProof"`
}

// StyleConstraint is a production constraint and what it means for style.
type StyleConstraint struct {
	Description      string `json:"description"`
	StyleImplication string `json:"styleImplication"`
}

// Bucket is a prioritization column.
type Bucket string

// Prioritization buckets.
const (
	BucketWillHave  Bucket = "willHave"
	BucketCouldHave Bucket = "couldHave"
	BucketWontHave  Bucket = "wontHave"
)

// Buckets returns the buckets in display order.
func Buckets() []Bucket {
	return []Bucket{BucketWillHave, BucketCouldHave, BucketWontHave}
}

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, error) {
	for _, b := range Buckets() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
}

// RequirementCard is one requirement being prioritized.
type RequirementCard struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Prioritization holds the three buckets. A card is in exactly one bucket.
type Prioritization struct {
	WillHave  []RequirementCard `json:"willHave"`
	CouldHave []RequirementCard `json:"couldHave"`
	WontHave  []RequirementCard `json:"wontHave"`
}

// bucket returns a pointer to the slice for b, or nil.
func (p *Prioritization) bucket(b Bucket) *[]RequirementCard {
	switch b {
	case BucketWillHave:
		return &p.WillHave
	case BucketCouldHave:
		return &p.CouldHave
	case BucketWontHave:
		return &p.WontHave
	}
	return nil
}

// Cards returns the cards of one bucket.
func (p Prioritization) Cards(b Bucket) []RequirementCard {
	if s := p.bucket(b); s != nil {
		return *s
	}
	return nil
}

// Timer is the workshop countdown. Remaining time is derived from StartedAt
// while running; RemainingSeconds is only set while paused.
type Timer struct {
	IsActive         bool       `json:"isActive"`
	IsPaused         bool       `json:"isPaused"`
	StartedAt        *time.Time `json:"startedAt"`
	Duration         int        `json:"duration"` // seconds
	RemainingSeconds *int       `json:"remainingSeconds"`
}

// AIPromptState records the last prompt sent to the model.
type AIPromptState struct {
	OriginalPrompt string `json:"originalPrompt"`
	ModelUsed      string `json:"modelUsed"`
	ProcessingTime int64  `json:"processingTime"` // milliseconds
}

// NewSessionState returns a fresh session at the first phase.
func NewSessionState() *SessionState {
	return newSessionState(uuid.NewString(), time.Now().UTC())
}

func newSessionState(id string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:    id,
		CurrentPhase: PhaseProjectContext,
		ProjectContext: ProjectContext{
			Duration: DefaultDurationMinutes,
		},
		ProjectContextMetadata: ProjectContextMetadata{},
		CustomerDiscovery: CustomerDiscovery{
			GranularQuestions: DefaultGranularQuestions(),
		},
		StickyNoteExercise: StickyNoteExercise{
			Notes:    []StickyNote{},
			Clusters: []Cluster{},
		},
		SpotExercises: SpotExercises{
			Story:             DefaultStoryBeats(),
			Failures:          []string{},
			PromisesAndProofs: []PromiseAndProof{},
			Constraints:       []StyleConstraint{},
		},
		Prioritization: Prioritization{
			WillHave:  []RequirementCard{},
			CouldHave: []RequirementCard{},
			WontHave:  []RequirementCard{},
		},
		LLMConfig: llm.Config{
			Provider: llm.ProviderMock,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.ProjectContextMetadata = maps.Clone(s.ProjectContextMetadata)
	c.CustomerDiscovery.GranularQuestions = slices.Clone(s.CustomerDiscovery.GranularQuestions)

	c.StickyNoteExercise.Notes = make([]StickyNote, len(s.StickyNoteExercise.Notes))
	for i, n := range s.StickyNoteExercise.Notes {
		if n.ClusterID != nil {
			id := *n.ClusterID
			n.ClusterID = &id
		}
		c.StickyNoteExercise.Notes[i] = n
	}
	c.StickyNoteExercise.Clusters = make([]Cluster, len(s.StickyNoteExercise.Clusters))
	for i, cl := range s.StickyNoteExercise.Clusters {
		cl.NoteIDs = slices.Clone(cl.NoteIDs)
		c.StickyNoteExercise.Clusters[i] = cl
	}

	c.SpotExercises.Story = slices.Clone(s.SpotExercises.Story)
	c.SpotExercises.Failures = slices.Clone(s.SpotExercises.Failures)
	c.SpotExercises.PromisesAndProofs = slices.Clone(s.SpotExercises.PromisesAndProofs)
	c.SpotExercises.Constraints = slices.Clone(s.SpotExercises.Constraints)

	c.Prioritization.WillHave = slices.Clone(s.Prioritization.WillHave)
	c.Prioritization.CouldHave = slices.Clone(s.Prioritization.CouldHave)
	c.Prioritization.WontHave = slices.Clone(s.Prioritization.WontHave)

	if s.CreativeBrief != nil {
		b := *s.CreativeBrief
		c.CreativeBrief = &b
	}
	if s.AIPromptState != nil {
		p := *s.AIPromptState
		c.AIPromptState = &p
	}
	if s.Timer.StartedAt != nil {
		t := *s.Timer.StartedAt
		c.Timer.StartedAt = &t
	}
	if s.Timer.RemainingSeconds != nil {
		r := *s.Timer.RemainingSeconds
		c.Timer.RemainingSeconds = &r
	}
	return &c
}

// Normalize fills anything a stored snapshot left out with creation defaults.
// It rebuilds the granular questions and story beats from their catalogs by
// id, so snapshots written before a question was added still load.
func (s *SessionState) Normalize() {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	if !s.CurrentPhase.Valid() {
		s.CurrentPhase = PhaseProjectContext
	}
	if s.ProjectContext.Duration == 0 {
		s.ProjectContext.Duration = DefaultDurationMinutes
	}
	s.ProjectContext.Duration = clampInt(s.ProjectContext.Duration, MinDurationMinutes, MaxDurationMinutes)
	if s.ProjectContextMetadata == nil {
		s.ProjectContextMetadata = ProjectContextMetadata{}
	}

	answers := make(map[string]string, len(s.CustomerDiscovery.GranularQuestions))
	for _, q := range s.CustomerDiscovery.GranularQuestions {
		answers[q.ID] = q.Answer
	}
	s.CustomerDiscovery.GranularQuestions = DefaultGranularQuestions()
	for i := range s.CustomerDiscovery.GranularQuestions {
		s.CustomerDiscovery.GranularQuestions[i].Answer = answers[s.CustomerDiscovery.GranularQuestions[i].ID]
	}

	beats := make(map[string]string, len(s.SpotExercises.Story))
	for _, b := range s.SpotExercises.Story {
		beats[b.ID] = b.Text
	}
	s.SpotExercises.Story = DefaultStoryBeats()
	for i := range s.SpotExercises.Story {
		s.SpotExercises.Story[i].Text = beats[s.SpotExercises.Story[i].ID]
	}

	s.StickyNoteExercise.Notes = nonNil(s.StickyNoteExercise.Notes)
	s.StickyNoteExercise.Clusters = nonNil(s.StickyNoteExercise.Clusters)
	for i := range s.StickyNoteExercise.Clusters {
		s.StickyNoteExercise.Clusters[i].NoteIDs = nonNil(s.StickyNoteExercise.Clusters[i].NoteIDs)
	}
	s.SpotExercises.Failures = nonNil(s.SpotExercises.Failures)
	s.SpotExercises.PromisesAndProofs = nonNil(s.SpotExercises.PromisesAndProofs)
	s.SpotExercises.Constraints = nonNil(s.SpotExercises.Constraints)
	s.Prioritization.WillHave = nonNil(s.Prioritization.WillHave)
	s.Prioritization.CouldHave = nonNil(s.Prioritization.CouldHave)
	s.Prioritization.WontHave = nonNil(s.Prioritization.WontHave)

	if s.LLMConfig.Provider == "" {
		s.LLMConfig.Provider = llm.ProviderMock
	}
}

// CheckIntegrity verifies the cross-references in the state: note/cluster
// membership agrees in both directions and card ids are unique across
// buckets.
func (s *SessionState) CheckIntegrity() error {
	notes := make(map[string]*StickyNote, len(s.StickyNoteExercise.Notes))
	for i := range s.StickyNoteExercise.Notes {
		notes[s.StickyNoteExercise.Notes[i].ID] = &s.StickyNoteExercise.Notes[i]
	}
	clusters := make(map[string]*Cluster, len(s.StickyNoteExercise.Clusters))
	for i := range s.StickyNoteExercise.Clusters {
		clusters[s.StickyNoteExercise.Clusters[i].ID] = &s.StickyNoteExercise.Clusters[i]
	}

	for id, n := range notes {
		if n.ClusterID == nil {
			continue
		}
		cl, ok := clusters[*n.ClusterID]
		if !ok {
			return fmt.Errorf("%w: note %s points at missing cluster %s", ErrInvalidReference, id, *n.ClusterID)
		}
		if !slices.Contains(cl.NoteIDs, id) {
			return fmt.Errorf("%w: note %s not listed by cluster %s", ErrInvalidReference, id, cl.ID)
		}
	}
	for id, cl := range clusters {
		seen := make(map[string]bool, len(cl.NoteIDs))
		for _, nid := range cl.NoteIDs {
			if seen[nid] {
				return fmt.Errorf("%w: cluster %s lists note %s twice", ErrInvalidReference, id, nid)
			}
			seen[nid] = true
			n, ok := notes[nid]
			if !ok {
				return fmt.Errorf("%w: cluster %s lists missing note %s", ErrInvalidReference, id, nid)
			}
			if n.ClusterID == nil || *n.ClusterID != id {
				return fmt.Errorf("%w: cluster %s lists note %s owned elsewhere", ErrInvalidReference, id, nid)
			}
		}
	}

	cards := make(map[string]Bucket)
	for _, b := range Buckets() {
		for _, card := range s.Prioritization.Cards(b) {
			if prev, dup := cards[card.ID]; dup {
				return fmt.Errorf("%w: card %s in both %s and %s", ErrInvalidReference, card.ID, prev, b)
			}
			cards[card.ID] = b
		}
	}
	return nil
}

func (s *SessionState) noteIndex(id string) int {
	return slices.IndexFunc(s.StickyNoteExercise.Notes, func(n StickyNote) bool { return n.ID == id })
}

func (s *SessionState) clusterIndex(id string) int {
	return slices.IndexFunc(s.StickyNoteExercise.Clusters, func(c Cluster) bool { return c.ID == id })
}

// findCard returns the bucket and index holding card id.
func (s *SessionState) findCard(id string) (Bucket, int, bool) {
	for _, b := range Buckets() {
		if i := slices.IndexFunc(s.Prioritization.Cards(b), func(c RequirementCard) bool { return c.ID == id }); i >= 0 {
			return b, i, true
		}
	}
	return "", -1, false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
