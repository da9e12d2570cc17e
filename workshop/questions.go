package workshop

// QuestionCategory groups granular discovery questions.
type QuestionCategory string

// Question categories, in the order they are asked.
const (
	CategoryAudience QuestionCategory = "audience"
	CategoryOffering QuestionCategory = "offering"
	CategoryTiming   QuestionCategory = "timing"
	CategorySuccess  QuestionCategory = "success"
)

// Categories returns the question categories in order.
func Categories() []QuestionCategory {
	return []QuestionCategory{CategoryAudience, CategoryOffering, CategoryTiming, CategorySuccess}
}

// GranularQuestion is one fixed discovery question and its answer.
type GranularQuestion struct {
	ID       string           `json:"id"`
	Category QuestionCategory `json:"category"`
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
}

// questionCatalog is the fixed list. IDs are persisted and must not change.
var questionCatalog = []GranularQuestion{
	{ID: "audience-primary", Category: CategoryAudience, Question: "Who is the primary audience?"},
	{ID: "audience-secondary", Category: CategoryAudience, Question: "Is there a secondary audience we should keep in mind?"},
	{ID: "audience-pain-points", Category: CategoryAudience, Question: "What problems or frustrations does the audience have today?"},
	{ID: "audience-current-perception", Category: CategoryAudience, Question: "How does the audience see us right now?"},
	{ID: "audience-desired-perception", Category: CategoryAudience, Question: "How should they see us after seeing this work?"},

	{ID: "offering-core", Category: CategoryOffering, Question: "What exactly is being offered?"},
	{ID: "offering-differentiator", Category: CategoryOffering, Question: "What makes it different from the alternatives?"},
	{ID: "offering-proof", Category: CategoryOffering, Question: "What proof do we have that it delivers?"},
	{ID: "offering-format", Category: CategoryOffering, Question: "What formats or channels will carry the message?"},
	{ID: "offering-mandatories", Category: CategoryOffering, Question: "What must be included (logos, legal lines, product shots)?"},

	{ID: "timing-trigger", Category: CategoryTiming, Question: "What is prompting this project now?"},
	{ID: "timing-deadline", Category: CategoryTiming, Question: "When does the work need to be live?"},
	{ID: "timing-milestones", Category: CategoryTiming, Question: "What review or approval milestones are fixed?"},
	{ID: "timing-seasonality", Category: CategoryTiming, Question: "Are there seasonal or market events to align with?"},

	{ID: "success-primary-metric", Category: CategorySuccess, Question: "What single number tells us this worked?"},
	{ID: "success-secondary-metrics", Category: CategorySuccess, Question: "Which supporting indicators will we watch?"},
	{ID: "success-qualitative", Category: CategorySuccess, Question: "What would people say about it if it succeeded?"},
	{ID: "success-failure-looks-like", Category: CategorySuccess, Question: "What would failure look like?"},
	{ID: "success-review-cadence", Category: CategorySuccess, Question: "When and how will results be reviewed?"},
}

// DefaultGranularQuestions returns the catalog with empty answers.
func DefaultGranularQuestions() []GranularQuestion {
	out := make([]GranularQuestion, len(questionCatalog))
	copy(out, questionCatalog)
	return out
}

// IsGranularQuestion reports whether id is in the catalog.
func IsGranularQuestion(id string) bool {
	for _, q := range questionCatalog {
		if q.ID == id {
			return true
		}
	}
	return false
}

// QuestionsByCategory returns the questions of one category, in order.
func QuestionsByCategory(qs []GranularQuestion, cat QuestionCategory) []GranularQuestion {
	var out []GranularQuestion
	for _, q := range qs {
		if q.Category == cat {
			out = append(out, q)
		}
	}
	return out
}

// BeatKind says whether a story beat must be filled in.
type BeatKind string

// Beat kinds.
const (
	BeatRequired BeatKind = "required"
	BeatFlexible BeatKind = "flexible"
)

// StoryBeat is one of the five fixed beats of the story exercise.
type StoryBeat struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Kind  BeatKind `json:"kind"`
	Text  string   `json:"text"`
}

var storyBeats = []StoryBeat{
	{ID: "setup", Label: "Setup", Kind: BeatRequired},
	{ID: "conflict", Label: "Conflict", Kind: BeatRequired},
	{ID: "turning-point", Label: "Turning point", Kind: BeatFlexible},
	{ID: "resolution", Label: "Resolution", Kind: BeatRequired},
	{ID: "call-to-action", Label: "Call to action", Kind: BeatFlexible},
}

// DefaultStoryBeats returns the five beats with empty text.
func DefaultStoryBeats() []StoryBeat {
	out := make([]StoryBeat, len(storyBeats))
	copy(out, storyBeats)
	return out
}
