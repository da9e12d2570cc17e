package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/workshop"
)

const clusterSystem = `You are a creative strategist summarizing a sticky-note clustering exercise.

Given a cluster title and its notes, write two or three sentences naming the shared theme and what it means for the creative work. Plain prose, no lists, no headings.`

// ClusterSynthesis builds the prompt that summarizes one cluster.
func ClusterSynthesis(focusPrompt string, cluster workshop.Cluster, notes []workshop.StickyNote) Prompt {
	var b strings.Builder
	b.WriteString(taskLine(llm.TaskClusters))
	writeField(&b, "Focus prompt", focusPrompt)
	fmt.Fprintf(&b, "Cluster title: %s\n", orDash(cluster.Title))
	b.WriteString("Notes:\n")
	for _, n := range notes {
		fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(n.Text))
	}
	return Prompt{Task: llm.TaskClusters, System: clusterSystem, User: b.String()}
}

const discoverySystem = `You are a creative strategist reviewing customer discovery answers.

Summarize the answers in one short paragraph per category (audience, offering, timing, success). Point out contradictions and gaps. Do not invent answers that are missing.`

// DiscoverySynthesis builds the prompt that summarizes customer discovery.
func DiscoverySynthesis(pc workshop.ProjectContext, cd workshop.CustomerDiscovery) Prompt {
	var b strings.Builder
	b.WriteString(taskLine(llm.TaskDiscovery))
	writeField(&b, "Project name", pc.ProjectName)
	writeField(&b, "Project description", pc.ProjectDescription)
	b.WriteString("\nOpen questions:\n")
	writeField(&b, "Who is this for", cd.WhoIsThisFor)
	writeField(&b, "What is being offered", cd.WhatIsBeingOffered)
	writeField(&b, "Why now", cd.WhyNow)
	writeField(&b, "What is success", cd.WhatIsSuccess)
	for _, cat := range workshop.Categories() {
		fmt.Fprintf(&b, "\n%s questions:\n", strings.ToUpper(string(cat[:1]))+string(cat[1:]))
		for _, q := range workshop.QuestionsByCategory(cd.GranularQuestions, cat) {
			fmt.Fprintf(&b, "- %s %s\n", q.Question, orDash(q.Answer))
		}
	}
	return Prompt{Task: llm.TaskDiscovery, System: discoverySystem, User: b.String()}
}

const exerciseSystem = `You are a creative strategist reviewing short workshop exercises.

Synthesize the pitch, the story beats, the failure list, the promises with their proofs, and the production constraints into one paragraph of creative direction. Flag any promise without a convincing visual proof.`

// ExerciseSynthesis builds the prompt that synthesizes the spot exercises.
func ExerciseSynthesis(se workshop.SpotExercises) Prompt {
	var b strings.Builder
	b.WriteString(taskLine(llm.TaskExercises))
	writeField(&b, "One sentence", se.OneSentence)
	writeField(&b, "Viewers in the mirror", se.ViewersInMirror)
	b.WriteString("\nStory:\n")
	for _, beat := range se.Story {
		fmt.Fprintf(&b, "- %s (%s): %s\n", beat.Label, beat.Kind, orDash(beat.Text))
	}
	b.WriteString("\nHow this could fail:\n")
	for _, f := range se.Failures {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nPromises and proofs:\n")
	for _, p := range se.PromisesAndProofs {
		fmt.Fprintf(&b, "- %s => %s\n", p.Claim, orDash(p.VisualProof))
	}
	b.WriteString("\nConstraints:\n")
	for _, c := range se.Constraints {
		fmt.Fprintf(&b, "- %s => %s\n", c.Description, orDash(c.StyleImplication))
	}
	return Prompt{Task: llm.TaskExercises, System: exerciseSystem, User: b.String()}
}

const briefSystem = `You are a senior creative strategist writing the final creative brief.

Use only the workshop material provided. Reply with a single JSON object with exactly these string fields:
overview, audience, keyMessage, objectives, deliverables, toneAndStyle, timeline, successMetrics.
Keep each section under 120 words.`

// Brief builds the prompt that writes the creative brief from the whole
// session. The composed draft is included so the model starts from the
// user's own words.
func Brief(s *workshop.SessionState) Prompt {
	doc := s.BriefDocument()

	var b strings.Builder
	b.WriteString(taskLine(llm.TaskBrief))
	fmt.Fprintf(&b, "Project name: %s\n", doc.ProjectName)
	writeField(&b, "Stakeholders", s.ProjectContext.Stakeholders)
	writeField(&b, "Constraints", s.ProjectContext.Constraints)
	if s.CreativeBrief != nil && s.CreativeBrief.DiscoverySummary != "" {
		writeField(&b, "Discovery summary", s.CreativeBrief.DiscoverySummary)
	}
	if s.SpotExercises.AISynthesis != "" {
		writeField(&b, "Exercise synthesis", s.SpotExercises.AISynthesis)
	}
	b.WriteString("\nDraft sections:\n")
	for _, sec := range doc.Sections.Ordered() {
		fmt.Fprintf(&b, "\n## %s\n%s\n", sec.Title, orDash(sec.Text))
	}
	if len(s.Prioritization.WontHave) > 0 {
		b.WriteString("\nExplicitly out of scope:\n")
		for _, card := range s.Prioritization.WontHave {
			fmt.Fprintf(&b, "- %s\n", card.Description)
		}
	}
	return Prompt{Task: llm.TaskBrief, System: briefSystem, User: b.String()}
}

// BriefResult is the tagged outcome of parsing a brief reply.
type BriefResult struct {
	Success  bool                    `json:"success"`
	Sections *workshop.BriefSections `json:"sections,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// ParseBrief parses a brief reply. At least one section must be present.
func ParseBrief(text string) BriefResult {
	jsonText := llm.ExtractJSON(text)
	if jsonText == "" {
		return BriefResult{Error: "no JSON object found in response"}
	}
	var sections workshop.BriefSections
	if err := json.Unmarshal([]byte(jsonText), &sections); err != nil {
		return BriefResult{Error: fmt.Sprintf("invalid JSON in response: %v", err)}
	}
	for _, sec := range sections.Ordered() {
		if strings.TrimSpace(sec.Text) != "" {
			return BriefResult{Success: true, Sections: &sections}
		}
	}
	return BriefResult{Error: "response has no brief sections"}
}

// ParseSynthesis returns the reply text trimmed of surrounding whitespace.
func ParseSynthesis(text string) string {
	return strings.TrimSpace(text)
}
