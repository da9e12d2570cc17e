package workshop

import (
	"fmt"
	"strings"
)

// BriefSections are the eight sections of a creative brief.
type BriefSections struct {
	Overview       string `json:"overview"`
	Audience       string `json:"audience"`
	KeyMessage     string `json:"keyMessage"`
	Objectives     string `json:"objectives"`
	Deliverables   string `json:"deliverables"`
	ToneAndStyle   string `json:"toneAndStyle"`
	Timeline       string `json:"timeline"`
	SuccessMetrics string `json:"successMetrics"`
}

// CreativeBrief holds finished brief text, written by review or by the model.
type CreativeBrief struct {
	BriefSections
	DiscoverySummary string `json:"discoverySummary,omitempty"`
}

// BriefDocument is the export view of a session.
type BriefDocument struct {
	ProjectName string        `json:"projectName"`
	Sections    BriefSections `json:"sections"`
}

// Section is one titled section in display order.
type Section struct {
	Key   string
	Title string
	Text  string
}

// Ordered returns the sections with their wire keys and titles.
func (b BriefSections) Ordered() []Section {
	return []Section{
		{"overview", "Overview", b.Overview},
		{"audience", "Audience", b.Audience},
		{"keyMessage", "Key Message", b.KeyMessage},
		{"objectives", "Objectives", b.Objectives},
		{"deliverables", "Deliverables", b.Deliverables},
		{"toneAndStyle", "Tone and Style", b.ToneAndStyle},
		{"timeline", "Timeline", b.Timeline},
		{"successMetrics", "Success Metrics", b.SuccessMetrics},
	}
}

// BriefDocument builds the brief. Sections present in CreativeBrief win;
// missing ones are composed from the workshop answers.
func (s *SessionState) BriefDocument() BriefDocument {
	composed := s.composeBrief()
	out := composed
	if s.CreativeBrief != nil {
		cb := s.CreativeBrief.BriefSections
		pick := func(written, fallback string) string {
			if strings.TrimSpace(written) != "" {
				return written
			}
			return fallback
		}
		out = BriefSections{
			Overview:       pick(cb.Overview, composed.Overview),
			Audience:       pick(cb.Audience, composed.Audience),
			KeyMessage:     pick(cb.KeyMessage, composed.KeyMessage),
			Objectives:     pick(cb.Objectives, composed.Objectives),
			Deliverables:   pick(cb.Deliverables, composed.Deliverables),
			ToneAndStyle:   pick(cb.ToneAndStyle, composed.ToneAndStyle),
			Timeline:       pick(cb.Timeline, composed.Timeline),
			SuccessMetrics: pick(cb.SuccessMetrics, composed.SuccessMetrics),
		}
	}

	name := s.ProjectContext.ProjectName
	if name == "" {
		name = "Untitled Project"
	}
	return BriefDocument{ProjectName: name, Sections: out}
}

// BriefDocument builds the brief from the current state.
func (c *Controller) BriefDocument() BriefDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.BriefDocument()
}

func (s *SessionState) composeBrief() BriefSections {
	cd := s.CustomerDiscovery
	se := s.SpotExercises
	answers := func(cat QuestionCategory) []string {
		var out []string
		for _, q := range QuestionsByCategory(cd.GranularQuestions, cat) {
			if a := strings.TrimSpace(q.Answer); a != "" {
				out = append(out, a)
			}
		}
		return out
	}

	var deliverables []string
	for _, card := range s.Prioritization.WillHave {
		deliverables = append(deliverables, card.Description)
	}

	var tone []string
	if se.ViewersInMirror != "" {
		tone = append(tone, se.ViewersInMirror)
	}
	for _, c := range se.Constraints {
		if c.StyleImplication != "" {
			tone = append(tone, c.StyleImplication)
		}
	}

	keyMessage := se.OneSentence
	if keyMessage == "" {
		keyMessage = cd.WhatIsBeingOffered
	}

	overview := s.ProjectContext.ProjectDescription
	if summary := clusterSummaries(s); summary != "" {
		overview = joinParagraphs(overview, summary)
	}

	return BriefSections{
		Overview:       overview,
		Audience:       joinParagraphs(cd.WhoIsThisFor, bullets(answers(CategoryAudience))),
		KeyMessage:     keyMessage,
		Objectives:     joinParagraphs(cd.WhatIsSuccess, bullets(answers(CategoryOffering))),
		Deliverables:   bullets(deliverables),
		ToneAndStyle:   bullets(tone),
		Timeline:       joinParagraphs(s.ProjectContext.Timeline, cd.WhyNow, bullets(answers(CategoryTiming))),
		SuccessMetrics: bullets(answers(CategorySuccess)),
	}
}

func clusterSummaries(s *SessionState) string {
	var lines []string
	for _, cl := range s.StickyNoteExercise.Clusters {
		if cl.AISummary != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", cl.Title, cl.AISummary))
		}
	}
	return bullets(lines)
}

func bullets(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "- " + strings.Join(items, "\n- ")
}

func joinParagraphs(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
