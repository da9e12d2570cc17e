package workshop

import (
	"fmt"

	"github.com/c360studio/briefwork/llm"
)

// ProjectContextPatch is a partial update. Nil fields are left as they are.
type ProjectContextPatch struct {
	ProjectName        *string
	ProjectDescription *string
	Stakeholders       *string
	Constraints        *string
	Timeline           *string
	Duration           *int
	Completed          *bool
}

// CustomerDiscoveryPatch is a partial update of the open questions.
type CustomerDiscoveryPatch struct {
	WhoIsThisFor       *string
	WhatIsBeingOffered *string
	WhyNow             *string
	WhatIsSuccess      *string
	Completed          *bool
}

// SpotExercisesPatch is a partial update of the scalar spot exercise fields.
// List fields have their own mutators.
type SpotExercisesPatch struct {
	OneSentence     *string
	ViewersInMirror *string
	Completed       *bool
}

// Extraction is project context produced by the model.
type Extraction struct {
	ProjectName        string             `json:"projectName"`
	ProjectDescription string             `json:"projectDescription"`
	Stakeholders       string             `json:"stakeholders,omitempty"`
	Constraints        string             `json:"constraints,omitempty"`
	Timeline           string             `json:"timeline,omitempty"`
	Duration           int                `json:"duration"`
	Confidence         map[string]float64 `json:"confidence,omitempty"`
	GranularAnswers    map[string]string  `json:"granularAnswers,omitempty"`
}

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// UpdateProjectContext merges p into the project context. Duration is clamped
// to [15,480] minutes. Every field set by p is marked as user-provided.
func (c *Controller) UpdateProjectContext(p ProjectContextPatch) error {
	return c.mutate(func(s *SessionState) error {
		pc := &s.ProjectContext
		user := FieldMetadata{Source: SourceUser, Confidence: 1}
		setField := func(dst *string, v *string, field string) {
			if v != nil {
				*dst = *v
				s.ProjectContextMetadata[field] = user
			}
		}
		setField(&pc.ProjectName, p.ProjectName, FieldProjectName)
		setField(&pc.ProjectDescription, p.ProjectDescription, FieldProjectDescription)
		setField(&pc.Stakeholders, p.Stakeholders, FieldStakeholders)
		setField(&pc.Constraints, p.Constraints, FieldConstraints)
		setField(&pc.Timeline, p.Timeline, FieldTimeline)
		if p.Duration != nil {
			pc.Duration = clampInt(*p.Duration, MinDurationMinutes, MaxDurationMinutes)
			s.ProjectContextMetadata[FieldDuration] = user
		}
		if p.Completed != nil {
			pc.Completed = *p.Completed
		}
		return nil
	})
}

// ApplyExtraction writes model-extracted project context into the state.
// Empty strings do not overwrite existing values. Each written field is
// marked as AI-provided with the extracted confidence (0.5 when missing).
// Granular answers with unknown ids are ignored.
func (c *Controller) ApplyExtraction(e Extraction) error {
	return c.mutate(func(s *SessionState) error {
		pc := &s.ProjectContext
		setField := func(dst *string, v string, field string) {
			if v == "" {
				return
			}
			*dst = v
			conf, ok := e.Confidence[field]
			if !ok {
				conf = 0.5
			}
			s.ProjectContextMetadata[field] = FieldMetadata{Source: SourceAI, Confidence: clampFloat(conf, 0, 1)}
		}
		setField(&pc.ProjectName, e.ProjectName, FieldProjectName)
		setField(&pc.ProjectDescription, e.ProjectDescription, FieldProjectDescription)
		setField(&pc.Stakeholders, e.Stakeholders, FieldStakeholders)
		setField(&pc.Constraints, e.Constraints, FieldConstraints)
		setField(&pc.Timeline, e.Timeline, FieldTimeline)
		if e.Duration > 0 {
			pc.Duration = clampInt(e.Duration, MinDurationMinutes, MaxDurationMinutes)
			conf, ok := e.Confidence[FieldDuration]
			if !ok {
				conf = 0.5
			}
			s.ProjectContextMetadata[FieldDuration] = FieldMetadata{Source: SourceAI, Confidence: clampFloat(conf, 0, 1)}
		}

		qs := s.CustomerDiscovery.GranularQuestions
		for i := range qs {
			if a, ok := e.GranularAnswers[qs[i].ID]; ok && a != "" {
				qs[i].Answer = a
			}
		}
		return nil
	})
}

// UpdateCustomerDiscovery merges p into the open discovery questions.
func (c *Controller) UpdateCustomerDiscovery(p CustomerDiscoveryPatch) error {
	return c.mutate(func(s *SessionState) error {
		cd := &s.CustomerDiscovery
		setIf(&cd.WhoIsThisFor, p.WhoIsThisFor)
		setIf(&cd.WhatIsBeingOffered, p.WhatIsBeingOffered)
		setIf(&cd.WhyNow, p.WhyNow)
		setIf(&cd.WhatIsSuccess, p.WhatIsSuccess)
		setIf(&cd.Completed, p.Completed)
		return nil
	})
}

// AnswerGranularQuestion sets the answer of one catalog question.
func (c *Controller) AnswerGranularQuestion(id, answer string) error {
	return c.mutate(func(s *SessionState) error {
		for i := range s.CustomerDiscovery.GranularQuestions {
			q := &s.CustomerDiscovery.GranularQuestions[i]
			if q.ID == id {
				if q.Answer == answer {
					return errNoChange
				}
				q.Answer = answer
				return nil
			}
		}
		return fmt.Errorf("%w: question %q", ErrInvalidReference, id)
	})
}

// UpdateSpotExercises merges p into the spot exercises.
func (c *Controller) UpdateSpotExercises(p SpotExercisesPatch) error {
	return c.mutate(func(s *SessionState) error {
		se := &s.SpotExercises
		setIf(&se.OneSentence, p.OneSentence)
		setIf(&se.ViewersInMirror, p.ViewersInMirror)
		setIf(&se.Completed, p.Completed)
		return nil
	})
}

// SetLLMConfig replaces the provider configuration. Unknown providers are
// rejected with ErrInvalidProvider.
func (c *Controller) SetLLMConfig(provider llm.ProviderName, apiKey, model string) error {
	if _, err := llm.ParseProvider(string(provider)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidProvider, provider)
	}
	return c.mutate(func(s *SessionState) error {
		s.LLMConfig = llm.Config{Provider: provider, APIKey: apiKey, Model: model}
		c.logger.Info("LLM config updated", "session", s.SessionID, "llm", s.LLMConfig)
		return nil
	})
}

// SetCreativeBrief stores finished brief sections. A previously stored
// discovery summary is kept.
func (c *Controller) SetCreativeBrief(b BriefSections) error {
	return c.mutate(func(s *SessionState) error {
		cb := &CreativeBrief{BriefSections: b}
		if s.CreativeBrief != nil {
			cb.DiscoverySummary = s.CreativeBrief.DiscoverySummary
		}
		s.CreativeBrief = cb
		return nil
	})
}

// SetDiscoverySummary stores the synthesized discovery summary.
func (c *Controller) SetDiscoverySummary(text string) error {
	return c.mutate(func(s *SessionState) error {
		if s.CreativeBrief == nil {
			s.CreativeBrief = &CreativeBrief{}
		}
		s.CreativeBrief.DiscoverySummary = text
		return nil
	})
}

// SetAISynthesis stores the exercise synthesis text.
func (c *Controller) SetAISynthesis(text string) error {
	return c.mutate(func(s *SessionState) error {
		s.SpotExercises.AISynthesis = text
		return nil
	})
}

// RecordPrompt stores metadata about the last model call.
func (c *Controller) RecordPrompt(p AIPromptState) error {
	return c.mutate(func(s *SessionState) error {
		s.AIPromptState = &p
		return nil
	})
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
