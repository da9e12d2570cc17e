package workshop

// FillDemoData replaces the session content with a worked example so every
// screen and export has something to show. The session id, phase, timer and
// LLM config are kept.
func (c *Controller) FillDemoData() error {
	return c.mutate(func(s *SessionState) error {
		s.ProjectContext = ProjectContext{
			ProjectName:        "Trailhead Launch Film",
			ProjectDescription: "A two-minute launch film and social cut-downs introducing the Trailhead, a lightweight trail running shoe for first-time trail runners.",
			Stakeholders:       "Head of brand (approver), product manager, retail partnerships lead",
			Constraints:        "Fixed budget, two shoot days, product samples arrive three weeks before launch",
			Timeline:           "Brief sign-off this month, shoot in week six, launch in week ten",
			Duration:           90,
			Completed:          true,
		}
		s.ProjectContextMetadata = ProjectContextMetadata{}
		for _, f := range []string{FieldProjectName, FieldProjectDescription, FieldStakeholders, FieldConstraints, FieldTimeline, FieldDuration} {
			s.ProjectContextMetadata[f] = FieldMetadata{Source: SourceUser, Confidence: 1}
		}

		demoAnswers := map[string]string{
			"audience-primary":            "Road runners aged 25-40 curious about trails but intimidated by them",
			"audience-secondary":          "Specialty running store staff who recommend shoes",
			"audience-pain-points":        "Fear of injury, not knowing where to start, gear that feels made for experts",
			"audience-current-perception": "A solid road brand with no trail credibility",
			"audience-desired-perception": "The brand that makes the first trail run feel easy",
			"offering-core":               "The Trailhead shoe: light, forgiving, grippy on mixed terrain",
			"offering-differentiator":     "Road-shoe comfort with a trail outsole, no break-in needed",
			"offering-proof":              "Wear-test panel of 200 new trail runners, 94% finished their first trail 10k",
			"offering-format":             "Hero film, three social cut-downs, in-store loop",
			"offering-mandatories":        "Logo end card, product close-up, retailer tag",
			"timing-trigger":              "Spring trail season and a competitor launch in the same window",
			"timing-deadline":             "Live by the first weekend of April",
			"timing-milestones":           "Script approval, shoot, rough cut review, final delivery",
			"timing-seasonality":          "Peak search for trail shoes in March and April",
			"success-primary-metric":      "Trailhead sell-through in the first six weeks",
			"success-secondary-metrics":   "Film completion rate, store staff recommendation share",
			"success-qualitative":         "Runners say \"I could do that\" after watching",
			"success-failure-looks-like":  "Viewers think the shoe is only for experts",
			"success-review-cadence":      "Weekly for the first month, then at week ten",
		}
		s.CustomerDiscovery = CustomerDiscovery{
			WhoIsThisFor:       "Confident road runners who have never tried a trail",
			WhatIsBeingOffered: "A trail shoe that feels like the road shoe they already love",
			WhyNow:             "Spring trail season starts in six weeks",
			WhatIsSuccess:      "First-time trail runners pick the Trailhead over expert brands",
			GranularQuestions:  DefaultGranularQuestions(),
			Completed:          true,
		}
		for i := range s.CustomerDiscovery.GranularQuestions {
			s.CustomerDiscovery.GranularQuestions[i].Answer = demoAnswers[s.CustomerDiscovery.GranularQuestions[i].ID]
		}

		s.StickyNoteExercise = StickyNoteExercise{
			FocusPrompt: "What would make a first trail run feel easy?",
			Notes:       []StickyNote{},
			Clusters:    []Cluster{},
			Completed:   true,
		}
		groups := []struct {
			title string
			notes []string
		}{
			{"Confidence", []string{"Knowing the route", "Running with friends", "Shoes that forgive mistakes"}},
			{"Comfort", []string{"No break-in", "Light on the feet", "Soft landings on rocks"}},
			{"Discovery", []string{"Views you never see from the road", "Quiet mornings"}},
		}
		for gi, g := range groups {
			cluster := Cluster{
				ID:      c.newID(),
				Title:   g.title,
				NoteIDs: []string{},
				X:       float64(40 + gi*320),
				Y:       40,
				Width:   280,
				Height:  360,
			}
			s.StickyNoteExercise.Clusters = append(s.StickyNoteExercise.Clusters, cluster)
			for ni, text := range g.notes {
				note := StickyNote{ID: c.newID(), Text: text, X: cluster.X + 20, Y: float64(80 + ni*90)}
				s.StickyNoteExercise.Notes = append(s.StickyNoteExercise.Notes, note)
				attachNote(s, note.ID, cluster.ID)
			}
		}
		s.StickyNoteExercise.Notes = append(s.StickyNoteExercise.Notes,
			StickyNote{ID: c.newID(), Text: "Trail maps in the box?", X: 1000, Y: 80})

		story := DefaultStoryBeats()
		beatText := map[string]string{
			"setup":          "A road runner laces up on the same loop they always run.",
			"conflict":       "A trailhead sign catches their eye; they hesitate.",
			"turning-point":  "A friend hands them a pair of Trailheads.",
			"resolution":     "They finish their first trail, muddy and grinning.",
			"call-to-action": "Find your first trail. Try Trailhead in store.",
		}
		for i := range story {
			story[i].Text = beatText[story[i].ID]
		}
		s.SpotExercises = SpotExercises{
			OneSentence:     "The Trailhead makes your first trail run feel like your favorite road run.",
			ViewersInMirror: "Everyday runners, not athletes; real people, real mud.",
			Story:           story,
			Failures:        []string{"Looks like an ultra-marathon ad", "Product is hard to see", "Feels like stock footage"},
			PromisesAndProofs: []PromiseAndProof{
				{Claim: "No break-in needed", VisualProof: "Out of the box and straight onto the trail"},
				{Claim: "Grips on mixed terrain", VisualProof: "Slow-motion footstrike on wet rock"},
			},
			Constraints: []StyleConstraint{
				{Description: "Two shoot days", StyleImplication: "One location, natural light, handheld"},
				{Description: "Budget for one hero talent", StyleImplication: "Intimate, single-character story"},
			},
			Completed: true,
		}

		s.Prioritization = Prioritization{
			WillHave: []RequirementCard{
				{ID: c.newID(), Description: "Two-minute hero film", Source: "offering-format"},
				{ID: c.newID(), Description: "Three 15-second social cut-downs", Source: "offering-format"},
			},
			CouldHave: []RequirementCard{
				{ID: c.newID(), Description: "In-store looping edit", Source: "offering-format"},
			},
			WontHave: []RequirementCard{
				{ID: c.newID(), Description: "Athlete endorsement", Source: "workshop"},
			},
		}
		s.CreativeBrief = nil
		s.AIPromptState = nil
		return nil
	})
}
