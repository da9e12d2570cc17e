package workshop

import "fmt"

// Phase is a step of the guided workshop.
//
// Phase flow:
//
//	project-context -> customer-discovery -> [sticky-notes-diverge ->
//	sticky-notes-converge -> spot-exercises] -> prioritization ->
//	synthesis-review -> brief-complete
//
// NextPhase and PreviousPhase move one step in this order. The bracketed
// phases are optional; a controller built with WithSkipOptionalPhases(true)
// steps over them, except when the session is already inside one. SetPhase
// can jump anywhere.
type Phase string

const (
	// PhaseProjectContext frames the project: name, description, stakeholders.
	PhaseProjectContext Phase = "project-context"

	// PhaseCustomerDiscovery collects the four open questions and the
	// granular audience/offering/timing/success answers.
	PhaseCustomerDiscovery Phase = "customer-discovery"

	// PhaseStickyNotesDiverge is free-form idea capture on sticky notes.
	PhaseStickyNotesDiverge Phase = "sticky-notes-diverge"

	// PhaseStickyNotesConverge groups notes into clusters.
	PhaseStickyNotesConverge Phase = "sticky-notes-converge"

	// PhaseSpotExercises covers the pitch, story beats and promise/proof lists.
	PhaseSpotExercises Phase = "spot-exercises"

	// PhasePrioritization sorts requirement cards into will/could/won't have.
	PhasePrioritization Phase = "prioritization"

	// PhaseSynthesisReview reviews AI syntheses before the brief is compiled.
	PhaseSynthesisReview Phase = "synthesis-review"

	// PhaseBriefComplete is terminal.
	PhaseBriefComplete Phase = "brief-complete"
)

var phaseOrder = []Phase{
	PhaseProjectContext,
	PhaseCustomerDiscovery,
	PhaseStickyNotesDiverge,
	PhaseStickyNotesConverge,
	PhaseSpotExercises,
	PhasePrioritization,
	PhaseSynthesisReview,
	PhaseBriefComplete,
}

var optionalPhases = map[Phase]bool{
	PhaseStickyNotesDiverge:  true,
	PhaseStickyNotesConverge: true,
	PhaseSpotExercises:       true,
}

var phaseTitles = map[Phase]string{
	PhaseProjectContext:      "Project Context",
	PhaseCustomerDiscovery:   "Customer Discovery",
	PhaseStickyNotesDiverge:  "Sticky Notes: Diverge",
	PhaseStickyNotesConverge: "Sticky Notes: Converge",
	PhaseSpotExercises:       "Spot Exercises",
	PhasePrioritization:      "Prioritization",
	PhaseSynthesisReview:     "Synthesis Review",
	PhaseBriefComplete:       "Brief Complete",
}

// Phases returns every phase in workshop order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// ParsePhase validates a phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
	return p, nil
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Index returns the position of p in the workshop order, or -1.
func (p Phase) Index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Optional reports whether p is one of the skippable exercise phases.
func (p Phase) Optional() bool {
	return optionalPhases[p]
}

// Title returns a display name.
func (p Phase) Title() string {
	if t, ok := phaseTitles[p]; ok {
		return t
	}
	return string(p)
}

// nextPhase walks forward from p. With skipOptional it steps over optional
// phases unless p is optional itself.
func nextPhase(p Phase, skipOptional bool) (Phase, error) {
	return stepPhase(p, 1, skipOptional, ErrTerminalPhase)
}

func previousPhase(p Phase, skipOptional bool) (Phase, error) {
	return stepPhase(p, -1, skipOptional, ErrFirstPhase)
}

func stepPhase(p Phase, dir int, skipOptional bool, boundary error) (Phase, error) {
	i := p.Index()
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, p)
	}
	skip := skipOptional && !p.Optional()
	for i += dir; i >= 0 && i < len(phaseOrder); i += dir {
		if skip && phaseOrder[i].Optional() {
			continue
		}
		return phaseOrder[i], nil
	}
	return "", boundary
}
