package dialogue

// Phase is the narrative stage of the scripted dialogue. The set is
// closed; exactly one phase is current per session.
type Phase string

const (
	PhaseCuriosity Phase = "curiosity"
	PhaseConcern   Phase = "concern"
	PhaseCrisis    Phase = "crisis"
	PhaseRelief    Phase = "relief"
	PhaseAction    Phase = "action"
)

// Valid reports whether p is a member of the closed phase set.
func (p Phase) Valid() bool {
	switch p {
	case PhaseCuriosity, PhaseConcern, PhaseCrisis, PhaseRelief, PhaseAction:
		return true
	}
	return false
}
