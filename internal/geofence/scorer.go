package geofence

// Scorer derives a safety score from a containment result.
type Scorer interface {
	Score(ContainmentResult) SafetyScore
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ContainmentResult) SafetyScore

func (f ScorerFunc) Score(r ContainmentResult) SafetyScore {
	return f(r)
}

// TwoLevel scores Clear outside every zone and Inside otherwise.
type TwoLevel struct {
	Clear  SafetyScore
	Inside SafetyScore
}

func (t TwoLevel) Score(r ContainmentResult) SafetyScore {
	if len(r) == 0 {
		return t.Clear
	}
	return t.Inside
}

var DefaultScorer = TwoLevel{Clear: 90, Inside: 50}
