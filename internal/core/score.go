package core

// Domain weights for the composite score. Weights of absent domains are not
// redistributed; the normalized score is the weighted average over the
// domains that are present.
const (
	academicWeight      = 0.50
	physicalWeight      = 0.25
	psychologicalWeight = 0.25

	scoreFloor   = 40.0
	scoreCeiling = 100.0

	attentionThreshold = 40.0
)

// CompositeInput holds per-domain percentages (0-100). A nil field means the
// student has no data for that domain this cycle; that is valid input, not an
// error.
type CompositeInput struct {
	Academic      *float64
	Physical      *float64
	Psychological *float64
}

type CompositeScore struct {
	// Score is the published composite, always within [40, 100].
	Score float64
	// Normalized is the pre-compression weighted average (0-100), 0 when no
	// domain had data.
	Normalized float64
	// NeedsAttention is evaluated on the normalized score rather than the
	// published one; the floor of 40 would otherwise make it unreachable.
	NeedsAttention bool
}

// ComputeEduSightScore combines the available domain percentages into the
// bounded composite score. Pure function, no state.
func ComputeEduSightScore(in CompositeInput) CompositeScore {
	var sum, weightTotal float64

	add := func(pct *float64, weight float64) {
		if pct == nil {
			return
		}
		sum += weight * *pct
		weightTotal += weight
	}
	add(in.Academic, academicWeight)
	add(in.Physical, physicalWeight)
	add(in.Psychological, psychologicalWeight)

	normalized := 0.0
	if weightTotal > 0 {
		normalized = sum / weightTotal
	}

	score := scoreFloor + normalized*0.6
	if score < scoreFloor {
		score = scoreFloor
	}
	if score > scoreCeiling {
		score = scoreCeiling
	}

	return CompositeScore{
		Score:          score,
		Normalized:     normalized,
		NeedsAttention: weightTotal > 0 && normalized < attentionThreshold,
	}
}
