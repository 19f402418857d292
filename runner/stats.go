package runner

import "fmt"

// Stats holds statistics for a predictor run.
type Stats struct {
	// Branches is the total number of branches fetched.
	Branches uint64
	// Predictions is the number of resolved conditional branches.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
	// Taken is the number of resolved conditional branches that were taken.
	Taken uint64
	// SpeculativeUpdates is the number of branches fetched while older
	// branches were unresolved.
	SpeculativeUpdates uint64
	// Squashed is the number of branches dropped before resolution.
	Squashed uint64
}

func (s *Stats) record(res Resolution) {
	s.Predictions++
	if res.Branch.Taken {
		s.Taken++
	}
	if res.Correct() {
		s.Correct++
	} else {
		s.Mispredictions++
	}
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// TakenRate returns the share of taken conditional branches as a percentage.
func (s Stats) TakenRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Taken) / float64(s.Predictions) * 100
}

// String summarizes the statistics on one line.
func (s Stats) String() string {
	return fmt.Sprintf("branches=%d predictions=%d correct=%d mispredictions=%d accuracy=%.2f%%",
		s.Branches, s.Predictions, s.Correct, s.Mispredictions, s.Accuracy())
}
