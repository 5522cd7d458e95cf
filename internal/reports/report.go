package reports

import "time"

// Report is a saved dashboard view plus coach notes: which athlete,
// exercise and range it covers, and optionally the narration text that was
// generated for it.
type Report struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	AthleteID  string    `json:"athleteId"`
	ExerciseID string    `json:"exerciseId"`
	RangeKind  string    `json:"rangeKind"`
	Mode       string    `json:"mode"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
}
