package l2frames

// Action is one point of a haptic timeline: a position in [0, 100] at a
// millisecond timestamp. Timelines are ordered by At with no duplicates.
type Action struct {
	At  int64 `json:"at"`
	Pos int   `json:"pos"`
}
