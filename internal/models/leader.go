package models

// Leader is one recorded run on the leaderboard. Time and Seconds are stored
// exactly as submitted; neither is computed from the other.
type Leader struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Time     string `json:"time" db:"time"`
	Moves    int    `json:"moves" db:"moves"`
	Seconds  int    `json:"seconds" db:"seconds"`
	Date     string `json:"date" db:"date"`
}

func NewLeader(id int64, username, time string, moves, seconds int, date string) Leader {
	return Leader{
		ID:       id,
		Username: username,
		Time:     time,
		Moves:    moves,
		Seconds:  seconds,
		Date:     date,
	}
}

// LeaderInput is the full wire form of a leader, used for dataset loads.
type LeaderInput struct {
	ID       *int64  `json:"id" validate:"required"`
	Username *string `json:"username" validate:"required"`
	Time     *string `json:"time" validate:"required"`
	Moves    *int    `json:"moves" validate:"required"`
	Seconds  *int    `json:"seconds" validate:"required"`
	Date     *string `json:"date" validate:"required"`
}

func (in LeaderInput) ToLeader() Leader {
	return NewLeader(*in.ID, *in.Username, *in.Time, *in.Moves, *in.Seconds, *in.Date)
}

// LeaderSubmission is a new run before the store has assigned its id.
type LeaderSubmission struct {
	Username *string `json:"username" validate:"required"`
	Time     *string `json:"time" validate:"required"`
	Moves    *int    `json:"moves" validate:"required"`
	Seconds  *int    `json:"seconds" validate:"required"`
	Date     *string `json:"date" validate:"required"`
}

// WithID builds the stored record once an id exists.
func (s LeaderSubmission) WithID(id int64) Leader {
	return NewLeader(id, *s.Username, *s.Time, *s.Moves, *s.Seconds, *s.Date)
}
