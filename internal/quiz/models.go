package quiz

import (
	"errors"
	"time"
)

// Reasons are the per-choice distractor rationales authors attach to a
// question.
type Reasons struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

type Question struct {
	QID        string   `json:"qid"`
	Grade      string   `json:"grade"`
	Domain     string   `json:"domain"`
	Skill      string   `json:"skill"`
	Stem       string   `json:"stem"`
	Choices    []string `json:"choices"`
	Correct    string   `json:"correct"`
	Reasons    Reasons  `json:"reasons"`
	Assets     string   `json:"assets"`
	Difficulty int      `json:"difficulty"`
	Tags       string   `json:"tags"`

	// Delivery-order metadata derived from Tags.
	Group string `json:"group"`
	Step  *int   `json:"step"`
}

// Event is one answer submission. A zero At means the server clock is
// authoritative.
type Event struct {
	UserID    string
	QID       string
	Chosen    string
	Correct   bool
	ElapsedMS int64
	Device    string
	At        time.Time
}

type LogResult struct {
	OK      bool   `json:"ok"`
	Deduped bool   `json:"deduped,omitempty"`
	Via     string `json:"via,omitempty"` // "cache" or "store"
}

type Summary struct {
	Done     int    `json:"done"`
	Corrects int    `json:"corrects"`
	Date     string `json:"date"`
}

type Overlay struct {
	OK     bool  `json:"ok"`
	Cols   int   `json:"cols"`
	Rows   int   `json:"rows"`
	Levels []int `json:"levels"`
}

type Health struct {
	OK           bool      `json:"ok"`
	HasQuestions bool      `json:"hasQuestions"`
	HasResponses bool      `json:"hasResponses"`
	TimeZone     string    `json:"timeZone"`
	Version      string    `json:"version"`
	ServerNow    time.Time `json:"serverNow"`
}

// QuestionQuery selects and orders the served pool.
type QuestionQuery struct {
	Domain string
	UserID string
	Order  string // "random" (default) or "sequential"
	Limit  int    // clamped to [1,50]; 0 means the default of 5
}

var (
	// ErrForbidden carries the most common cause straight to the user:
	// ids typed with full-width digits look identical on screen.
	ErrForbidden = errors.New("user_id is not allowed (hint: check full-width digits/#)")

	// ErrLockTimeout means the append lock could not be acquired within
	// its bounded wait. The caller may retry; dedup makes that safe.
	ErrLockTimeout = errors.New("timed out waiting for the response log lock")

	// ErrSchema marks a misconfigured or incomplete table schema.
	ErrSchema = errors.New("schema error")
)
