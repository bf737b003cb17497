package model

import "time"

// Cadence distinguishes weekly goals from daily goals.
type Cadence string

const (
	Weekly Cadence = "weekly"
	Daily  Cadence = "daily"
)

// Goal is a weekly or daily goal. The cadence is implied by the collection
// the goal is stored in.
type Goal struct {
	Meta      `bson:",inline"`
	Title     string    `json:"title" bson:"title"`
	Date      time.Time `json:"date" bson:"date"`
	Completed bool      `json:"completed" bson:"completed"`
}

// DocDate returns the date the goal belongs to.
func (g Goal) DocDate() time.Time { return g.Date }

// GoalInput is the request body for creating a goal.
type GoalInput struct {
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
}

// Build validates the input and returns an unsaved goal for userID.
func (in GoalInput) Build(userID string, clock Clock) (Goal, error) {
	title, err := requiredString("title", in.Title)
	if err != nil {
		return Goal{}, err
	}
	date, err := optionalDate(clock, in.Date)
	if err != nil {
		return Goal{}, err
	}
	return Goal{Meta: Meta{UserID: userID}, Title: title, Date: date}, nil
}

// GoalPatch is the request body for a partial goal update.
type GoalPatch struct {
	Title     *string `json:"title,omitempty"`
	Date      *string `json:"date,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Fields validates the patch and returns the stored fields to set.
func (p GoalPatch) Fields(clock Clock) (map[string]any, error) {
	f := make(map[string]any)
	if p.Title != nil {
		s, err := requiredString("title", *p.Title)
		if err != nil {
			return nil, err
		}
		f["title"] = s
	}
	if p.Date != nil {
		d, err := parseDate(clock, *p.Date)
		if err != nil {
			return nil, err
		}
		f[FieldDate] = d
	}
	if p.Completed != nil {
		f[FieldCompleted] = *p.Completed
	}
	return f, nil
}
