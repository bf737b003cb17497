package model

import (
	"strings"
	"time"
)

// Task is a dated to-do item.
type Task struct {
	Meta        `bson:",inline"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Date        time.Time `json:"date" bson:"date"`
	Category    Category  `json:"category" bson:"category"`
	Priority    Priority  `json:"priority" bson:"priority"`
	Completed   bool      `json:"completed" bson:"completed"`
	Notes       string    `json:"notes" bson:"notes"`
}

// DocDate returns the date the task is scheduled for.
func (t Task) DocDate() time.Time { return t.Date }

// TaskInput is the request body for creating a task.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Notes       string `json:"notes,omitempty"`
}

// Build validates the input and returns an unsaved task for userID.
// Date defaults to now and the task starts incomplete.
func (in TaskInput) Build(userID string, clock Clock) (Task, error) {
	var (
		t   Task
		err error
	)
	if t.Title, err = requiredString("title", in.Title); err != nil {
		return Task{}, err
	}
	if t.Description, err = requiredString("description", in.Description); err != nil {
		return Task{}, err
	}
	if t.Date, err = optionalDate(clock, in.Date); err != nil {
		return Task{}, err
	}
	if t.Category, err = ParseCategory(in.Category); err != nil {
		return Task{}, err
	}
	if t.Priority, err = ParsePriority(in.Priority); err != nil {
		return Task{}, err
	}
	t.Notes = strings.TrimSpace(in.Notes)
	t.UserID = userID
	return t, nil
}

// TaskPatch is the request body for a partial task update. Nil fields are
// left unchanged.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Category    *string `json:"category,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// Fields validates the patch and returns the stored fields to set.
func (p TaskPatch) Fields(clock Clock) (map[string]any, error) {
	f := make(map[string]any)
	if p.Title != nil {
		s, err := requiredString("title", *p.Title)
		if err != nil {
			return nil, err
		}
		f["title"] = s
	}
	if p.Description != nil {
		s, err := requiredString("description", *p.Description)
		if err != nil {
			return nil, err
		}
		f["description"] = s
	}
	if p.Date != nil {
		d, err := parseDate(clock, *p.Date)
		if err != nil {
			return nil, err
		}
		f[FieldDate] = d
	}
	if p.Category != nil {
		c, err := ParseCategory(*p.Category)
		if err != nil {
			return nil, err
		}
		f["category"] = string(c)
	}
	if p.Priority != nil {
		pr, err := ParsePriority(*p.Priority)
		if err != nil {
			return nil, err
		}
		f["priority"] = string(pr)
	}
	if p.Completed != nil {
		f[FieldCompleted] = *p.Completed
	}
	if p.Notes != nil {
		f["notes"] = strings.TrimSpace(*p.Notes)
	}
	return f, nil
}
