package model

import (
	"strings"
	"time"
)

// LinkedInPost is a planned LinkedIn post.
type LinkedInPost struct {
	Meta    `bson:",inline"`
	Title   string     `json:"title" bson:"title"`
	Content string     `json:"content,omitempty" bson:"content,omitempty"`
	Date    time.Time  `json:"date" bson:"date"`
	Status  PostStatus `json:"status" bson:"status"`
}

// DocDate returns the publication date.
func (p LinkedInPost) DocDate() time.Time { return p.Date }

// PostInput is the request body for creating a post. Date is required.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Date    string `json:"date"`
	Status  string `json:"status,omitempty"`
}

// Build validates the input and returns an unsaved post for userID. Status
// defaults to scheduled.
func (in PostInput) Build(userID string, clock Clock) (LinkedInPost, error) {
	title, err := requiredString("title", in.Title)
	if err != nil {
		return LinkedInPost{}, err
	}
	if strings.TrimSpace(in.Date) == "" {
		return LinkedInPost{}, Invalid(FieldDate, "date is required")
	}
	date, err := parseDate(clock, in.Date)
	if err != nil {
		return LinkedInPost{}, err
	}
	status := PostScheduled
	if strings.TrimSpace(in.Status) != "" {
		if status, err = ParsePostStatus(in.Status); err != nil {
			return LinkedInPost{}, err
		}
	}
	return LinkedInPost{
		Meta:    Meta{UserID: userID},
		Title:   title,
		Content: strings.TrimSpace(in.Content),
		Date:    date,
		Status:  status,
	}, nil
}

// PostPatch is the request body for a partial post update.
type PostPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Date    *string `json:"date,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// Fields validates the patch and returns the stored fields to set.
func (p PostPatch) Fields(clock Clock) (map[string]any, error) {
	f := make(map[string]any)
	if p.Title != nil {
		s, err := requiredString("title", *p.Title)
		if err != nil {
			return nil, err
		}
		f["title"] = s
	}
	if p.Content != nil {
		f["content"] = strings.TrimSpace(*p.Content)
	}
	if p.Date != nil {
		d, err := parseDate(clock, *p.Date)
		if err != nil {
			return nil, err
		}
		f[FieldDate] = d
	}
	if p.Status != nil {
		s, err := ParsePostStatus(*p.Status)
		if err != nil {
			return nil, err
		}
		f["status"] = string(s)
	}
	return f, nil
}
