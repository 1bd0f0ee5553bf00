package models

import (
	"fmt"
	"time"
)

// Project is a top-level planning container.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Links       []Link    `json:"links"`
}

func (p Project) String() string {
	return fmt.Sprintf("%s\t%s", p.ID, p.Name)
}

// Sprint is a time-boxed iteration belonging to a project.
type Sprint struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	Name       string    `json:"name"`
	Goal       string    `json:"goal,omitempty"`
	Status     string    `json:"status,omitempty"`
	StartDate  time.Time `json:"startDate"`
	FinishDate time.Time `json:"finishDate"`
	Links      []Link    `json:"links"`
}

func (s Sprint) String() string {
	const layout = "2006-01-02"
	span := ""
	if !s.StartDate.IsZero() && !s.FinishDate.IsZero() {
		span = fmt.Sprintf(" [%s..%s]", s.StartDate.Format(layout), s.FinishDate.Format(layout))
	}
	return fmt.Sprintf("%s\t%s%s %s", s.ID, s.Name, span, s.Status)
}

// BacklogItem is a unit of work scheduled into a sprint.
type BacklogItem struct {
	ID           string `json:"id"`
	FriendlyID   string `json:"friendlyId,omitempty"`
	Title        string `json:"title"`
	Type         string `json:"type,omitempty"`
	Status       string `json:"status,omitempty"`
	Estimate     *int   `json:"estimate,omitempty"`
	DisplayIndex int    `json:"displayIndex,omitempty"`
	Links        []Link `json:"links"`
}

func (b BacklogItem) String() string {
	id := b.FriendlyID
	if id == "" {
		id = b.ID
	}
	est := "-"
	if b.Estimate != nil {
		est = fmt.Sprintf("%d", *b.Estimate)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", id, est, b.Status, b.Title)
}
