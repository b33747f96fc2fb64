package domain

import "errors"

// Columns lists the board columns in display order. The bulk reorder
// payload addresses columns by position, so the slice order is part of
// the wire contract.
var Columns = []string{"todo", "in-progress", "done"}

// Task represents a single board item.
type Task struct {
	ID          string `json:"id"`
	OwnerEmail  string `json:"ownerEmail"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Order       int    `json:"order"`
	CreatedAt   int64  `json:"createdAt"`
}

// TaskUpdate carries a partial update. Nil fields are left untouched by
// the merge.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// Empty reports whether the update names no fields at all.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Order == nil
}

// Placement is a single (task, category, order) assignment produced by a
// bulk reorder.
type Placement struct {
	TaskID   string
	Category string
	Order    int
}

var (
	// ErrUnknownColumn is returned when the reorder payload carries more
	// column sequences than the board has columns.
	ErrUnknownColumn = errors.New("unknown board column")
	// ErrEmptyTaskRef is returned when a reorder sequence contains an
	// entry without a task id.
	ErrEmptyTaskRef = errors.New("empty task reference")
)

// BuildPlacements flattens the submitted column sequences into placement
// writes. The outer index selects the board column and the zero-based
// position within a column becomes the task's order. This is the only
// place ordering is computed.
func BuildPlacements(columns [][]string) ([]Placement, error) {
	if len(columns) > len(Columns) {
		return nil, ErrUnknownColumn
	}
	var placements []Placement
	for ci, ids := range columns {
		for i, id := range ids {
			if id == "" {
				return nil, ErrEmptyTaskRef
			}
			placements = append(placements, Placement{
				TaskID:   id,
				Category: Columns[ci],
				Order:    i,
			})
		}
	}
	return placements, nil
}
