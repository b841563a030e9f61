package task

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/aissist/aissist/core"
)

// Categories (closed set)
const (
	CategoryMeeting      = "MEETING"
	CategoryBusinessTrip = "BUSINESS_TRIP"
	CategoryTraining     = "TRAINING"
	CategoryEvent        = "EVENT"
	CategoryClassroom    = "CLASSROOM"
	CategoryTask         = "TASK"
	CategoryOther        = "OTHER"
)

// Priorities (closed set)
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Statuses
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

const (
	categoryOneOf = "oneof=MEETING BUSINESS_TRIP TRAINING EVENT CLASSROOM TASK OTHER"
	priorityOneOf = "oneof=LOW MEDIUM HIGH URGENT"
	statusOneOf   = "oneof=PENDING IN_PROGRESS DONE"

	dueDateLayout = "2006-01-02"
)

type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category"`
	Priority    string      `json:"priority"`
	DueDate     null.Time   `json:"due_date"`
	StartTime   null.Time   `json:"start_time,omitempty"`
	EndTime     null.Time   `json:"end_time,omitempty"`
	Location    null.String `json:"location,omitempty"`
	Materials   null.String `json:"materials,omitempty"`
	Notes       null.String `json:"notes,omitempty"`
	FileURL     null.String `json:"file_url,omitempty"`
	LinkURL     null.String `json:"link_url,omitempty"`
	IsShared    bool        `json:"is_shared"`
	UserID      string      `json:"user_id"` // creator/owner
	RoomID      null.String `json:"room_id,omitempty"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC

	// Completions is scoped by the query that loaded the task: room listings
	// carry every member's record, personal listings only the requester's.
	Completions []Completion `json:"completions,omitempty"`
}

// Completion tracks one member's completion of a task, distinct from the
// task's own status field. At most one row exists per (task, user) pair.
type Completion struct {
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	Completed   bool      `json:"completed"`
	CompletedAt null.Time `json:"completed_at,omitempty"`
}

// CompletedBy reports whether the given user has a completed record on t.
func (t Task) CompletedBy(userID string) bool {
	for _, c := range t.Completions {
		if c.UserID == userID && c.Completed {
			return true
		}
	}
	return false
}

// AllMembersCompleted reports whether every given member has completed t.
// This recomputed predicate, not the task's status field, drives the room
// task list's complete/incomplete split.
func (t Task) AllMembersCompleted(memberIDs []string) bool {
	if len(memberIDs) == 0 {
		return false
	}
	for _, id := range memberIDs {
		if !t.CompletedBy(id) {
			return false
		}
	}
	return true
}

// LatestCompletion returns the most recent completed-at timestamp on t.
func (t Task) LatestCompletion() time.Time {
	var latest time.Time
	for _, c := range t.Completions {
		if c.Completed && c.CompletedAt.Valid && c.CompletedAt.Time.After(latest) {
			latest = c.CompletedAt.Time
		}
	}
	return latest
}

// IsUrgent reports whether t's due date falls within [today-2d, today+1d],
// computed on calendar days. Used for list highlighting only.
func (t Task) IsUrgent(now time.Time) bool {
	if !t.DueDate.Valid {
		return false
	}
	today := now.Truncate(24 * time.Hour)
	due := t.DueDate.Time.Truncate(24 * time.Hour)
	return !due.Before(today.Add(-2*24*time.Hour)) && !due.After(today.Add(24*time.Hour))
}

// NewTask contains information needed to create a new Task.
// Time strings are 24h "HH:MM" and are combined with the due date's date
// portion; the due date is "YYYY-MM-DD" or RFC3339.
type NewTask struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"omitempty,oneof=MEETING BUSINESS_TRIP TRAINING EVENT CLASSROOM TASK OTHER"`
	Priority    string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     string `json:"due_date" validate:"required"`
	StartTime   string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime     string `json:"end_time" validate:"omitempty,hhmm"`
	Location    string `json:"location"`
	Materials   string `json:"materials"`
	Notes       string `json:"notes"`
	FileURL     string `json:"file_url"`
	LinkURL     string `json:"link_url"`
	IsShared    bool   `json:"is_shared"`
	RoomID      string `json:"room_id"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	if _, err := parseDueDate(nt.DueDate); err != nil {
		return core.NewValidationError(nil,
			core.FieldError{Field: "due_date", Error: "must be a valid date (YYYY-MM-DD)"})
	}
	return nil
}

// UpdateTask defines what information may be provided to modify an existing
// Task; only non-nil fields are applied. Dual json/form tags serve both the
// JSON update path and the form-submission path.
type UpdateTask struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Category    *string `json:"category" form:"category" validate:"omitempty,oneof=MEETING BUSINESS_TRIP TRAINING EVENT CLASSROOM TASK OTHER"`
	Priority    *string `json:"priority" form:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	DueDate     *string `json:"due_date" form:"due_date"`
	StartTime   *string `json:"start_time" form:"start_time" validate:"omitempty,hhmm"`
	EndTime     *string `json:"end_time" form:"end_time" validate:"omitempty,hhmm"`
	Location    *string `json:"location" form:"location"`
	Materials   *string `json:"materials" form:"materials"`
	Notes       *string `json:"notes" form:"notes"`
	FileURL     *string `json:"file_url" form:"file_url"`
	LinkURL     *string `json:"link_url" form:"link_url"`
	Status      *string `json:"status" form:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS DONE"`
	IsShared    *bool   `json:"is_shared" form:"is_shared"`
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	if ut.Title != nil {
		title := core.CleanString(*ut.Title)
		if title == "" {
			return core.NewValidationError(nil,
				core.FieldError{Field: "title", Error: "this field is required"})
		}
		ut.Title = &title
	}
	if err := validate.Struct(ut); err != nil {
		return err
	}
	if ut.DueDate != nil {
		if _, err := parseDueDate(*ut.DueDate); err != nil {
			return core.NewValidationError(nil,
				core.FieldError{Field: "due_date", Error: "must be a valid date (YYYY-MM-DD)"})
		}
	}
	return nil
}

func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(dueDateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t.UTC(), err
}

// combineTime merges an "HH:MM" wall-clock string with the date portion of
// due. The caller has already validated the format.
func combineTime(due time.Time, hhmm string) time.Time {
	t, _ := time.Parse("15:04", hhmm)
	return time.Date(due.Year(), due.Month(), due.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// roundMinute rounds a minute count to the nearest multiple of 10. A rounded
// value of 60 wraps to 0 without rolling the hour forward; that quirk is part
// of the form-update contract and covered by tests.
func roundMinute(m int) int {
	r := ((m + 5) / 10) * 10
	if r == 60 {
		return 0
	}
	return r
}

func roundTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), roundMinute(t.Minute()), 0, 0, t.Location())
}

// SortChronological orders tasks by due date ascending with nulls last,
// breaking ties by most recently created first.
func SortChronological(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ti, tj := tasks[i], tasks[j]
		switch {
		case ti.DueDate.Valid && !tj.DueDate.Valid:
			return true
		case !ti.DueDate.Valid && tj.DueDate.Valid:
			return false
		case ti.DueDate.Valid && tj.DueDate.Valid && !ti.DueDate.Time.Equal(tj.DueDate.Time):
			return ti.DueDate.Time.Before(tj.DueDate.Time)
		}
		return ti.CreatedAt.After(tj.CreatedAt)
	})
}
