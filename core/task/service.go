package task

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/room"
)

var (
	// errors
	ErrNotFound  = errors.New("task not found")
	ErrNotOwner  = errors.New("only the task creator may do this")
	ErrForbidden = errors.New("no access to this task")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		// GetTask loads the task with all of its completion rows.
		GetTask(ctx context.Context, id string, exec ...core.DBExecutor) (Task, error)
		UpdateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		// DeleteTask cascades to the task's completion rows.
		DeleteTask(ctx context.Context, id string, exec ...core.DBExecutor) error
		// QueryRoomTasks returns a room's tasks with every member's completions.
		QueryRoomTasks(ctx context.Context, roomID string, exec ...core.DBExecutor) ([]Task, error)
		// QueryUserTasks returns the union of tasks owned by the user and tasks
		// in rooms the user belongs to (any role), each carrying only the
		// requesting user's own completion record, ordered by due date
		// ascending (nulls last) then created-at descending.
		QueryUserTasks(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Task, error)
		// UpsertCompletion creates or replaces the (task, user) completion row.
		UpsertCompletion(ctx context.Context, c Completion, exec ...core.DBExecutor) (Completion, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID string, nt NewTask) (Task, error)
		Query(ctx context.Context, userID, roomID string) ([]Task, error)
		Get(ctx context.Context, taskID, userID string) (Task, error)
		Update(ctx context.Context, taskID, userID string, ut UpdateTask) (Task, error)
		UpdateForm(ctx context.Context, taskID, userID string, ut UpdateTask) (Task, error)
		Delete(ctx context.Context, taskID, userID string) error
		SetCompletion(ctx context.Context, taskID, userID string, completed bool) (Completion, error)
	}

	Service struct {
		repo  Repository
		rooms room.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, roomSvc room.ServiceInterface) *Service {
	return &Service{repo: repo, rooms: roomSvc}
}

// Create persists a new task for userID. Attaching a task to a room requires
// membership and always implies sharing: isShared is forced true whenever a
// room is given, regardless of the caller-supplied value.
func (svc *Service) Create(ctx context.Context, userID string, nt NewTask) (Task, error) {
	if nt.RoomID != "" {
		if _, err := svc.rooms.Get(ctx, nt.RoomID, userID); err != nil {
			return Task{}, err
		}
	}

	due, err := parseDueDate(nt.DueDate)
	if err != nil {
		return Task{}, core.NewValidationError(nil,
			core.FieldError{Field: "due_date", Error: "must be a valid date (YYYY-MM-DD)"})
	}

	now := time.Now().UTC()
	t := Task{
		Title:       nt.Title,
		Description: nt.Description,
		Category:    nt.Category,
		Priority:    nt.Priority,
		DueDate:     null.TimeFrom(due),
		Location:    null.NewString(nt.Location, nt.Location != ""),
		Materials:   null.NewString(nt.Materials, nt.Materials != ""),
		Notes:       null.NewString(nt.Notes, nt.Notes != ""),
		FileURL:     null.NewString(nt.FileURL, nt.FileURL != ""),
		LinkURL:     null.NewString(nt.LinkURL, nt.LinkURL != ""),
		IsShared:    nt.IsShared || nt.RoomID != "",
		UserID:      userID,
		RoomID:      null.NewString(nt.RoomID, nt.RoomID != ""),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Category == "" {
		t.Category = CategoryTask
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if nt.StartTime != "" {
		t.StartTime = null.TimeFrom(combineTime(due, nt.StartTime))
	}
	if nt.EndTime != "" {
		t.EndTime = null.TimeFrom(combineTime(due, nt.EndTime))
	}
	return svc.repo.CreateTask(ctx, t)
}

// Query lists tasks for userID. With a room filter it returns the room's
// tasks (membership required) in room order: incomplete urgent tasks first,
// then incomplete by due date, then fully-completed tasks by most recent
// completion. Without a filter it returns the user's chronological task feed.
func (svc *Service) Query(ctx context.Context, userID, roomID string) ([]Task, error) {
	if roomID == "" {
		return svc.repo.QueryUserTasks(ctx, userID)
	}

	detail, err := svc.rooms.Get(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := svc.repo.QueryRoomTasks(ctx, roomID)
	if err != nil {
		return nil, errors.Wrap(err, "querying room tasks")
	}

	memberIDs := make([]string, 0, len(detail.Members))
	for _, m := range detail.Members {
		memberIDs = append(memberIDs, m.UserID)
	}
	sortRoomTasks(tasks, memberIDs, time.Now().UTC())
	return tasks, nil
}

func (svc *Service) Get(ctx context.Context, taskID, userID string) (Task, error) {
	t, err := svc.repo.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if t.UserID != userID && !t.IsShared {
		return Task{}, ErrForbidden
	}
	return t, nil
}

// Update applies a partial update on the owner's task (JSON path).
func (svc *Service) Update(ctx context.Context, taskID, userID string, ut UpdateTask) (Task, error) {
	return svc.update(ctx, taskID, userID, ut, false)
}

// UpdateForm applies a partial update on the owner's task (form-submission
// path); start/end minutes are rounded to the nearest multiple of 10.
func (svc *Service) UpdateForm(ctx context.Context, taskID, userID string, ut UpdateTask) (Task, error) {
	return svc.update(ctx, taskID, userID, ut, true)
}

func (svc *Service) update(ctx context.Context, taskID, userID string, ut UpdateTask, round bool) (Task, error) {
	t, err := svc.repo.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if t.UserID != userID {
		return Task{}, ErrNotOwner
	}

	if ut.Title != nil {
		t.Title = *ut.Title
	}
	if ut.Description != nil {
		t.Description = *ut.Description
	}
	if ut.Category != nil {
		t.Category = *ut.Category
	}
	if ut.Priority != nil {
		t.Priority = *ut.Priority
	}
	if ut.Status != nil {
		t.Status = *ut.Status
	}
	if ut.IsShared != nil {
		// attaching to a room keeps a task shared
		t.IsShared = *ut.IsShared || t.RoomID.Valid
	}
	if ut.DueDate != nil {
		due, err := parseDueDate(*ut.DueDate)
		if err != nil {
			return Task{}, core.NewValidationError(nil,
				core.FieldError{Field: "due_date", Error: "must be a valid date (YYYY-MM-DD)"})
		}
		t.DueDate = null.TimeFrom(due)
	}
	if ut.Location != nil {
		t.Location = null.NewString(*ut.Location, *ut.Location != "")
	}
	if ut.Materials != nil {
		t.Materials = null.NewString(*ut.Materials, *ut.Materials != "")
	}
	if ut.Notes != nil {
		t.Notes = null.NewString(*ut.Notes, *ut.Notes != "")
	}
	if ut.FileURL != nil {
		t.FileURL = null.NewString(*ut.FileURL, *ut.FileURL != "")
	}
	if ut.LinkURL != nil {
		t.LinkURL = null.NewString(*ut.LinkURL, *ut.LinkURL != "")
	}

	due := t.DueDate.Time
	if ut.StartTime != nil {
		if *ut.StartTime == "" {
			t.StartTime = null.Time{}
		} else {
			t.StartTime = null.TimeFrom(combineTime(due, *ut.StartTime))
		}
	}
	if ut.EndTime != nil {
		if *ut.EndTime == "" {
			t.EndTime = null.Time{}
		} else {
			t.EndTime = null.TimeFrom(combineTime(due, *ut.EndTime))
		}
	}
	if round {
		if t.StartTime.Valid {
			t.StartTime = null.TimeFrom(roundTime(t.StartTime.Time))
		}
		if t.EndTime.Valid {
			t.EndTime = null.TimeFrom(roundTime(t.EndTime.Time))
		}
	}

	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, taskID, userID string) error {
	t, err := svc.repo.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if t.UserID != userID {
		return ErrNotOwner
	}
	return svc.repo.DeleteTask(ctx, taskID)
}

// SetCompletion upserts the caller's own completion record on a task they own
// or that is shared with them. Completing stamps completedAt; un-completing
// clears it.
func (svc *Service) SetCompletion(ctx context.Context, taskID, userID string, completed bool) (Completion, error) {
	t, err := svc.repo.GetTask(ctx, taskID)
	if err != nil {
		return Completion{}, err
	}
	if t.UserID != userID {
		if !t.IsShared {
			return Completion{}, ErrForbidden
		}
		if t.RoomID.Valid {
			if _, err = svc.rooms.GetMember(ctx, t.RoomID.String, userID); err != nil {
				return Completion{}, ErrForbidden
			}
		}
	}

	c := Completion{TaskID: taskID, UserID: userID, Completed: completed}
	if completed {
		c.CompletedAt = null.TimeFrom(time.Now().UTC())
	}
	return svc.repo.UpsertCompletion(ctx, c)
}

// sortRoomTasks orders a room's tasks: incomplete urgent first, then
// incomplete by due date, then fully-completed by most recent completion.
func sortRoomTasks(tasks []Task, memberIDs []string, now time.Time) {
	rank := func(t Task) int {
		switch {
		case t.AllMembersCompleted(memberIDs):
			return 2
		case t.IsUrgent(now):
			return 0
		default:
			return 1
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		ti, tj := tasks[i], tasks[j]
		ri, rj := rank(ti), rank(tj)
		if ri != rj {
			return ri < rj
		}
		if ri == 2 { // both complete: most recent completion first
			return ti.LatestCompletion().After(tj.LatestCompletion())
		}
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
