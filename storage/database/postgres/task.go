package pgrepos

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/task"
	"github.com/aissist/aissist/core/user"
)

const (
	taskTable       = "task"
	completionTable = "task_completion"
)

var (
	taskColumns = []string{
		"id", "user_id", "room_id", "title", "description", "category", "priority", "status",
		"due_date", "start_time", "end_time", "location", "materials", "notes",
		"file_url", "link_url", "is_shared", "created_at", "updated_at",
	}
	completionColumns = []string{"task_id", "user_id", "completed", "completed_at"}
)

type taskRecord struct {
	ID          string      `db:"id"`
	UserID      string      `db:"user_id"`
	RoomID      null.String `db:"room_id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Category    string      `db:"category"`
	Priority    string      `db:"priority"`
	Status      string      `db:"status"`
	DueDate     null.Time   `db:"due_date"`
	StartTime   null.Time   `db:"start_time"`
	EndTime     null.Time   `db:"end_time"`
	Location    null.String `db:"location"`
	Materials   null.String `db:"materials"`
	Notes       null.String `db:"notes"`
	FileURL     null.String `db:"file_url"`
	LinkURL     null.String `db:"link_url"`
	IsShared    bool        `db:"is_shared"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (rec taskRecord) toTask() task.Task {
	return task.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Category:    rec.Category,
		Priority:    rec.Priority,
		DueDate:     rec.DueDate,
		StartTime:   rec.StartTime,
		EndTime:     rec.EndTime,
		Location:    rec.Location,
		Materials:   rec.Materials,
		Notes:       rec.Notes,
		FileURL:     rec.FileURL,
		LinkURL:     rec.LinkURL,
		IsShared:    rec.IsShared,
		UserID:      rec.UserID,
		RoomID:      rec.RoomID,
		Status:      rec.Status,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type completionRecord struct {
	TaskID      string    `db:"task_id"`
	UserID      string    `db:"user_id"`
	Completed   bool      `db:"completed"`
	CompletedAt null.Time `db:"completed_at"`
}

func (rec completionRecord) toCompletion() task.Completion {
	return task.Completion(rec)
}

type taskRepository struct {
	exec core.DBExecutor
}

var (
	_ task.Repository     = (*taskRepository)(nil) // interface compliance check
	_ user.AccountCleaner = (*taskRepository)(nil)
)

func NewTaskRepository(exec core.DBExecutor) *taskRepository {
	return &taskRepository{exec: exec}
}

func (repo taskRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo taskRepository) CreateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	t.ID = uuid.New().String()
	ins := psql.Insert(taskTable).
		Columns(taskColumns...).
		Values(t.ID, t.UserID, t.RoomID, t.Title, t.Description, t.Category, t.Priority, t.Status,
			t.DueDate, t.StartTime, t.EndTime, t.Location, t.Materials, t.Notes,
			t.FileURL, t.LinkURL, t.IsShared, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if _, err := execQuery(ctx, repo.getExec(exec), ins); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

// loadCompletions attaches completion rows to the given tasks. A nil userID
// filter loads every member's rows.
func (repo taskRepository) loadCompletions(ctx context.Context, exec core.DBExecutor, tasks []task.Task, userID string) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}

	pred := squirrel.And{squirrel.Eq{"task_id": ids}}
	if userID != "" {
		pred = append(pred, squirrel.Eq{"user_id": userID})
	}
	var recs []completionRecord
	sb := psql.Select(completionColumns...).From(completionTable).Where(pred)
	if err := selectAll(ctx, exec, &recs, sb); err != nil {
		return errors.Wrap(err, "querying completions")
	}

	byTask := make(map[string][]task.Completion, len(tasks))
	for _, rec := range recs {
		byTask[rec.TaskID] = append(byTask[rec.TaskID], rec.toCompletion())
	}
	for i := range tasks {
		tasks[i].Completions = byTask[tasks[i].ID]
	}
	return nil
}

func (repo taskRepository) GetTask(ctx context.Context, id string, exec ...core.DBExecutor) (task.Task, error) {
	var recs []taskRecord
	sb := psql.Select(taskColumns...).From(taskTable).Where(squirrel.Eq{"id": id})
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	if len(recs) == 0 {
		return task.Task{}, task.ErrNotFound
	}

	tasks := []task.Task{recs[0].toTask()}
	if err := repo.loadCompletions(ctx, repo.getExec(exec), tasks, ""); err != nil {
		return task.Task{}, err
	}
	return tasks[0], nil
}

func (repo taskRepository) UpdateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	upd := psql.Update(taskTable).
		Set("title", t.Title).
		Set("description", t.Description).
		Set("category", t.Category).
		Set("priority", t.Priority).
		Set("status", t.Status).
		Set("due_date", t.DueDate).
		Set("start_time", t.StartTime).
		Set("end_time", t.EndTime).
		Set("location", t.Location).
		Set("materials", t.Materials).
		Set("notes", t.Notes).
		Set("file_url", t.FileURL).
		Set("link_url", t.LinkURL).
		Set("is_shared", t.IsShared).
		Set("room_id", t.RoomID).
		Set("updated_at", t.UpdatedAt.UTC()).
		Where(squirrel.Eq{"id": t.ID})

	n, err := execQuery(ctx, repo.getExec(exec), upd)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo taskRepository) DeleteTask(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(taskTable).Where(squirrel.Eq{"id": id})); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return nil
}

func (repo taskRepository) QueryRoomTasks(ctx context.Context, roomID string, exec ...core.DBExecutor) ([]task.Task, error) {
	var recs []taskRecord
	sb := psql.Select(taskColumns...).
		From(taskTable).
		Where(squirrel.Eq{"room_id": roomID}).
		OrderBy("due_date ASC NULLS LAST", "created_at DESC")
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return nil, errors.Wrap(err, "querying room tasks")
	}

	tasks := make([]task.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, rec.toTask())
	}
	if err := repo.loadCompletions(ctx, repo.getExec(exec), tasks, ""); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (repo taskRepository) QueryUserTasks(ctx context.Context, userID string, exec ...core.DBExecutor) ([]task.Task, error) {
	var recs []taskRecord
	sb := psql.Select(taskColumns...).
		From(taskTable).
		Where(squirrel.Or{
			squirrel.Eq{"user_id": userID},
			squirrel.Expr("room_id IN (SELECT room_id FROM room_member WHERE user_id = ?)", userID),
		}).
		OrderBy("due_date ASC NULLS LAST", "created_at DESC")
	if err := selectAll(ctx, repo.getExec(exec), &recs, sb); err != nil {
		return nil, errors.Wrap(err, "querying user tasks")
	}

	tasks := make([]task.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, rec.toTask())
	}
	if err := repo.loadCompletions(ctx, repo.getExec(exec), tasks, userID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (repo taskRepository) UpsertCompletion(ctx context.Context, c task.Completion, exec ...core.DBExecutor) (task.Completion, error) {
	ins := psql.Insert(completionTable).
		Columns(completionColumns...).
		Values(c.TaskID, c.UserID, c.Completed, c.CompletedAt).
		Suffix("ON CONFLICT (task_id, user_id) DO UPDATE SET completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at")
	if _, err := execQuery(ctx, repo.getExec(exec), ins); err != nil {
		return task.Completion{}, errors.Wrap(err, "upserting completion")
	}
	return c, nil
}

// CleanAccount deletes the user's own tasks (their completion rows cascade)
// and the completion rows the user left on other members' tasks.
func (repo taskRepository) CleanAccount(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(taskTable).Where(squirrel.Eq{"user_id": userID})); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	if _, err := execQuery(ctx, repo.getExec(exec), psql.Delete(completionTable).Where(squirrel.Eq{"user_id": userID})); err != nil {
		return errors.Wrap(err, "deleting completions")
	}
	return nil
}
