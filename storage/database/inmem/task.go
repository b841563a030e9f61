package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/task"
	"github.com/aissist/aissist/core/user"
)

type taskRepository struct {
	db *DB
}

var (
	_ task.Repository     = (*taskRepository)(nil) // interface compliance check
	_ user.AccountCleaner = (*taskRepository)(nil)
)

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db}
}

// taskCompletions returns the completion rows on a task, optionally filtered
// to a single user; callers hold the lock.
func (repo *taskRepository) taskCompletions(taskID, userID string) []task.Completion {
	var comps []task.Completion
	for _, c := range repo.db.completions[taskID] {
		if userID == "" || c.UserID == userID {
			comps = append(comps, *c)
		}
	}
	return comps
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task, _ ...core.DBExecutor) (task.Task, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t.ID = uuid.New().String()
	t.Completions = nil
	repo.db.tasks[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string, _ ...core.DBExecutor) (task.Task, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	t, ok := repo.db.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	got := *t
	got.Completions = repo.taskCompletions(id, "")
	return got, nil
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task, _ ...core.DBExecutor) (task.Task, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tasks[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	stored := t
	stored.Completions = nil
	repo.db.tasks[t.ID] = &stored
	return t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.tasks, id)
	delete(repo.db.completions, id)
	return nil
}

func (repo *taskRepository) QueryRoomTasks(_ context.Context, roomID string, _ ...core.DBExecutor) ([]task.Task, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tasks := make([]task.Task, 0)
	for id, t := range repo.db.tasks {
		if t.RoomID.String != roomID {
			continue
		}
		got := *t
		got.Completions = repo.taskCompletions(id, "")
		tasks = append(tasks, got)
	}
	task.SortChronological(tasks)
	return tasks, nil
}

func (repo *taskRepository) QueryUserTasks(_ context.Context, userID string, _ ...core.DBExecutor) ([]task.Task, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tasks := make([]task.Task, 0)
	for id, t := range repo.db.tasks {
		owned := t.UserID == userID
		inRoom := false
		if t.RoomID.Valid {
			_, inRoom = repo.db.members[t.RoomID.String][userID]
		}
		if !owned && !inRoom {
			continue
		}
		got := *t
		got.Completions = repo.taskCompletions(id, userID)
		tasks = append(tasks, got)
	}
	task.SortChronological(tasks)
	return tasks, nil
}

func (repo *taskRepository) UpsertCompletion(_ context.Context, c task.Completion, _ ...core.DBExecutor) (task.Completion, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.db.completions[c.TaskID] == nil {
		repo.db.completions[c.TaskID] = make(map[string]*task.Completion)
	}
	repo.db.completions[c.TaskID][c.UserID] = &c
	return c, nil
}

func (repo *taskRepository) CleanAccount(_ context.Context, userID string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, t := range repo.db.tasks {
		if t.UserID == userID {
			delete(repo.db.tasks, id)
			delete(repo.db.completions, id)
		}
	}
	for _, comps := range repo.db.completions {
		delete(comps, userID)
	}
	return nil
}
