package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aissist/aissist/core"
	"github.com/aissist/aissist/core/room"
	"github.com/aissist/aissist/core/user"
)

type roomRepository struct {
	db *DB
}

var (
	_ room.Repository     = (*roomRepository)(nil) // interface compliance check
	_ user.AccountCleaner = (*roomRepository)(nil)
)

func NewRoomRepository(db *DB) *roomRepository {
	return &roomRepository{db: db}
}

// userName resolves a member's display name; callers hold the lock.
func (repo *roomRepository) userName(userID string) string {
	if usr, ok := repo.db.users[userID]; ok {
		return usr.Name
	}
	return ""
}

func (repo *roomRepository) CreateRoom(_ context.Context, rm room.Room, _ ...core.DBExecutor) (room.Room, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rm.ID = uuid.New().String()
	repo.db.rooms[rm.ID] = &rm
	repo.db.members[rm.ID] = make(map[string]*room.Member)
	return rm, nil
}

func (repo *roomRepository) CreateMember(_ context.Context, m room.Member, _ ...core.DBExecutor) (room.Member, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.db.members[m.RoomID] == nil {
		repo.db.members[m.RoomID] = make(map[string]*room.Member)
	}
	m.Name = repo.userName(m.UserID)
	repo.db.members[m.RoomID][m.UserID] = &m
	return m, nil
}

func (repo *roomRepository) GetRoom(_ context.Context, id string, _ ...core.DBExecutor) (room.Room, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rm, ok := repo.db.rooms[id]; ok {
		return *rm, nil
	}
	return room.Room{}, room.ErrNotFound
}

func (repo *roomRepository) GetRoomByJoinSecret(_ context.Context, code string, _ ...core.DBExecutor) (room.Room, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if code == "" {
		return room.Room{}, room.ErrNotFound
	}
	for _, rm := range repo.db.rooms {
		if rm.JoinSecret == code {
			return *rm, nil
		}
	}
	return room.Room{}, room.ErrNotFound
}

func (repo *roomRepository) GetMember(_ context.Context, roomID, userID string, _ ...core.DBExecutor) (room.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if m, ok := repo.db.members[roomID][userID]; ok {
		got := *m
		got.Name = repo.userName(m.UserID)
		return got, nil
	}
	return room.Member{}, room.ErrNotMember
}

func (repo *roomRepository) QueryMembers(_ context.Context, roomID string, _ ...core.DBExecutor) ([]room.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	members := make([]room.Member, 0, len(repo.db.members[roomID]))
	for _, m := range repo.db.members[roomID] {
		got := *m
		got.Name = repo.userName(m.UserID)
		members = append(members, got)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

func (repo *roomRepository) QueryUserRooms(_ context.Context, userID string, _ ...core.DBExecutor) ([]room.Summary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	summaries := make([]room.Summary, 0)
	for roomID, members := range repo.db.members {
		m, ok := members[userID]
		if !ok {
			continue
		}
		rm, ok := repo.db.rooms[roomID]
		if !ok {
			continue
		}
		taskCount := 0
		for _, t := range repo.db.tasks {
			if t.RoomID.String == roomID {
				taskCount++
			}
		}
		summaries = append(summaries, room.Summary{
			Room:        *rm,
			Role:        m.Role,
			MemberCount: len(members),
			TaskCount:   taskCount,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt) })
	return summaries, nil
}

func (repo *roomRepository) UpdateRoom(_ context.Context, rm room.Room, _ ...core.DBExecutor) (room.Room, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.rooms[rm.ID]; !ok {
		return room.Room{}, room.ErrNotFound
	}
	repo.db.rooms[rm.ID] = &rm
	return rm, nil
}

func (repo *roomRepository) DeleteRoom(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.deleteRoom(id)
	return nil
}

// deleteRoom cascades to members, tasks and completions; callers hold the lock.
func (repo *roomRepository) deleteRoom(id string) {
	delete(repo.db.rooms, id)
	delete(repo.db.members, id)
	for taskID, t := range repo.db.tasks {
		if t.RoomID.String == id {
			delete(repo.db.tasks, taskID)
			delete(repo.db.completions, taskID)
		}
	}
}

func (repo *roomRepository) CleanAccount(_ context.Context, userID string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for roomID, members := range repo.db.members {
		m, ok := members[userID]
		if !ok {
			continue
		}
		if m.IsAdmin() {
			repo.deleteRoom(roomID)
		} else {
			delete(members, userID)
		}
	}
	return nil
}
