package storage

import (
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskboard-api/domain"
)

const edmInt64 = "Edm.Int64"

type taskEntity struct {
	aztables.Entity
	Title         string `json:"Title"`
	Description   string `json:"Description,omitempty"`
	Category      string `json:"Category"`
	Order         int    `json:"Order"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type,omitempty"`
}

func newTaskEntity(t domain.Task) taskEntity {
	return taskEntity{
		Entity:        aztables.Entity{PartitionKey: t.OwnerEmail, RowKey: t.ID},
		Title:         t.Title,
		Description:   t.Description,
		Category:      t.Category,
		Order:         t.Order,
		CreatedAt:     t.CreatedAt,
		CreatedAtType: edmInt64,
	}
}

func (e taskEntity) toDomain() domain.Task {
	return domain.Task{
		ID:          e.RowKey,
		OwnerEmail:  e.PartitionKey,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Order:       e.Order,
		CreatedAt:   e.CreatedAt,
	}
}

// taskMergeEntity carries a partial update for merge-mode writes. Only
// non-nil properties are sent, so the table service leaves the rest of
// the entity untouched.
type taskMergeEntity struct {
	aztables.Entity
	Title       *string `json:"Title,omitempty"`
	Description *string `json:"Description,omitempty"`
	Category    *string `json:"Category,omitempty"`
	Order       *int    `json:"Order,omitempty"`
}

func newTaskMergeEntity(owner, id string, u domain.TaskUpdate) taskMergeEntity {
	return taskMergeEntity{
		Entity:      aztables.Entity{PartitionKey: owner, RowKey: id},
		Title:       u.Title,
		Description: u.Description,
		Category:    u.Category,
		Order:       u.Order,
	}
}

// placementEntity rewrites a task's category and order inside a reorder
// transaction.
type placementEntity struct {
	aztables.Entity
	Category string `json:"Category"`
	Order    int    `json:"Order"`
}

func newPlacementEntity(owner string, p domain.Placement) placementEntity {
	return placementEntity{
		Entity:   aztables.Entity{PartitionKey: owner, RowKey: p.TaskID},
		Category: p.Category,
		Order:    p.Order,
	}
}

type userEntity struct {
	aztables.Entity
	Name          string `json:"Name,omitempty"`
	Role          string `json:"Role"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type,omitempty"`
}

func newUserEntity(u domain.User) userEntity {
	return userEntity{
		Entity:        aztables.Entity{PartitionKey: u.Email, RowKey: u.Email},
		Name:          u.Name,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
		CreatedAtType: edmInt64,
	}
}

func (e userEntity) toDomain() domain.User {
	return domain.User{
		Email:     e.RowKey,
		Name:      e.Name,
		Role:      e.Role,
		CreatedAt: e.CreatedAt,
	}
}
