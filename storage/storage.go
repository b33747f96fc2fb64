package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"taskboard-api/domain"
)

// ErrNotFound is returned when no record matches the requested identifier.
var ErrNotFound = errors.New("record not found")

// ErrReorderTooLarge is returned when a reorder batch exceeds the table
// service's entity-group transaction limit. Splitting the batch would
// forfeit atomicity, so oversized batches are rejected instead.
var ErrReorderTooLarge = errors.New("reorder batch exceeds transaction limit")

// Entity-group transactions accept at most 100 actions.
const maxTransactionActions = 100

// Storage provides access to the users and tasks tables.
type Storage struct {
	userTable *aztables.Client
	taskTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, usersTable, tasksTable string) (*Storage, error) {
	clientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &clientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		userTable: svc.NewClient(usersTable),
		taskTable: svc.NewClient(tasksTable),
	}, nil
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

// quote escapes a value for use inside an OData filter string literal.
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// UpsertUser returns the record stored under email, inserting a fresh one
// with the fixed user role when none exists. First write wins: an existing
// record is returned unchanged, with no merge of the new payload.
func (s *Storage) UpsertUser(ctx context.Context, email, name string) (domain.User, error) {
	if existing, err := s.getUser(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return domain.User{}, err
	}

	user := domain.User{
		Email:     email,
		Name:      name,
		Role:      domain.RoleUser,
		CreatedAt: nextTimestamp(),
	}
	payload, err := json.Marshal(newUserEntity(user))
	if err != nil {
		return domain.User{}, err
	}
	if _, err := s.userTable.AddEntity(ctx, payload, nil); err != nil {
		if hasStatus(err, 409) {
			// Lost a race with a concurrent first login. The stored
			// record wins.
			return s.getUser(ctx, email)
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *Storage) getUser(ctx context.Context, email string) (domain.User, error) {
	resp, err := s.userTable.GetEntity(ctx, email, email, nil)
	if err != nil {
		if hasStatus(err, 404) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	var ent userEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.User{}, err
	}
	return ent.toDomain(), nil
}

// ListUsers retrieves every user record.
func (s *Storage) ListUsers(ctx context.Context) ([]domain.User, error) {
	pager := s.userTable.NewListEntitiesPager(nil)
	users := []domain.User{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent userEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			users = append(users, ent.toDomain())
		}
	}
	return users, nil
}

// CreateTask assigns an id and creation stamp to the task and inserts it
// under the owner's partition. It returns the assigned id.
func (s *Storage) CreateTask(ctx context.Context, owner string, t domain.Task) (string, error) {
	t.ID = uuid.NewString()
	t.OwnerEmail = owner
	t.CreatedAt = nextTimestamp()
	payload, err := json.Marshal(newTaskEntity(t))
	if err != nil {
		return "", err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return "", err
	}
	return t.ID, nil
}

// ListTasks retrieves every task record, in no contractual order.
func (s *Storage) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.listTasks(ctx, nil)
}

// ListTasksByOwner retrieves the tasks in the owner's partition.
func (s *Storage) ListTasksByOwner(ctx context.Context, email string) ([]domain.Task, error) {
	filter := "PartitionKey eq " + quote(email)
	return s.listTasks(ctx, &filter)
}

func (s *Storage) listTasks(ctx context.Context, filter *string) ([]domain.Task, error) {
	var options *aztables.ListEntitiesOptions
	if filter != nil {
		options = &aztables.ListEntitiesOptions{Filter: filter}
	}
	pager := s.taskTable.NewListEntitiesPager(options)
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, ent.toDomain())
		}
	}
	return tasks, nil
}

// GetTask retrieves a task by id alone. Ids are unique across owners, so
// a cross-partition row-key filter resolves the record.
func (s *Storage) GetTask(ctx context.Context, id string) (domain.Task, error) {
	filter := "RowKey eq " + quote(id)
	tasks, err := s.listTasks(ctx, &filter)
	if err != nil {
		return domain.Task{}, err
	}
	if len(tasks) == 0 {
		return domain.Task{}, ErrNotFound
	}
	return tasks[0], nil
}

// UpdateTask merges the named fields into the owner's task. It returns
// ErrNotFound when the owner holds no task with that id, which keeps
// "no such task" distinguishable from "nothing changed".
func (s *Storage) UpdateTask(ctx context.Context, owner, id string, u domain.TaskUpdate) error {
	if _, err := s.taskTable.GetEntity(ctx, owner, id, nil); err != nil {
		if hasStatus(err, 404) {
			return ErrNotFound
		}
		return err
	}
	if u.Empty() {
		return nil
	}
	payload, err := json.Marshal(newTaskMergeEntity(owner, id, u))
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
		IfMatch:    &et,
		UpdateMode: aztables.UpdateModeMerge,
	})
	if hasStatus(err, 404) {
		return ErrNotFound
	}
	return err
}

// DeleteTask removes the owner's task. Deleting an absent record is a
// no-op that still reports success.
func (s *Storage) DeleteTask(ctx context.Context, owner, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, owner, id, nil)
	if hasStatus(err, 404) {
		return nil
	}
	return err
}

// ReorderTasks rewrites category and order for every placement in one
// entity-group transaction on the owner's partition. The table service
// applies the transaction atomically, so a failed batch leaves no mix of
// old and new positions.
func (s *Storage) ReorderTasks(ctx context.Context, owner string, placements []domain.Placement) error {
	if len(placements) == 0 {
		return nil
	}
	if len(placements) > maxTransactionActions {
		return ErrReorderTooLarge
	}
	actions, err := reorderActions(owner, placements)
	if err != nil {
		return err
	}
	_, err = s.taskTable.SubmitTransaction(ctx, actions, nil)
	return err
}

func reorderActions(owner string, placements []domain.Placement) ([]aztables.TransactionAction, error) {
	actions := make([]aztables.TransactionAction, 0, len(placements))
	for _, p := range placements {
		payload, err := json.Marshal(newPlacementEntity(owner, p))
		if err != nil {
			return nil, err
		}
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeUpdateMerge,
			Entity:     payload,
		})
	}
	return actions, nil
}
