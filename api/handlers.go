package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
	"taskboard-api/storage"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, locker Locker, logger *log.Logger) {
	e.GET("/", banner())
	e.GET("/healthz", healthz())

	e.POST("/users/:email", upsertUser(store))
	e.GET("/users", listUsers(store))
	e.POST("/jwt", issueCredential(auth))
	e.GET("/logout", revokeCredential(auth))

	requireAuth := RequireCredential(auth)
	e.POST("/tasks", createTask(store), requireAuth)
	e.GET("/tasks", listTasks(store, logger))
	e.GET("/tasks/:id", getTask(store))
	e.PUT("/tasks/update", reorderTasks(store, locker, logger), requireAuth)
	e.PUT("/tasks/:id", updateTask(store), requireAuth)
	e.DELETE("/tasks/:id", deleteTask(store), requireAuth)
}

func banner() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "Task board API is running")
	}
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		//TODO: probe table and redis connectivity
		return c.NoContent(http.StatusOK)
	}
}

func upsertUser(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		email := c.Param("email")
		var req upsertUserRequest
		if err := decodeBody(c, userMaxSize, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		user, err := store.UpsertUser(c.Request().Context(), email, req.Name)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to save user"})
		}
		return c.JSON(http.StatusOK, user)
	}
}

func listUsers(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := store.ListUsers(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to fetch users"})
		}
		return c.JSON(http.StatusOK, users)
	}
}

func issueCredential(auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, loginMaxSize, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if req.Email == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "email is required"})
		}
		token, err := auth.Issue(req.Email)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to sign credential"})
		}
		auth.SetCookie(c, token)
		return c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

func revokeCredential(auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth.ClearCookie(c)
		return c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

func createTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := identityFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: "unauthorized access"})
		}
		var req createTaskRequest
		if err := decodeBody(c, taskMaxSize, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task := domain.Task{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Order:       req.Order,
		}
		id, err := store.CreateTask(c.Request().Context(), identity.Email, task)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to save task"})
		}
		return c.JSON(http.StatusCreated, createTaskResponse{InsertedID: id})
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		email := c.QueryParam("email")
		metrics.SetOwnerScoped(email != "")

		fetchStart := time.Now()
		var tasks []domain.Task
		var fetchErr error
		if email != "" {
			tasks, fetchErr = store.ListTasksByOwner(ctx, email)
		} else {
			tasks, fetchErr = store.ListTasks(ctx)
		}
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to fetch tasks"})
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "invalid task id"})
		}
		task, err := store.GetTask(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, statusResponse{Success: false, Message: "task not found"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "failed to fetch task"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func updateTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := identityFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: "unauthorized access"})
		}
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "invalid task id"})
		}
		var update domain.TaskUpdate
		if err := decodeBody(c, taskMaxSize, &update); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		err := store.UpdateTask(c.Request().Context(), identity.Email, id, update)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, statusResponse{Success: false, Message: "task not found"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "failed to update task"})
		}
		return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "task updated successfully"})
	}
}

func deleteTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := identityFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: "unauthorized access"})
		}
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "invalid task id"})
		}
		if err := store.DeleteTask(c.Request().Context(), identity.Email, id); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to delete task"})
		}
		return c.JSON(http.StatusOK, successResponse{Success: true})
	}
}

func reorderTasks(store Storage, locker Locker, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := identityFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: "unauthorized access"})
		}
		var req reorderRequest
		if err := decodeBody(c, reorderMaxSize, &req); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}

		columns := make([][]string, len(req.UpdatedTasks))
		for i, refs := range req.UpdatedTasks {
			ids := make([]string, len(refs))
			for j, ref := range refs {
				if _, err := uuid.Parse(ref.ID); err != nil {
					return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid task id"})
				}
				ids[j] = ref.ID
			}
			columns[i] = ids
		}
		placements, err := domain.BuildPlacements(columns)
		if err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		}
		if len(placements) == 0 {
			return c.JSON(http.StatusOK, messageResponse{Message: "tasks updated successfully"})
		}

		ctx := c.Request().Context()
		acquired, err := locker.Acquire(ctx, identity.Email)
		if err != nil {
			logger.WithField("owner", identity.Email).WithError(err).Error("board lock unavailable")
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal server error"})
		}
		if !acquired {
			return c.JSON(http.StatusConflict, messageResponse{Message: "another reorder is in progress"})
		}
		defer func() {
			// The request context may already be canceled by the time the
			// lock is released.
			if relErr := locker.Release(context.Background(), identity.Email); relErr != nil {
				logger.WithField("owner", identity.Email).WithError(relErr).Warn("board lock release failed")
			}
		}()

		if err := store.ReorderTasks(ctx, identity.Email, placements); err != nil {
			logger.WithFields(log.Fields{
				"owner":      identity.Email,
				"placements": len(placements),
			}).WithError(err).Error("reorder failed")
			return c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal server error"})
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "tasks updated successfully"})
	}
}

func decodeBody(c echo.Context, maxSize int64, out any) error {
	lr := io.LimitReader(c.Request().Body, maxSize)
	return sonic.ConfigStd.NewDecoder(lr).Decode(out)
}
