package api

const (
	loginMaxSize   = 4 * 1024   // 4 KiB
	userMaxSize    = 16 * 1024  // 16 KiB
	taskMaxSize    = 64 * 1024  // 64 KiB
	reorderMaxSize = 256 * 1024 // 256 KiB
)

type messageResponse struct {
	Message string `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email string `json:"email"`
}

type upsertUserRequest struct {
	Name string `json:"name"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Order       int    `json:"order"`
}

type createTaskResponse struct {
	InsertedID string `json:"insertedId"`
}

type taskRef struct {
	ID string `json:"id"`
}

// PUT /tasks/update request body. The outer index addresses the board
// column; the inner sequence is the column's new display order.
type reorderRequest struct {
	UpdatedTasks [][]taskRef `json:"updatedTasks"`
}
