package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

const defaultRecentLimit = 10

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	tasks  ports.TaskService
	events ports.TaskEventService // nil when the activity trail is disabled
}

func NewTaskHandler(tasks ports.TaskService, events ports.TaskEventService) *TaskHandler {
	return &TaskHandler{tasks: tasks, events: events}
}

// Create handles POST /api/tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createTaskRequest  true   "Task details"
// @Success      201              {object}  domain.Task
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), ports.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		DueDate:        req.DueDate,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		CustomerID:     req.CustomerID,
		AssignedToID:   req.AssignedToID,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// List handles GET /api/tasks.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "0-based page"   default(0)
// @Param        size  query     int  false  "Page size"      default(20)
// @Success      200   {object}  pageResponse[domain.Task]
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	res, err := h.tasks.FindAll(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPageResponse(res))
}

// Get handles GET /api/tasks/:id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  errorResponse
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	task, ok, err := h.tasks.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTaskNotFound
	}
	return c.JSON(http.StatusOK, task)
}

// Update handles PUT /api/tasks/:id. Only fields present in the body change;
// an explicit null clears a nullable field.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Task id"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	task, err := h.tasks.UpdateTask(c.Request().Context(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/:id. ADMIN or MANAGER.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  int  true  "Task id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tasks.DeleteTask(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Assign handles PUT /api/tasks/:id/assign/:userId. ADMIN or MANAGER.
//
// @Summary      Assign a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int  true  "Task id"
// @Param        userId  path      int  true  "User id"
// @Success      200     {object}  domain.Task
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{id}/assign/{userId} [put]
func (h *TaskHandler) Assign(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	task, err := h.tasks.AssignTask(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateStatus handles PATCH /api/tasks/:id/status.
//
// @Summary      Change task status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Task id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	task, err := h.tasks.UpdateTaskStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// History handles GET /api/tasks/:id/history.
//
// @Summary      Task activity trail
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int  true   "Task id"
// @Param        limit  query     int  false  "Max events"  default(50)
// @Success      200    {array}   domain.TaskEvent
// @Router       /api/tasks/{id}/history [get]
func (h *TaskHandler) History(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}
	if h.events == nil {
		return c.JSON(http.StatusOK, []domain.TaskEvent{})
	}
	events, err := h.events.History(c.Request().Context(), id, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

// ByCustomer handles GET /api/tasks/customer/:customerId.
//
// @Summary      Tasks of a customer
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        customerId  path     int  true  "Customer id"
// @Success      200         {array}  domain.Task
// @Router       /api/tasks/customer/{customerId} [get]
func (h *TaskHandler) ByCustomer(c echo.Context) error {
	id, err := pathID(c, "customerId")
	if err != nil {
		return err
	}
	return h.list(c)(h.tasks.FindTasksByCustomerID(c.Request().Context(), id))
}

// ByAssignee handles GET /api/tasks/assignee/:userId.
//
// @Summary      Tasks assigned to a user
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path     int  true  "User id"
// @Success      200     {array}  domain.Task
// @Router       /api/tasks/assignee/{userId} [get]
func (h *TaskHandler) ByAssignee(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	return h.list(c)(h.tasks.FindTasksByAssignedUserID(c.Request().Context(), id))
}

// ByStatus handles GET /api/tasks/status/:status.
//
// @Summary      Tasks in a status
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status  path     string  true  "PENDING, IN_PROGRESS or COMPLETED"
// @Success      200     {array}  domain.Task
// @Failure      400     {object} errorResponse
// @Router       /api/tasks/status/{status} [get]
func (h *TaskHandler) ByStatus(c echo.Context) error {
	return h.list(c)(h.tasks.FindTasksByStatus(c.Request().Context(), c.Param("status")))
}

// Overdue handles GET /api/tasks/overdue.
//
// @Summary      Overdue tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Task
// @Router       /api/tasks/overdue [get]
func (h *TaskHandler) Overdue(c echo.Context) error {
	return h.list(c)(h.tasks.FindOverdueTasks(c.Request().Context()))
}

// DueBetween handles GET /api/tasks/due?start=&end= (RFC 3339, inclusive).
//
// @Summary      Tasks due in a range
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        start  query     string  true  "RFC 3339 start"
// @Param        end    query     string  true  "RFC 3339 end"
// @Success      200    {array}   domain.Task
// @Failure      400    {object}  errorResponse
// @Router       /api/tasks/due [get]
func (h *TaskHandler) DueBetween(c echo.Context) error {
	start, err := queryTime(c, "start")
	if err != nil {
		return err
	}
	end, err := queryTime(c, "end")
	if err != nil {
		return err
	}
	return h.list(c)(h.tasks.FindTasksByDueDateBetween(c.Request().Context(), start, end))
}

// Count handles GET /api/tasks/count?status=.
//
// @Summary      Count tasks in a status
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  true  "PENDING, IN_PROGRESS or COMPLETED"
// @Success      200     {object}  countResponse
// @Failure      400     {object}  errorResponse
// @Router       /api/tasks/count [get]
func (h *TaskHandler) Count(c echo.Context) error {
	status := c.QueryParam("status")
	n, err := h.tasks.CountTasksByStatus(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Status: strings.ToUpper(status), Count: n})
}

// Recent handles GET /api/tasks/recent?limit=.
//
// @Summary      Most recently created tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query    int  false  "Max tasks"  default(10)
// @Success      200    {array}  domain.Task
// @Router       /api/tasks/recent [get]
func (h *TaskHandler) Recent(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultRecentLimit)
	if err != nil {
		return err
	}
	return h.list(c)(h.tasks.FindRecentTasks(c.Request().Context(), limit))
}

// Upcoming handles GET /api/tasks/upcoming?days=.
//
// @Summary      Open tasks due soon
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        days  query    int  false  "Window in days"  default(7)
// @Success      200   {array}  domain.Task
// @Router       /api/tasks/upcoming [get]
func (h *TaskHandler) Upcoming(c echo.Context) error {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		return err
	}
	return h.list(c)(h.tasks.FindUpcomingDeadlines(c.Request().Context(), days))
}

// list renders a finder result, always as a JSON array.
func (h *TaskHandler) list(c echo.Context) func([]*domain.Task, error) error {
	return func(tasks []*domain.Task, err error) error {
		if err != nil {
			return err
		}
		if tasks == nil {
			tasks = []*domain.Task{}
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func pageRequest(c echo.Context) (ports.PageRequest, error) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		return ports.PageRequest{}, err
	}
	size, err := queryInt(c, "size", ports.DefaultPageSize)
	if err != nil {
		return ports.PageRequest{}, err
	}
	return ports.PageRequest{Page: page, Size: size}.Normalize(), nil
}

func queryTime(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, domain.Invalid("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.Invalid("%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}
