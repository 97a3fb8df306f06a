package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

const upcomingWindowDays = 7

// DashboardHandler aggregates task and customer counters for the overview page.
type DashboardHandler struct {
	tasks     ports.TaskService
	customers ports.CustomerService
}

func NewDashboardHandler(tasks ports.TaskService, customers ports.CustomerService) *DashboardHandler {
	return &DashboardHandler{tasks: tasks, customers: customers}
}

// Stats handles GET /api/dashboard/stats.
//
// @Summary      Dashboard counters
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardStats
// @Router       /api/dashboard/stats [get]
func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	statuses := domain.TaskStatuses()
	stats := dashboardStats{TasksByStatus: make(map[string]int64, len(statuses))}

	for _, s := range statuses {
		n, err := h.tasks.CountTasksByStatus(ctx, string(s))
		if err != nil {
			return err
		}
		stats.TasksByStatus[string(s)] = n
		stats.TotalTasks += n
	}

	overdue, err := h.tasks.FindOverdueTasks(ctx)
	if err != nil {
		return err
	}
	stats.OverdueTasks = len(overdue)

	upcoming, err := h.tasks.FindUpcomingDeadlines(ctx, upcomingWindowDays)
	if err != nil {
		return err
	}
	stats.UpcomingWeek = len(upcoming)

	if stats.TotalCustomers, err = h.customers.CountCustomers(ctx); err != nil {
		return err
	}
	active, err := h.customers.FindActive(ctx)
	if err != nil {
		return err
	}
	stats.ActiveCustomers = len(active)

	return c.JSON(http.StatusOK, stats)
}
