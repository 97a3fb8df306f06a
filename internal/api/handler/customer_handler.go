package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// CustomerHandler handles HTTP requests for customers.
type CustomerHandler struct {
	customers ports.CustomerService
}

func NewCustomerHandler(customers ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// Create handles POST /api/customers. ADMIN or MANAGER.
//
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createCustomerRequest  true   "Customer details"
// @Success      201              {object}  domain.Customer
// @Failure      400              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	var req createCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	customer, err := h.customers.CreateCustomer(c.Request().Context(), ports.CreateCustomerInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Notes:          req.Notes,
		IsActive:       req.IsActive,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customer)
}

// List handles GET /api/customers.
//
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "0-based page"  default(0)
// @Param        size  query     int  false  "Page size"     default(20)
// @Success      200   {object}  pageResponse[domain.Customer]
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	res, err := h.customers.FindAll(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPageResponse(res))
}

// Active handles GET /api/customers/active.
//
// @Summary      Active customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Customer
// @Router       /api/customers/active [get]
func (h *CustomerHandler) Active(c echo.Context) error {
	customers, err := h.customers.FindActive(c.Request().Context())
	if err != nil {
		return err
	}
	if customers == nil {
		customers = []*domain.Customer{}
	}
	return c.JSON(http.StatusOK, customers)
}

// Get handles GET /api/customers/:id.
//
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Customer id"
// @Success      200  {object}  domain.Customer
// @Failure      404  {object}  errorResponse
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	customer, ok, err := h.customers.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCustomerNotFound
	}
	return c.JSON(http.StatusOK, customer)
}

// Update handles PUT /api/customers/:id. ADMIN or MANAGER.
//
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Customer id"
// @Param        body  body      updateCustomerRequest  true  "Fields to change"
// @Success      200   {object}  domain.Customer
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	customer, err := h.customers.UpdateCustomer(c.Request().Context(), id, ports.UpdateCustomerInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Delete handles DELETE /api/customers/:id. ADMIN only; removes the
// customer's tasks as well.
//
// @Summary      Delete a customer and its tasks
// @Tags         customers
// @Security     BearerAuth
// @Param        id   path  int  true  "Customer id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.customers.DeleteCustomer(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
