package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/workforce/employee-directory/internal/api/metrics"
	"github.com/workforce/employee-directory/internal/core/domain"
	"github.com/workforce/employee-directory/internal/core/ports"
)

const (
	defaultPage = 0
	defaultSize = 10
)

// EmployeeHandler handles HTTP requests for the employee directory.
type EmployeeHandler struct {
	service ports.DirectoryService
}

func NewEmployeeHandler(service ports.DirectoryService) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// Create handles POST /employees.
//
// @Summary      Create an employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Param        body  body      createEmployeeRequest  true  "Employee"
// @Success      201   {object}  employeeResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /employees [post]
func (h *EmployeeHandler) Create(c echo.Context) error {
	var req createEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	emp, err := h.service.CreateEmployee(c.Request().Context(), toCreateInput(req))
	if err != nil {
		return err
	}

	metrics.EmployeesCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toEmployeeResponse(emp))
}

// Get handles GET /employees/:email.
//
// @Summary      Fetch an employee by email and password
// @Tags         employees
// @Produce      json
// @Param        email     path      string  true  "Employee email"
// @Param        password  query     string  true  "Employee password"
// @Success      200       {object}  employeeResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /employees/{email} [get]
func (h *EmployeeHandler) Get(c echo.Context) error {
	email, err := pathEmail(c)
	if err != nil {
		return err
	}
	password := c.QueryParam("password")
	if password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}

	emp, err := h.service.Authenticate(c.Request().Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			metrics.AuthFailuresTotal.WithLabelValues("not_found").Inc()
		case errors.Is(err, domain.ErrUnauthorized):
			metrics.AuthFailuresTotal.WithLabelValues("mismatch").Inc()
		}
		return err
	}

	return c.JSON(http.StatusOK, toEmployeeResponse(emp))
}

// List handles GET /employees.
//
// @Summary      List employees, optionally filtered
// @Description  criteria and value must be given together. Results are ordered by email.
// @Tags         employees
// @Produce      json
// @Param        criteria  query     string  false  "byEmailDomain, byRole or byAge"
// @Param        value     query     string  false  "Filter argument"
// @Param        page      query     int     false  "0-based page"  default(0)
// @Param        size      query     int     false  "Page size"     default(10)
// @Success      200       {object}  employeePageResponse
// @Failure      400       {object}  errorResponse
// @Router       /employees [get]
func (h *EmployeeHandler) List(c echo.Context) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter, err := domain.NewFilter(optionalQuery(c, "criteria"), optionalQuery(c, "value"))
	if err != nil {
		return err
	}

	result, err := h.service.ListEmployees(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}

	metrics.ListQueriesTotal.WithLabelValues(filter.Criteria.String()).Inc()
	return c.JSON(http.StatusOK, toPageResponse(result))
}

// DeleteAll handles DELETE /employees.
//
// @Summary      Delete every employee
// @Tags         employees
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /employees [delete]
func (h *EmployeeHandler) DeleteAll(c echo.Context) error {
	if err := h.service.DeleteAll(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignManager handles PUT /employees/:email/manager.
//
// @Summary      Assign a manager
// @Tags         hierarchy
// @Accept       json
// @Param        email  path      string               true  "Employee email"
// @Param        body   body      managerEmailRequest  true  "Manager"
// @Success      200
// @Failure      400    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /employees/{email}/manager [put]
func (h *EmployeeHandler) AssignManager(c echo.Context) error {
	email, err := pathEmail(c)
	if err != nil {
		return err
	}
	var req managerEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.AssignManager(c.Request().Context(), email, req.Email); err != nil {
		metrics.ManagerChangesTotal.WithLabelValues("assign", outcome(err)).Inc()
		return err
	}

	metrics.ManagerChangesTotal.WithLabelValues("assign", "ok").Inc()
	return c.NoContent(http.StatusOK)
}

// GetManager handles GET /employees/:email/manager.
//
// @Summary      Get an employee's manager
// @Tags         hierarchy
// @Produce      json
// @Param        email  path      string  true  "Employee email"
// @Success      200    {object}  employeeResponse
// @Failure      404    {object}  errorResponse
// @Router       /employees/{email}/manager [get]
func (h *EmployeeHandler) GetManager(c echo.Context) error {
	email, err := pathEmail(c)
	if err != nil {
		return err
	}

	mgr, err := h.service.GetManager(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrDataInconsistency) {
			metrics.DataInconsistenciesTotal.Inc()
		}
		return err
	}

	return c.JSON(http.StatusOK, toEmployeeResponse(mgr))
}

// Subordinates handles GET /employees/:email/subordinates.
//
// @Summary      List direct reports
// @Tags         hierarchy
// @Produce      json
// @Param        email  path      string  true   "Manager email"
// @Param        page   query     int     false  "0-based page"  default(0)
// @Param        size   query     int     false  "Page size"     default(10)
// @Success      200    {object}  employeePageResponse
// @Failure      400    {object}  errorResponse
// @Router       /employees/{email}/subordinates [get]
func (h *EmployeeHandler) Subordinates(c echo.Context) error {
	email, err := pathEmail(c)
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}

	result, err := h.service.Subordinates(c.Request().Context(), email, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toPageResponse(result))
}

// RemoveManager handles DELETE /employees/:email/manager.
//
// @Summary      Remove an employee's manager
// @Tags         hierarchy
// @Param        email  path  string  true  "Employee email"
// @Success      204
// @Failure      404    {object}  errorResponse
// @Router       /employees/{email}/manager [delete]
func (h *EmployeeHandler) RemoveManager(c echo.Context) error {
	email, err := pathEmail(c)
	if err != nil {
		return err
	}

	if err := h.service.RemoveManager(c.Request().Context(), email); err != nil {
		metrics.ManagerChangesTotal.WithLabelValues("remove", outcome(err)).Inc()
		return err
	}

	metrics.ManagerChangesTotal.WithLabelValues("remove", "ok").Inc()
	return c.NoContent(http.StatusNoContent)
}

// pathEmail returns the unescaped :email path parameter.
func pathEmail(c echo.Context) (string, error) {
	email, err := url.PathUnescape(c.Param("email"))
	if err != nil || email == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid email in path")
	}
	return email, nil
}

// pageRequest reads page and size, defaulting to page 0 of size 10. Range
// checks happen in the service.
func pageRequest(c echo.Context) (domain.PageRequest, error) {
	req := domain.PageRequest{Page: defaultPage, Size: defaultSize}
	err := echo.QueryParamsBinder(c).
		Int("page", &req.Page).
		Int("size", &req.Size).
		BindError()
	if err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "page and size must be integers")
	}
	return req, nil
}

// optionalQuery distinguishes an absent parameter from an empty one.
func optionalQuery(c echo.Context, name string) *string {
	values, ok := c.QueryParams()[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func outcome(err error) string {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return "rejected"
	}
	return "error"
}
