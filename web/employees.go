package web

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/adeilh/go-empdir/directory"
	"github.com/adeilh/go-empdir/httpx"
)

// helloMessageKey is the request-scoped slot the greeting middleware fills.
const helloMessageKey = "web.hello_message"

// EmployeeHandlers serves the directory search routes in both JSON and HTML
// shapes.
type EmployeeHandlers struct {
	dir      directory.Directory
	renderer *Renderer
	logger   *slog.Logger
}

func NewEmployeeHandlers(dir directory.Directory, renderer *Renderer, logger *slog.Logger) (*EmployeeHandlers, error) {
	if dir == nil || renderer == nil {
		return nil, errors.New("web: employee handlers require a directory and a renderer")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeeHandlers{dir: dir, renderer: renderer, logger: logger}, nil
}

// SearchJSON serves POST /data/employees with a JSON body.
func (h *EmployeeHandlers) SearchJSON(c echo.Context) error {
	var search directory.EmployeeSearch
	if err := c.Bind(&search); err != nil {
		return c.JSON(httpx.StatusBadRequest, httpx.NewApiStatus(httpx.StatusBadRequest, "invalid request body"))
	}
	employees, err := h.dir.SearchEmployees(c.Request().Context(), search)
	if err != nil {
		return err
	}
	return c.JSON(httpx.StatusOK, employees)
}

// SearchJSONByPath serves GET /data/employees/:last_name/:first_name.
func (h *EmployeeHandlers) SearchJSONByPath(c echo.Context) error {
	employees, err := h.dir.SearchEmployees(c.Request().Context(), pathSearch(c))
	if err != nil {
		return err
	}
	return c.JSON(httpx.StatusOK, employees)
}

// SearchPage serves POST /ui/employees with an urlencoded form body.
func (h *EmployeeHandlers) SearchPage(c echo.Context) error {
	var search directory.EmployeeSearch
	if err := c.Bind(&search); err != nil {
		return c.JSON(httpx.StatusBadRequest, httpx.NewApiStatus(httpx.StatusBadRequest, "invalid request body"))
	}
	return h.renderSearch(c, search)
}

// SearchPageByPath serves GET /ui/employees/:last_name/:first_name.
func (h *EmployeeHandlers) SearchPageByPath(c echo.Context) error {
	return h.renderSearch(c, pathSearch(c))
}

func (h *EmployeeHandlers) renderSearch(c echo.Context, search directory.EmployeeSearch) error {
	employees, err := h.dir.SearchEmployees(c.Request().Context(), search)
	if err != nil {
		return err
	}
	html, err := h.renderer.Render("employees.html", map[string]any{"Employees": employees})
	if err != nil {
		return err
	}
	return c.HTML(httpx.StatusOK, html)
}

// GreetFirstMatch is a per-route middleware for /helloemployee: it runs the
// search up front and attaches a greeting for the first matched employee to
// the request scope. The wrapped handler only reads the message.
func (h *EmployeeHandlers) GreetFirstMatch(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		employees, err := h.dir.SearchEmployees(c.Request().Context(), pathSearch(c))
		if err != nil {
			return err
		}

		message := "No employee found"
		if len(employees) > 0 {
			emp := employees[0]
			message = fmt.Sprintf("Hi first employee found no: %d, dob: %s, first name: %s, last name: %s, gender: %s, hire date: %s",
				emp.EmpNo, emp.BirthDate, emp.FirstName, emp.LastName, emp.Gender, emp.HireDate)
		}
		c.Set(helloMessageKey, message)

		return next(c)
	}
}

// HelloEmployee serves GET /helloemployee/:last_name/:first_name, rendering
// whatever greeting GreetFirstMatch attached.
func (h *EmployeeHandlers) HelloEmployee(c echo.Context) error {
	message, ok := c.Get(helloMessageKey).(string)
	if !ok {
		return c.HTML(httpx.StatusInternalError, "No message found.")
	}
	return c.HTML(httpx.StatusOK, "<h1>"+message+"</h1>")
}

func pathSearch(c echo.Context) directory.EmployeeSearch {
	return directory.EmployeeSearch{
		LastName:  c.Param("last_name"),
		FirstName: c.Param("first_name"),
	}
}
