package web

import (
	"github.com/adeilh/go-empdir/httpx"
)

// Router holds the handlers behind the application's route table. The request
// gate is installed as server-wide middleware by the caller, so every route
// below is behind it.
type Router struct {
	Auth      *AuthHandlers
	Employees *EmployeeHandlers
}

// Routes returns the full route table for the application.
func (rt Router) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: "GET", Path: "/ui/login", Handler: rt.Auth.LoginPage},
		{Method: "GET", Path: "/ui/home", Handler: rt.Auth.HomePage},
		{Method: "POST", Path: "/api/login", Handler: rt.Auth.Login},
		{Method: "POST", Path: "/api/logout", Handler: rt.Auth.Logout},

		{Method: "POST", Path: "/data/employees", Handler: rt.Employees.SearchJSON},
		{Method: "GET", Path: "/data/employees/:last_name/:first_name", Handler: rt.Employees.SearchJSONByPath},
		{Method: "POST", Path: "/ui/employees", Handler: rt.Employees.SearchPage},
		{Method: "GET", Path: "/ui/employees/:last_name/:first_name", Handler: rt.Employees.SearchPageByPath},

		{
			Method:     "GET",
			Path:       "/helloemployee/:last_name/:first_name",
			Handler:    rt.Employees.HelloEmployee,
			Middleware: []httpx.MiddlewareFunc{rt.Employees.GreetFirstMatch},
		},
	}
}

func (rt Router) Register(e *httpx.Echo) {
	httpx.RegisterRoutes(e, rt.Routes()...)
}
