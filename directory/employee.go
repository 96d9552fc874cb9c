// Package directory defines the employees directory domain model and the
// lookup interface backed by persistent storage.
package directory

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDate = errors.New("directory: invalid date")

// ausDateLayout renders dates day-first, the format the directory's records
// use on the wire.
const ausDateLayout = "02/01/2006"

// AusDate is a calendar date serialized as dd/mm/yyyy in JSON and stored as a
// plain DATE column.
type AusDate struct {
	time.Time
}

func NewAusDate(year int, month time.Month, day int) AusDate {
	return AusDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d AusDate) String() string {
	return d.Format(ausDateLayout)
}

func (d AusDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(ausDateLayout) + `"`), nil
}

func (d *AusDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	t, err := time.Parse(ausDateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s[1:len(s)-1])
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *AusDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, src)
	}
}

// Value implements driver.Valuer.
func (d AusDate) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *AusDate) parse(s string) error {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d.Time = t
	return nil
}

// Employee mirrors a row of the employees table.
type Employee struct {
	EmpNo     int64   `json:"employee_number"`
	BirthDate AusDate `json:"birth_date"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Gender    string  `json:"gender"`
	HireDate  AusDate `json:"hire_date"`
}

// EmployeeSearch carries the name fragments a lookup matches against.
// Fragments match anywhere inside the corresponding name.
type EmployeeSearch struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

// Directory looks up employees by name fragments.
type Directory interface {
	SearchEmployees(ctx context.Context, search EmployeeSearch) ([]Employee, error)
}
