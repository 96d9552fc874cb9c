package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/adeilh/go-empdir/auth"
	"github.com/adeilh/go-empdir/directory"
)

var ErrStaffExists = errors.New("postgres: staff account already exists")

// StaffRepository serves credential lookups for staff accounts and name
// searches over the employees table.
type StaffRepository struct {
	db *sql.DB
}

// NewStaffRepository wraps an existing *sql.DB connection.
func NewStaffRepository(db *sql.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) GetCredentialByEmail(ctx context.Context, email string) (auth.Credential, error) {
	const query = `SELECT email, password_hash FROM staff WHERE email = $1`
	var cred auth.Credential
	err := r.db.QueryRowContext(ctx, query, email).Scan(&cred.Email, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Credential{}, auth.ErrNoSuchAccount
		}
		return auth.Credential{}, translateStaffError(err)
	}
	return cred, nil
}

// AddStaff registers a staff account with an already-hashed password.
func (r *StaffRepository) AddStaff(ctx context.Context, cred auth.Credential) error {
	const query = `INSERT INTO staff (email, password_hash) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, cred.Email, cred.PasswordHash)
	return translateStaffError(err)
}

// SearchEmployees matches the given name fragments anywhere inside last and
// first names. Empty fragments match everything. An empty result is a valid
// outcome, not an error.
func (r *StaffRepository) SearchEmployees(ctx context.Context, search directory.EmployeeSearch) ([]directory.Employee, error) {
	const query = `SELECT emp_no, birth_date, first_name, last_name, gender, hire_date
                   FROM employees
                   WHERE last_name LIKE '%' || $1 || '%' AND first_name LIKE '%' || $2 || '%'
                   ORDER BY emp_no`
	rows, err := r.db.QueryContext(ctx, query, search.LastName, search.FirstName)
	if err != nil {
		return nil, translateStaffError(err)
	}
	defer rows.Close()

	employees := make([]directory.Employee, 0)
	for rows.Next() {
		var emp directory.Employee
		if err := rows.Scan(&emp.EmpNo, &emp.BirthDate, &emp.FirstName, &emp.LastName, &emp.Gender, &emp.HireDate); err != nil {
			return nil, fmt.Errorf("postgres: scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStaffError(err)
	}
	return employees, nil
}

func translateStaffError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrStaffExists
		}
	}
	return err
}

var (
	_ auth.CredentialStore = (*StaffRepository)(nil)
	_ directory.Directory  = (*StaffRepository)(nil)
)
