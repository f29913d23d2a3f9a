package handler

import (
	"strconv"

	"github.com/workforce/employee-directory/internal/core/domain"
	"github.com/workforce/employee-directory/internal/core/ports"
)

// toCreateInput maps a validated request to the service DTO. The birthdate
// parts are digit-only at this point.
func toCreateInput(r createEmployeeRequest) ports.CreateEmployeeInput {
	day, _ := strconv.Atoi(r.BirthDate.Day)
	month, _ := strconv.Atoi(r.BirthDate.Month)
	year, _ := strconv.Atoi(r.BirthDate.Year)
	return ports.CreateEmployeeInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Day:      day,
		Month:    month,
		Year:     year,
		Roles:    r.Roles,
	}
}

// toEmployeeResponse never carries the password.
func toEmployeeResponse(e *domain.Employee) employeeResponse {
	day, month, year := domain.FormatBirthDate(e.BirthDate)
	return employeeResponse{
		Email:     e.Email,
		Name:      e.Name,
		BirthDate: birthDateResponse{Day: day, Month: month, Year: year},
		Roles:     e.SortedRoles(),
	}
}

func toPageResponse(p *domain.Page) employeePageResponse {
	data := make([]employeeResponse, 0, len(p.Items))
	for _, e := range p.Items {
		data = append(data, toEmployeeResponse(e))
	}
	return employeePageResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      p.Total,
			Page:       p.Page,
			Size:       p.Size,
			TotalPages: p.TotalPages(),
		},
	}
}
