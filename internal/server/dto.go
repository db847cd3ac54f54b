package server

import (
	"time"

	"github.com/civicgrid/user-service/internal/users"
)

type residentResponse struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Status       string    `json:"status"`
	CreationDate time.Time `json:"creationDate"`
}

func residentPayload(r *users.Resident) residentResponse {
	return residentResponse{
		UID:          r.UID,
		Email:        r.Email,
		PhoneNumber:  r.PhoneNumber,
		Photo:        r.PhotoURL,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Status:       string(r.Status),
		CreationDate: r.CreatedAt,
	}
}

type serviceResponse struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Address      string    `json:"address,omitempty"`
	Status       string    `json:"status"`
	CreationDate time.Time `json:"creationDate"`
}

func servicePayload(s *users.Service) serviceResponse {
	return serviceResponse{
		UID:          s.UID,
		Email:        s.Email,
		PhoneNumber:  s.PhoneNumber,
		Photo:        s.PhotoURL,
		Name:         s.Name,
		Description:  s.Description,
		Address:      s.Address,
		Status:       string(s.Status),
		CreationDate: s.CreatedAt,
	}
}

type employeeResponse struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	Photo         string    `json:"photo,omitempty"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	ServiceUID    string    `json:"serviceUid"`
	DepartmentUID string    `json:"departmentUid"`
	Status        string    `json:"status"`
	CreationDate  time.Time `json:"creationDate"`
}

func employeePayload(e *users.Employee) employeeResponse {
	return employeeResponse{
		UID:           e.UID,
		Email:         e.Email,
		PhoneNumber:   e.PhoneNumber,
		Photo:         e.PhotoURL,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		ServiceUID:    e.ServiceUID,
		DepartmentUID: e.DepartmentUID,
		Status:        string(e.Status),
		CreationDate:  e.CreatedAt,
	}
}

type moderatorResponse struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	Status       string    `json:"status"`
	CreationDate time.Time `json:"creationDate"`
}

func moderatorPayload(m *users.Moderator) moderatorResponse {
	return moderatorResponse{
		UID:          m.UID,
		Email:        m.Email,
		PhoneNumber:  m.PhoneNumber,
		Photo:        m.PhotoURL,
		Status:       string(m.Status),
		CreationDate: m.CreatedAt,
	}
}

type analystResponse struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Status       string    `json:"status"`
	CreationDate time.Time `json:"creationDate"`
}

func analystPayload(a *users.Analyst) analystResponse {
	return analystResponse{
		UID:          a.UID,
		Email:        a.Email,
		PhoneNumber:  a.PhoneNumber,
		Photo:        a.PhotoURL,
		Name:         a.Name,
		Description:  a.Description,
		Status:       string(a.Status),
		CreationDate: a.CreatedAt,
	}
}

type departmentResponse struct {
	UID          string    `json:"uid"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Address      string    `json:"address,omitempty"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	Categories   []int64   `json:"categories"`
	ServiceUID   string    `json:"serviceUid"`
	CreationDate time.Time `json:"creationDate"`
}

func departmentPayload(d *users.Department) departmentResponse {
	categories := d.Categories
	if categories == nil {
		categories = []int64{}
	}
	return departmentResponse{
		UID:          d.UID,
		Name:         d.Name,
		Description:  d.Description,
		Address:      d.Address,
		PhoneNumber:  d.PhoneNumber,
		Categories:   categories,
		ServiceUID:   d.ServiceUID,
		CreationDate: d.CreatedAt,
	}
}
