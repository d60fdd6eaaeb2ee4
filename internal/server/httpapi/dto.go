package httpapi

import (
	"time"

	"github.com/dmitrijs2005/erm/internal/server/models"
)

// UserRequest is the body of user create and update requests.
type UserRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
}

type UserResponse struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

type ProjectRequest struct {
	Name string `json:"name"`
}

type ProjectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type PageInfo struct {
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

type PagedResponse[T any] struct {
	Items []T      `json:"items"`
	Page  PageInfo `json:"page"`
}

func toUserResponse(u *models.User) UserResponse {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Roles: roles}
}

func toProjectResponse(p *models.ExternalProject) ProjectResponse {
	return ProjectResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
}

func toPagedResponse[T, U any](p models.Page[T], fn func(T) U) PagedResponse[U] {
	mapped := models.MapPage(p, fn)
	return PagedResponse[U]{
		Items: mapped.Items,
		Page: PageInfo{
			TotalPages:    mapped.TotalPages,
			TotalElements: mapped.TotalElements,
			Size:          mapped.Size,
			Number:        mapped.Index,
			First:         mapped.First,
			Last:          mapped.Last,
		},
	}
}
