package dto

import (
	"time"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AssetTag    string   `json:"asset_tag"`
	Category    string   `json:"category"`
	PhotoURLs   []string `json:"photo_urls"`
}

// UpdateTicketRequest adds a comment, changes the status, or both.
type UpdateTicketRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// TicketListQuery captures the admin listing filters.
type TicketListQuery struct {
	Status   string `query:"status"`
	Category string `query:"category"`
	Employee string `query:"employee"`
}

// Filter converts the query to a domain filter.
func (q TicketListQuery) Filter() domain.TicketFilter {
	return domain.TicketFilter{Status: q.Status, Category: q.Category, Employee: q.Employee}
}

// TicketResponse is the full ticket document.
type TicketResponse struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	AssetTag     string             `json:"asset_tag"`
	Category     string             `json:"category"`
	RaisedBy     string             `json:"raised_by"`
	RaisedByName string             `json:"raised_by_name"`
	Team         string             `json:"team"`
	CompanyID    string             `json:"company_id"`
	Status       string             `json:"status"`
	StatusLogs   []domain.StatusLog `json:"status_logs"`
	Comments     []domain.Comment   `json:"comments"`
	PhotoURLs    []string           `json:"photo_urls"`
	Timestamp    time.Time          `json:"timestamp"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// TicketFromDomain maps a ticket to its response.
func TicketFromDomain(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		AssetTag:     t.AssetTag,
		Category:     t.Category,
		RaisedBy:     t.RaisedBy,
		RaisedByName: t.RaisedByName,
		Team:         t.Team,
		CompanyID:    t.CompanyID,
		Status:       t.Status,
		StatusLogs:   nonNil(t.StatusLogs),
		Comments:     nonNil(t.Comments),
		PhotoURLs:    nonNil(t.PhotoURLs),
		Timestamp:    t.Timestamp,
		UpdatedAt:    t.UpdatedAt,
	}
}

// TicketsFromDomain maps a list.
func TicketsFromDomain(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, TicketFromDomain(&tickets[i]))
	}
	return out
}

// UploadResponse is the stored path of an uploaded photo.
type UploadResponse struct {
	Path string `json:"path"`
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
