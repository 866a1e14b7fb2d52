package dto

import (
	"time"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

// AssetRequest creates or replaces an asset.
type AssetRequest struct {
	Name              string                `json:"name"`
	Model             string                `json:"model"`
	Tag               string                `json:"tag"`
	Status            string                `json:"status"`
	AssignedTo        string                `json:"assigned_to"`
	OS                string                `json:"os"`
	OSVersion         string                `json:"os_version"`
	RAM               string                `json:"ram"`
	Drive             string                `json:"drive"`
	SerialNumber      string                `json:"serial_number"`
	PurchaseDate      string                `json:"purchase_date"`
	Peripherals       string                `json:"peripherals"`
	History           []domain.HistoryEntry `json:"history"`
	InstalledSoftware []domain.Software     `json:"installed_software"`
}

// HistoryRequest appends one history note.
type HistoryRequest struct {
	Note string `json:"note"`
	Date string `json:"date"`
}

// AssetListQuery filters the admin asset listing.
type AssetListQuery struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

// AssetResponse is the asset document.
type AssetResponse struct {
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	Model             string                `json:"model"`
	Tag               string                `json:"tag"`
	Status            string                `json:"status"`
	AssignedTo        string                `json:"assigned_to"`
	AssignedToName    string                `json:"assigned_to_name"`
	OS                string                `json:"os"`
	OSVersion         string                `json:"os_version"`
	RAM               string                `json:"ram"`
	Drive             string                `json:"drive"`
	SerialNumber      string                `json:"serial_number"`
	PurchaseDate      string                `json:"purchase_date"`
	Peripherals       string                `json:"peripherals"`
	CompanyID         string                `json:"company_id"`
	History           []domain.HistoryEntry `json:"history"`
	InstalledSoftware []domain.Software     `json:"installed_software"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// AssetFromDomain maps an asset.
func AssetFromDomain(a *domain.Asset) AssetResponse {
	return AssetResponse{
		ID:                a.ID,
		Name:              a.Name,
		Model:             a.Model,
		Tag:               a.Tag,
		Status:            a.Status,
		AssignedTo:        a.AssignedTo,
		AssignedToName:    a.AssignedToName,
		OS:                a.OS,
		OSVersion:         a.OSVersion,
		RAM:               a.RAM,
		Drive:             a.Drive,
		SerialNumber:      a.SerialNumber,
		PurchaseDate:      a.PurchaseDate,
		Peripherals:       a.Peripherals,
		CompanyID:         a.CompanyID,
		History:           nonNil(a.History),
		InstalledSoftware: nonNil(a.InstalledSoftware),
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// AssetsFromDomain maps a list.
func AssetsFromDomain(assets []domain.Asset) []AssetResponse {
	out := make([]AssetResponse, 0, len(assets))
	for i := range assets {
		out = append(out, AssetFromDomain(&assets[i]))
	}
	return out
}
