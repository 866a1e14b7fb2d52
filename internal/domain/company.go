package domain

import (
	"cmp"
	"slices"
	"time"
)

// SystemKey marks configuration rows the application depends on structurally.
type SystemKey string

const (
	SystemKeyOpen        SystemKey = "OPEN"
	SystemKeyAssigned    SystemKey = "ASSIGNED"
	SystemKeyInStock     SystemKey = "IN_STOCK"
	SystemKeyUnderRepair SystemKey = "UNDER_REPAIR"
)

// Team is a selectable team inside a company.
type Team struct {
	ID        string `json:"id"`
	Team      string `json:"team"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

// AssetStatus is a configurable asset lifecycle state.
type AssetStatus struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Color     string    `json:"color,omitempty"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
	SystemKey SystemKey `json:"system_key,omitempty"`
}

// TicketCategory classifies tickets.
type TicketCategory struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

// TicketStatus is a configurable ticket state.
type TicketStatus struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Color     string    `json:"color,omitempty"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
	SystemKey SystemKey `json:"system_key,omitempty"`
}

// OperatingSystem is a selectable OS family with its known versions.
type OperatingSystem struct {
	ID              string   `json:"id"`
	OperatingSystem string   `json:"operating_system"`
	IsActive        bool     `json:"is_active"`
	SortOrder       int      `json:"sort_order"`
	Version         []string `json:"version"`
}

func (t Team) active() bool            { return t.IsActive }
func (t Team) order() int              { return t.SortOrder }
func (s AssetStatus) active() bool     { return s.IsActive }
func (s AssetStatus) order() int       { return s.SortOrder }
func (c TicketCategory) active() bool  { return c.IsActive }
func (c TicketCategory) order() int    { return c.SortOrder }
func (s TicketStatus) active() bool    { return s.IsActive }
func (s TicketStatus) order() int      { return s.SortOrder }
func (o OperatingSystem) active() bool { return o.IsActive }
func (o OperatingSystem) order() int   { return o.SortOrder }

type option interface {
	active() bool
	order() int
}

// Company is the tenant together with its full configuration document.
type Company struct {
	ID                        string
	Code                      string
	Name                      string
	IsActive                  bool
	SortOrder                 int
	EmpPass                   string
	SentMailToEmpRegister     bool
	SentMailToEmpTicketUpdate bool
	Teams                     []Team
	AssetStatus               []AssetStatus
	TicketCategory            []TicketCategory
	TicketStatus              []TicketStatus
	OperatingSystems          []OperatingSystem
	RAMOptions                []string
	DriveOptions              []string
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// ActiveSorted keeps the active entries ordered by ascending sortOrder. Ties
// keep their stored order.
func ActiveSorted[T option](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.active() {
			out = append(out, item)
		}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(a.order(), b.order())
	})
	return out
}

// Normalized returns a copy whose nested collections only hold active
// entries in display order.
func (c Company) Normalized() Company {
	n := c
	n.Teams = ActiveSorted(c.Teams)
	n.AssetStatus = ActiveSorted(c.AssetStatus)
	n.TicketCategory = ActiveSorted(c.TicketCategory)
	n.TicketStatus = ActiveSorted(c.TicketStatus)
	n.OperatingSystems = ActiveSorted(c.OperatingSystems)
	n.RAMOptions = slices.Clone(c.RAMOptions)
	n.DriveOptions = slices.Clone(c.DriveOptions)
	return n
}

// TicketStatusByKey returns the ticket status carrying key.
func (c Company) TicketStatusByKey(key SystemKey) (TicketStatus, bool) {
	for _, s := range c.TicketStatus {
		if s.SystemKey == key {
			return s, true
		}
	}
	return TicketStatus{}, false
}

// TicketStatusByID looks up a ticket status by id.
func (c Company) TicketStatusByID(id string) (TicketStatus, bool) {
	for _, s := range c.TicketStatus {
		if s.ID == id {
			return s, true
		}
	}
	return TicketStatus{}, false
}

// AssetStatusByKey returns the asset status carrying key.
func (c Company) AssetStatusByKey(key SystemKey) (AssetStatus, bool) {
	for _, s := range c.AssetStatus {
		if s.SystemKey == key {
			return s, true
		}
	}
	return AssetStatus{}, false
}

// AssetStatusByID looks up an asset status by id.
func (c Company) AssetStatusByID(id string) (AssetStatus, bool) {
	for _, s := range c.AssetStatus {
		if s.ID == id {
			return s, true
		}
	}
	return AssetStatus{}, false
}

// CategoryByID looks up a ticket category by id.
func (c Company) CategoryByID(id string) (TicketCategory, bool) {
	for _, cat := range c.TicketCategory {
		if cat.ID == id {
			return cat, true
		}
	}
	return TicketCategory{}, false
}

// OperatingSystemNames lists the OS family names in display order.
func (c Company) OperatingSystemNames() []string {
	names := make([]string, 0, len(c.OperatingSystems))
	for _, os := range c.OperatingSystems {
		names = append(names, os.OperatingSystem)
	}
	return names
}

// ProtectedRemoval names the first system-keyed row present in c but missing
// (by id) from next, or with its key changed. Empty means next is acceptable.
func (c Company) ProtectedRemoval(next Company) string {
	for _, s := range c.TicketStatus {
		if s.SystemKey == "" {
			continue
		}
		if got, ok := next.TicketStatusByID(s.ID); !ok || got.SystemKey != s.SystemKey || !got.IsActive {
			return s.Status
		}
	}
	for _, s := range c.AssetStatus {
		if s.SystemKey == "" {
			continue
		}
		if got, ok := next.AssetStatusByID(s.ID); !ok || got.SystemKey != s.SystemKey || !got.IsActive {
			return s.Status
		}
	}
	return ""
}
