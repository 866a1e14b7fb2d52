package domain

// DefaultEmployeePassword is assigned to new employees when the company
// does not override it.
const DefaultEmployeePassword = "NTPL@2025"

// CompanyOverrides is the partial input merged onto the default template.
type CompanyOverrides struct {
	Code                      string
	Name                      string
	IsActive                  *bool
	SortOrder                 *int
	EmpPass                   string
	SentMailToEmpRegister     *bool
	SentMailToEmpTicketUpdate *bool
	Teams                     []Team
	AssetStatus               []AssetStatus
	TicketCategory            []TicketCategory
	TicketStatus              []TicketStatus
	OperatingSystems          []OperatingSystem
	RAMOptions                []string
	DriveOptions              []string
}

// DefaultCompany builds the template a new company starts from. newID mints
// the ids of every nested entry.
func DefaultCompany(newID func() string) Company {
	return Company{
		Code:                      "DEFAULT_CODE",
		Name:                      "Default Company",
		IsActive:                  true,
		EmpPass:                   DefaultEmployeePassword,
		SentMailToEmpRegister:     true,
		SentMailToEmpTicketUpdate: true,
		Teams: []Team{
			{ID: newID(), Team: "Development", IsActive: true, SortOrder: 1},
			{ID: newID(), Team: "Testing", IsActive: true, SortOrder: 2},
			{ID: newID(), Team: "Sales", IsActive: true, SortOrder: 3},
		},
		AssetStatus: []AssetStatus{
			{ID: newID(), Status: "Assigned", Color: "#16a34a", IsActive: true, SortOrder: 1, SystemKey: SystemKeyAssigned},
			{ID: newID(), Status: "In Stock", Color: "#2563eb", IsActive: true, SortOrder: 2, SystemKey: SystemKeyInStock},
			{ID: newID(), Status: "Under Repair", Color: "#facc15", IsActive: true, SortOrder: 3, SystemKey: SystemKeyUnderRepair},
			{ID: newID(), Status: "Retired", Color: "#dc2626", IsActive: true, SortOrder: 4},
		},
		TicketCategory: []TicketCategory{
			{ID: newID(), Category: "Hardware", IsActive: true, SortOrder: 1},
			{ID: newID(), Category: "Software", IsActive: true, SortOrder: 2},
			{ID: newID(), Category: "Network", IsActive: true, SortOrder: 3},
		},
		TicketStatus: []TicketStatus{
			{ID: newID(), Status: "Open", Color: "#dc2626", IsActive: true, SortOrder: 1, SystemKey: SystemKeyOpen},
			{ID: newID(), Status: "In Progress", Color: "#facc15", IsActive: true, SortOrder: 2},
			{ID: newID(), Status: "Resolved", Color: "#16a34a", IsActive: true, SortOrder: 3},
			{ID: newID(), Status: "Closed", Color: "#6b7280", IsActive: true, SortOrder: 4},
		},
		OperatingSystems: []OperatingSystem{
			{ID: newID(), OperatingSystem: "Windows", IsActive: true, SortOrder: 1, Version: []string{"10", "11"}},
			{ID: newID(), OperatingSystem: "mac", IsActive: true, SortOrder: 2, Version: []string{"air", "pro"}},
			{ID: newID(), OperatingSystem: "Linux", IsActive: true, SortOrder: 3, Version: []string{"l1", "l2"}},
		},
		RAMOptions:   []string{"8GB", "16GB", "32GB"},
		DriveOptions: []string{"256GB", "512GB", "1TB"},
	}
}

// Apply merges o onto c. Non-empty override fields replace the template's.
func (o CompanyOverrides) Apply(c Company) Company {
	if o.Code != "" {
		c.Code = o.Code
	}
	if o.Name != "" {
		c.Name = o.Name
	}
	if o.IsActive != nil {
		c.IsActive = *o.IsActive
	}
	if o.SortOrder != nil {
		c.SortOrder = *o.SortOrder
	}
	if o.EmpPass != "" {
		c.EmpPass = o.EmpPass
	}
	if o.SentMailToEmpRegister != nil {
		c.SentMailToEmpRegister = *o.SentMailToEmpRegister
	}
	if o.SentMailToEmpTicketUpdate != nil {
		c.SentMailToEmpTicketUpdate = *o.SentMailToEmpTicketUpdate
	}
	if len(o.Teams) > 0 {
		c.Teams = o.Teams
	}
	if len(o.AssetStatus) > 0 {
		c.AssetStatus = o.AssetStatus
	}
	if len(o.TicketCategory) > 0 {
		c.TicketCategory = o.TicketCategory
	}
	if len(o.TicketStatus) > 0 {
		c.TicketStatus = o.TicketStatus
	}
	if len(o.OperatingSystems) > 0 {
		c.OperatingSystems = o.OperatingSystems
	}
	if len(o.RAMOptions) > 0 {
		c.RAMOptions = o.RAMOptions
	}
	if len(o.DriveOptions) > 0 {
		c.DriveOptions = o.DriveOptions
	}
	return c
}
