package memory

import (
	"context"
	"slices"

	"github.com/spec-kit/techdesk-service/internal/domain"
	"github.com/spec-kit/techdesk-service/internal/repository"
)

type companyRepo struct{ s *Store }

func (r *companyRepo) Create(_ context.Context, company *domain.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	company.ID = newID()
	company.CreatedAt = r.s.now()
	company.UpdatedAt = company.CreatedAt
	r.s.companies.put(company.ID, cloneCompany(*company))
	return nil
}

func (r *companyRepo) Update(_ context.Context, company *domain.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.companies.get(company.ID)
	if !ok {
		return repository.ErrNotFound
	}
	company.CreatedAt = existing.CreatedAt
	company.UpdatedAt = r.s.now()
	r.s.companies.put(company.ID, cloneCompany(*company))
	return nil
}

func (r *companyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.companies.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = cloneCompany(c)
	return &c, nil
}

func (r *companyRepo) ListActive(_ context.Context) ([]domain.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.companies.all(func(c domain.Company) bool { return c.IsActive })
	for i := range out {
		out[i] = cloneCompany(out[i])
	}
	return out, nil
}

func (r *companyRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.companies.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}

type employeeRepo struct{ s *Store }

func (r *employeeRepo) Create(_ context.Context, employee *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if employee.ID == "" {
		employee.ID = newID()
	}
	employee.CreatedAt = r.s.now()
	employee.UpdatedAt = employee.CreatedAt
	r.s.employees.put(employee.ID, *employee)
	return nil
}

func (r *employeeRepo) Update(_ context.Context, employee *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.employees.get(employee.ID)
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = employee.Name
	existing.Team = employee.Team
	existing.DateOfJoining = employee.DateOfJoining
	existing.UpdatedAt = r.s.now()
	r.s.employees.put(existing.ID, existing)
	employee.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *employeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.employees.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *employeeRepo) ListByCompany(_ context.Context, companyID string) ([]domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.employees.all(func(e domain.Employee) bool { return e.CompanyID == companyID }), nil
}

func (r *employeeRepo) ListByTeam(_ context.Context, companyID, team string) ([]domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.employees.all(func(e domain.Employee) bool {
		return e.CompanyID == companyID && e.Team == team
	}), nil
}

func (r *employeeRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.employees.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}

type adminRepo struct{ s *Store }

func (r *adminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if admin.UID == "" {
		admin.UID = newID()
	}
	admin.CreatedAt = r.s.now()
	admin.UpdatedAt = admin.CreatedAt
	r.s.admins.put(admin.UID, *admin)
	return nil
}

func (r *adminRepo) Update(_ context.Context, admin *domain.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.admins.get(admin.UID)
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = admin.Name
	existing.MailFromEmployee = admin.MailFromEmployee
	existing.IsActive = admin.IsActive
	existing.UpdatedAt = r.s.now()
	r.s.admins.put(existing.UID, existing)
	admin.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *adminRepo) GetByUID(_ context.Context, uid string) (*domain.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.admins.get(uid)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *adminRepo) List(_ context.Context) ([]domain.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.admins.all(nil), nil
}

func (r *adminRepo) ListNotifiable(_ context.Context) ([]domain.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.admins.all(func(a domain.Admin) bool { return a.IsActive && a.MailFromEmployee }), nil
}

func (r *adminRepo) Delete(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.admins.remove(uid) {
		return repository.ErrNotFound
	}
	return nil
}

type assetRepo struct{ s *Store }

// tagTaken mirrors the unique index on (company_id, tag_lower).
func (r *assetRepo) tagTaken(a domain.Asset) bool {
	for _, other := range r.s.assets.all(nil) {
		if other.ID != a.ID && other.CompanyID == a.CompanyID && other.TagLower == a.TagLower {
			return true
		}
	}
	return false
}

func (r *assetRepo) Create(_ context.Context, asset *domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.tagTaken(*asset) {
		return repository.ErrDuplicateTag
	}
	asset.ID = newID()
	asset.CreatedAt = r.s.now()
	asset.UpdatedAt = asset.CreatedAt
	r.s.assets.put(asset.ID, cloneAsset(*asset))
	return nil
}

func (r *assetRepo) Update(_ context.Context, asset *domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.assets.get(asset.ID)
	if !ok {
		return repository.ErrNotFound
	}
	if r.tagTaken(*asset) {
		return repository.ErrDuplicateTag
	}
	asset.CompanyID = existing.CompanyID
	asset.CreatedAt = existing.CreatedAt
	asset.UpdatedAt = r.s.now()
	r.s.assets.put(asset.ID, cloneAsset(*asset))
	return nil
}

func (r *assetRepo) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.assets.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = cloneAsset(a)
	return &a, nil
}

func (r *assetRepo) ListByCompany(_ context.Context, companyID string) ([]domain.Asset, error) {
	return r.list(func(a domain.Asset) bool { return a.CompanyID == companyID }), nil
}

func (r *assetRepo) ListByEmployee(_ context.Context, employeeID string) ([]domain.Asset, error) {
	return r.list(func(a domain.Asset) bool { return a.AssignedTo == employeeID }), nil
}

func (r *assetRepo) FindByTag(_ context.Context, companyID, tagLower string) ([]domain.Asset, error) {
	return r.list(func(a domain.Asset) bool { return a.CompanyID == companyID && a.TagLower == tagLower }), nil
}

func (r *assetRepo) UnassignEmployee(_ context.Context, employeeID, statusID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.assets.all(func(a domain.Asset) bool { return a.AssignedTo == employeeID }) {
		a.Status = statusID
		a.ClearAssignment()
		a.UpdatedAt = r.s.now()
		r.s.assets.put(a.ID, a)
		n++
	}
	return n, nil
}

func (r *assetRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.assets.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}

// list returns matches newest first, like the SQL implementation.
func (r *assetRepo) list(keep func(domain.Asset) bool) []domain.Asset {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.assets.all(keep)
	for i := range out {
		out[i] = cloneAsset(out[i])
	}
	slices.Reverse(out)
	return out
}

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	ticket.ID = newID()
	ticket.Timestamp = now
	ticket.UpdatedAt = now
	ticket.Version = 1
	ticket.StatusLogs = []domain.StatusLog{{
		Status:        ticket.Status,
		UpdatedByName: ticket.RaisedByName,
		Timestamp:     now,
		IsAdmin:       false,
	}}
	ticket.Comments = []domain.Comment{}
	if ticket.PhotoURLs == nil {
		ticket.PhotoURLs = []string{}
	}
	r.s.tickets.put(ticket.ID, cloneTicket(*ticket))
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	t = cloneTicket(t)
	return &t, nil
}

func (r *ticketRepo) ListByCompany(_ context.Context, companyID string) ([]domain.Ticket, error) {
	return r.list(func(t domain.Ticket) bool { return t.CompanyID == companyID }), nil
}

func (r *ticketRepo) ListByRaiser(_ context.Context, employeeID string) ([]domain.Ticket, error) {
	return r.list(func(t domain.Ticket) bool { return t.RaisedBy == employeeID }), nil
}

func (r *ticketRepo) ApplyUpdate(_ context.Context, u repository.TicketUpdate) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets.get(u.TicketID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.Version != u.ExpectedVersion {
		return nil, repository.ErrVersionConflict
	}
	t = cloneTicket(t)
	now := r.s.now()
	if u.HasStatus() {
		t.Status = u.NewStatus
		t.StatusLogs = append(t.StatusLogs, domain.StatusLog{
			Status:        u.NewStatus,
			UpdatedByName: u.ActorName,
			Timestamp:     now,
			IsAdmin:       u.IsAdmin,
		})
	}
	if u.HasComment() {
		t.Comments = append(t.Comments, domain.Comment{
			Message:       u.Comment,
			Timestamp:     now,
			UpdatedByName: u.ActorName,
			IsAdmin:       u.IsAdmin,
		})
	}
	t.Version++
	t.UpdatedAt = now
	r.s.tickets.put(t.ID, t)
	out := cloneTicket(t)
	return &out, nil
}

func (r *ticketRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.tickets.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ticketRepo) list(keep func(domain.Ticket) bool) []domain.Ticket {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.tickets.all(keep)
	for i := range out {
		out[i] = cloneTicket(out[i])
	}
	domain.SortNewestFirst(out)
	return out
}

type identityRepo struct{ s *Store }

func (r *identityRepo) Create(_ context.Context, identity *domain.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.identities.all(nil) {
		if sameEmail(existing.Email, identity.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	identity.UID = newID()
	identity.CreatedAt = r.s.now()
	identity.UpdatedAt = identity.CreatedAt
	r.s.identities.put(identity.UID, *identity)
	return nil
}

func (r *identityRepo) GetByUID(_ context.Context, uid string) (*domain.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i, ok := r.s.identities.get(uid)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &i, nil
}

func (r *identityRepo) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, i := range r.s.identities.all(nil) {
		if sameEmail(i.Email, email) {
			return &i, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *identityRepo) UpdatePassword(_ context.Context, uid, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.identities.get(uid)
	if !ok {
		return repository.ErrNotFound
	}
	i.PasswordHash = passwordHash
	i.UpdatedAt = r.s.now()
	r.s.identities.put(uid, i)
	return nil
}

func (r *identityRepo) Delete(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.identities.remove(uid) {
		return repository.ErrNotFound
	}
	for _, t := range r.s.resets.all(func(t domain.PasswordResetToken) bool { return t.UID == uid }) {
		r.s.resets.remove(t.ID)
	}
	return nil
}

type resetRepo struct{ s *Store }

func (r *resetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.identities.get(token.UID); !ok {
		return repository.ErrNotFound
	}
	token.ID = newID()
	token.CreatedAt = r.s.now()
	r.s.resets.put(token.ID, *token)
	return nil
}

func (r *resetRepo) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.resets.all(nil) {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *resetRepo) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.resets.get(id)
	if !ok || t.UsedAt != nil {
		return repository.ErrNotFound
	}
	now := r.s.now()
	t.UsedAt = &now
	r.s.resets.put(id, t)
	return nil
}
