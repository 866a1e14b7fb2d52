package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set bundles one repository per collection.
type Set struct {
	Companies      CompanyRepository
	Employees      EmployeeRepository
	Admins         AdminRepository
	Assets         AssetRepository
	Tickets        TicketRepository
	Identities     IdentityRepository
	PasswordResets PasswordResetRepository
}

// NewPostgresSet wires every repository onto the same pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Companies:      NewCompanyRepository(pool),
		Employees:      NewEmployeeRepository(pool),
		Admins:         NewAdminRepository(pool),
		Assets:         NewAssetRepository(pool),
		Tickets:        NewTicketRepository(pool),
		Identities:     NewIdentityRepository(pool),
		PasswordResets: NewPasswordResetRepository(pool),
	}
}
