package mail

import (
	"bytes"
	"html/template"
	"time"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "ticket_created"}}<div style="font-family:Arial,sans-serif">
<h2>New Ticket Created</h2>
<p><strong>{{.RaisedBy}}</strong> raised a new ticket{{if .CompanyName}} for {{.CompanyName}}{{end}}.</p>
<table cellpadding="4">
<tr><td><strong>Title</strong></td><td>{{.Title}}</td></tr>
<tr><td><strong>Category</strong></td><td>{{.Category}}</td></tr>
{{if .AssetTag}}<tr><td><strong>Asset</strong></td><td>{{.AssetTag}}</td></tr>{{end}}
<tr><td><strong>Description</strong></td><td>{{.Description}}</td></tr>
</table>
</div>{{end}}

{{define "ticket_updated"}}<div style="font-family:Arial,sans-serif">
<h2>Update on Your Ticket</h2>
<p>Hello {{.EmployeeName}},</p>
<p>Your ticket <strong>{{.Title}}</strong> was updated by {{.UpdatedBy}}.</p>
{{if .Status}}<p>Current status: <strong>{{.Status}}</strong></p>{{end}}
{{if .Comment}}<p>Comment:</p><blockquote>{{.Comment}}</blockquote>{{end}}
</div>{{end}}

{{define "account_created"}}<div style="font-family:Arial,sans-serif">
<h2>Welcome to TeckDesk</h2>
<p>Hello {{.Name}},</p>
<p>Your {{if .Admin}}admin {{end}}account has been created.</p>
<p>Email: <strong>{{.Email}}</strong><br>Password: <strong>{{.Password}}</strong></p>
<p>Sign in at <a href="{{.LoginURL}}">{{.LoginURL}}</a> and change your password.</p>
</div>{{end}}

{{define "password_reset"}}<div style="font-family:Arial,sans-serif">
<h2>Reset Your Password</h2>
<p>A password reset was requested for {{.Email}}.</p>
<p><a href="{{.ResetURL}}">Reset your password</a> before {{.ExpiresAt.Format "2006-01-02 15:04 MST"}}.</p>
<p>If you did not request this, ignore this mail.</p>
</div>{{end}}
`))

// TicketCreated feeds the admin notification for a new ticket.
type TicketCreated struct {
	Title       string
	Description string
	Category    string
	AssetTag    string
	RaisedBy    string
	CompanyName string
}

// TicketUpdated feeds the employee notification for a ticket change.
type TicketUpdated struct {
	Title        string
	EmployeeName string
	UpdatedBy    string
	Status       string
	Comment      string
}

// AccountCreated feeds the welcome mail.
type AccountCreated struct {
	Name     string
	Email    string
	Password string
	LoginURL string
	Admin    bool
}

// PasswordReset feeds the reset link mail.
type PasswordReset struct {
	Email     string
	ResetURL  string
	ExpiresAt time.Time
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTicketCreated builds the admin notification.
func RenderTicketCreated(to []string, d TicketCreated) (Message, error) {
	body, err := render("ticket_created", d)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "New Ticket Created: " + d.Title, HTML: body}, nil
}

// RenderTicketUpdated builds the employee notification.
func RenderTicketUpdated(to string, d TicketUpdated) (Message, error) {
	body, err := render("ticket_updated", d)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: "Update on Your Ticket: " + d.Title, HTML: body}, nil
}

// RenderAccountCreated builds the welcome mail for employees and admins.
func RenderAccountCreated(d AccountCreated) (Message, error) {
	body, err := render("account_created", d)
	if err != nil {
		return Message{}, err
	}
	subject := "Your TeckDesk Account Has Been Created"
	if d.Admin {
		subject = "Your TeckDesk Admin Account Has Been Created"
	}
	return Message{To: []string{d.Email}, Subject: subject, HTML: body}, nil
}

// RenderPasswordReset builds the reset link mail.
func RenderPasswordReset(d PasswordReset) (Message, error) {
	body, err := render("password_reset", d)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{d.Email}, Subject: "Reset Your TeckDesk Password", HTML: body}, nil
}
