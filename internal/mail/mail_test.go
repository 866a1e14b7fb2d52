package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsPayload(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mail/sendMail", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/mail/sendMail", time.Second)
	err := c.Send(context.Background(), Message{To: []string{"a@x.io", "b@x.io"}, Subject: "S", HTML: "<p>b</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, got.Emails)
	assert.Equal(t, "S", got.Subject)
	assert.Equal(t, "<p>b</p>", got.Body)
}

func TestSendReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reject":
			_, _ = w.Write([]byte(`{"success":false,"error":"bad recipient"}`))
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()
	msg := Message{To: []string{"a@x.io"}, Subject: "S"}

	var rejected *RejectedError
	err := NewClient(srv.URL+"/reject", time.Second).Send(context.Background(), msg)
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "bad recipient", rejected.Reason)

	var status *StatusError
	err = NewClient(srv.URL+"/down", time.Second).Send(context.Background(), msg)
	require.ErrorAs(t, err, &status)
	assert.True(t, status.Retryable())

	err = NewClient(srv.URL+"/bad", time.Second).Send(context.Background(), msg)
	require.ErrorAs(t, err, &status)
	assert.False(t, status.Retryable())
}

func TestSendWithoutEndpoint(t *testing.T) {
	err := NewClient("", time.Second).Send(context.Background(), Message{To: []string{"a@x.io"}})
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestTemplates(t *testing.T) {
	msg, err := RenderTicketCreated([]string{"admin@x.io"}, TicketCreated{Title: "VPN down", Category: "Network", RaisedBy: "Eve", Description: "<script>"})
	require.NoError(t, err)
	assert.Equal(t, "New Ticket Created: VPN down", msg.Subject)
	assert.Contains(t, msg.HTML, "Network")
	assert.NotContains(t, msg.HTML, "<script>")

	msg, err = RenderTicketUpdated("eve@x.io", TicketUpdated{Title: "VPN down", Status: "Resolved", Comment: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "Update on Your Ticket: VPN down", msg.Subject)
	assert.Equal(t, []string{"eve@x.io"}, msg.To)
	assert.Contains(t, msg.HTML, "Resolved")

	msg, err = RenderAccountCreated(AccountCreated{Name: "Eve", Email: "eve@x.io", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Your TeckDesk Account Has Been Created", msg.Subject)

	msg, err = RenderAccountCreated(AccountCreated{Name: "Ada", Email: "ada@x.io", Password: "pw", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, "Your TeckDesk Admin Account Has Been Created", msg.Subject)

	msg, err = RenderPasswordReset(PasswordReset{Email: "eve@x.io", ResetURL: "http://x/reset?token=t", ExpiresAt: time.Now()})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "token=t")
}
