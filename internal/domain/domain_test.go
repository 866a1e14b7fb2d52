package domain

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

func TestActiveSortedFiltersAndKeepsTieOrder(t *testing.T) {
	teams := []Team{
		{ID: "a", Team: "A", IsActive: true, SortOrder: 2},
		{ID: "b", Team: "B", IsActive: false, SortOrder: 0},
		{ID: "c", Team: "C", IsActive: true, SortOrder: 1},
		{ID: "d", Team: "D", IsActive: true, SortOrder: 2},
	}

	got := ActiveSorted(teams)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "d"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestDefaultCompanyCarriesSystemKeys(t *testing.T) {
	c := DefaultCompany(sequentialIDs())

	open, ok := c.TicketStatusByKey(SystemKeyOpen)
	require.True(t, ok)
	assert.Equal(t, "Open", open.Status)

	for _, key := range []SystemKey{SystemKeyAssigned, SystemKeyInStock, SystemKeyUnderRepair} {
		_, ok := c.AssetStatusByKey(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, DefaultEmployeePassword, c.EmpPass)
}

func TestOverridesApply(t *testing.T) {
	inactive := false
	c := CompanyOverrides{Code: "ACME", Name: "Acme", IsActive: &inactive, RAMOptions: []string{"64GB"}}.
		Apply(DefaultCompany(sequentialIDs()))

	assert.Equal(t, "ACME", c.Code)
	assert.False(t, c.IsActive)
	assert.Equal(t, []string{"64GB"}, c.RAMOptions)
	assert.Len(t, c.Teams, 3)
}

func TestProtectedRemoval(t *testing.T) {
	current := DefaultCompany(sequentialIDs())

	next := current
	next.TicketStatus = current.TicketStatus[1:]
	assert.Equal(t, "Open", current.ProtectedRemoval(next))

	renamed := current
	renamed.TicketStatus = append([]TicketStatus(nil), current.TicketStatus...)
	renamed.TicketStatus[0].Status = "New"
	assert.Empty(t, current.ProtectedRemoval(renamed))
}

func TestTicketFilterPreservesOrder(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tickets := []Ticket{
		{ID: "1", Status: "x", Timestamp: base},
		{ID: "2", Status: "y", Timestamp: base.Add(time.Hour)},
		{ID: "3", Status: "x", Timestamp: base.Add(2 * time.Hour)},
	}
	SortNewestFirst(tickets)
	assert.Equal(t, "3", tickets[0].ID)

	filtered := FilterTickets(tickets, TicketFilter{Status: "x"})
	require.Len(t, filtered, 2)
	assert.Equal(t, "3", filtered[0].ID)
	assert.Equal(t, "1", filtered[1].ID)
}

func TestCountByStatus(t *testing.T) {
	stats := CountByStatus([]Ticket{{Status: "a"}, {Status: "a"}, {Status: "b"}})
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus["a"])
	assert.Equal(t, 1, stats.ByStatus["b"])
}

func TestCheckInvariants(t *testing.T) {
	now := time.Now()
	ok := Ticket{Status: "b", StatusLogs: []StatusLog{{Status: "a", Timestamp: now}, {Status: "b", Timestamp: now}}}
	assert.NoError(t, ok.CheckInvariants())

	assert.Error(t, Ticket{Status: "a"}.CheckInvariants())
	assert.Error(t, Ticket{Status: "a", StatusLogs: []StatusLog{{Status: "b", Timestamp: now}}}.CheckInvariants())
	assert.Error(t, Ticket{Status: "a", StatusLogs: []StatusLog{
		{Status: "b", Timestamp: now}, {Status: "a", Timestamp: now.Add(-time.Second)},
	}}.CheckInvariants())
}

func TestAssetFlatteningAndSearch(t *testing.T) {
	a := Asset{
		Name: "ThinkPad", Tag: "LAP-001", AssignedToName: "Grace",
		History:           []HistoryEntry{{Date: "2024-01-02", Note: "battery"}, {Date: "2024-05-01", Note: "screen"}},
		InstalledSoftware: []Software{{Name: "Office", Version: "2021"}, {Name: "Zoom"}},
	}
	assert.Equal(t, "2024-01-02 - battery; 2024-05-01 - screen", FlattenHistory(a.History))
	assert.Equal(t, "Office 2021; Zoom", FlattenSoftware(a.InstalledSoftware))
	assert.True(t, a.MatchesSearch("lap"))
	assert.True(t, a.MatchesSearch("grace"))
	assert.False(t, a.MatchesSearch("mac"))
	assert.Equal(t, "lap-001", NormalizeTag(" LAP-001 "))
}

func TestEmployeeNameMatches(t *testing.T) {
	e := Employee{Name: "Ada Lovelace"}
	assert.True(t, e.NameMatches("love"))
	assert.False(t, e.NameMatches(""))
}

func TestResetTokenUsable(t *testing.T) {
	now := time.Now()
	token := &PasswordResetToken{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, token.Usable(now))
	token.UsedAt = &now
	assert.False(t, token.Usable(now))
}
