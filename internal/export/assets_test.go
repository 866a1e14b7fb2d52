package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/techdesk-service/internal/domain"
)

func TestRoundTripSelectedColumns(t *testing.T) {
	cols, err := ResolveColumns([]string{"tag", "status", "history", "installedSoftware", "serialNumber"})
	require.NoError(t, err)

	rows := []Row{
		{
			Asset: domain.Asset{
				Tag:               "LAP-001",
				History:           []domain.HistoryEntry{{Date: "2024-01-02", Note: "battery"}, {Date: "2024-03-04", Note: "keyboard"}},
				InstalledSoftware: []domain.Software{{Name: "Office", Version: "2021"}},
			},
			StatusLabel: "Assigned",
		},
		{Asset: domain.Asset{Tag: "LAP-002", SerialNumber: "SN-9"}, StatusLabel: "In Stock"},
	}

	buf, err := Build(Sheet{Title: "Assets - Acme", Filters: "Status: All", Columns: cols, Rows: rows})
	require.NoError(t, err)

	header, data, err := ReadTable(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tag", "Status", "History", "Installed Software", "Serial Number"}, header)
	require.Len(t, data, 2)
	assert.Equal(t, []string{"LAP-001", "Assigned", "2024-01-02 - battery; 2024-03-04 - keyboard", "Office 2021", ""}, data[0])
	assert.Equal(t, []string{"LAP-002", "In Stock", "", "", "SN-9"}, data[1])
}

func TestResolveColumns(t *testing.T) {
	all, err := ResolveColumns(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultColumnKeys()))

	_, err = ResolveColumns([]string{"tag", "nope"})
	assert.Error(t, err)

	dedup, err := ResolveColumns([]string{"tag", "tag", "name"})
	require.NoError(t, err)
	require.Len(t, dedup, 2)
	assert.Equal(t, "name", dedup[1].Key)
}

func TestBuildNeedsColumns(t *testing.T) {
	_, err := Build(Sheet{})
	assert.Error(t, err)
}
