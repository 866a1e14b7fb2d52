package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/techdesk-service/internal/domain"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

func laptop(f *fixture, t *testing.T, tag string) AssetInput {
	return AssetInput{
		Name:         "ThinkPad",
		Model:        "T14",
		Tag:          tag,
		Status:       f.assetStatus(t, domain.SystemKeyInStock),
		PurchaseDate: "2024-03-01",
	}
}

func TestAssetTagUniquePerCompanyIgnoringCase(t *testing.T) {
	f := newFixture(t)

	_, err := f.assets.CreateAsset(f.ctx, f.admin, laptop(f, t, "LT-001"))
	require.NoError(t, err)

	_, err = f.assets.CreateAsset(f.ctx, f.admin, laptop(f, t, " lt-001 "))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDuplicateTag))

	other, err := f.lookup.CreateCompany(f.ctx, f.admin, domain.CompanyOverrides{Code: "BETA", Name: "Beta"})
	require.NoError(t, err)
	inStock, ok := other.AssetStatusByKey(domain.SystemKeyInStock)
	require.True(t, ok)
	elsewhere := f.admin
	elsewhere.CompanyID = other.ID
	input := laptop(f, t, "LT-001")
	input.Status = inStock.ID
	_, err = f.assets.CreateAsset(f.ctx, elsewhere, input)
	assert.NoError(t, err)
}

func TestUpdateAssetKeepsOwnTag(t *testing.T) {
	f := newFixture(t)
	asset, err := f.assets.CreateAsset(f.ctx, f.admin, laptop(f, t, "LT-002"))
	require.NoError(t, err)

	input := laptop(f, t, "LT-002")
	input.Name = "ThinkPad X1"
	updated, err := f.assets.UpdateAsset(f.ctx, f.admin, asset.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad X1", updated.Name)
	assert.Equal(t, asset.CreatedAt, updated.CreatedAt)
}

func TestAssetAssignmentRules(t *testing.T) {
	f := newFixture(t)
	emp := f.employee(t, "Eve", "eve@acme.test")

	input := laptop(f, t, "LT-003")
	input.Status = f.assetStatus(t, domain.SystemKeyAssigned)
	_, err := f.assets.CreateAsset(f.ctx, f.admin, input)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	input.AssignedTo = emp.UID
	assigned, err := f.assets.CreateAsset(f.ctx, f.admin, input)
	require.NoError(t, err)
	assert.Equal(t, "Eve", assigned.AssignedToName)

	mine, err := f.assets.GetAssetForActor(f.ctx, emp, assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, assigned.ID, mine.ID)

	input.Status = f.assetStatus(t, domain.SystemKeyInStock)
	stocked, err := f.assets.UpdateAsset(f.ctx, f.admin, assigned.ID, input)
	require.NoError(t, err)
	assert.Empty(t, stocked.AssignedTo)
	assert.Empty(t, stocked.AssignedToName)

	_, err = f.assets.GetAssetForActor(f.ctx, emp, assigned.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAssetPurchaseDateValidation(t *testing.T) {
	f := newFixture(t)
	input := laptop(f, t, "LT-004")

	input.PurchaseDate = time.Now().UTC().AddDate(0, 0, 2).Format(domain.PurchaseDateLayout)
	_, err := f.assets.CreateAsset(f.ctx, f.admin, input)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Equal(t, "cannot be in the future", de.Details["purchaseDate"])

	input.PurchaseDate = "03/01/2024"
	_, err = f.assets.CreateAsset(f.ctx, f.admin, input)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestAppendHistoryDefaultsToToday(t *testing.T) {
	f := newFixture(t)
	asset, err := f.assets.CreateAsset(f.ctx, f.admin, laptop(f, t, "LT-005"))
	require.NoError(t, err)
	f.assets.now = func() time.Time { return time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC) }

	updated, err := f.assets.AppendHistory(f.ctx, f.admin, asset.ID, domain.HistoryEntry{Note: "new battery"})
	require.NoError(t, err)
	require.Len(t, updated.History, 1)
	assert.Equal(t, domain.HistoryEntry{Note: "new battery", Date: "2025-06-07"}, updated.History[0])

	_, err = f.assets.AppendHistory(f.ctx, f.admin, asset.ID, domain.HistoryEntry{Note: " "})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestListAssetsSearchAndStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.assets.CreateAsset(f.ctx, f.admin, laptop(f, t, "LT-010"))
	require.NoError(t, err)
	repair := laptop(f, t, "MON-1")
	repair.Name = "Dell Monitor"
	repair.Status = f.assetStatus(t, domain.SystemKeyUnderRepair)
	_, err = f.assets.CreateAsset(f.ctx, f.admin, repair)
	require.NoError(t, err)

	found, err := f.assets.List(f.ctx, f.company.ID, "monitor", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "MON-1", found[0].Tag)

	found, err = f.assets.List(f.ctx, f.company.ID, "", f.assetStatus(t, domain.SystemKeyInStock))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "LT-010", found[0].Tag)
}
