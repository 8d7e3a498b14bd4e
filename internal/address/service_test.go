package address

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/dbtest"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

const owner = "firebase-owner"

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(NewRepository(conn), client, nil)
	require.NoError(t, err)
	return svc, conn
}

func validInput(name string) Input {
	return Input{
		FullName:     name,
		Phone:        "+91 98765-43210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		ZipCode:      "560001",
	}
}

// create saves an address and pins its created_at so ordering is deterministic.
func create(t *testing.T, svc Service, conn *gorm.DB, input Input, age time.Duration) *models.Address {
	t.Helper()
	addr, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Address{}).Where("id = ?", addr.ID).
		UpdateColumn("created_at", time.Now().Add(-age)).Error)
	return addr
}

func defaults(t *testing.T, conn *gorm.DB) []models.Address {
	t.Helper()
	var out []models.Address
	require.NoError(t, conn.Where("user_id = ? AND is_default = ?", owner, true).Find(&out).Error)
	return out
}

func TestCreateFirstAddressBecomesDefault(t *testing.T) {
	svc, conn := newService(t)

	first := create(t, svc, conn, validInput("Home"), 3*time.Hour)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "9876543210", first.Phone)
	assert.Equal(t, "India", first.Country)
	assert.Equal(t, enums.AddressHome, first.Type)

	second := create(t, svc, conn, validInput("Office"), 2*time.Hour)
	assert.False(t, second.IsDefault)

	flagged := validInput("Parents")
	flagged.IsDefault = true
	third := create(t, svc, conn, flagged, time.Hour)
	assert.True(t, third.IsDefault)

	got := defaults(t, conn)
	require.Len(t, got, 1)
	assert.Equal(t, third.ID, got[0].ID)

	list, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, third.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestDeleteDefaultPromotesOldest(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	a := create(t, svc, conn, validInput("A"), 3*time.Hour)
	b := create(t, svc, conn, validInput("B"), 2*time.Hour)
	c := create(t, svc, conn, validInput("C"), time.Hour)

	_, err := svc.SetDefault(ctx, owner, c.ID.String())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, c.ID.String()))

	got := defaults(t, conn)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	require.NoError(t, svc.Delete(ctx, owner, b.ID.String()))
	got = defaults(t, conn)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	require.NoError(t, svc.Delete(ctx, owner, a.ID.String()))
	_, err = svc.Default(ctx, owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDefaultFallsBackToOldest(t *testing.T) {
	svc, conn := newService(t)
	a := create(t, svc, conn, validInput("A"), 2*time.Hour)
	create(t, svc, conn, validInput("B"), time.Hour)
	require.NoError(t, conn.Model(&models.Address{}).Where("user_id = ?", owner).UpdateColumn("is_default", false).Error)

	got, err := svc.Default(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestUpdateMergesAndPromotes(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	a := create(t, svc, conn, validInput("A"), 2*time.Hour)
	b := create(t, svc, conn, validInput("B"), time.Hour)

	city := "Mysuru"
	yes := true
	updated, err := svc.Update(ctx, owner, b.ID.String(), Patch{City: &city, IsDefault: &yes})
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.City)
	assert.Equal(t, "B", updated.FullName)
	assert.True(t, updated.IsDefault)

	no := false
	updated, err = svc.Update(ctx, owner, b.ID.String(), Patch{IsDefault: &no})
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	got := defaults(t, conn)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	badZip := "0123"
	_, err = svc.Update(ctx, owner, a.ID.String(), Patch{ZipCode: &badZip})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestOwnershipIsEnforced(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	a := create(t, svc, conn, validInput("A"), time.Hour)

	_, err := svc.SetDefault(ctx, "intruder", a.ID.String())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = svc.Delete(ctx, "intruder", a.ID.String())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Update(ctx, owner, "not-a-uuid", Patch{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestValidate(t *testing.T) {
	svc, _ := newService(t)

	result := svc.Validate(validInput("A"))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	result = svc.Validate(Input{Phone: "12345", ZipCode: "56001", Type: "villa"})
	assert.False(t, result.Valid)
	fields := map[string]bool{}
	for _, e := range result.Errors {
		fields[e.Field] = true
	}
	for _, f := range []string{"fullName", "addressLine1", "city", "state", "phone", "zipCode", "type"} {
		assert.True(t, fields[f], f)
	}

	abroad := validInput("A")
	abroad.Country = "Germany"
	abroad.ZipCode = "10115"
	assert.True(t, svc.Validate(abroad).Valid)

	_, err := svc.Create(context.Background(), owner, Input{FullName: "A"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "9876543210", normalizePhone(" 098765 43210 "))
	assert.Equal(t, "9876543210", normalizePhone("+91-98765-43210"))
	assert.Equal(t, "12345", normalizePhone("12345"))
}
