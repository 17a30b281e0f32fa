package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanklab/gasworks/internal/clock"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	gasrepository "github.com/tanklab/gasworks/internal/gas/repository"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	"github.com/tanklab/gasworks/internal/pricing/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   pricingdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&gasdomain.Gas{}, &pricingdomain.GasPrice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Repo:    repository.Provide(),
		GasRepo: gasrepository.Provide(),
	})

	return &fixture{db: db, node: node, clock: fake, svc: svc}
}

func (f *fixture) createGas(t *testing.T, name string) gasdomain.Gas {
	t.Helper()
	gas := gasdomain.Gas{ID: f.node.Generate(), Name: name}
	require.NoError(t, f.db.Create(&gas).Error)
	return gas
}

func TestCreatePriceVersion_OpenEnded(t *testing.T) {
	f := newFixture(t)
	helium := f.createGas(t, gasdomain.NameHelium)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	created, err := f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID:      helium.ID,
		PriceCents: 5,
		ActiveFrom: from,
	})
	require.NoError(t, err)
	assert.Equal(t, pricingdomain.OpenEnd, created.ActiveTo.UTC())

	resolved, err := f.svc.ActivePrice(context.Background(), helium.ID, from.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
}

func TestCreatePriceVersion_ClosesPreviousAtCutover(t *testing.T) {
	f := newFixture(t)
	oxygen := f.createGas(t, gasdomain.NameOxygen)
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cutover := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	old, err := f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID:      oxygen.ID,
		PriceCents: 3,
		ActiveFrom: jan,
	})
	require.NoError(t, err)

	newer, err := f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID:      oxygen.ID,
		PriceCents: 4,
		ActiveFrom: cutover,
	})
	require.NoError(t, err)

	// Just before the cutover the old version still applies; from the
	// cutover on, the new one. No instant is covered twice or not at all.
	before, err := f.svc.ActivePrice(context.Background(), oxygen.ID, cutover.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, old.ID, before.ID)
	assert.Equal(t, int64(3), before.PriceCents)

	after, err := f.svc.ActivePrice(context.Background(), oxygen.ID, cutover)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, after.ID)
	assert.Equal(t, int64(4), after.PriceCents)

	var closed pricingdomain.GasPrice
	require.NoError(t, f.db.First(&closed, "id = ?", old.ID).Error)
	assert.True(t, closed.ActiveTo.UTC().Equal(cutover))
}

func TestCreatePriceVersion_BackdatedCapsAtSuccessor(t *testing.T) {
	f := newFixture(t)
	helium := f.createGas(t, gasdomain.NameHelium)
	later := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	open, err := f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID:      helium.ID,
		PriceCents: 6,
		ActiveFrom: later,
	})
	require.NoError(t, err)

	// A back-dated version stops where the existing one starts instead of
	// producing a second open interval.
	backdated, err := f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID:      helium.ID,
		PriceCents: 5,
		ActiveFrom: earlier,
	})
	require.NoError(t, err)
	assert.True(t, backdated.ActiveTo.UTC().Equal(later))

	during, err := f.svc.ActivePrice(context.Background(), helium.ID, earlier.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, backdated.ID, during.ID)

	after, err := f.svc.ActivePrice(context.Background(), helium.ID, later.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, open.ID, after.ID)
}

func TestCreatePriceVersion_Validation(t *testing.T) {
	f := newFixture(t)
	argon := f.createGas(t, gasdomain.NameArgon)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID: 0, PriceCents: 5, ActiveFrom: from,
	})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidGas)

	_, err = f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID: argon.ID, PriceCents: -1, ActiveFrom: from,
	})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidPrice)

	_, err = f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID: argon.ID, PriceCents: 5, ActiveFrom: from, ActiveTo: &to,
	})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidInterval)

	_, err = f.svc.CreatePriceVersion(context.Background(), pricingdomain.CreateRequest{
		GasID: f.node.Generate(), PriceCents: 5, ActiveFrom: from,
	})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidGas)
}

func TestActivePrice_NoCoveringVersion(t *testing.T) {
	f := newFixture(t)
	helium := f.createGas(t, gasdomain.NameHelium)

	_, err := f.svc.ActivePrice(context.Background(), helium.ID, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, pricingdomain.ErrPriceNotFound)
}

func TestActivePrice_MultipleActiveIsIntegrityFailure(t *testing.T) {
	f := newFixture(t)
	diluent := f.createGas(t, gasdomain.NameDiluent)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Bypass the service to simulate a corrupted catalog with two
	// overlapping open versions.
	for _, cents := range []int64{3, 4} {
		price := pricingdomain.GasPrice{
			ID:         f.node.Generate(),
			GasID:      diluent.ID,
			PriceCents: cents,
			ActiveFrom: from.Add(time.Duration(cents) * time.Hour),
			ActiveTo:   pricingdomain.OpenEnd,
		}
		require.NoError(t, f.db.Create(&price).Error)
	}

	_, err := f.svc.ActivePrice(context.Background(), diluent.ID, from.Add(48*time.Hour))
	assert.ErrorIs(t, err, pricingdomain.ErrMultipleActivePrices)
}
