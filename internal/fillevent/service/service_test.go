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
	cylinderdomain "github.com/tanklab/gasworks/internal/cylinder/domain"
	cylinderrepository "github.com/tanklab/gasworks/internal/cylinder/repository"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	"github.com/tanklab/gasworks/internal/fillevent/repository"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	gasrepository "github.com/tanklab/gasworks/internal/gas/repository"
	"github.com/tanklab/gasworks/internal/identity"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	pricingrepository "github.com/tanklab/gasworks/internal/pricing/repository"
	pricingservice "github.com/tanklab/gasworks/internal/pricing/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  filleventdomain.Service

	userID    snowflake.ID
	setID     snowflake.ID
	oxygenCyl cylinderdomain.StorageCylinder
	heliumCyl cylinderdomain.StorageCylinder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&gasdomain.Gas{},
		&pricingdomain.GasPrice{},
		&cylinderdomain.CylinderSet{},
		&cylinderdomain.StorageCylinder{},
		&filleventdomain.FillEvent{},
		&filleventdomain.FillLineItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	gasRepo := gasrepository.Provide()
	pricingSvc := pricingservice.New(pricingservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Repo:    pricingrepository.Provide(),
		GasRepo: gasRepo,
	})

	f := &fixture{db: db, node: node}
	f.svc = New(Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Repo:         repository.Provide(),
		PricingSvc:   pricingSvc,
		GasRepo:      gasRepo,
		CylinderRepo: cylinderrepository.Provide(),
	})

	epoch := time.Unix(0, 0).UTC()
	f.seedGas(t, gasdomain.NameAir, 0, epoch)
	oxygen := f.seedGas(t, gasdomain.NameOxygen, 3, epoch)
	helium := f.seedGas(t, gasdomain.NameHelium, 5, epoch)

	f.userID = node.Generate()
	f.setID = node.Generate()
	require.NoError(t, db.Create(&cylinderdomain.CylinderSet{
		ID:     f.setID,
		UserID: f.userID,
		Name:   "twinset",
	}).Error)

	f.oxygenCyl = cylinderdomain.StorageCylinder{
		ID:           node.Generate(),
		GasID:        oxygen.ID,
		Name:         "O2-1",
		VolumeLitres: 50,
	}
	require.NoError(t, db.Create(&f.oxygenCyl).Error)

	f.heliumCyl = cylinderdomain.StorageCylinder{
		ID:           node.Generate(),
		GasID:        helium.ID,
		Name:         "He-1",
		VolumeLitres: 50,
	}
	require.NoError(t, db.Create(&f.heliumCyl).Error)

	return f
}

func (f *fixture) seedGas(t *testing.T, name string, priceCents int64, from time.Time) gasdomain.Gas {
	t.Helper()
	gas := gasdomain.Gas{ID: f.node.Generate(), Name: name}
	require.NoError(t, f.db.Create(&gas).Error)
	price := pricingdomain.GasPrice{
		ID:         f.node.Generate(),
		GasID:      gas.ID,
		PriceCents: priceCents,
		ActiveFrom: from,
		ActiveTo:   pricingdomain.OpenEnd,
	}
	require.NoError(t, f.db.Create(&price).Error)
	return gas
}

func blenderCtx(userID snowflake.ID) context.Context {
	return identity.WithPrincipal(context.Background(), identity.Principal{
		UserID:    userID,
		IsBlender: true,
	})
}

func plainCtx(userID snowflake.ID) context.Context {
	return identity.WithPrincipal(context.Background(), identity.Principal{
		UserID: userID,
	})
}

func TestCreate_AirOnly(t *testing.T) {
	f := newFixture(t)

	event, err := f.svc.Create(plainCtx(f.userID), filleventdomain.CreateRequest{
		UserID:           f.userID,
		CylinderSetID:    f.setID,
		FilledAir:        true,
		GasMixtureLabel:  "Air",
		QuotedPriceCents: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), event.TotalCents)
	require.Len(t, event.LineItems, 1)
	assert.Nil(t, event.LineItems[0].StorageCylinderID)
	// Even the free air line item pins a price version.
	assert.NotZero(t, event.LineItems[0].GasPriceID)
}

func TestCreate_NoGasesGiven(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(plainCtx(f.userID), filleventdomain.CreateRequest{
		UserID:        f.userID,
		CylinderSetID: f.setID,
		FilledAir:     false,
	})
	assert.ErrorIs(t, err, filleventdomain.ErrNoGasesGiven)
}

func TestCreate_NegativeFillPressure(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(blenderCtx(f.userID), filleventdomain.CreateRequest{
		UserID:        f.userID,
		CylinderSetID: f.setID,
		StorageCylinderUsage: []filleventdomain.StorageCylinderUsage{
			{StorageCylinderID: f.oxygenCyl.ID, StartPressureBar: 100, EndPressureBar: 150},
		},
	})
	assert.ErrorIs(t, err, filleventdomain.ErrNegativeFillPressure)
}

func TestCreate_BlenderRequiredForStorageGas(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(plainCtx(f.userID), filleventdomain.CreateRequest{
		UserID:        f.userID,
		CylinderSetID: f.setID,
		StorageCylinderUsage: []filleventdomain.StorageCylinderUsage{
			{StorageCylinderID: f.oxygenCyl.ID, StartPressureBar: 200, EndPressureBar: 190},
		},
		QuotedPriceCents: 1500,
	})
	assert.ErrorIs(t, err, filleventdomain.ErrBlenderRequired)
}

func TestCreate_UnknownCylinderSet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(plainCtx(f.userID), filleventdomain.CreateRequest{
		UserID:        f.userID,
		CylinderSetID: f.node.Generate(),
		FilledAir:     true,
	})
	assert.ErrorIs(t, err, cylinderdomain.ErrSetNotFound)
}

func TestCreate_NitroxFill(t *testing.T) {
	f := newFixture(t)

	// 10 bar drawn from a 50 L oxygen cylinder: 500 litres at 3 cents.
	event, err := f.svc.Create(blenderCtx(f.userID), filleventdomain.CreateRequest{
		UserID:          f.userID,
		CylinderSetID:   f.setID,
		FilledAir:       true,
		GasMixtureLabel: "EAN32",
		StorageCylinderUsage: []filleventdomain.StorageCylinderUsage{
			{StorageCylinderID: f.oxygenCyl.ID, StartPressureBar: 200, EndPressureBar: 190},
		},
		QuotedPriceCents: 1500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), event.TotalCents)
	assert.Len(t, event.LineItems, 2)

	var count int64
	require.NoError(t, f.db.Model(&filleventdomain.FillLineItem{}).
		Where("fill_event_id = ?", event.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreate_PriceMismatchRollsBackEverything(t *testing.T) {
	f := newFixture(t)

	// Client quotes a stale total; the recomputed one is 1500.
	_, err := f.svc.Create(blenderCtx(f.userID), filleventdomain.CreateRequest{
		UserID:          f.userID,
		CylinderSetID:   f.setID,
		GasMixtureLabel: "EAN36",
		StorageCylinderUsage: []filleventdomain.StorageCylinderUsage{
			{StorageCylinderID: f.oxygenCyl.ID, StartPressureBar: 200, EndPressureBar: 190},
		},
		QuotedPriceCents: 1200,
	})
	assert.ErrorIs(t, err, filleventdomain.ErrPriceMismatch)

	// Nothing of the rejected fill may remain observable.
	var events, items int64
	require.NoError(t, f.db.Model(&filleventdomain.FillEvent{}).Count(&events).Error)
	require.NoError(t, f.db.Model(&filleventdomain.FillLineItem{}).Count(&items).Error)
	assert.Equal(t, int64(0), events)
	assert.Equal(t, int64(0), items)
}

func TestCreate_PinsPriceVersionAtFillTime(t *testing.T) {
	f := newFixture(t)

	event, err := f.svc.Create(blenderCtx(f.userID), filleventdomain.CreateRequest{
		UserID:          f.userID,
		CylinderSetID:   f.setID,
		GasMixtureLabel: "TMX 18/45",
		StorageCylinderUsage: []filleventdomain.StorageCylinderUsage{
			{StorageCylinderID: f.heliumCyl.ID, StartPressureBar: 150, EndPressureBar: 140},
		},
		QuotedPriceCents: 2500,
	})
	require.NoError(t, err)

	var pinned pricingdomain.GasPrice
	require.NoError(t, f.db.First(&pinned, "id = ?", event.LineItems[0].GasPriceID).Error)
	assert.Equal(t, f.heliumCyl.GasID, pinned.GasID)
	assert.Equal(t, int64(5), pinned.PriceCents)
}
