package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	invoicedomain "github.com/tanklab/gasworks/internal/invoice/domain"
	"github.com/tanklab/gasworks/internal/invoice/repository"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	userdomain "github.com/tanklab/gasworks/internal/user/domain"
	userrepository "github.com/tanklab/gasworks/internal/user/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errDiscard = errors.New("discard")

type fixture struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  invoicedomain.Service

	priceID snowflake.ID
	cylID   snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&gasdomain.Gas{},
		&pricingdomain.GasPrice{},
		&userdomain.User{},
		&filleventdomain.FillEvent{},
		&filleventdomain.FillLineItem{},
		&paymentdomain.PaymentEvent{},
		&paymentdomain.FillEventLink{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{db: db, node: node}
	f.svc = New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Repo:     repository.Provide(),
		UserRepo: userrepository.Provide(),
	})

	gas := gasdomain.Gas{ID: node.Generate(), Name: gasdomain.NameOxygen}
	require.NoError(t, db.Create(&gas).Error)
	price := pricingdomain.GasPrice{
		ID:         node.Generate(),
		GasID:      gas.ID,
		PriceCents: 2,
		ActiveFrom: time.Unix(0, 0).UTC(),
		ActiveTo:   pricingdomain.OpenEnd,
	}
	require.NoError(t, db.Create(&price).Error)
	f.priceID = price.ID
	f.cylID = node.Generate()

	return f
}

func (f *fixture) createUser(t *testing.T, email string) userdomain.User {
	t.Helper()
	user := userdomain.User{ID: f.node.Generate(), Email: email, DisplayName: email}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

// createFill records a fill event with one priced line item of the given
// volume at 2 cents per litre.
func (f *fixture) createFill(t *testing.T, userID snowflake.ID, volume float64) snowflake.ID {
	t.Helper()
	event := filleventdomain.FillEvent{
		ID:              f.node.Generate(),
		UserID:          userID,
		CylinderSetID:   f.node.Generate(),
		GasMixtureLabel: "EAN32",
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&event).Error)
	cylID := f.cylID
	item := filleventdomain.FillLineItem{
		FillEventID:       event.ID,
		StorageCylinderID: &cylID,
		VolumeLitres:      volume,
		GasPriceID:        f.priceID,
	}
	require.NoError(t, f.db.Create(&item).Error)
	return event.ID
}

func (f *fixture) linkPayment(t *testing.T, userID snowflake.ID, status paymentdomain.Status, fillEventIDs ...snowflake.ID) {
	t.Helper()
	now := time.Now().UTC()
	event := paymentdomain.PaymentEvent{
		ID:        f.node.Generate(),
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.db.Create(&event).Error)
	for _, id := range fillEventIDs {
		link := paymentdomain.FillEventLink{PaymentEventID: event.ID, FillEventID: id}
		require.NoError(t, f.db.Create(&link).Error)
	}
}

func TestUnpaidFillEvents_ExcludesSettledAndInFlight(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "alice@example.com")

	open := f.createFill(t, user.ID, 100)
	settled := f.createFill(t, user.ID, 200)
	inFlight := f.createFill(t, user.ID, 300)
	pending := f.createFill(t, user.ID, 400)
	failed := f.createFill(t, user.ID, 500)

	f.linkPayment(t, user.ID, paymentdomain.StatusCompleted, settled)
	f.linkPayment(t, user.ID, paymentdomain.StatusInProgress, inFlight)
	f.linkPayment(t, user.ID, paymentdomain.StatusCreated, pending)
	f.linkPayment(t, user.ID, paymentdomain.StatusFailed, failed)

	unpaid, err := f.svc.UnpaidFillEvents(context.Background(), user.ID)
	require.NoError(t, err)

	ids := make([]snowflake.ID, 0, len(unpaid))
	for _, fe := range unpaid {
		ids = append(ids, fe.ID)
	}
	// Fills under a FAILED payment event are billable again.
	assert.ElementsMatch(t, []snowflake.ID{open, failed}, ids)
}

func TestTotalCost_SumsThroughPinnedPrices(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "bob@example.com")

	first := f.createFill(t, user.ID, 100)
	second := f.createFill(t, user.ID, 250)

	total, err := f.svc.TotalCost(context.Background(), []snowflake.ID{first, second})
	require.NoError(t, err)
	assert.Equal(t, int64(200+500), total)
}

func TestTotalCost_EmptyInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.TotalCost(context.Background(), nil)
	assert.ErrorIs(t, err, invoicedomain.ErrNoFillEvents)
}

func TestAllInvoices_OnePerUserWithOutstandingFills(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice@example.com")
	bob := f.createUser(t, "bob@example.com")
	carol := f.createUser(t, "carol@example.com")

	f.createFill(t, alice.ID, 100)
	f.createFill(t, alice.ID, 200)
	f.createFill(t, bob.ID, 50)
	// Carol has nothing unpaid: her only fill is settled.
	paid := f.createFill(t, carol.ID, 1000)
	f.linkPayment(t, carol.ID, paymentdomain.StatusCompleted, paid)

	invoices, err := f.svc.AllInvoices(context.Background())
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	byUser := make(map[snowflake.ID]invoicedomain.Invoice, len(invoices))
	for _, inv := range invoices {
		byUser[inv.User.ID] = inv
	}
	require.Contains(t, byUser, alice.ID)
	require.Contains(t, byUser, bob.ID)
	assert.Equal(t, int64(600), byUser[alice.ID].InvoiceTotal)
	assert.Len(t, byUser[alice.ID].InvoiceRows, 2)
	assert.Equal(t, int64(100), byUser[bob.ID].InvoiceTotal)
}

func TestAllInvoices_EmptyWhenNothingUnpaid(t *testing.T) {
	f := newFixture(t)

	invoices, err := f.svc.AllInvoices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestUnpaidFillEventsIn_SeesTransactionWrites(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "dana@example.com")
	fill := f.createFill(t, user.ID, 100)

	// A billability check running inside a transaction must see links that
	// transaction has written but not yet committed, otherwise two
	// concurrent settlements of the same fill both pass the check.
	err := f.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		event := paymentdomain.PaymentEvent{
			ID:        f.node.Generate(),
			UserID:    user.ID,
			Status:    paymentdomain.StatusCreated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, tx.Create(&event).Error)
		link := paymentdomain.FillEventLink{PaymentEventID: event.ID, FillEventID: fill}
		require.NoError(t, tx.Create(&link).Error)

		unpaid, err := f.svc.UnpaidFillEventsIn(context.Background(), tx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, unpaid)
		return errDiscard
	})
	require.ErrorIs(t, err, errDiscard)

	// Rolled back, so the fill is billable again.
	unpaid, err := f.svc.UnpaidFillEvents(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, fill, unpaid[0].ID)
}
