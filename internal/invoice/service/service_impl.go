package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/billing"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	invoicedomain "github.com/tanklab/gasworks/internal/invoice/domain"
	userdomain "github.com/tanklab/gasworks/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     invoicedomain.Repository
	UserRepo userdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     invoicedomain.Repository
	userRepo userdomain.Repository
}

func New(p Params) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		repo:     p.Repo,
		userRepo: p.UserRepo,
	}
}

func (s *Service) UnpaidFillEvents(ctx context.Context, userID snowflake.ID) ([]filleventdomain.FillEvent, error) {
	return s.UnpaidFillEventsIn(ctx, s.db, userID)
}

func (s *Service) UnpaidFillEventsIn(ctx context.Context, tx *gorm.DB, userID snowflake.ID) ([]filleventdomain.FillEvent, error) {
	return s.repo.UnpaidFillEvents(ctx, tx, userID)
}

func (s *Service) TotalCost(ctx context.Context, fillEventIDs []snowflake.ID) (int64, error) {
	return s.TotalCostIn(ctx, s.db, fillEventIDs)
}

func (s *Service) TotalCostIn(ctx context.Context, tx *gorm.DB, fillEventIDs []snowflake.ID) (int64, error) {
	if len(fillEventIDs) == 0 {
		return 0, invoicedomain.ErrNoFillEvents
	}
	rows, err := s.repo.PricedRows(ctx, tx, fillEventIDs)
	if err != nil {
		return 0, err
	}

	priced := make([]billing.PricedLineItem, 0, len(rows))
	for _, row := range rows {
		priced = append(priced, billing.PricedLineItem{
			StorageCylinderID: row.StorageCylinderID,
			VolumeLitres:      row.VolumeLitres,
			PriceCents:        row.PriceCents,
		})
	}
	return billing.Cost(priced), nil
}

func (s *Service) AllInvoices(ctx context.Context) ([]invoicedomain.Invoice, error) {
	userIDs, err := s.repo.UnpaidUserIDs(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	users, err := s.userRepo.FindByIDs(ctx, s.db, userIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]userdomain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	invoices := make([]invoicedomain.Invoice, 0, len(userIDs))
	for _, userID := range userIDs {
		rows, err := s.repo.UnpaidFillEvents(ctx, s.db, userID)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}

		ids := make([]snowflake.ID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		total, err := s.TotalCost(ctx, ids)
		if err != nil {
			return nil, err
		}

		user, ok := byID[userID]
		if !ok {
			s.log.Warn("unpaid fill events for unknown user", zap.Int64("user_id", userID.Int64()))
			continue
		}
		invoices = append(invoices, invoicedomain.Invoice{
			User:         user,
			InvoiceTotal: total,
			InvoiceRows:  rows,
		})
	}
	return invoices, nil
}
