package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/clock"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	"github.com/tanklab/gasworks/internal/observability/metrics"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	"github.com/tanklab/gasworks/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    pricingdomain.Repository
	GasRepo gasdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    pricingdomain.Repository
	gasRepo gasdomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) pricingdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("pricing.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		gasRepo: p.GasRepo,
		metrics: p.Metrics,
	}
}

func (s *Service) ActivePrice(ctx context.Context, gasID snowflake.ID, asOf time.Time) (*pricingdomain.GasPrice, error) {
	return s.Resolve(ctx, s.db, gasID, asOf)
}

// Resolve runs price resolution against the given handle so fill-event
// creation can pin prices inside its own transaction.
func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, gasID snowflake.ID, asOf time.Time) (*pricingdomain.GasPrice, error) {
	matches, err := s.repo.FindCovering(ctx, tx, gasID, asOf.UTC())
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, pricingdomain.ErrPriceNotFound
	case 1:
		return &matches[0], nil
	default:
		ids := make([]int64, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ID.Int64())
		}
		s.log.Error("non-overlap invariant broken: multiple active prices",
			zap.Int64("gas_id", gasID.Int64()),
			zap.Time("as_of", asOf.UTC()),
			zap.Int64s("gas_price_ids", ids),
		)
		if s.metrics != nil {
			s.metrics.IntegrityFailures.Inc()
		}
		return nil, pricingdomain.ErrMultipleActivePrices
	}
}

func (s *Service) CreatePriceVersion(ctx context.Context, req pricingdomain.CreateRequest) (*pricingdomain.GasPrice, error) {
	if req.GasID == 0 {
		return nil, pricingdomain.ErrInvalidGas
	}
	if req.PriceCents < 0 {
		return nil, pricingdomain.ErrInvalidPrice
	}

	activeFrom := req.ActiveFrom.UTC()
	if activeFrom.IsZero() {
		activeFrom = s.clock.Now()
	}
	activeTo := pricingdomain.OpenEnd
	if req.ActiveTo != nil {
		activeTo = req.ActiveTo.UTC()
	}
	if !activeTo.After(activeFrom) {
		return nil, pricingdomain.ErrInvalidInterval
	}

	entity := &pricingdomain.GasPrice{
		ID:         s.genID.Generate(),
		GasID:      req.GasID,
		PriceCents: req.PriceCents,
		ActiveFrom: activeFrom,
		ActiveTo:   activeTo,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gas, err := s.gasRepo.FindByID(ctx, tx, req.GasID)
		if err != nil {
			return err
		}
		if gas == nil {
			return pricingdomain.ErrInvalidGas
		}

		// Lock the covering version so two concurrent creations for the
		// same gas serialize; the unique (gas_id, active_from) index backs
		// this up where the lock is unavailable.
		covering, err := s.repo.FindCovering(ctx, db.ForUpdate(tx), req.GasID, activeFrom)
		if err != nil {
			return err
		}
		if len(covering) > 1 {
			return pricingdomain.ErrMultipleActivePrices
		}
		if len(covering) == 1 {
			if err := s.repo.CloseVersion(ctx, tx, covering[0].ID, activeFrom); err != nil {
				return err
			}
		}

		// A back-dated version must not run into versions that start later;
		// cap it at the earliest successor so intervals stay disjoint.
		successors, err := s.repo.FindStartingWithin(ctx, db.ForUpdate(tx), req.GasID, activeFrom, entity.ActiveTo)
		if err != nil {
			return err
		}
		if len(successors) > 0 {
			entity.ActiveTo = successors[0].ActiveFrom
		}

		return s.repo.Insert(ctx, tx, entity)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, pricingdomain.ErrPriceConflict
		}
		return nil, err
	}

	s.log.Info("price version created",
		zap.Int64("gas_id", entity.GasID.Int64()),
		zap.Int64("price_cents", entity.PriceCents),
		zap.Time("active_from", entity.ActiveFrom),
	)
	return entity, nil
}

func (s *Service) ListPrices(ctx context.Context, gasID snowflake.ID) ([]pricingdomain.GasPrice, error) {
	if gasID == 0 {
		return nil, pricingdomain.ErrInvalidGas
	}
	return s.repo.ListByGas(ctx, s.db, gasID)
}
