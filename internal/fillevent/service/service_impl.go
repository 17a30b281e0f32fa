package service

import (
	"context"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/billing"
	"github.com/tanklab/gasworks/internal/clock"
	cylinderdomain "github.com/tanklab/gasworks/internal/cylinder/domain"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	"github.com/tanklab/gasworks/internal/identity"
	"github.com/tanklab/gasworks/internal/observability/metrics"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         filleventdomain.Repository
	PricingSvc   pricingdomain.Service
	GasRepo      gasdomain.Repository
	CylinderRepo cylinderdomain.Repository
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         filleventdomain.Repository
	pricingSvc   pricingdomain.Service
	gasRepo      gasdomain.Repository
	cylinderRepo cylinderdomain.Repository
	metrics      *metrics.Metrics
}

func New(p Params) filleventdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("fillevent.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		pricingSvc:   p.PricingSvc,
		gasRepo:      p.GasRepo,
		cylinderRepo: p.CylinderRepo,
		metrics:      p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req filleventdomain.CreateRequest) (*filleventdomain.FillEvent, error) {
	if !req.FilledAir && len(req.StorageCylinderUsage) == 0 {
		return nil, filleventdomain.ErrNoGasesGiven
	}
	for _, usage := range req.StorageCylinderUsage {
		if usage.StartPressureBar < usage.EndPressureBar {
			return nil, filleventdomain.ErrNegativeFillPressure
		}
	}

	// Air-only fills need no privilege; anything drawn from a storage
	// cylinder requires the blender role. The asymmetry is a business
	// rule, not an oversight.
	if len(req.StorageCylinderUsage) > 0 {
		principal, ok := identity.FromContext(ctx)
		if !ok || !principal.CanBlend() {
			return nil, filleventdomain.ErrBlenderRequired
		}
	}

	exists, err := s.cylinderRepo.SetExists(ctx, s.db, req.CylinderSetID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, cylinderdomain.ErrSetNotFound
	}

	now := s.clock.Now()
	event := &filleventdomain.FillEvent{
		// Pre-generated id: the insert never needs a follow-up lookup by
		// secondary criteria, which would race under concurrent fills.
		ID:              s.genID.Generate(),
		UserID:          req.UserID,
		CylinderSetID:   req.CylinderSetID,
		GasMixtureLabel: req.GasMixtureLabel,
		Description:     req.Description,
		CreatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, event); err != nil {
			return err
		}

		var priced []billing.PricedLineItem

		if req.FilledAir {
			item, pricedItem, err := s.buildAirLineItem(ctx, tx, event.ID, now)
			if err != nil {
				return err
			}
			if err := s.repo.InsertLineItem(ctx, tx, item); err != nil {
				return err
			}
			event.LineItems = append(event.LineItems, *item)
			priced = append(priced, pricedItem)
		}

		for _, usage := range req.StorageCylinderUsage {
			item, pricedItem, err := s.buildGasLineItem(ctx, tx, event.ID, usage, now)
			if err != nil {
				return err
			}
			if err := s.repo.InsertLineItem(ctx, tx, item); err != nil {
				return err
			}
			event.LineItems = append(event.LineItems, *item)
			priced = append(priced, pricedItem)
		}

		event.TotalCents = billing.Cost(priced)
		if event.TotalCents != req.QuotedPriceCents {
			// Price changed between quote and submission; nothing of the
			// fill event may remain observable.
			return filleventdomain.ErrPriceMismatch
		}
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.FillEventsCreated.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.FillEventsCreated.WithLabelValues("created").Inc()
	}
	s.log.Info("fill event recorded",
		zap.Int64("fill_event_id", event.ID.Int64()),
		zap.Int64("user_id", event.UserID.Int64()),
		zap.Int64("total_cents", event.TotalCents),
		zap.Int("line_items", len(event.LineItems)),
	)
	return event, nil
}

func (s *Service) buildAirLineItem(ctx context.Context, tx *gorm.DB, eventID snowflake.ID, at time.Time) (*filleventdomain.FillLineItem, billing.PricedLineItem, error) {
	air, err := s.gasRepo.FindByName(ctx, tx, gasdomain.NameAir)
	if err != nil {
		return nil, billing.PricedLineItem{}, err
	}
	if air == nil {
		return nil, billing.PricedLineItem{}, gasdomain.ErrNotFound
	}

	price, err := s.pricingSvc.Resolve(ctx, tx, air.ID, at)
	if err != nil {
		return nil, billing.PricedLineItem{}, err
	}

	item := &filleventdomain.FillLineItem{
		FillEventID:       eventID,
		StorageCylinderID: nil,
		VolumeLitres:      0,
		GasPriceID:        price.ID,
	}
	return item, billing.PricedLineItem{
		StorageCylinderID: nil,
		VolumeLitres:      0,
		PriceCents:        price.PriceCents,
	}, nil
}

func (s *Service) buildGasLineItem(
	ctx context.Context,
	tx *gorm.DB,
	eventID snowflake.ID,
	usage filleventdomain.StorageCylinderUsage,
	at time.Time,
) (*filleventdomain.FillLineItem, billing.PricedLineItem, error) {
	cyl, err := s.cylinderRepo.FindStorageCylinder(ctx, tx, usage.StorageCylinderID)
	if err != nil {
		return nil, billing.PricedLineItem{}, err
	}
	if cyl == nil {
		return nil, billing.PricedLineItem{}, cylinderdomain.ErrStorageCylinderNotFound
	}

	price, err := s.pricingSvc.Resolve(ctx, tx, cyl.GasID, at)
	if err != nil {
		return nil, billing.PricedLineItem{}, err
	}

	volume := math.Ceil(usage.StartPressureBar-usage.EndPressureBar) * cyl.VolumeLitres
	cylID := cyl.ID
	item := &filleventdomain.FillLineItem{
		FillEventID:       eventID,
		StorageCylinderID: &cylID,
		VolumeLitres:      volume,
		GasPriceID:        price.ID,
	}
	return item, billing.PricedLineItem{
		StorageCylinderID: &cylID,
		VolumeLitres:      volume,
		PriceCents:        price.PriceCents,
	}, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*filleventdomain.FillEvent, error) {
	event, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, filleventdomain.ErrNotFound
	}
	items, err := s.repo.ListLineItems(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	event.LineItems = items
	return event, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]filleventdomain.FillEvent, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}
