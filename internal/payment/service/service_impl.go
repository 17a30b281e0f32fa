package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/clock"
	"github.com/tanklab/gasworks/internal/config"
	invoicedomain "github.com/tanklab/gasworks/internal/invoice/domain"
	"github.com/tanklab/gasworks/internal/observability/metrics"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Cfg        config.Config
	Repo       paymentdomain.Repository
	InvoiceSvc invoicedomain.Service
	Intents    paymentdomain.IntentClient
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	currency   string
	repo       paymentdomain.Repository
	invoiceSvc invoicedomain.Service
	intents    paymentdomain.IntentClient
	metrics    *metrics.Metrics
}

func New(p Params) paymentdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		currency:   p.Cfg.StripeCurrency,
		repo:       p.Repo,
		invoiceSvc: p.InvoiceSvc,
		intents:    p.Intents,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, fillEventIDs []snowflake.ID, createdBy snowflake.ID) (*paymentdomain.PaymentEvent, error) {
	if len(fillEventIDs) == 0 {
		return nil, paymentdomain.ErrNoFillEvents
	}

	now := s.clock.Now()
	event := &paymentdomain.PaymentEvent{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Status:    paymentdomain.StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent settlement attempts over the same fill
		// events; the unpaid check below must run on the transaction
		// handle so it sees links committed by whoever held the lock.
		if err := s.repo.LockFillEvents(ctx, tx, fillEventIDs); err != nil {
			return err
		}
		unpaid, err := s.invoiceSvc.UnpaidFillEventsIn(ctx, tx, userID)
		if err != nil {
			return err
		}
		billable := make(map[snowflake.ID]struct{}, len(unpaid))
		for _, fe := range unpaid {
			billable[fe.ID] = struct{}{}
		}
		for _, id := range fillEventIDs {
			if _, ok := billable[id]; !ok {
				return paymentdomain.ErrFillEventNotBillable
			}
		}

		total, err := s.invoiceSvc.TotalCostIn(ctx, tx, fillEventIDs)
		if err != nil {
			return err
		}
		event.TotalAmountCents = total

		if err := s.repo.InsertPaymentEvent(ctx, tx, event); err != nil {
			return err
		}
		return s.repo.InsertLinks(ctx, tx, event.ID, fillEventIDs)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment event created",
		zap.Int64("payment_event_id", event.ID.Int64()),
		zap.Int64("user_id", userID.Int64()),
		zap.Int64("created_by", createdBy.Int64()),
		zap.Int64("total_cents", event.TotalAmountCents),
		zap.Int("fill_events", len(fillEventIDs)),
	)
	return event, nil
}

func (s *Service) CreateInvoicePaymentEvents(ctx context.Context, invoices []invoicedomain.Invoice, createdBy snowflake.ID) ([]snowflake.ID, error) {
	if len(invoices) == 0 {
		return nil, nil
	}

	now := s.clock.Now()
	ids := make([]snowflake.ID, 0, len(invoices))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, inv := range invoices {
			if len(inv.InvoiceRows) == 0 {
				continue
			}
			event := &paymentdomain.PaymentEvent{
				ID:               s.genID.Generate(),
				UserID:           inv.User.ID,
				Status:           paymentdomain.StatusCreated,
				TotalAmountCents: inv.InvoiceTotal,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := s.repo.InsertPaymentEvent(ctx, tx, event); err != nil {
				return err
			}

			fillEventIDs := make([]snowflake.ID, 0, len(inv.InvoiceRows))
			for _, row := range inv.InvoiceRows {
				fillEventIDs = append(fillEventIDs, row.ID)
			}
			if err := s.repo.InsertLinks(ctx, tx, event.ID, fillEventIDs); err != nil {
				return err
			}
			ids = append(ids, event.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice payment events created",
		zap.Int("count", len(ids)),
		zap.Int64("created_by", createdBy.Int64()),
	)
	return ids, nil
}

func (s *Service) CreateIntent(ctx context.Context, paymentEventID snowflake.ID, userID snowflake.ID) (*paymentdomain.IntentResult, error) {
	event, err := s.repo.FindPaymentEvent(ctx, s.db, paymentEventID)
	if err != nil {
		return nil, err
	}
	if event == nil || event.UserID != userID {
		return nil, paymentdomain.ErrNotFound
	}

	// Never trust a cached total: recompute from the currently-linked
	// fill events through their pinned prices.
	linked, err := s.repo.LinkedFillEventIDs(ctx, s.db, paymentEventID)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceSvc.TotalCost(ctx, linked)
	if err != nil {
		return nil, err
	}
	if total < paymentdomain.MinimumChargeCents {
		return nil, paymentdomain.ErrBelowMinimumCharge
	}

	intent, err := s.intents.CreateIntent(ctx, total, s.currency, map[string]string{
		"payment_event_id": event.ID.String(),
	}, "payment-event:"+event.ID.String())
	if err != nil {
		if s.metrics != nil {
			s.metrics.PaymentIntents.WithLabelValues("processor_error").Inc()
		}
		return nil, err
	}

	record := &paymentdomain.ExternalIntent{
		ID:               s.genID.Generate(),
		PaymentEventID:   event.ID,
		ExternalIntentID: intent.ID,
		AmountCents:      total,
		Status:           intent.Status,
	}
	if err := s.repo.InsertIntent(ctx, s.db, record); err != nil {
		// The external charge exists but we cannot account for it
		// locally: cancel it so no orphaned intent can settle, and fail
		// the payment event.
		s.compensateIntent(ctx, event.ID, intent.ID, err)
		if s.metrics != nil {
			s.metrics.PaymentIntents.WithLabelValues("orphaned").Inc()
		}
		return nil, paymentdomain.ErrIntentOrphaned
	}

	if s.metrics != nil {
		s.metrics.PaymentIntents.WithLabelValues("created").Inc()
	}
	s.log.Info("payment intent created",
		zap.Int64("payment_event_id", event.ID.Int64()),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_cents", total),
	)
	return &paymentdomain.IntentResult{
		PaymentEventID: event.ID,
		IntentID:       intent.ID,
		ClientSecret:   intent.ClientSecret,
		AmountCents:    total,
		Status:         intent.Status,
	}, nil
}

func (s *Service) compensateIntent(ctx context.Context, paymentEventID snowflake.ID, intentID string, cause error) {
	s.log.Error("persisting external intent failed, cancelling",
		zap.Int64("payment_event_id", paymentEventID.Int64()),
		zap.String("intent_id", intentID),
		zap.Error(cause),
	)
	if err := s.intents.CancelIntent(ctx, intentID, "abandoned"); err != nil {
		s.log.Error("compensating cancellation failed; intent may be orphaned at the processor",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
	}
	if _, err := s.transition(ctx, s.db, paymentEventID, paymentdomain.StatusFailed); err != nil {
		s.log.Error("failed to mark payment event FAILED after compensation",
			zap.Int64("payment_event_id", paymentEventID.Int64()),
			zap.Error(err),
		)
	}
}

func (s *Service) ApplyProcessorEvent(ctx context.Context, evt *paymentdomain.ProcessorEvent) error {
	if evt == nil || evt.ProviderEventID == "" {
		return paymentdomain.ErrInvalidEvent
	}

	now := s.clock.Now()
	record := &paymentdomain.WebhookEvent{
		ID:              s.genID.Generate(),
		Provider:        evt.Provider,
		ProviderEventID: evt.ProviderEventID,
		EventType:       evt.Type,
		Payload:         datatypes.JSON(evt.RawPayload),
		ReceivedAt:      now,
	}
	inserted, err := s.repo.InsertWebhookEvent(ctx, s.db, record)
	if err != nil {
		return err
	}
	if !inserted {
		stored, err := s.repo.FindWebhookEvent(ctx, s.db, evt.Provider, evt.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			// Replay of an already-processed delivery: nothing to do.
			if s.metrics != nil {
				s.metrics.WebhookEvents.WithLabelValues(evt.Type, "replayed").Inc()
			}
			return nil
		}
		record = stored
	}

	target, ok := paymentdomain.TargetStatus(evt.Type)
	if !ok {
		s.log.Warn("unrecognized processor event type, ignoring",
			zap.String("event_type", evt.Type),
			zap.String("provider_event_id", evt.ProviderEventID),
		)
		if s.metrics != nil {
			s.metrics.WebhookEvents.WithLabelValues(evt.Type, "ignored").Inc()
		}
		return s.repo.MarkWebhookProcessed(ctx, s.db, record.ID, now)
	}

	event, err := s.repo.FindPaymentEvent(ctx, s.db, evt.PaymentEventID)
	if err != nil {
		return err
	}
	if event == nil {
		s.log.Error("processor event references unknown payment event",
			zap.Int64("payment_event_id", evt.PaymentEventID.Int64()),
			zap.String("provider_event_id", evt.ProviderEventID),
		)
		return paymentdomain.ErrNotFound
	}

	changed, err := s.transition(ctx, s.db, event.ID, target)
	if err != nil {
		return err
	}
	if evt.IntentID != "" {
		if err := s.repo.UpdateIntentStatus(ctx, s.db, evt.IntentID, evt.Type); err != nil {
			return err
		}
	}

	outcome := "applied"
	if !changed {
		outcome = "noop"
	}
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(evt.Type, outcome).Inc()
	}
	s.log.Info("processor event handled",
		zap.Int64("payment_event_id", event.ID.Int64()),
		zap.String("event_type", evt.Type),
		zap.String("target_status", string(target)),
		zap.Bool("status_changed", changed),
	)
	return s.repo.MarkWebhookProcessed(ctx, s.db, record.ID, now)
}

// transition applies the guarded status update. The allowed source set
// includes the target itself so replays stay no-op instead of erroring;
// COMPLETED never appears as a source for another state, so a settled
// event cannot regress.
func (s *Service) transition(ctx context.Context, db *gorm.DB, id snowflake.ID, target paymentdomain.Status) (bool, error) {
	var from []paymentdomain.Status
	switch target {
	case paymentdomain.StatusInProgress:
		from = []paymentdomain.Status{paymentdomain.StatusCreated, paymentdomain.StatusInProgress}
	case paymentdomain.StatusCompleted:
		from = []paymentdomain.Status{paymentdomain.StatusCreated, paymentdomain.StatusInProgress, paymentdomain.StatusCompleted}
	case paymentdomain.StatusFailed:
		from = []paymentdomain.Status{paymentdomain.StatusCreated, paymentdomain.StatusInProgress, paymentdomain.StatusFailed}
	default:
		return false, paymentdomain.ErrInvalidEvent
	}
	return s.repo.UpdateStatus(ctx, db, id, from, target, s.clock.Now())
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*paymentdomain.PaymentEvent, error) {
	event, err := s.repo.FindPaymentEvent(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, paymentdomain.ErrNotFound
	}
	return event, nil
}
