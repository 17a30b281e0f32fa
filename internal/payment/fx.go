package payment

import (
	"github.com/tanklab/gasworks/internal/clock"
	"github.com/tanklab/gasworks/internal/config"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
	"github.com/tanklab/gasworks/internal/payment/repository"
	"github.com/tanklab/gasworks/internal/payment/service"
	"github.com/tanklab/gasworks/internal/payment/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config, clk clock.Clock) paymentdomain.WebhookCodec {
		return stripe.NewCodec(cfg.StripeWebhookSecret, clk)
	}),
	fx.Provide(func(cfg config.Config) paymentdomain.IntentClient {
		return stripe.NewClient(cfg.StripeAPIKey)
	}),
	fx.Provide(service.New),
)
