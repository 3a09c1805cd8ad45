package checkout

import (
	"context"
	"time"

	"github.com/bnasmart/gateway-backend/internal/orders"
	"github.com/bnasmart/gateway-backend/pkg/config"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
)

const (
	defaultTokenTTL      = 24 * time.Hour
	defaultSweepInterval = 15 * time.Minute
)

// Sweeper clears checkout tokens that were issued but never redeemed. A
// swept order stays payable; the storefront just has to request a fresh
// token.
type Sweeper struct {
	ordersRepo orders.Repository
	tokenTTL   time.Duration
	interval   time.Duration
	logg       *logger.Logger
}

// SweeperParams groups dependencies for the token sweeper.
type SweeperParams struct {
	OrdersRepo orders.Repository
	Config     config.CheckoutConfig
	Logger     *logger.Logger
}

// NewSweeper builds a token sweeper with the required dependencies.
func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	ttl := params.Config.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	interval := params.Config.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		ordersRepo: params.OrdersRepo,
		tokenTTL:   ttl,
		interval:   interval,
		logg:       params.Logger,
	}, nil
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logg.Error(ctx, "checkout token sweep failed", err)
			}
		}
	}
}

// SweepOnce clears every token older than the TTL and reports how many
// orders were touched.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.tokenTTL)
	stale, err := s.ordersRepo.FindExpiredCheckoutTokens(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, order := range stale {
		err := s.ordersRepo.Update(ctx, order.ID, map[string]any{
			"checkout_token":    nil,
			"checkout_token_at": nil,
		})
		if err != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Error(logCtx, "failed to clear expired checkout token", err)
			continue
		}
		swept++
	}
	if swept > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"sweptCount": swept,
		}), "expired checkout tokens cleared")
	}
	return swept, nil
}
