package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"goldcross/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaBroker implements the Broker interface against the Alpaca trading
// API. Market day orders only. Terminal outcomes are not pushed; callers
// poll with PollUpdates, which replays each terminal status to the sink
// exactly once.
type AlpacaBroker struct {
	client *alpaca.Client
	log    *slog.Logger

	mu   sync.Mutex
	open map[string]domain.Order // Alpaca order ID -> submitted order
}

// NewAlpacaBroker creates an AlpacaBroker with the given credentials and
// API endpoint.
func NewAlpacaBroker(apiKey, apiSecret, baseURL string) *AlpacaBroker {
	return &AlpacaBroker{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		log:  slog.Default().With("broker", "alpaca"),
		open: make(map[string]domain.Order),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string { return "alpaca" }

// SubmitOrder places a market day order. The engine's order ID rides along
// as the client order ID so the two sides agree on identity.
func (b *AlpacaBroker) SubmitOrder(_ context.Context, order *domain.Order) error {
	qty := decimal.NewFromInt(int64(order.Qty))
	side := alpaca.Buy
	if order.Side == domain.SideSell {
		side = alpaca.Sell
	}

	placed, err := b.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        order.Symbol,
		Qty:           &qty,
		Side:          side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: order.ID,
	})
	if err != nil {
		return fmt.Errorf("placing %s order for %s: %w", order.Side, order.Symbol, err)
	}

	b.mu.Lock()
	b.open[placed.ID] = *order
	b.mu.Unlock()

	b.log.Info("order placed",
		"id", order.ID, "alpaca_id", placed.ID,
		"symbol", order.Symbol, "side", order.Side, "qty", order.Qty)
	return nil
}

// Account returns equity and free cash from the Alpaca account.
func (b *AlpacaBroker) Account(_ context.Context) (domain.AccountInfo, error) {
	acct, err := b.client.GetAccount()
	if err != nil {
		return domain.AccountInfo{}, fmt.Errorf("fetching account: %w", err)
	}
	return domain.AccountInfo{
		Equity: acct.Equity.InexactFloat64(),
		Cash:   acct.Cash.InexactFloat64(),
	}, nil
}

// FreeCash implements funds.CashSource. On an API failure it reports zero,
// which stops new buys rather than overspending against stale data.
func (b *AlpacaBroker) FreeCash() float64 {
	acct, err := b.client.GetAccount()
	if err != nil {
		b.log.Warn("account fetch failed, treating free cash as zero", "error", err)
		return 0
	}
	return acct.Cash.InexactFloat64()
}

// PollUpdates queries every open order once and forwards the ones that
// reached a terminal state to the sink, removing them from the open set so
// each terminal outcome is delivered exactly once.
func (b *AlpacaBroker) PollUpdates(ctx context.Context, sink OrderSink) error {
	b.mu.Lock()
	ids := make([]string, 0, len(b.open))
	for id := range b.open {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		remote, err := b.client.GetOrder(id)
		if err != nil {
			return fmt.Errorf("fetching order %s: %w", id, err)
		}

		status, terminal := mapAlpacaStatus(remote.Status)
		if !terminal {
			continue
		}

		b.mu.Lock()
		submitted, ok := b.open[id]
		delete(b.open, id)
		b.mu.Unlock()
		if !ok {
			continue
		}

		resolved := submitted
		resolved.Status = status
		resolved.ResolvedAt = time.Now()
		if remote.FilledAt != nil {
			resolved.ResolvedAt = *remote.FilledAt
		}
		if status == domain.OrderStatusCompleted {
			resolved.FilledQty = int(remote.FilledQty.IntPart())
			if remote.FilledAvgPrice != nil {
				resolved.FilledPrice = remote.FilledAvgPrice.InexactFloat64()
			}
			resolved.FilledValue = float64(resolved.FilledQty) * resolved.FilledPrice
		}

		if err := sink.OnOrderUpdate(ctx, resolved); err != nil {
			return fmt.Errorf("notifying order %s: %w", resolved.ID, err)
		}
	}
	return nil
}

// mapAlpacaStatus translates Alpaca order statuses into the domain's
// terminal statuses. The second return is false for non-terminal states.
// Alpaca reports insufficient buying power as a plain rejection, so
// margin_rejected never originates here.
func mapAlpacaStatus(status string) (domain.OrderStatus, bool) {
	switch status {
	case "filled":
		return domain.OrderStatusCompleted, true
	case "canceled", "expired", "done_for_day":
		return domain.OrderStatusCanceled, true
	case "rejected":
		return domain.OrderStatusRejected, true
	default:
		return domain.OrderStatusSubmitted, false
	}
}
