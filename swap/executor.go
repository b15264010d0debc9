package swap

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"openbook-trader-go/infrastructure/logger"
	"openbook-trader-go/strategy"
)

// Executor chains quote, swap and confirmation into the single Execute
// call the trading loop sees. Transient quote/swap failures get one retry
// after a short backoff; a confirmation failure never retries, since the
// transaction may still land.
type Executor struct {
	Client    *Client
	Confirmer *Confirmer
	Log       *logger.Logger

	Retries int
	Backoff time.Duration
}

// NewExecutor builds an executor with one retry and 500ms backoff.
func NewExecutor(client *Client, confirmer *Confirmer, log *logger.Logger) *Executor {
	return &Executor{
		Client:    client,
		Confirmer: confirmer,
		Log:       log,
		Retries:   1,
		Backoff:   500 * time.Millisecond,
	}
}

// Execute places one order and returns the transaction signature after it
// is confirmed on chain.
func (x *Executor) Execute(ctx context.Context, side strategy.Side, amount float64) (string, error) {
	sell := side == strategy.Sell

	sig, err := x.submit(ctx, amount, sell)
	for attempt := 0; err != nil && attempt < x.Retries; attempt++ {
		x.Log.Warn("swap attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(x.Backoff):
		}
		sig, err = x.submit(ctx, amount, sell)
	}
	if err != nil {
		return "", err
	}

	if err := x.Confirmer.Wait(ctx, sig); err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (x *Executor) submit(ctx context.Context, amount float64, sell bool) (sig solana.Signature, err error) {
	quote, err := x.Client.GetQuote(ctx, amount, sell)
	if err != nil {
		return sig, err
	}
	return x.Client.Swap(ctx, quote)
}
