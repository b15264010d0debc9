package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Confirmer polls signature status until the cluster reports the
// transaction confirmed or the timeout expires.
type Confirmer struct {
	RPC     *rpc.Client
	Timeout time.Duration
	Poll    time.Duration
}

// NewConfirmer uses the given RPC client with a bounded wait.
func NewConfirmer(rpcClient *rpc.Client, timeout time.Duration) *Confirmer {
	return &Confirmer{RPC: rpcClient, Timeout: timeout, Poll: 2 * time.Second}
}

// Wait blocks until sig reaches confirmed or finalized status. A
// transaction error, the timeout and context cancellation all fail the
// wait; the caller treats any of them as an unconfirmed trade.
func (c *Confirmer) Wait(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	poll := c.Poll
	if poll <= 0 {
		poll = 2 * time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		out, err := c.RPC.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0]
			if st.Err != nil {
				return fmt.Errorf("swap: transaction %s failed: %v", sig, st.Err)
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("swap: confirmation of %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}
