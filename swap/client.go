// Package swap routes orders through a Jupiter-style aggregator: quote,
// build-and-sign, submit, then poll for confirmation.
package swap

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/sugawarayuuta/sonnet"
)

// Native base units per whole token (lamports for SOL).
const nativeUnitsPerBase = 1_000_000_000

// Quote mirrors the aggregator's quote response; it is passed back opaque
// to the swap call.
type Quote struct {
	InputMint      string  `json:"inputMint"`
	OutputMint     string  `json:"outputMint"`
	InAmount       string  `json:"inAmount"`
	OutAmount      string  `json:"outAmount"`
	OtherAmount    string  `json:"otherAmountThreshold"`
	SwapMode       string  `json:"swapMode"`
	SlippageBps    int     `json:"slippageBps"`
	RoutePlan      any     `json:"routePlan"`
	PriceImpactPct float64 `json:"priceImpactPct"`
}

// Client talks to the aggregator HTTP API and submits signed transactions
// through the cluster RPC.
type Client struct {
	Base        string
	RPC         *rpc.Client
	Wallet      solana.PrivateKey
	HTTP        *http.Client
	BaseMint    string
	QuoteMint   string
	SlippageBps int
}

// NewClient wires the aggregator base URL and the cluster RPC endpoint.
func NewClient(baseURL, clusterURL string, wallet solana.PrivateKey, baseMint, quoteMint string, slippageBps int) *Client {
	return &Client{
		Base:        baseURL,
		RPC:         rpc.New(clusterURL),
		Wallet:      wallet,
		HTTP:        &http.Client{Timeout: 8 * time.Second},
		BaseMint:    baseMint,
		QuoteMint:   quoteMint,
		SlippageBps: slippageBps,
	}
}

// GetQuote fetches a route for trading `amount` whole base tokens. Sells
// are quoted exact-in from the base mint; buys exact-out into it, so the
// trade size is in base units either way.
func (c *Client) GetQuote(ctx context.Context, amount float64, sell bool) (*Quote, error) {
	native := uint64(amount * nativeUnitsPerBase)
	if native == 0 {
		return nil, fmt.Errorf("swap: amount %f below one native unit", amount)
	}
	q := url.Values{}
	if sell {
		q.Set("inputMint", c.BaseMint)
		q.Set("outputMint", c.QuoteMint)
		q.Set("swapMode", "ExactIn")
	} else {
		q.Set("inputMint", c.QuoteMint)
		q.Set("outputMint", c.BaseMint)
		q.Set("swapMode", "ExactOut")
	}
	q.Set("amount", fmt.Sprintf("%d", native))
	q.Set("slippageBps", fmt.Sprintf("%d", c.SlippageBps))
	u := c.Base + "/v6/quote?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("swap: quote request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("swap: quote status %d", resp.StatusCode)
	}
	var out Quote
	if err := sonnet.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("swap: decode quote: %w", err)
	}
	return &out, nil
}

// Swap asks the aggregator for a ready-to-sign transaction, signs it with
// the wallet key and submits it via RPC.
func (c *Client) Swap(ctx context.Context, quote *Quote) (solana.Signature, error) {
	var sig solana.Signature
	payload := map[string]any{
		"userPublicKey":    c.Wallet.PublicKey().String(),
		"wrapAndUnwrapSol": true,
		"quoteResponse":    quote,
	}
	body, err := sonnet.Marshal(payload)
	if err != nil {
		return sig, fmt.Errorf("swap: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return sig, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return sig, fmt.Errorf("swap: swap request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sig, fmt.Errorf("swap: swap status %d", resp.StatusCode)
	}
	var sr struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := sonnet.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return sig, fmt.Errorf("swap: decode response: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(sr.SwapTransaction)
	if err != nil {
		return sig, fmt.Errorf("swap: decode tx: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return sig, fmt.Errorf("swap: unmarshal tx: %w", err)
	}
	if _, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.Wallet.PublicKey()) {
			return &c.Wallet
		}
		return nil
	}); err != nil {
		return sig, fmt.Errorf("swap: sign tx: %w", err)
	}

	sig, err = c.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return sig, fmt.Errorf("swap: submit tx: %w", err)
	}
	return sig, nil
}
