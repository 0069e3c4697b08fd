// Package indexer wraps the Moralis deep-index API used to fetch verbose
// transaction decodings after each swap.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultURL = "https://deep-index.moralis.io/api/v2.2"

	// Base mainnet chain id as the API expects it
	BaseChainHexID = "0x2105"
)

type Client struct {
	baseURL    string
	apiKey     string
	chain      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		chain:      BaseChainHexID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether API credentials were configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// VerboseTransaction is the decoded-log view of a mined transaction.
type VerboseTransaction struct {
	Hash string       `json:"hash"`
	Logs []DecodedLog `json:"logs"`
}

type DecodedLog struct {
	Address      string        `json:"address"`
	DecodedEvent *DecodedEvent `json:"decoded_event"`
}

type DecodedEvent struct {
	Label  string       `json:"label"`
	Params []EventParam `json:"params"`
}

type EventParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TransactionVerbose fetches the decoded logs for a transaction hash.
func (c *Client) TransactionVerbose(ctx context.Context, hash string) (*VerboseTransaction, error) {
	url := fmt.Sprintf("%s/transaction/%s/verbose?chain=%s", c.baseURL, hash, c.chain)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var tx VerboseTransaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &tx, nil
}

// SwapParam extracts a named parameter from the transaction's decoded Swap
// event, scaled by the token's decimal count. The second return is false when
// no Swap event or parameter is present.
func (tx *VerboseTransaction) SwapParam(name string, decimals int32) (decimal.Decimal, bool) {
	for _, entry := range tx.Logs {
		if entry.DecodedEvent == nil || entry.DecodedEvent.Label != "Swap" {
			continue
		}
		for _, param := range entry.DecodedEvent.Params {
			if param.Name != name {
				continue
			}
			raw, err := decimal.NewFromString(param.Value)
			if err != nil {
				return decimal.Zero, false
			}
			return raw.Shift(-decimals), true
		}
	}
	return decimal.Zero, false
}
