package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
)

// Outcome classifies a mined-transaction result.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeUnmined Outcome = "unmined"
)

// ReceiptOutcome maps a receipt to an Outcome: status 1 with a block number
// is success, status 0 with a block number is failed, anything else unmined.
func ReceiptOutcome(receipt *types.Receipt) Outcome {
	if receipt == nil || receipt.BlockNumber == nil {
		return OutcomeUnmined
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return OutcomeSuccess
	}
	return OutcomeFailed
}

// TxURL returns the block-explorer link for a transaction hash.
func TxURL(hash common.Hash) string {
	return "https://basescan.org/tx/" + hash.Hex()
}

// LogReceipt logs the mined outcome of a swap the way operators expect to
// read it: one line per transaction with the explorer link.
func LogReceipt(kind string, hash common.Hash, receipt *types.Receipt) {
	outcome := ReceiptOutcome(receipt)
	if outcome == OutcomeUnmined {
		log.Warn().
			Str("type", kind).
			Str("tx", TxURL(hash)).
			Msg("Transaction not mined")
		return
	}
	log.Info().
		Str("type", kind).
		Str("tx", TxURL(hash)).
		Str("status", string(outcome)).
		Msg("Transaction mined")
}
