package trader

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/basebot/internal/chain"
	"github.com/web3guy0/basebot/internal/database"
)

// buy swaps an exact amount of ETH into the session token.
func (e *Engine) buy(ctx context.Context, signer *chain.Signer, token common.Address, session *database.TradingSession, balance decimal.Decimal) error {
	if session.BuyAmount.GreaterThan(balance) {
		return e.stopOnInsufficientBalance(session.BuyAmount, balance)
	}

	tx, err := e.exchange.SwapETHForTokens(ctx, signer, token, session.BuyAmount)
	if err != nil {
		return fmt.Errorf("buy swap: %w", err)
	}
	receipt, err := e.exchange.WaitMined(ctx, tx)
	if err != nil {
		return fmt.Errorf("buy wait: %w", err)
	}
	chain.LogReceipt("Buy", tx.Hash(), receipt)

	// Post-hoc estimate of the output via the router's price query, not the
	// realized amount from the receipt.
	estimate, err := e.exchange.AmountsOut(ctx, session.BuyAmount, token)
	if err != nil {
		return fmt.Errorf("buy output estimate: %w", err)
	}

	if err := e.store.SaveTransaction(&database.Transaction{
		Hash:    tx.Hash().Hex(),
		Eth:     session.BuyAmount.String(),
		Token:   estimate.String(),
		Address: session.Token,
		Action:  "BUY",
		Status:  chain.ReceiptOutcome(receipt) == chain.OutcomeSuccess,
	}); err != nil {
		return fmt.Errorf("save buy transaction: %w", err)
	}

	e.decodeSwap(ctx, tx.Hash().Hex(), "amount1Out")
	e.notify(fmt.Sprintf("🟢 BUY %s ETH → ~%s tokens\n%s",
		session.BuyAmount, estimate, chain.TxURL(tx.Hash())))
	return nil
}

// sell swaps tokens back into an exact amount of ETH. On the first cycle
// since trading started the router allowance is granted first; the swap only
// proceeds when that approval mined successfully.
func (e *Engine) sell(ctx context.Context, signer *chain.Signer, token common.Address, session *database.TradingSession, balance decimal.Decimal, cyc *cycle) error {
	if session.SellAmount.GreaterThan(balance) {
		return e.stopOnInsufficientBalance(session.SellAmount, balance)
	}

	if cyc.approvals == 1 {
		tx, err := e.exchange.ApproveRouter(ctx, signer, token)
		if err != nil {
			return fmt.Errorf("approve: %w", err)
		}
		receipt, err := e.exchange.WaitMined(ctx, tx)
		if err != nil {
			return fmt.Errorf("approve wait: %w", err)
		}
		chain.LogReceipt("Approve", tx.Hash(), receipt)
		if chain.ReceiptOutcome(receipt) != chain.OutcomeSuccess {
			// Skip the swap this cycle. Later cycles skip approval entirely,
			// so a failed first approval leaves sells unable to move tokens
			// until trading is restarted.
			log.Warn().Str("tx", tx.Hash().Hex()).Msg("Approval not successful, skipping sell swap")
			return nil
		}
	}

	tx, err := e.exchange.SwapTokensForExactETH(ctx, signer, token, session.SellAmount)
	if err != nil {
		return fmt.Errorf("sell swap: %w", err)
	}
	receipt, err := e.exchange.WaitMined(ctx, tx)
	if err != nil {
		return fmt.Errorf("sell wait: %w", err)
	}
	chain.LogReceipt("Sell", tx.Hash(), receipt)

	estimate, err := e.exchange.AmountsIn(ctx, session.SellAmount, token)
	if err != nil {
		return fmt.Errorf("sell input estimate: %w", err)
	}

	if err := e.store.SaveTransaction(&database.Transaction{
		Hash:    tx.Hash().Hex(),
		Eth:     session.SellAmount.String(),
		Token:   estimate.String(),
		Address: session.Token,
		Action:  "SELL",
		Status:  chain.ReceiptOutcome(receipt) == chain.OutcomeSuccess,
	}); err != nil {
		return fmt.Errorf("save sell transaction: %w", err)
	}

	e.decodeSwap(ctx, tx.Hash().Hex(), "amount1In")
	e.notify(fmt.Sprintf("🔴 SELL ~%s tokens → %s ETH\n%s",
		estimate, session.SellAmount, chain.TxURL(tx.Hash())))
	return nil
}

// stopOnInsufficientBalance records the log entry, deactivates every active
// session, and aborts the rest of the cycle.
func (e *Engine) stopOnInsufficientBalance(requested, balance decimal.Decimal) error {
	log.Warn().
		Str("requested", requested.String()).
		Str("balance", balance.String()).
		Msg("Insufficient balance, stopping trading")

	if err := e.store.SaveLog("Insufficient Balance!"); err != nil {
		log.Error().Err(err).Msg("Failed to save trading log")
	}
	if err := e.store.StopActiveSessions(); err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	e.notify("⚠️ Insufficient balance, trading stopped")
	return errInsufficientBalance
}

// decodeSwap fetches the decoded Swap event for a mined transaction via the
// indexing API. The amounts feed debug logging only; trade accounting stays
// on the router price-query estimates.
func (e *Engine) decodeSwap(ctx context.Context, hash, param string) {
	if e.indexer == nil || !e.indexer.Enabled() {
		return
	}
	tx, err := e.indexer.TransactionVerbose(ctx, hash)
	if err != nil {
		log.Debug().Err(err).Str("tx", hash).Msg("Verbose transaction fetch failed")
		return
	}
	if amount, ok := tx.SwapParam(param, e.tokenDecimals); ok {
		log.Debug().Str("tx", hash).Str(param, amount.String()).Msg("Decoded swap amount")
	}
}
