// Package trader hosts the polling loop that realizes the active trading
// session as a sequence of on-chain swaps.
package trader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/web3guy0/basebot/internal/chain"
	"github.com/web3guy0/basebot/internal/config"
	"github.com/web3guy0/basebot/internal/database"
	"github.com/web3guy0/basebot/internal/indexer"
)

// ErrNoSession is returned when the store holds no session row at all. The
// loop treats it as terminal: there is nothing to poll for until an operator
// creates a session and restarts the process.
var ErrNoSession = errors.New("no trading session configured")

// errInsufficientBalance aborts the rest of a cycle after the balance guard
// fired. The session is already deactivated by the time it is returned.
var errInsufficientBalance = errors.New("insufficient balance")

// Exchange is the chain-client surface the loop needs.
type Exchange interface {
	NativeBalance(ctx context.Context, addr common.Address) (decimal.Decimal, error)
	SwapETHForTokens(ctx context.Context, signer *chain.Signer, token common.Address, amount decimal.Decimal) (*types.Transaction, error)
	SwapTokensForExactETH(ctx context.Context, signer *chain.Signer, token common.Address, ethOut decimal.Decimal) (*types.Transaction, error)
	ApproveRouter(ctx context.Context, signer *chain.Signer, token common.Address) (*types.Transaction, error)
	AmountsOut(ctx context.Context, ethIn decimal.Decimal, token common.Address) (decimal.Decimal, error)
	AmountsIn(ctx context.Context, ethOut decimal.Decimal, token common.Address) (decimal.Decimal, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Indexer fetches decoded transaction logs after a swap.
type Indexer interface {
	Enabled() bool
	TransactionVerbose(ctx context.Context, hash string) (*indexer.VerboseTransaction, error)
}

// Notifier pushes operator-facing messages about trade activity.
type Notifier interface {
	Notify(msg string)
}

// cycle carries per-session-execution state. The approval counter lives here
// rather than in package scope: it is re-initialized whenever a session
// transitions to active and passed explicitly into the sell path.
type cycle struct {
	approvals int
}

func (c *cycle) reset() {
	c.approvals = 0
}

// Engine is the process-wide trading loop.
type Engine struct {
	store    *database.Database
	exchange Exchange
	indexer  Indexer
	notifier Notifier

	idlePoll      time.Duration
	tokenDecimals int32

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	// injectable for tests
	sleep func(ctx context.Context, d time.Duration)
}

// NewEngine creates a trading engine over the given store and chain client.
func NewEngine(cfg *config.Config, store *database.Database, exchange Exchange) *Engine {
	return &Engine{
		store:         store,
		exchange:      exchange,
		idlePoll:      cfg.IdlePollInterval,
		tokenDecimals: cfg.TokenDecimals,
		done:          make(chan struct{}),
		sleep:         sleepCtx,
	}
}

// SetIndexer wires the optional verbose-transaction indexer.
func (e *Engine) SetIndexer(ix Indexer) {
	e.indexer = ix
}

// SetNotifier wires the optional trade notifier.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// State returns the loop's current state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Start launches the loop goroutine.
func (e *Engine) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	go e.run(runCtx)
	log.Info().Msg("Trading engine started")
}

// Stop cancels the loop and waits for it to exit.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	<-e.done
	log.Info().Msg("Trading engine stopped")
}

// Done is closed when the loop goroutine has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	cyc := &cycle{}
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.iterate(ctx, cyc)
		switch {
		case err == nil:

		case errors.Is(err, ErrNoSession):
			e.setState(StateFaulted)
			log.Error().Msg("No trading session exists, trading loop halted")
			e.notify("🛑 Trading loop halted: no trading session configured")
			return

		default:
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("Trading cycle failed, deactivating session")
			if stopErr := e.store.StopActiveSessions(); stopErr != nil {
				log.Error().Err(stopErr).Msg("Failed to deactivate session")
			}
			cyc.reset()
			e.setState(StateIdle)
			// breathe before re-polling so a persistent fault cannot spin
			e.sleep(ctx, e.idlePoll)
		}
	}
}

// iterate runs one pass of the polling loop: resolve the current session and
// wallet, read the balance, and when the session is active execute one
// buy/sell cycle with the configured pause after each swap.
func (e *Engine) iterate(ctx context.Context, cyc *cycle) error {
	session, err := e.store.LatestSession()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	wallet, err := e.store.GetWallet(session.WalletID)
	if err != nil {
		return fmt.Errorf("load wallet %d: %w", session.WalletID, err)
	}
	addr, err := chain.ParseAddress(wallet.Address)
	if err != nil {
		return err
	}
	balance, err := e.exchange.NativeBalance(ctx, addr)
	if err != nil {
		return err
	}

	if !session.Status {
		cyc.reset()
		e.setState(StateIdle)
		e.sleep(ctx, e.idlePoll)
		return nil
	}

	signer, err := chain.NewSigner(wallet.PrivateKey)
	if err != nil {
		return err
	}

	e.setState(StateRunning)
	cyc.approvals++

	token := common.HexToAddress(strings.TrimSpace(session.Token))
	pause := time.Duration(session.Frequency) * time.Second

	if err := e.buy(ctx, signer, token, session, balance); err != nil {
		if errors.Is(err, errInsufficientBalance) {
			cyc.reset()
			e.setState(StateIdle)
			return nil
		}
		return err
	}
	e.sleep(ctx, pause)
	if ctx.Err() != nil {
		return nil
	}

	if err := e.sell(ctx, signer, token, session, balance, cyc); err != nil {
		if errors.Is(err, errInsufficientBalance) {
			cyc.reset()
			e.setState(StateIdle)
			return nil
		}
		return err
	}
	e.sleep(ctx, pause)
	return nil
}

func (e *Engine) setState(s State) {
	old := State(e.state.Swap(int32(s)))
	if old != s {
		log.Info().Str("from", old.String()).Str("to", s.String()).Msg("Engine state change")
	}
}

func (e *Engine) notify(msg string) {
	if e.notifier != nil {
		e.notifier.Notify(msg)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
