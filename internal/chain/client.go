package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/basebot/internal/config"
)

// Every swap is sent with a ten-minute expiry.
const swapExpiry = 10 * time.Minute

// Client wraps a JSON-RPC connection to a single chain together with the
// swap-router and ERC20 bindings the trading loop needs.
type Client struct {
	eth            *ethclient.Client
	chainID        *big.Int
	router         common.Address
	weth           common.Address
	routerABI      abi.ABI
	erc20ABI       abi.ABI
	tokenDecimals  int32
	receiptTimeout time.Duration
}

// Dial connects to the configured RPC endpoint and prepares the contract
// bindings.
func Dial(ctx context.Context, cfg *config.Config) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	// A wrong RPC endpoint must not be allowed to trade on the wrong chain.
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		eth.Close()
		return nil, fmt.Errorf("chain id mismatch: node reports %d, configured %d", chainID.Int64(), cfg.ChainID)
	}

	routerABI, err := abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("router abi parse: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("erc20 abi parse: %w", err)
	}

	log.Info().
		Str("router", cfg.RouterAddress).
		Int64("chain_id", chainID.Int64()).
		Msg("Chain client connected")

	return &Client{
		eth:            eth,
		chainID:        chainID,
		router:         common.HexToAddress(cfg.RouterAddress),
		weth:           common.HexToAddress(cfg.WETHAddress),
		routerABI:      routerABI,
		erc20ABI:       erc20ABI,
		tokenDecimals:  cfg.TokenDecimals,
		receiptTimeout: cfg.ReceiptTimeout,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// NativeBalance returns the address's native-asset balance in ETH.
func (c *Client) NativeBalance(ctx context.Context, addr common.Address) (decimal.Decimal, error) {
	wei, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return FromWei(wei), nil
}

// SwapETHForTokens submits an exact-ETH-in swap through [WETH, token].
// No minimum output is requested: the stored slippage setting is accepted by
// the API but never applied on-chain.
func (c *Client) SwapETHForTokens(ctx context.Context, signer *Signer, token common.Address, amount decimal.Decimal) (*types.Transaction, error) {
	opts, err := c.transactor(ctx, signer, ToWei(amount))
	if err != nil {
		return nil, err
	}
	path := []common.Address{c.weth, token}
	return c.routerContract().Transact(opts,
		"swapExactETHForTokensSupportingFeeOnTransferTokens",
		big.NewInt(0), path, signer.Address, swapDeadline())
}

// SwapTokensForExactETH submits a swap requesting an exact ETH output for up
// to SellCap tokens through [token, WETH].
func (c *Client) SwapTokensForExactETH(ctx context.Context, signer *Signer, token common.Address, ethOut decimal.Decimal) (*types.Transaction, error) {
	opts, err := c.transactor(ctx, signer, nil)
	if err != nil {
		return nil, err
	}
	path := []common.Address{token, c.weth}
	return c.routerContract().Transact(opts,
		"swapTokensForExactETH",
		ToWei(ethOut), SellCap(), path, signer.Address, swapDeadline())
}

// ApproveRouter grants the router an allowance up to SellCap on the token.
func (c *Client) ApproveRouter(ctx context.Context, signer *Signer, token common.Address) (*types.Transaction, error) {
	opts, err := c.transactor(ctx, signer, nil)
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(token, c.erc20ABI, c.eth, c.eth, c.eth)
	return contract.Transact(opts, "approve", c.router, SellCap())
}

// AmountsOut asks the router how many tokens an ETH input would currently
// yield through [WETH, token].
func (c *Client) AmountsOut(ctx context.Context, ethIn decimal.Decimal, token common.Address) (decimal.Decimal, error) {
	amounts, err := c.routerAmounts(ctx, "getAmountsOut", ToWei(ethIn), []common.Address{c.weth, token})
	if err != nil {
		return decimal.Zero, err
	}
	return FromUnits(amounts[len(amounts)-1], c.tokenDecimals), nil
}

// AmountsIn asks the router how many tokens an exact ETH output would
// currently cost through [token, WETH].
func (c *Client) AmountsIn(ctx context.Context, ethOut decimal.Decimal, token common.Address) (decimal.Decimal, error) {
	amounts, err := c.routerAmounts(ctx, "getAmountsIn", ToWei(ethOut), []common.Address{token, c.weth})
	if err != nil {
		return decimal.Zero, err
	}
	return FromUnits(amounts[0], c.tokenDecimals), nil
}

// WaitMined blocks until the transaction is mined, bounded by the configured
// receipt timeout when one is set.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx := ctx
	if c.receiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.receiptTimeout)
		defer cancel()
	}
	return bind.WaitMined(waitCtx, c.eth, tx)
}

func (c *Client) routerContract() *bind.BoundContract {
	return bind.NewBoundContract(c.router, c.routerABI, c.eth, c.eth, c.eth)
}

func (c *Client) transactor(ctx context.Context, signer *Signer, value *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(signer.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	if value != nil {
		opts.Value = value
	}
	return opts, nil
}

func (c *Client) routerAmounts(ctx context.Context, method string, amount *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := c.routerABI.Pack(method, amount, path)
	if err != nil {
		return nil, err
	}
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.router, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	vals, err := c.routerABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s unpack: %w", method, err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("%s: unexpected result len %d", method, len(vals))
	}
	amounts, ok := vals[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, vals[0])
	}
	if len(amounts) < 2 {
		return nil, fmt.Errorf("%s: short amounts array", method)
	}
	return amounts, nil
}

func swapDeadline() *big.Int {
	return big.NewInt(time.Now().Add(swapExpiry).Unix())
}
