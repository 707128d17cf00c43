package mixercore

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ChainReader is the point-read side of the dashboard.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	TokenBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	GetDeposit(ctx context.Context, user common.Address) (amount *big.Int, timestamp uint64, err error)
}

// Submitter sends the two state-changing mixer calls and waits for them.
type Submitter interface {
	Deposit(ctx context.Context, amount *big.Int) (*types.Receipt, error)
	Withdraw(ctx context.Context, recipient common.Address, amount *big.Int) (*types.Receipt, error)
}

// Contract binds the mixer and its token on one client.
type Contract struct {
	ec        *ethclient.Client
	chainID   *big.Int
	mixerAddr common.Address
	tokenAddr common.Address
	mixer     *bind.BoundContract
	token     *bind.BoundContract
	key       *ecdsa.PrivateKey

	Logf func(format string, a ...any)
}

func NewContract(ec *ethclient.Client, chainID *big.Int, mixerAddr, tokenAddr common.Address) *Contract {
	return &Contract{
		ec:        ec,
		chainID:   chainID,
		mixerAddr: mixerAddr,
		tokenAddr: tokenAddr,
		mixer:     bind.NewBoundContract(mixerAddr, mixerABI, ec, ec, ec),
		token:     bind.NewBoundContract(tokenAddr, erc20ABI, ec, ec, ec),
	}
}

func (c *Contract) logf(format string, a ...any) {
	if c.Logf != nil {
		c.Logf(format, a...)
	}
}

// WithSigner sets the key used for Deposit and Withdraw.
func (c *Contract) WithSigner(key *ecdsa.PrivateKey) *Contract {
	c.key = key
	return c
}

func (c *Contract) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.ec.ChainID(ctx)
	if err != nil {
		return nil, sourceErr("chainId", err)
	}
	return id, nil
}

func (c *Contract) TokenBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.token.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, sourceErr("balanceOf", err)
	}
	if len(out) != 1 {
		return nil, sourceErr("balanceOf", fmt.Errorf("unexpected result length %d", len(out)))
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, sourceErr("balanceOf", fmt.Errorf("unexpected result type %T", out[0]))
	}
	return bal, nil
}

// GetDeposit reads the contract's record of the user's deposit. timestamp is
// Unix seconds, 0 when there is none.
func (c *Contract) GetDeposit(ctx context.Context, user common.Address) (*big.Int, uint64, error) {
	var out []interface{}
	if err := c.mixer.Call(&bind.CallOpts{Context: ctx}, &out, "getDeposit", user); err != nil {
		return nil, 0, sourceErr("getDeposit", err)
	}
	if len(out) != 2 {
		return nil, 0, sourceErr("getDeposit", fmt.Errorf("unexpected result length %d", len(out)))
	}
	amount, ok1 := out[0].(*big.Int)
	ts, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return nil, 0, sourceErr("getDeposit", errors.New("unexpected result types"))
	}
	if !ts.IsUint64() {
		return nil, 0, sourceErr("getDeposit", fmt.Errorf("timestamp out of range: %s", ts))
	}
	return amount, ts.Uint64(), nil
}

// Deposit approves the mixer for amount and then deposits it.
func (c *Contract) Deposit(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	c.logf("approving %s for mixer %s", FormatAmount(amount), c.mixerAddr.Hex())
	tx, err := c.token.Transact(opts, "approve", c.mixerAddr, amount)
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}
	if _, err := c.wait(ctx, "approve", tx); err != nil {
		return nil, err
	}

	opts, err = c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	c.logf("approved, depositing %s", FormatAmount(amount))
	tx, err = c.mixer.Transact(opts, "deposit", amount)
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}
	return c.wait(ctx, "deposit", tx)
}

func (c *Contract) Withdraw(ctx context.Context, recipient common.Address, amount *big.Int) (*types.Receipt, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	c.logf("withdrawing %s to %s", FormatAmount(amount), recipient.Hex())
	tx, err := c.mixer.Transact(opts, "withdraw", recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	return c.wait(ctx, "withdraw", tx)
}

func (c *Contract) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, ErrNoSigner
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func (c *Contract) wait(ctx context.Context, what string, tx *types.Transaction) (*types.Receipt, error) {
	c.logf("%s sent: %s, waiting for receipt", what, tx.Hash().Hex())
	rcpt, err := bind.WaitMined(ctx, c.ec, tx)
	if err != nil {
		return nil, fmt.Errorf("%s wait: %w", what, err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return rcpt, fmt.Errorf("%w: %s reverted in block %s (tx %s)", ErrTxFailed, what, rcpt.BlockNumber, tx.Hash().Hex())
	}
	c.logf("%s mined in block %s", what, rcpt.BlockNumber)
	return rcpt, nil
}

// ParsePrivateKey accepts a hex key with or without 0x.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if h == "" {
		return nil, ErrNoSigner
	}
	key, err := gethcrypto.HexToECDSA(h)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	return key, nil
}
