package provider

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/jetton"
)

// Lite reads balances straight from lite servers.
type Lite struct {
	api            ton.APIClientWrapped
	master         *jetton.Client
	jettonDecimals int32
}

// DialLite connects to the lite servers listed in the global config at configURL.
func DialLite(ctx context.Context, configURL, jettonMaster string, jettonDecimals int32) (*Lite, error) {
	masterAddr, err := ParseAddress(jettonMaster)
	if err != nil {
		return nil, fmt.Errorf("invalid jetton master: %w", err)
	}

	cfg, err := liteclient.GetConfigFromUrl(ctx, configURL)
	if err != nil {
		return nil, fmt.Errorf("load lite config: %w", err)
	}
	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("connect lite servers: %w", err)
	}

	api := ton.NewAPIClient(pool, ton.ProofCheckPolicyFast).WithRetry()
	return NewLite(api, masterAddr, jettonDecimals), nil
}

func NewLite(api ton.APIClientWrapped, jettonMaster *address.Address, jettonDecimals int32) *Lite {
	return &Lite{
		api:            api,
		master:         jetton.NewJettonMasterClient(api, jettonMaster),
		jettonDecimals: jettonDecimals,
	}
}

// NativeBalance returns TON balance in coins. Uninitialized accounts have zero balance.
func (l *Lite) NativeBalance(ctx context.Context, addr string) (decimal.Decimal, error) {
	a, err := ParseAddress(addr)
	if err != nil {
		return decimal.Zero, err
	}
	block, err := l.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get masterchain info: %w", err)
	}
	acc, err := l.api.WaitForBlock(block.SeqNo).GetAccount(ctx, block, a)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get account: %w", err)
	}
	if !acc.IsActive || acc.State == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(acc.State.Balance.Nano(), -nanoDecimals), nil
}

// StablecoinBalance resolves the owner's jetton wallet and reads its balance.
func (l *Lite) StablecoinBalance(ctx context.Context, addr string) (decimal.Decimal, error) {
	owner, err := ParseAddress(addr)
	if err != nil {
		return decimal.Zero, err
	}
	w, err := l.master.GetJettonWallet(ctx, owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get jetton wallet: %w", err)
	}
	bal, err := w.GetBalance(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get jetton balance: %w", err)
	}
	return decimal.NewFromBigInt(bal, -l.jettonDecimals), nil
}
