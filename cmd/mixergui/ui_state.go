package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ligun0805/mixer-dashboard/internal/config"
	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
	"github.com/ligun0805/mixer-dashboard/internal/quickaddr"
)

const opTimeout = 5 * time.Minute

// state is the connected account. All fields are guarded by mu.
type state struct {
	mu       sync.Mutex
	cfg      config.Settings
	ec       *ethclient.Client
	contract *core.Contract
	session  *core.Session
	quick    quickaddr.Store
	user     common.Address
	signer   bool
	snap     *core.Snapshot
}

// connect dials the node and builds a session for either a private key
// (full access) or a bare address (view only).
func (s *state) connect(ctx context.Context, keyOrAddr string) error {
	keyOrAddr = strings.TrimSpace(keyOrAddr)
	if keyOrAddr == "" {
		return errors.New("enter a private key or an address")
	}

	var (
		key  *ecdsa.PrivateKey
		user common.Address
		err  error
	)
	if common.IsHexAddress(keyOrAddr) {
		user, err = core.ParseAddress(keyOrAddr)
	} else {
		key, err = core.ParsePrivateKey(keyOrAddr)
		if err == nil {
			user = crypto.PubkeyToAddress(key.PublicKey)
		}
	}
	if err != nil {
		return err
	}

	ec, err := ethclient.DialContext(ctx, s.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("RPC dial failed: %w", err)
	}

	contract := core.NewContract(ec, s.cfg.ChainIDBig(), s.cfg.Mixer(), s.cfg.Token())
	contract.Logf = log.Infof
	sess := &core.Session{
		Chain:   contract,
		Source:  core.NewEthSource(ec, s.cfg.RPCRetries),
		ChainID: s.cfg.ChainIDBig(),
		Scan: core.ScanOptions{
			Contract:    s.cfg.Mixer(),
			FromBlock:   s.cfg.FromBlock,
			ChunkBlocks: s.cfg.LogChunkBlocks,
			Concurrency: s.cfg.LookupConcurrency,
		},
		Logf: log.Debugf,
	}
	if key != nil {
		contract.WithSigner(key)
		sess.Tx = contract
	}

	s.mu.Lock()
	old := s.ec
	s.ec, s.contract, s.session = ec, contract, sess
	s.user, s.signer, s.snap = user, key != nil, nil
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	log.WithField("account", user.Hex()).WithField("signer", key != nil).Info("connected")
	return nil
}

func (s *state) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ec != nil {
		s.ec.Close()
	}
	s.ec, s.contract, s.session, s.snap = nil, nil, nil, nil
	s.user, s.signer = common.Address{}, false
}

func (s *state) current() (*core.Session, *core.Snapshot, common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.snap, s.user
}

func (s *state) refresh(ctx context.Context) (*core.Snapshot, error) {
	sess, _, user := s.current()
	if sess == nil {
		return nil, core.ErrNotConnected
	}
	snap, err := sess.Refresh(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.store(snap), nil
}

func (s *state) store(snap *core.Snapshot) *core.Snapshot {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return snap
}

func (s *state) network(ctx context.Context) (core.NetworkSnapshot, error) {
	s.mu.Lock()
	ec := s.ec
	s.mu.Unlock()
	if ec == nil {
		return core.NetworkSnapshot{}, core.ErrNotConnected
	}
	return core.ReadNetwork(ctx, ec)
}

// tickEligibility re-evaluates the 24h timer locally between refreshes.
// It reports whether the withdraw state flipped.
func (s *state) tickEligibility(now time.Time) (core.Eligibility, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil || s.snap.LastDeposit.IsZero() {
		return core.Eligibility{}, false
	}
	e := core.EvaluateEligibility(uint64(s.snap.LastDeposit.Unix()), uint64(now.Unix()))
	flipped := e.CanWithdraw != s.snap.Eligibility.CanWithdraw
	cp := *s.snap
	cp.Eligibility = e
	cp.CanWithdraw = e.CanWithdraw
	s.snap = &cp
	return e, flipped
}
