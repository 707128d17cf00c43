package mixercore

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const mixerABIJSON = `[
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"sender","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],"name":"Deposited","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"receiver","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"fee","type":"uint256"}],"name":"Withdrawn","type":"event"},
{"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"deposit","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"getDeposit","outputs":[{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"uint256","name":"timestamp","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const erc20ABIJSON = `[
{"inputs":[{"internalType":"address","name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var (
	mixerABI abi.ABI
	erc20ABI abi.ABI
)

func init() {
	mixerABI = mustABI(mixerABIJSON)
	erc20ABI = mustABI(erc20ABIJSON)
}

func mustABI(s string) abi.ABI {
	ab, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("mixercore: bad abi: " + err.Error())
	}
	return ab
}

// EventKind discriminates the two mixer events.
type EventKind uint8

const (
	Deposited EventKind = iota + 1
	Withdrawn
)

func (k EventKind) String() string {
	switch k {
	case Deposited:
		return "Deposited"
	case Withdrawn:
		return "Withdrawn"
	}
	return "Unknown"
}

// ContractEvent is one decoded mixer log.
// Deposited uses Sender and Amount. Withdrawn uses Receiver, Amount (net), Fee
// and Caller, the EOA that sent the withdraw transaction (filled by ResolveCallers).
type ContractEvent struct {
	Kind        EventKind
	Sender      common.Address
	Receiver    common.Address
	Caller      common.Address
	Amount      *big.Int
	Fee         *big.Int
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
}

// Gross is what left the user's mixer balance: the deposit amount, or net+fee for a withdrawal.
func (e ContractEvent) Gross() *big.Int {
	g := new(big.Int)
	if e.Amount != nil {
		g.Add(g, e.Amount)
	}
	if e.Kind == Withdrawn && e.Fee != nil {
		g.Add(g, e.Fee)
	}
	return g
}

// DecodeLog parses a raw mixer log. ok=false means the log is not one of the
// expected event shapes and should just be left out.
func DecodeLog(lg types.Log) (ContractEvent, bool) {
	if lg.Removed || len(lg.Topics) == 0 {
		return ContractEvent{}, false
	}
	ev := ContractEvent{BlockNumber: lg.BlockNumber, LogIndex: lg.Index, TxHash: lg.TxHash}
	switch lg.Topics[0] {
	case mixerABI.Events["Deposited"].ID:
		vals, ok := unpackEvent("Deposited", lg, 1)
		if !ok {
			return ContractEvent{}, false
		}
		ev.Kind = Deposited
		ev.Sender = common.BytesToAddress(lg.Topics[1].Bytes())
		ev.Amount = vals[0]
	case mixerABI.Events["Withdrawn"].ID:
		vals, ok := unpackEvent("Withdrawn", lg, 2)
		if !ok {
			return ContractEvent{}, false
		}
		ev.Kind = Withdrawn
		ev.Receiver = common.BytesToAddress(lg.Topics[1].Bytes())
		ev.Amount = vals[0]
		ev.Fee = vals[1]
	default:
		return ContractEvent{}, false
	}
	return ev, true
}

// unpackEvent decodes the uint256 data words of an event with one indexed address.
func unpackEvent(name string, lg types.Log, words int) ([]*big.Int, bool) {
	if len(lg.Topics) != 2 {
		return nil, false
	}
	raw, err := mixerABI.Events[name].Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil || len(raw) != words {
		return nil, false
	}
	out := make([]*big.Int, 0, words)
	for _, v := range raw {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// DecodeLogs decodes logs in delivery order and reports how many were skipped.
func DecodeLogs(logs []types.Log) (events []ContractEvent, skipped int) {
	events = make([]ContractEvent, 0, len(logs))
	for _, lg := range logs {
		ev, ok := DecodeLog(lg)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	return events, skipped
}
