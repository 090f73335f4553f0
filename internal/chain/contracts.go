package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// The orderbook contracts emit four event shapes the reconciler cares
// about. Only the fields below are consumed; owner addresses are indexed
// and ignored.
const orderbookABIJSON = `[
	{"type":"event","name":"LimitOrderCreated","anonymous":false,"inputs":[
		{"name":"owner","type":"address","indexed":true},
		{"name":"id","type":"uint32","indexed":false},
		{"name":"amount0","type":"uint256","indexed":false},
		{"name":"amount1","type":"uint256","indexed":false},
		{"name":"isAsk","type":"bool","indexed":false}]},
	{"type":"event","name":"MarketOrderCreated","anonymous":false,"inputs":[
		{"name":"owner","type":"address","indexed":true},
		{"name":"id","type":"uint32","indexed":false},
		{"name":"amount0","type":"uint256","indexed":false},
		{"name":"amount1","type":"uint256","indexed":false},
		{"name":"isAsk","type":"bool","indexed":false}]},
	{"type":"event","name":"LimitOrderCanceled","anonymous":false,"inputs":[
		{"name":"owner","type":"address","indexed":true},
		{"name":"id","type":"uint32","indexed":false},
		{"name":"amount0","type":"uint256","indexed":false},
		{"name":"amount1","type":"uint256","indexed":false},
		{"name":"isAsk","type":"bool","indexed":false}]},
	{"type":"event","name":"Swap","anonymous":false,"inputs":[
		{"name":"askOwner","type":"address","indexed":true},
		{"name":"bidOwner","type":"address","indexed":true},
		{"name":"askId","type":"uint32","indexed":false},
		{"name":"bidId","type":"uint32","indexed":false},
		{"name":"amount0","type":"uint256","indexed":false},
		{"name":"amount1","type":"uint256","indexed":false}]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
		"inputs":[{"name":"owner","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
		"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
		"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],
		"outputs":[{"name":"","type":"bool"}]}
]`

var (
	orderbookABI = mustParseABI(orderbookABIJSON)
	erc20ABI     = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
