package common

import "time"

var DefaultConfig = Config{
	ServingAddress: "127.0.0.1:8989",
	BridgeURL:      "http://127.0.0.1:1420",
	DataDir:        "walletdb",
	BalanceRefresh: "@every 30s",
	RequestTimeout: 20 * time.Second,
}

// DefaultNetwork is selected on every successful login.
const DefaultNetwork = Mainnet

const BalanceRoute = "/balance"
