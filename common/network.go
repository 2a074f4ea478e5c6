package common

import (
	"fmt"
	"strings"
)

var networks = []Network{Mainnet, Sandbox, QA}

type ExplorerURLs struct {
	BlockExplorer   string `json:"block_explorer"`
	NetworkExplorer string `json:"network_explorer"`
}

// NetworkInfo is the catalog entry served to views.
type NetworkInfo struct {
	Network  Network      `json:"network"`
	URLs     ExplorerURLs `json:"urls"`
	Currency Currency     `json:"currency"`
}

func Networks() []Network {
	result := make([]Network, len(networks))
	copy(result, networks)
	return result
}

func Catalog() []NetworkInfo {
	var result []NetworkInfo
	for _, n := range networks {
		result = append(result, NetworkInfo{Network: n, URLs: URLs(n), Currency: CurrencyFor(n)})
	}
	return result
}

func (n Network) Valid() bool {
	for _, v := range networks {
		if v == n {
			return true
		}
	}
	return false
}

func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToUpper(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", fmt.Errorf("network %s not found", s)
	}
	return n, nil
}

func URLs(n Network) ExplorerURLs {
	if n == Mainnet {
		return ExplorerURLs{
			BlockExplorer:   "https://blocks.nymtech.net",
			NetworkExplorer: "https://explorer.nymtech.net",
		}
	}
	name := strings.ToLower(string(n))
	return ExplorerURLs{
		BlockExplorer:   fmt.Sprintf("https://%s-blocks.nymtech.net", name),
		NetworkExplorer: fmt.Sprintf("https://%s-explorer.nymtech.net", name),
	}
}

// AccountURL links an address to its transaction history on the block explorer.
func AccountURL(n Network, address string) string {
	return fmt.Sprintf("%s/account/%s", URLs(n).BlockExplorer, address)
}

func CurrencyFor(n Network) Currency {
	if n == Mainnet {
		return Currency{Major: "NYM", Minor: "UNYM"}
	}
	return Currency{Major: "NYMT", Minor: "UNYMT"}
}
