package common

import (
	"github.com/gagliardetto/solana-go/rpc"
)

type Network struct {
	RpcEndpoint string
	WsEndpoint  string
	Name        string
}

// LoadNetwork returns the endpoints for a named cluster. A non-empty node
// overrides the RPC endpoint while keeping the cluster's websocket endpoint.
func LoadNetwork(name string, node string) Network {
	var network Network
	switch name {
	case "local":
		network = Network{
			RpcEndpoint: rpc.LocalNet_RPC,
			WsEndpoint:  rpc.LocalNet_WS,
			Name:        "local",
		}

	case "devnet":
		network = Network{
			RpcEndpoint: rpc.DevNet_RPC,
			WsEndpoint:  rpc.DevNet_WS,
			Name:        "devnet",
		}

	case "testnet":
		network = Network{
			RpcEndpoint: rpc.TestNet_RPC,
			WsEndpoint:  rpc.TestNet_WS,
			Name:        "testnet",
		}

	case "mainnet":
		network = Network{
			RpcEndpoint: rpc.MainNetBeta_RPC,
			WsEndpoint:  rpc.MainNetBeta_WS,
			Name:        "mainnet",
		}
	}

	if node != "" {
		network.RpcEndpoint = node
	}
	return network
}
