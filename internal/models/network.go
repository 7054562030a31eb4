package models

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Network represents a chain both providers can be queried on
type Network struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	GoPlusChainID string `json:"goplus_chain_id"`
	AlchemyURL    string `json:"-"` // base URL, the API key is appended
	Explorer      string `json:"explorer"`
}

// RPCURL returns the Alchemy endpoint for the given API key
func (n Network) RPCURL(apiKey string) string {
	return strings.TrimSuffix(n.AlchemyURL, "/") + "/" + apiKey
}

// SupportedNetworks will be populated from environment variables or defaults
var SupportedNetworks map[int64]Network

var defaultNetworks = map[int64]Network{
	1: {
		ID:            1,
		Name:          "Ethereum",
		GoPlusChainID: "1",
		AlchemyURL:    "https://eth-mainnet.g.alchemy.com/v2",
		Explorer:      "https://etherscan.io",
	},
	56: {
		ID:            56,
		Name:          "BNB Chain",
		GoPlusChainID: "56",
		AlchemyURL:    "https://bnb-mainnet.g.alchemy.com/v2",
		Explorer:      "https://bscscan.com",
	},
	137: {
		ID:            137,
		Name:          "Polygon",
		GoPlusChainID: "137",
		AlchemyURL:    "https://polygon-mainnet.g.alchemy.com/v2",
		Explorer:      "https://polygonscan.com",
	},
	8453: {
		ID:            8453,
		Name:          "Base",
		GoPlusChainID: "8453",
		AlchemyURL:    "https://base-mainnet.g.alchemy.com/v2",
		Explorer:      "https://basescan.org",
	},
	42161: {
		ID:            42161,
		Name:          "Arbitrum",
		GoPlusChainID: "42161",
		AlchemyURL:    "https://arb-mainnet.g.alchemy.com/v2",
		Explorer:      "https://arbiscan.io",
	},
}

// LoadNetworksFromEnv loads network overrides from environment variables.
// Uses the pattern: ALCHEMY_URL_CHAIN_<CHAIN_ID>, NETWORK_NAME_CHAIN_<CHAIN_ID>
func LoadNetworksFromEnv() map[int64]Network {
	networks := make(map[int64]Network, len(defaultNetworks))
	for id, network := range defaultNetworks {
		networks[id] = network
	}

	for _, envVar := range os.Environ() {
		key, value, ok := strings.Cut(envVar, "=")
		if !ok || value == "" {
			continue
		}

		switch {
		case strings.HasPrefix(key, "ALCHEMY_URL_CHAIN_"):
			chainID, err := strconv.ParseInt(strings.TrimPrefix(key, "ALCHEMY_URL_CHAIN_"), 10, 64)
			if err != nil {
				continue
			}
			network, exists := networks[chainID]
			if !exists {
				network = Network{
					ID:            chainID,
					Name:          fmt.Sprintf("Chain %d", chainID),
					GoPlusChainID: strconv.FormatInt(chainID, 10),
				}
			}
			network.AlchemyURL = value
			networks[chainID] = network
		case strings.HasPrefix(key, "NETWORK_NAME_CHAIN_"):
			chainID, err := strconv.ParseInt(strings.TrimPrefix(key, "NETWORK_NAME_CHAIN_"), 10, 64)
			if err != nil {
				continue
			}
			if network, exists := networks[chainID]; exists {
				network.Name = value
				networks[chainID] = network
			}
		}
	}

	return networks
}

// InitializeNetworks initializes the SupportedNetworks from environment variables or defaults
func InitializeNetworks() {
	SupportedNetworks = LoadNetworksFromEnv()
}

// IsValidNetwork checks if the network ID is supported
func IsValidNetwork(networkID int64) bool {
	_, exists := GetNetwork(networkID)
	return exists
}

// GetNetwork returns network info for a given ID
func GetNetwork(networkID int64) (Network, bool) {
	if SupportedNetworks == nil {
		InitializeNetworks()
	}
	network, exists := SupportedNetworks[networkID]
	return network, exists
}

// ListNetworks returns the supported networks ordered by chain ID
func ListNetworks() []Network {
	if SupportedNetworks == nil {
		InitializeNetworks()
	}
	networks := make([]Network, 0, len(SupportedNetworks))
	for _, network := range SupportedNetworks {
		networks = append(networks, network)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i].ID < networks[j].ID })
	return networks
}
