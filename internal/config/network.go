package config

import (
	"fmt"
	"sort"
	"strings"
)

// Network is an LCD endpoint and the chain id it is expected to serve.
type Network struct {
	Name    string
	LCDURL  string
	ChainID string
}

var networks = map[string]Network{
	"localterra": {Name: "localterra", LCDURL: "http://localhost:1317", ChainID: "localterra"},
	"bombay-12":  {Name: "bombay-12", LCDURL: "https://bombay-lcd.terra.dev", ChainID: "bombay-12"},
}

// Networks lists the built-in network names.
func Networks() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveNetwork applies explicit lcd and chain id overrides to a preset.
// An unknown name is accepted only when both overrides are given.
func resolveNetwork(name, lcd, chainID string) (Network, error) {
	name = strings.TrimSpace(name)
	network, ok := networks[name]
	if !ok {
		if lcd == "" || chainID == "" {
			return Network{}, fmt.Errorf("unknown network %q (known: %s); set lcd and chain-id", name, strings.Join(Networks(), ", "))
		}
		network = Network{Name: name}
	}
	if lcd != "" {
		network.LCDURL = lcd
	}
	if chainID != "" {
		network.ChainID = chainID
	}
	network.LCDURL = strings.TrimRight(network.LCDURL, "/")
	return network, nil
}
