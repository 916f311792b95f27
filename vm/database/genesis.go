package database

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

/*GenesisAllocation - an account funded at genesis */
type GenesisAllocation struct {
	Principal types.Principal
	Amount    types.UIntValue
}

type genesisFile struct {
	Allocations []struct {
		Principal string `yaml:"principal"`
		Amount    string `yaml:"amount"`
	} `yaml:"allocations"`
}

// ParseGenesisAllocations reads allocations from yaml:
//
//	allocations:
//	  - principal: S...
//	    amount: "1000"
func ParseGenesisAllocations(data []byte) ([]GenesisAllocation, error) {
	var gf genesisFile
	if err := yaml.UnmarshalStrict(data, &gf); err != nil {
		return nil, common.InvalidRequest(err.Error())
	}
	out := make([]GenesisAllocation, 0, len(gf.Allocations))
	for i, a := range gf.Allocations {
		p, err := types.ParsePrincipal(a.Principal)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis allocation %d", i)
		}
		amount, err := types.ParseUInt(a.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis allocation %d", i)
		}
		out = append(out, GenesisAllocation{Principal: p, Amount: amount})
	}
	return out, nil
}

// ReadGenesisAllocations reads a genesis yaml file.
func ReadGenesisAllocations(file string) ([]GenesisAllocation, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseGenesisAllocations(data)
}
