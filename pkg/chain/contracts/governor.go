package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const governorABIJSON = `[
	{"inputs":[{"internalType":"uint256","name":"proposalId","type":"uint256"}],
	 "name":"state",
	 "outputs":[{"internalType":"uint8","name":"","type":"uint8"}],
	 "stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"proposalId","type":"uint256"}],
	 "name":"proposalSnapshot",
	 "outputs":[{"internalType":"uint256","name":"","type":"uint256"}],
	 "stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"proposalId","type":"uint256"}],
	 "name":"proposalDeadline",
	 "outputs":[{"internalType":"uint256","name":"","type":"uint256"}],
	 "stateMutability":"view","type":"function"},
	{"inputs":[
		{"internalType":"bytes32","name":"role","type":"bytes32"},
		{"internalType":"address","name":"account","type":"address"}],
	 "name":"hasRole",
	 "outputs":[{"internalType":"bool","name":"","type":"bool"}],
	 "stateMutability":"view","type":"function"}
]`

// Access-control role identifiers on the deployed contracts.
var (
	DefaultAdminRole = common.Hash{}
	ProposerRole     = crypto.Keccak256Hash([]byte("PROPOSER_ROLE"))
	ExecutorRole     = crypto.Keccak256Hash([]byte("EXECUTOR_ROLE"))
	MinterRole       = crypto.Keccak256Hash([]byte("MINTER_ROLE"))
)

// Governor binds the read surface of the OZ-style Governor contract
type Governor struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewGovernor creates a binding at the given address
func NewGovernor(address common.Address, backend bind.ContractBackend) (*Governor, error) {
	parsed, err := abi.JSON(strings.NewReader(governorABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse governor ABI: %w", err)
	}
	return &Governor{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address
func (g *Governor) Address() common.Address {
	return g.address
}

// State returns the Governor lifecycle enum for the proposal
func (g *Governor) State(opts *bind.CallOpts, proposalID *big.Int) (uint8, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, "state", proposalID); err != nil {
		return 0, fmt.Errorf("failed to call state: %w", err)
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// ProposalSnapshot returns the snapshot block for the proposal
func (g *Governor) ProposalSnapshot(opts *bind.CallOpts, proposalID *big.Int) (*big.Int, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, "proposalSnapshot", proposalID); err != nil {
		return nil, fmt.Errorf("failed to call proposalSnapshot: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// ProposalDeadline returns the last voting block for the proposal
func (g *Governor) ProposalDeadline(opts *bind.CallOpts, proposalID *big.Int) (*big.Int, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, "proposalDeadline", proposalID); err != nil {
		return nil, fmt.Errorf("failed to call proposalDeadline: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// HasRole reports whether the account holds the access-control role
func (g *Governor) HasRole(opts *bind.CallOpts, role common.Hash, account common.Address) (bool, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, "hasRole", [32]byte(role), account); err != nil {
		return false, fmt.Errorf("failed to call hasRole: %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
