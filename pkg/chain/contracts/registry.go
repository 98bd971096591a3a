// Package contracts holds thin hand-wired bindings for the deployed
// registry and governor contracts. Only the functions and events the
// middleware consumes are bound.
package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const registryABIJSON = `[
	{"anonymous":false,"inputs":[
		{"indexed":true,"internalType":"uint256","name":"artifactId","type":"uint256"},
		{"indexed":true,"internalType":"uint256","name":"labId","type":"uint256"},
		{"indexed":false,"internalType":"string","name":"cid","type":"string"},
		{"indexed":false,"internalType":"bytes32","name":"artifactHash","type":"bytes32"},
		{"indexed":false,"internalType":"uint256","name":"proposalId","type":"uint256"},
		{"indexed":true,"internalType":"address","name":"creator","type":"address"}],
	 "name":"ArtifactRegistered","type":"event"},
	{"inputs":[
		{"internalType":"uint256","name":"labId","type":"uint256"},
		{"internalType":"string","name":"cid","type":"string"},
		{"internalType":"bytes32","name":"artifactHash","type":"bytes32"},
		{"internalType":"uint256","name":"proposalId","type":"uint256"}],
	 "name":"registerArtifact",
	 "outputs":[{"internalType":"uint256","name":"artifactId","type":"uint256"}],
	 "stateMutability":"nonpayable","type":"function"}
]`

// ArtifactRegistry binds the artifact registry contract
type ArtifactRegistry struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewArtifactRegistry creates a binding at the given address
func NewArtifactRegistry(address common.Address, backend bind.ContractBackend) (*ArtifactRegistry, error) {
	parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}
	return &ArtifactRegistry{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address
func (r *ArtifactRegistry) Address() common.Address {
	return r.address
}

// ArtifactRegisteredTopic returns the topic hash of the watched event
func (r *ArtifactRegistry) ArtifactRegisteredTopic() common.Hash {
	return r.abi.Events["ArtifactRegistered"].ID
}

// RegisterArtifact submits a registerArtifact transaction
func (r *ArtifactRegistry) RegisterArtifact(opts *bind.TransactOpts, labID *big.Int, cid string, artifactHash [32]byte, proposalID *big.Int) (*types.Transaction, error) {
	return r.contract.Transact(opts, "registerArtifact", labID, cid, artifactHash, proposalID)
}

// ArtifactRegisteredEvent is the decoded form of the watched event
type ArtifactRegisteredEvent struct {
	ArtifactID   *big.Int
	LabID        *big.Int
	Cid          string
	ArtifactHash [32]byte
	ProposalID   *big.Int
	Creator      common.Address
	Raw          types.Log
}

// ParseArtifactRegistered decodes a raw log into the event
func (r *ArtifactRegistry) ParseArtifactRegistered(log types.Log) (*ArtifactRegisteredEvent, error) {
	if len(log.Topics) != 4 || log.Topics[0] != r.ArtifactRegisteredTopic() {
		return nil, fmt.Errorf("log is not an ArtifactRegistered event")
	}

	var data struct {
		Cid          string
		ArtifactHash [32]byte
		ProposalId   *big.Int
	}
	if err := r.contract.UnpackLog(&data, "ArtifactRegistered", log); err != nil {
		return nil, fmt.Errorf("failed to unpack ArtifactRegistered: %w", err)
	}

	return &ArtifactRegisteredEvent{
		ArtifactID:   new(big.Int).SetBytes(log.Topics[1].Bytes()),
		LabID:        new(big.Int).SetBytes(log.Topics[2].Bytes()),
		Cid:          data.Cid,
		ArtifactHash: data.ArtifactHash,
		ProposalID:   data.ProposalId,
		Creator:      common.BytesToAddress(log.Topics[3].Bytes()),
		Raw:          log,
	}, nil
}
