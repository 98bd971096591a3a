// Package chain wraps the JSON-RPC connection to the anchoring chain and
// the contract bindings the middleware uses.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/chain/contracts"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/config"
)

// Client manages the RPC connection and contract bindings
type Client struct {
	cfg        *config.ChainConfig
	client     *ethclient.Client
	chainID    *big.Int
	privateKey *ecdsa.PrivateKey
	address    common.Address
	registry   *contracts.ArtifactRegistry
	governor   *contracts.Governor
	logger     *zap.Logger
}

// NewClient creates a chain client from configuration. The signer key and
// the contract addresses are optional; operations that need a missing
// piece fail when called.
func NewClient(cfg *config.ChainConfig, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		client:  client,
		chainID: big.NewInt(cfg.ChainID),
		logger:  logger,
	}

	if cfg.SignerPrivateKey != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.SignerPrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse signer private key: %w", err)
		}
		c.privateKey = privateKey
		c.address = crypto.PubkeyToAddress(privateKey.PublicKey)
	}

	if cfg.RegistryContract != "" {
		c.registry, err = contracts.NewArtifactRegistry(common.HexToAddress(cfg.RegistryContract), client)
		if err != nil {
			return nil, fmt.Errorf("failed to bind registry contract: %w", err)
		}
	}
	if cfg.GovernorContract != "" {
		c.governor, err = contracts.NewGovernor(common.HexToAddress(cfg.GovernorContract), client)
		if err != nil {
			return nil, fmt.Errorf("failed to bind governor contract: %w", err)
		}
	}

	logger.Info("Chain client initialized",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("registry", cfg.RegistryContract),
		zap.String("governor", cfg.GovernorContract),
		zap.Bool("signer", c.privateKey != nil))

	return c, nil
}

// Close closes the RPC connection
func (c *Client) Close() {
	c.client.Close()
}

// SignerAddress returns the configured signer address, empty when no key
// is loaded.
func (c *Client) SignerAddress() string {
	if c.privateKey == nil {
		return ""
	}
	return c.address.Hex()
}

// VerifySignerRoles warns when the configured signer is missing a
// governor role it needs for lifecycle transactions. Missing roles are
// not fatal: reads and off-chain writes still work.
func (c *Client) VerifySignerRoles(ctx context.Context) {
	if c.privateKey == nil || c.governor == nil {
		return
	}

	checks := []struct {
		name string
		role common.Hash
	}{
		{"proposer", contracts.ProposerRole},
		{"executor", contracts.ExecutorRole},
	}
	for _, check := range checks {
		ok, err := c.governor.HasRole(&bind.CallOpts{Context: ctx}, check.role, c.address)
		if err != nil {
			c.logger.Warn("Failed to check governor role",
				zap.String("role", check.name),
				zap.Error(err))
			continue
		}
		if !ok {
			c.logger.Warn("Signer is missing governor role",
				zap.String("role", check.name),
				zap.String("signer", c.address.Hex()))
		}
	}
}

// HeadBlock returns the current head block number
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block header: %w", err)
	}
	return header.Number.Uint64(), nil
}

// FilterArtifactRegistered fetches ArtifactRegistered logs in the
// inclusive block range [from, to].
func (c *Client) FilterArtifactRegistered(ctx context.Context, from, to uint64) ([]ArtifactEvent, error) {
	if c.registry == nil {
		return nil, fmt.Errorf("registry contract is not configured")
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.registry.Address()},
		Topics:    [][]common.Hash{{c.registry.ArtifactRegisteredTopic()}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter registry logs: %w", err)
	}

	events := make([]ArtifactEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		ev, err := c.registry.ParseArtifactRegistered(log)
		if err != nil {
			c.logger.Warn("Skipping undecodable registry log",
				zap.Uint64("block", log.BlockNumber),
				zap.Uint("log_index", log.Index),
				zap.Error(err))
			continue
		}
		events = append(events, ArtifactEvent{
			ArtifactID:   ev.ArtifactID.String(),
			LabID:        ev.LabID.String(),
			Cid:          ev.Cid,
			ArtifactHash: common.Hash(ev.ArtifactHash).Hex(),
			ProposalID:   ev.ProposalID.String(),
			Creator:      strings.ToLower(ev.Creator.Hex()),
			BlockNumber:  log.BlockNumber,
			LogIndex:     uint32(log.Index),
			TxHash:       log.TxHash.Hex(),
		})
	}

	return events, nil
}

// RegisterArtifact submits a registerArtifact transaction and returns the
// transaction hash without waiting for inclusion.
func (c *Client) RegisterArtifact(ctx context.Context, labID uint64, cid string, artifactHash common.Hash, proposalID *big.Int) (string, error) {
	if c.registry == nil {
		return "", fmt.Errorf("registry contract is not configured")
	}
	if proposalID == nil {
		proposalID = big.NewInt(0)
	}

	opts, err := c.getTransactor(ctx)
	if err != nil {
		return "", err
	}

	tx, err := c.registry.RegisterArtifact(opts, new(big.Int).SetUint64(labID), cid, artifactHash, proposalID)
	if err != nil {
		return "", fmt.Errorf("failed to send registerArtifact transaction: %w", err)
	}

	c.logger.Info("Sent registerArtifact transaction",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("lab_id", labID),
		zap.String("cid", cid))

	return tx.Hash().Hex(), nil
}

// ProposalState reads the Governor lifecycle enum for the on-chain
// proposal id, given as a decimal string.
func (c *Client) ProposalState(ctx context.Context, onchainID string) (uint8, error) {
	if c.governor == nil {
		return 0, fmt.Errorf("governor contract is not configured")
	}

	id, ok := new(big.Int).SetString(onchainID, 10)
	if !ok {
		return 0, fmt.Errorf("invalid on-chain proposal id: %s", onchainID)
	}

	return c.governor.State(&bind.CallOpts{Context: ctx}, id)
}

// ProposalWindow reads the snapshot and deadline blocks for the on-chain
// proposal id.
func (c *Client) ProposalWindow(ctx context.Context, onchainID string) (snapshot, deadline int64, err error) {
	if c.governor == nil {
		return 0, 0, fmt.Errorf("governor contract is not configured")
	}

	id, ok := new(big.Int).SetString(onchainID, 10)
	if !ok {
		return 0, 0, fmt.Errorf("invalid on-chain proposal id: %s", onchainID)
	}

	opts := &bind.CallOpts{Context: ctx}
	snap, err := c.governor.ProposalSnapshot(opts, id)
	if err != nil {
		return 0, 0, err
	}
	dead, err := c.governor.ProposalDeadline(opts, id)
	if err != nil {
		return 0, 0, err
	}
	return snap.Int64(), dead.Int64(), nil
}

func (c *Client) getTransactor(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privateKey == nil {
		return nil, fmt.Errorf("no signer key configured")
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Nonce = new(big.Int).SetUint64(nonce)
	opts.GasPrice = gasPrice
	opts.GasLimit = c.cfg.GasLimit
	opts.Context = ctx

	return opts, nil
}
