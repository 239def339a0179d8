package config

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-playground/validator/v10"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	sdkutils "github.com/Layr-Labs/eigensdk-go/utils"

	"github.com/AvaProtocol/userop-digest/core/chainio/aa"
	"github.com/AvaProtocol/userop-digest/core/chainio/signer"
	"github.com/AvaProtocol/userop-digest/pkg/erc4337/aaerr"
)

// Config contains everything the CLI needs to talk to a chain and hash
// user operations for it.
type Config struct {
	Logger sdklogging.Logger

	EthRpcUrl string
	EthClient *ethclient.Client
	ChainID   *big.Int

	FactoryAddress common.Address
	// Only set when controller_private_key is present. json:"-" keeps it out of debug dumps.
	ControllerPrivateKey *ecdsa.PrivateKey `json:"-"`
}

// These are read from configPath
type ConfigRaw struct {
	Environment          sdklogging.LogLevel `yaml:"environment" validate:"omitempty,oneof=production development"`
	EthRpcUrl            string              `yaml:"eth_rpc_url" validate:"required,url"`
	ChainID              int64               `yaml:"chain_id" validate:"gte=0"`
	FactoryAddress       string              `yaml:"factory_address" validate:"omitempty,eth_addr"`
	ControllerPrivateKey string              `yaml:"controller_private_key" validate:"omitempty,hexadecimal"`
}

var validate = validator.New()

// LoadRaw reads and validates the yaml file at configFilePath.
func LoadRaw(configFilePath string) (*ConfigRaw, error) {
	var configRaw ConfigRaw
	if err := sdkutils.ReadYamlConfig(configFilePath, &configRaw); err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", configFilePath, err)
	}

	if configRaw.Environment == "" {
		configRaw.Environment = sdklogging.Production
	}

	if err := validate.Struct(&configRaw); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFilePath, err)
	}

	return &configRaw, nil
}

// NewConfig parses the config file, dials the node and resolves the chain
// id. A chain_id of 0 is asked from the node.
func NewConfig(ctx context.Context, configFilePath string) (*Config, error) {
	configRaw, err := LoadRaw(configFilePath)
	if err != nil {
		return nil, err
	}

	logger, err := sdklogging.NewZapLogger(configRaw.Environment)
	if err != nil {
		return nil, err
	}

	ethClient, err := ethclient.DialContext(ctx, configRaw.EthRpcUrl)
	if err != nil {
		logger.Error("Cannot create ethclient", "url", configRaw.EthRpcUrl, "err", err)
		return nil, err
	}

	chainID := big.NewInt(configRaw.ChainID)
	if chainID.Sign() == 0 {
		if chainID, err = ethClient.ChainID(ctx); err != nil {
			logger.Error("Cannot get chainId", "err", err)
			ethClient.Close()
			return nil, aaerr.NewChainDataUnavailableError("chain id", err)
		}
	}

	config := &Config{
		Logger:         logger,
		EthRpcUrl:      configRaw.EthRpcUrl,
		EthClient:      ethClient,
		ChainID:        chainID,
		FactoryAddress: aa.DefaultFactoryAddress(),
	}
	if configRaw.FactoryAddress != "" {
		config.FactoryAddress = common.HexToAddress(configRaw.FactoryAddress)
	}
	if configRaw.ControllerPrivateKey != "" {
		if config.ControllerPrivateKey, err = signer.ParsePrivateKey(configRaw.ControllerPrivateKey); err != nil {
			ethClient.Close()
			return nil, err
		}
	}

	if err := config.validate(); err != nil {
		ethClient.Close()
		return nil, err
	}

	logger.Debug("loaded config", "chainId", chainID.String(), "chain", ChainName(chainID), "factory", config.FactoryAddress.Hex())
	return config, nil
}

func (c *Config) validate() error {
	if c.ChainID == nil || c.ChainID.Sign() <= 0 {
		return aaerr.NewMalformedInputError("chain_id", "must be a positive integer")
	}
	return nil
}

// Close releases the node connection.
func (c *Config) Close() {
	if c.EthClient != nil {
		c.EthClient.Close()
	}
}
