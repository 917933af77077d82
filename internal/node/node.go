// Package node assembles a fully-initialized exchange node that can be
// embedded in any binary (daemon, CLI test harness).
package node

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/VadimLarinTech/rps-exchange/config"
	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/exchange"
	"github.com/VadimLarinTech/rps-exchange/internal/gossip"
	"github.com/VadimLarinTech/rps-exchange/internal/ledger"
	klog "github.com/VadimLarinTech/rps-exchange/internal/log"
	"github.com/VadimLarinTech/rps-exchange/internal/native"
	"github.com/VadimLarinTech/rps-exchange/internal/nft"
	"github.com/VadimLarinTech/rps-exchange/internal/rpc"
	"github.com/VadimLarinTech/rps-exchange/internal/storage"
	"github.com/VadimLarinTech/rps-exchange/internal/wallet"
	"github.com/VadimLarinTech/rps-exchange/pkg/crypto"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
)

// keyGenesisHash marks an initialized state database. It stores the
// hash of the applied genesis so a mismatched restart fails loudly
// instead of silently mixing two networks.
var keyGenesisHash = []byte("g/hash")

// eventBusHistory is the number of events kept for events_getRecent.
const eventBusHistory = 1024

// Node is a fully-initialized exchange node.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	// Core
	db         storage.DB
	bus        *events.Bus
	registry   *ledger.Registry
	bank       *native.Bank
	exchange   *exchange.Exchange
	collection *nft.Collection // nil when genesis declares no collection.

	// Networking
	gossipNode *gossip.Node

	// RPC
	rpcServer *rpc.Server
}

// exchangeAddress derives the exchange's own account address for a
// network. Deterministic so every node agrees on it.
func exchangeAddress(networkID string) types.Address {
	h := crypto.Hash([]byte("rpsx/exchange/v1|" + networkID))
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// New creates and initializes a Node: logger, genesis, storage, state
// components, gossip and RPC. Background work starts in Start().
func New(cfg *config.Config) (*Node, error) {
	// Address HRP must be set before any address is rendered.
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	// Logger.
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "rpsx.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.Node

	// Genesis: a file in the network data dir wins; otherwise the
	// built-in genesis is used and written out for inspection.
	genesis, err := loadOrWriteGenesis(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("network_id", genesis.NetworkID).
		Str("network", string(cfg.Network)).
		Str("native", genesis.NativeSymbol).
		Msg("Starting RPS exchange node")

	// Storage.
	db, err := storage.NewBadger(cfg.StateDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.StateDir(), err)
	}
	logger.Info().Str("path", cfg.StateDir()).Msg("Database opened")

	// State components share the database under distinct prefixes.
	bus := events.NewBus(eventBusHistory)
	reg, err := ledger.NewRegistry(db, bus)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open registry: %w", err)
	}
	bank := native.NewBank(db)

	exOwner, err := types.ParseAddress(genesis.Exchange.Owner)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("genesis exchange owner: %w", err)
	}
	resolve := func(a types.Address) (exchange.Asset, error) {
		l, err := reg.Get(a)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	ex := exchange.New(exchangeAddress(genesis.NetworkID), exOwner,
		storage.NewPrefixDB(db, []byte("x/")), bank, resolve, bus)

	n := &Node{
		cfg:      cfg,
		genesis:  genesis,
		logger:   logger,
		db:       db,
		bus:      bus,
		registry: reg,
		bank:     bank,
		exchange: ex,
	}

	// Genesis bootstrap: applied exactly once per state database.
	if err := n.applyGenesis(); err != nil {
		db.Close()
		return nil, err
	}

	// NFT collection (optional).
	if genesis.NFT != nil {
		nftOwner, err := types.ParseAddress(genesis.NFT.Owner)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("genesis nft owner: %w", err)
		}
		col, err := nft.New(
			crypto.AssetAddress(nftOwner, genesis.NFT.Symbol),
			nft.Metadata{Name: genesis.NFT.Name, Symbol: genesis.NFT.Symbol},
			nftOwner,
			storage.NewPrefixDB(db, []byte("nf/")),
			bus,
		)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open nft collection: %w", err)
		}
		n.collection = col
	}

	// Gossip.
	if cfg.Gossip.Enabled {
		n.gossipNode = gossip.New(gossip.Config{
			ListenAddr: cfg.Gossip.ListenAddr,
			Port:       cfg.Gossip.Port,
			Seeds:      cfg.Gossip.Seeds,
			MaxPeers:   cfg.Gossip.MaxPeers,
			NoDiscover: cfg.Gossip.NoDiscover,
			DHTServer:  cfg.Gossip.DHTServer,
			NetworkID:  genesis.NetworkID,
			DataDir:    cfg.NetworkDataDir(),
		}, bus)
	} else {
		logger.Warn().Msg("Gossip disabled by config; node will run offline")
	}

	// RPC.
	if cfg.RPC.Enabled {
		rpcAddr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		srv := rpc.New(rpcAddr, reg, bank, ex, bus, genesis, cfg.RPC)
		if n.collection != nil {
			srv.SetCollection(n.collection)
		}
		if n.gossipNode != nil {
			srv.SetGossipNode(n.gossipNode)
		}
		if cfg.Wallet.Enabled {
			ks, ksErr := wallet.NewKeystore(cfg.KeystoreDir())
			if ksErr != nil {
				db.Close()
				return nil, fmt.Errorf("create wallet keystore: %w", ksErr)
			}
			srv.SetKeystore(ks)
			logger.Info().Str("path", cfg.KeystoreDir()).Msg("Wallet RPC enabled")
		}
		n.rpcServer = srv
	} else {
		if cfg.Wallet.Enabled {
			logger.Warn().Msg("wallet.enabled is true but RPC is disabled; wallet RPC endpoints unavailable")
		}
		logger.Warn().Msg("RPC disabled by config")
	}

	return n, nil
}

// loadOrWriteGenesis reads the genesis file from the network data dir,
// falling back to the built-in genesis (and persisting it).
func loadOrWriteGenesis(cfg *config.Config) (*config.Genesis, error) {
	path := cfg.GenesisFile()
	if _, err := os.Stat(path); err == nil {
		return config.LoadGenesis(path)
	}

	genesis := config.DefaultGenesis(cfg.Network)
	if err := os.MkdirAll(cfg.NetworkDataDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := genesis.Save(path); err != nil {
		return nil, fmt.Errorf("write genesis: %w", err)
	}
	return genesis, nil
}

// applyGenesis initializes a fresh state database from the genesis:
// native allocations, asset creation with initial supply minted to each
// owner, and exchange listings. On an initialized database it only
// verifies the genesis hash.
func (n *Node) applyGenesis() error {
	hash, err := n.genesis.Hash()
	if err != nil {
		return fmt.Errorf("hash genesis: %w", err)
	}

	initialized, err := n.db.Has(keyGenesisHash)
	if err != nil {
		return fmt.Errorf("read genesis marker: %w", err)
	}
	if initialized {
		stored, err := n.db.Get(keyGenesisHash)
		if err != nil {
			return fmt.Errorf("read genesis marker: %w", err)
		}
		if !bytes.Equal(stored, hash[:]) {
			return fmt.Errorf("state database was initialized from a different genesis (have %x, want %x)", stored, hash[:])
		}
		n.logger.Info().Msg("State resumed from database")
		return nil
	}

	// Native allocations.
	for addrStr, amount := range n.genesis.Alloc {
		addr, err := types.ParseAddress(addrStr)
		if err != nil {
			return fmt.Errorf("genesis alloc %s: %w", addrStr, err)
		}
		if err := n.bank.Deposit(addr, amount); err != nil {
			return fmt.Errorf("genesis alloc %s: %w", addrStr, err)
		}
	}

	// Assets, with initial supply minted to each owner.
	bySymbol := make(map[string]*ledger.Ledger, len(n.genesis.Assets))
	for _, def := range n.genesis.Assets {
		owner, err := types.ParseAddress(def.Owner)
		if err != nil {
			return fmt.Errorf("genesis asset %s owner: %w", def.Symbol, err)
		}
		l, err := n.registry.Create(ledger.Metadata{
			Name:     def.Name,
			Symbol:   def.Symbol,
			Decimals: def.Decimals,
		}, owner)
		if err != nil {
			return fmt.Errorf("genesis asset %s: %w", def.Symbol, err)
		}
		if def.InitialSupply > 0 {
			if err := l.Mint(owner, owner, def.InitialSupply); err != nil {
				return fmt.Errorf("genesis asset %s supply: %w", def.Symbol, err)
			}
		}
		bySymbol[def.Symbol] = l
	}

	// Initial exchange listings.
	for _, sym := range n.genesis.Exchange.Listed {
		l, ok := bySymbol[sym]
		if !ok {
			return fmt.Errorf("genesis lists unknown asset %s", sym)
		}
		if err := n.exchange.ListToken(n.exchange.Owner(), l.Address()); err != nil {
			return fmt.Errorf("genesis listing %s: %w", sym, err)
		}
	}

	if err := n.db.Put(keyGenesisHash, hash[:]); err != nil {
		return fmt.Errorf("write genesis marker: %w", err)
	}

	n.logger.Info().
		Int("allocs", len(n.genesis.Alloc)).
		Int("assets", len(n.genesis.Assets)).
		Int("listed", len(n.genesis.Exchange.Listed)).
		Msg("State initialized from genesis")
	return nil
}

// Start launches the gossip node and RPC server.
func (n *Node) Start() error {
	if n.gossipNode != nil {
		if err := n.gossipNode.Start(); err != nil {
			return fmt.Errorf("start gossip: %w", err)
		}
		n.logger.Info().
			Str("id", n.gossipNode.ID().String()).
			Int("port", n.cfg.Gossip.Port).
			Bool("discovery", !n.cfg.Gossip.NoDiscover).
			Msg("Gossip node started")
	}

	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			if n.gossipNode != nil {
				n.gossipNode.Stop()
			}
			return fmt.Errorf("start RPC: %w", err)
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server started")
	}

	n.logger.Info().
		Int("assets", len(n.registry.List())).
		Msg("Node started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.gossipNode != nil {
		n.gossipNode.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Registry exposes the asset registry (for embedding binaries).
func (n *Node) Registry() *ledger.Registry { return n.registry }

// Bank exposes the native currency bank.
func (n *Node) Bank() *native.Bank { return n.bank }

// Exchange exposes the exchange.
func (n *Node) Exchange() *exchange.Exchange { return n.exchange }

// Genesis returns the genesis the node was initialized from.
func (n *Node) Genesis() *config.Genesis { return n.genesis }
