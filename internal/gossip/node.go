// Package gossip broadcasts settlement notifications to peer nodes
// using libp2p GossipSub.
package gossip

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/log"
)

const (
	// TopicEvents is the GossipSub topic carrying settlement events.
	TopicEvents = "rpsx/events/v1"

	// rendezvousFallback is the discovery namespace when no NetworkID
	// is set.
	rendezvousFallback = "rps-exchange"

	// dhtDiscoveryInterval is how often DHT FindPeers runs.
	dhtDiscoveryInterval = 30 * time.Second

	// peerConnectTimeout bounds a single outbound connection attempt.
	peerConnectTimeout = 5 * time.Second
)

// Config holds gossip node configuration.
type Config struct {
	ListenAddr string
	Port       int
	Seeds      []string
	MaxPeers   int
	NoDiscover bool
	DHTServer  bool   // Run DHT in server mode (for seed nodes)
	NetworkID  string // Isolates discovery per network
	DataDir    string // Persists the node identity key
}

// Node publishes every bus event to the gossip network and tracks
// connected peers.
type Node struct {
	config Config
	bus    *events.Bus
	ctx    context.Context
	cancel context.CancelFunc

	host   host.Host
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	dht    *dht.IpfsDHT

	mu    sync.RWMutex
	peers map[peer.ID]time.Time
}

// New creates a gossip node publishing events from bus.
func New(cfg Config, bus *events.Bus) *Node {
	ctx, cancel := context.WithCancel(context.Background())
	return &Node{
		config: cfg,
		bus:    bus,
		ctx:    ctx,
		cancel: cancel,
		peers:  make(map[peer.ID]time.Time),
	}
}

// rendezvous returns the DHT/mDNS discovery namespace for this node.
func (n *Node) rendezvous() string {
	if n.config.NetworkID != "" {
		return "rpsx/" + n.config.NetworkID
	}
	return rendezvousFallback
}

// Start initializes the libp2p host, joins the events topic and begins
// publishing bus events.
func (n *Node) Start() error {
	addr := fmt.Sprintf("/ip4/%s/tcp/%d", n.config.ListenAddr, n.config.Port)

	opts := []libp2p.Option{
		libp2p.ListenAddrStrings(addr),
	}

	// Load or generate persistent identity so the peer ID survives
	// restarts.
	if n.config.DataDir != "" {
		privKey, err := loadOrCreateIdentity(n.config.DataDir)
		if err != nil {
			return fmt.Errorf("load gossip identity: %w", err)
		}
		opts = append(opts, libp2p.Identity(privKey))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	n.host = h

	// Init DHT before GossipSub so the DHT can serve as a peer source.
	if !n.config.NoDiscover {
		if err := n.initDHT(); err != nil {
			h.Close()
			return fmt.Errorf("init dht: %w", err)
		}
	}

	ps, err := pubsub.NewGossipSub(n.ctx, h)
	if err != nil {
		n.closeDHT()
		h.Close()
		return fmt.Errorf("create pubsub: %w", err)
	}
	n.pubsub = ps

	topic, err := ps.Join(TopicEvents)
	if err != nil {
		n.closeDHT()
		h.Close()
		return fmt.Errorf("join topic: %w", err)
	}
	n.topic = topic
	sub, err := topic.Subscribe()
	if err != nil {
		n.closeDHT()
		h.Close()
		return fmt.Errorf("subscribe topic: %w", err)
	}
	n.sub = sub

	go n.publishLoop()
	go n.readLoop()

	if len(n.config.Seeds) > 0 {
		log.Gossip.Info().Int("seeds", len(n.config.Seeds)).Msg("connecting to seeds")
	}
	n.connectSeedsOnce()
	go n.connectSeedsLoop()

	if !n.config.NoDiscover {
		n.startMDNS()
		go n.runDHTDiscovery()
	}

	log.Gossip.Info().
		Str("peer_id", h.ID().String()).
		Str("listen", addr).
		Msg("gossip node started")
	return nil
}

// Stop shuts down the gossip node.
func (n *Node) Stop() error {
	n.cancel()
	if n.sub != nil {
		n.sub.Cancel()
	}
	if n.topic != nil {
		n.topic.Close()
	}
	n.closeDHT()
	if n.host != nil {
		return n.host.Close()
	}
	return nil
}

// ID returns the peer ID of this node, empty before Start.
func (n *Node) ID() peer.ID {
	if n.host == nil {
		return ""
	}
	return n.host.ID()
}

// Addrs returns the full multiaddrs of this node.
func (n *Node) Addrs() []string {
	if n.host == nil {
		return nil
	}
	var addrs []string
	for _, a := range n.host.Addrs() {
		addrs = append(addrs, fmt.Sprintf("%s/p2p/%s", a, n.host.ID()))
	}
	return addrs
}

// PeerCount returns the number of connected peers.
func (n *Node) PeerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.peers)
}

func (n *Node) addPeer(id peer.ID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.peers[id]; !exists {
		n.peers[id] = time.Now()
	}
}

// publishLoop forwards every local bus event to the gossip topic.
func (n *Node) publishLoop() {
	ch, cancel := n.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-n.ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Gossip.Error().Err(err).Msg("marshal event")
				continue
			}
			if err := n.topic.Publish(n.ctx, data); err != nil {
				log.Gossip.Debug().Err(err).Msg("publish event")
			}
		}
	}
}

// readLoop drains remote events from the topic. Remote events are
// observational only; they never mutate local state.
func (n *Node) readLoop() {
	for {
		msg, err := n.sub.Next(n.ctx)
		if err != nil {
			return // Subscription cancelled.
		}
		if msg.ReceivedFrom == n.host.ID() {
			continue // Ignore self.
		}
		var ev events.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Gossip.Debug().Err(err).Msg("malformed remote event")
			continue
		}
		log.Gossip.Debug().
			Str("peer", msg.ReceivedFrom.String()[:16]).
			Str("type", ev.Type).
			Uint64("amount", ev.Amount).
			Msg("remote event")
	}
}

func (n *Node) initDHT() error {
	mode := dht.ModeClient
	if n.config.DHTServer {
		mode = dht.ModeServer
	}
	kadDHT, err := dht.New(n.ctx, n.host, dht.Mode(mode))
	if err != nil {
		return fmt.Errorf("create kad-dht: %w", err)
	}
	n.dht = kadDHT
	return kadDHT.Bootstrap(n.ctx)
}

func (n *Node) closeDHT() {
	if n.dht != nil {
		n.dht.Close()
		n.dht = nil
	}
}

func (n *Node) startMDNS() {
	svc := mdns.NewMdnsService(n.host, n.rendezvous(), &discoveryNotifee{node: n})
	// mDNS failure is non-fatal.
	_ = svc.Start()
}

// connectSeedsOnce tries to connect to each seed peer once (blocking).
func (n *Node) connectSeedsOnce() {
	for _, addr := range n.config.Seeds {
		maddr, err := ma.NewMultiaddr(addr)
		if err != nil {
			log.Gossip.Warn().Str("addr", addr).Err(err).Msg("bad seed address")
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(maddr)
		if err != nil {
			log.Gossip.Warn().Str("addr", addr).Err(err).Msg("seed address missing peer id")
			continue
		}
		ctx, cancel := context.WithTimeout(n.ctx, 10*time.Second)
		err = n.host.Connect(ctx, *info)
		cancel()
		if err != nil {
			log.Gossip.Warn().Str("peer", info.ID.String()[:16]).Err(err).Msg("seed connect failed")
		} else {
			n.addPeer(info.ID)
			log.Gossip.Info().Str("peer", info.ID.String()[:16]).Msg("seed connected")
		}
	}
}

// connectSeedsLoop retries seed connections every 10s while peerless.
func (n *Node) connectSeedsLoop() {
	if len(n.config.Seeds) == 0 {
		return
	}
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-time.After(10 * time.Second):
			if n.PeerCount() == 0 {
				n.connectSeedsOnce()
			}
		}
	}
}

func (n *Node) runDHTDiscovery() {
	if n.dht == nil {
		return
	}

	routingDiscovery := drouting.NewRoutingDiscovery(n.dht)
	dutil.Advertise(n.ctx, routingDiscovery, n.rendezvous())

	ticker := time.NewTicker(dhtDiscoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.findDHTPeers(routingDiscovery)
		}
	}
}

func (n *Node) findDHTPeers(routingDiscovery *drouting.RoutingDiscovery) {
	ctx, cancel := context.WithTimeout(n.ctx, 20*time.Second)
	defer cancel()

	peerCh, err := routingDiscovery.FindPeers(ctx, n.rendezvous())
	if err != nil {
		return
	}

	for p := range peerCh {
		if p.ID == n.host.ID() || len(p.Addrs) == 0 {
			continue
		}
		if n.config.MaxPeers > 0 && n.PeerCount() >= n.config.MaxPeers {
			return
		}
		connectCtx, connectCancel := context.WithTimeout(n.ctx, peerConnectTimeout)
		if err := n.host.Connect(connectCtx, p); err == nil {
			n.addPeer(p.ID)
		}
		connectCancel()
	}
}

// loadOrCreateIdentity loads a persisted libp2p identity key from
// dataDir, or generates a new one and saves it, keeping the peer ID
// stable across restarts.
func loadOrCreateIdentity(dataDir string) (libp2pcrypto.PrivKey, error) {
	keyPath := filepath.Join(dataDir, "node.key")

	data, err := os.ReadFile(keyPath)
	if err == nil {
		keyBytes, err := hex.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("decode node key: %w", err)
		}
		return libp2pcrypto.UnmarshalEd25519PrivateKey(keyBytes)
	}

	priv, _, err := libp2pcrypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate node key: %w", err)
	}
	raw, err := priv.Raw()
	if err != nil {
		return nil, fmt.Errorf("serialize node key: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(raw)), 0600); err != nil {
		return nil, fmt.Errorf("save node key: %w", err)
	}
	return priv, nil
}
