// Package rpc implements the JSON-RPC 2.0 API server.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/VadimLarinTech/rps-exchange/config"
	"github.com/VadimLarinTech/rps-exchange/internal/events"
	"github.com/VadimLarinTech/rps-exchange/internal/exchange"
	"github.com/VadimLarinTech/rps-exchange/internal/gossip"
	"github.com/VadimLarinTech/rps-exchange/internal/ledger"
	klog "github.com/VadimLarinTech/rps-exchange/internal/log"
	"github.com/VadimLarinTech/rps-exchange/internal/native"
	"github.com/VadimLarinTech/rps-exchange/internal/nft"
	"github.com/VadimLarinTech/rps-exchange/internal/wallet"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Server is the JSON-RPC 2.0 HTTP server.
type Server struct {
	addr        string
	registry    *ledger.Registry
	bank        *native.Bank
	exchange    *exchange.Exchange
	collection  *nft.Collection  // nil = NFT RPC disabled.
	keystore    *wallet.Keystore // nil = wallet RPC disabled.
	gossipNode  *gossip.Node     // nil = no peer info.
	bus         *events.Bus
	genesis     *config.Genesis
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.
}

// New creates a new RPC server. The rpcCfg parameter controls IP
// filtering and CORS; a zero-value RPCConfig allows all IPs and
// disables CORS.
func New(addr string, reg *ledger.Registry, bank *native.Bank, ex *exchange.Exchange,
	bus *events.Bus, genesis *config.Genesis, rpcCfg ...config.RPCConfig) *Server {

	s := &Server{
		addr:     addr,
		registry: reg,
		bank:     bank,
		exchange: ex,
		bus:      bus,
		genesis:  genesis,
		logger:   klog.RPC,
	}

	if len(rpcCfg) > 0 {
		s.allowedNets = parseAllowedIPs(rpcCfg[0].AllowedIPs)
		s.corsOrigins = rpcCfg[0].CORSOrigins
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// SetCollection enables the nft_* endpoints.
func (s *Server) SetCollection(c *nft.Collection) {
	s.collection = c
}

// SetKeystore enables the wallet_* endpoints.
func (s *Server) SetKeystore(ks *wallet.Keystore) {
	s.keystore = ks
}

// SetGossipNode attaches the gossip node for net_getNodeInfo.
func (s *Server) SetGossipNode(n *gossip.Node) {
	s.gossipNode = n
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		_, ipNet, err := net.ParseCIDR(entry)
		if err == nil {
			nets = append(nets, ipNet)
			continue
		}
		// Try as a single IP (add /32 or /128).
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()

	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleRequest is the main HTTP handler for JSON-RPC requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	// IP filtering.
	if len(s.allowedNets) > 0 {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ip := net.ParseIP(host)
		if ip == nil || !s.isIPAllowed(ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	// CORS headers.
	s.setCORSHeaders(w, r)

	// Handle CORS preflight.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}

	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		writeJSON(w, Response{
			JSONRPC: "2.0",
			Error:   rpcErr,
			ID:      req.ID,
		})
		return
	}

	writeJSON(w, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	})
}

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	switch req.Method {
	case "ledger_getInfo":
		return s.handleLedgerGetInfo(req)
	case "ledger_list":
		return s.handleLedgerList(req)
	case "ledger_create":
		return s.handleLedgerCreate(req)
	case "ledger_balanceOf":
		return s.handleLedgerBalanceOf(req)
	case "ledger_allowance":
		return s.handleLedgerAllowance(req)
	case "ledger_transfer":
		return s.handleLedgerTransfer(req)
	case "ledger_approve":
		return s.handleLedgerApprove(req)
	case "ledger_transferFrom":
		return s.handleLedgerTransferFrom(req)
	case "ledger_mint":
		return s.handleLedgerMint(req)
	case "ledger_burn":
		return s.handleLedgerBurn(req)
	case "ledger_pause":
		return s.handleLedgerPause(req)
	case "ledger_unpause":
		return s.handleLedgerUnpause(req)
	case "exchange_getInfo":
		return s.handleExchangeGetInfo(req)
	case "exchange_listToken":
		return s.handleExchangeListToken(req)
	case "exchange_delistToken":
		return s.handleExchangeDelistToken(req)
	case "exchange_setSwapRate":
		return s.handleExchangeSetSwapRate(req)
	case "exchange_getSwapRate":
		return s.handleExchangeGetSwapRate(req)
	case "exchange_swapTokens":
		return s.handleExchangeSwapTokens(req)
	case "exchange_withdrawNative":
		return s.handleExchangeWithdrawNative(req)
	case "native_getBalance":
		return s.handleNativeGetBalance(req)
	case "native_deposit":
		return s.handleNativeDeposit(req)
	case "nft_mint":
		return s.handleNFTMint(req)
	case "nft_ownerOf":
		return s.handleNFTOwnerOf(req)
	case "nft_tokenURI":
		return s.handleNFTTokenURI(req)
	case "nft_transfer":
		return s.handleNFTTransfer(req)
	case "wallet_create":
		return s.handleWalletCreate(req)
	case "wallet_import":
		return s.handleWalletImport(req)
	case "wallet_list":
		return s.handleWalletList(req)
	case "wallet_getAddress":
		return s.handleWalletGetAddress(req)
	case "events_getRecent":
		return s.handleEventsGetRecent(req)
	case "net_getNodeInfo":
		return s.handleNetGetNodeInfo(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}

	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// parseParams unmarshals the request params into the given target.
func parseParams(req *Request, target interface{}) *Error {
	if req.Params == nil {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}

	data, err := json.Marshal(req.Params)
	if err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params"}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
