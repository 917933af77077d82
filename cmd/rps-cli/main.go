// rps-cli is a command-line client for interacting with an rpsd node.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/VadimLarinTech/rps-exchange/config"
	"github.com/VadimLarinTech/rps-exchange/internal/rpc"
	"github.com/VadimLarinTech/rps-exchange/internal/rpcclient"
	"github.com/VadimLarinTech/rps-exchange/internal/wallet"
	"github.com/VadimLarinTech/rps-exchange/pkg/types"
	"golang.org/x/term"
)

// keystoreDir returns the keystore path matching rpsd's layout:
// <datadir>/<network>/keystore
func keystoreDir(dataDir, network string) string {
	return filepath.Join(dataDir, network, "keystore")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := "http://127.0.0.1:8640"
	dataDir := config.DefaultDataDir()
	network := "mainnet"

	// Scan for --rpc, --datadir, and --network before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	// Set address HRP based on network.
	if network == "testnet" {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ksDir := keystoreDir(dataDir, network)
	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "status":
		cmdStatus(client)
	case "asset":
		cmdAsset(client, cmdArgs)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "transfer":
		cmdTransfer(client, cmdArgs)
	case "approve":
		cmdApprove(client, cmdArgs)
	case "allowance":
		cmdAllowance(client, cmdArgs)
	case "transferfrom":
		cmdTransferFrom(client, cmdArgs)
	case "exchange":
		cmdExchange(client, cmdArgs)
	case "deposit":
		cmdDeposit(client, cmdArgs)
	case "nft":
		cmdNFT(client, cmdArgs)
	case "wallet":
		cmdWallet(cmdArgs, ksDir)
	case "events":
		cmdEvents(client, cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: rps-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:8640)
  --datadir <path>    Data directory (default: ~/.rpsx)
  --network <net>     mainnet (default) or testnet

Commands:
  status                          Show node and exchange status
  balance <address>               Show native balance
  balance --asset <a> <address>   Show asset balance

  asset list                      List all assets
  asset info <asset>              Show asset metadata and supply
  asset create --name <n> --symbol <SYM> --decimals <d> --owner <addr>
                                  Create a new asset
  asset mint --asset <a> --caller <owner> --to <addr> --amount <n>
                                  Mint new supply (owner only)
  asset burn --asset <a> --caller <owner> --from <addr> --amount <n>
                                  Burn supply (owner only)
  asset pause --asset <a> --caller <owner>
                                  Pause minting
  asset unpause --asset <a> --caller <owner>
                                  Resume minting

  transfer --asset <a> --from <addr> --to <addr> --amount <n>
                                  Transfer asset units
  approve --asset <a> --owner <addr> --spender <addr> --amount <n>
                                  Set a spender allowance
  allowance --asset <a> --owner <addr> --spender <addr>
                                  Show a spender allowance
  transferfrom --asset <a> --spender <addr> --from <addr> --to <addr> --amount <n>
                                  Spend from an allowance

  exchange info                   Show exchange pool and listings
  exchange list --asset <a> --caller <owner>
                                  List an asset for swapping
  exchange delist --asset <a> --caller <owner>
                                  Remove an asset listing
  exchange rate [--sell <a>] [--buy <a>] [--set <rate>]
                                  Show or record a swap rate
  exchange swap --caller <addr> [--sell <a>] [--buy <a>] --amount <n> [--value <n>]
                                  Swap at par (attach native with --value)
  exchange withdraw --caller <owner> --amount <n>
                                  Withdraw native from the pool

  deposit --to <addr> --amount <n>
                                  Credit native currency

  nft mint --caller <owner> --to <addr> --id <n> [--uri <s>]
                                  Mint a collectible
  nft owner <id>                  Show a collectible's owner
  nft uri <id>                    Show a collectible's metadata URI
  nft transfer --caller <owner> --to <addr> --id <n>
                                  Transfer a collectible

  wallet create --name <n>        Create a new wallet
  wallet import --name <n> --mnemonic "..."
                                  Import wallet from mnemonic
  wallet list                     List wallets
  wallet address --wallet <w>     List wallet addresses

  events [--limit <n>]            Show recent ledger and exchange events
`)
}

// ── status ──────────────────────────────────────────────────────────────

func cmdStatus(client *rpcclient.Client) {
	var info rpc.NodeInfoResult
	if err := client.Call("net_getNodeInfo", nil, &info); err != nil {
		fatal("net_getNodeInfo: %v", err)
	}

	fmt.Printf("Network: %s\n", info.NetworkID)
	if info.PeerID != "" {
		fmt.Printf("Peer ID: %s\n", info.PeerID)
	}
	fmt.Printf("Peers:   %d\n", info.PeerCount)

	var ex rpc.ExchangeInfoResult
	if err := client.Call("exchange_getInfo", nil, &ex); err != nil {
		fatal("exchange_getInfo: %v", err)
	}
	fmt.Printf("Pool:    %d\n", ex.NativePool)
	fmt.Printf("Listed:  %d assets\n", len(ex.Listed))
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol (omit for native)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatal("Usage: rps-cli balance [--asset <a>] <address>")
	}
	address := fs.Arg(0)

	var result rpc.BalanceResult
	if *asset == "" {
		if err := client.Call("native_getBalance", rpc.BalanceParam{Address: address}, &result); err != nil {
			fatal("native_getBalance: %v", err)
		}
	} else {
		if err := client.Call("ledger_balanceOf", rpc.BalanceParam{Asset: *asset, Address: address}, &result); err != nil {
			fatal("ledger_balanceOf: %v", err)
		}
	}

	fmt.Printf("Address: %s\n", result.Address)
	fmt.Printf("Balance: %d\n", result.Balance)
}

// ── asset ───────────────────────────────────────────────────────────────

func cmdAsset(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: rps-cli asset <list|info|create|mint|burn|pause|unpause> [flags]")
	}

	switch args[0] {
	case "list":
		cmdAssetList(client)
	case "info":
		cmdAssetInfo(client, args[1:])
	case "create":
		cmdAssetCreate(client, args[1:])
	case "mint":
		cmdAssetMint(client, args[1:])
	case "burn":
		cmdAssetBurn(client, args[1:])
	case "pause":
		cmdAssetPause(client, args[1:], "ledger_pause")
	case "unpause":
		cmdAssetPause(client, args[1:], "ledger_unpause")
	default:
		fatal("Unknown asset command: %s\nUsage: rps-cli asset <list|info|create|mint|burn|pause|unpause> [flags]", args[0])
	}
}

func cmdAssetList(client *rpcclient.Client) {
	var assets []rpc.AssetInfoResult
	if err := client.Call("ledger_list", nil, &assets); err != nil {
		fatal("ledger_list: %v", err)
	}

	if len(assets) == 0 {
		fmt.Println("No assets found.")
		return
	}
	for _, a := range assets {
		fmt.Printf("%-8s %-24s supply=%-12d %s\n", a.Symbol, a.Name, a.TotalSupply, a.Address)
	}
}

func cmdAssetInfo(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: rps-cli asset info <address|symbol>")
	}

	var info rpc.AssetInfoResult
	if err := client.Call("ledger_getInfo", rpc.AssetParam{Asset: args[0]}, &info); err != nil {
		fatal("ledger_getInfo: %v", err)
	}

	fmt.Printf("Name:     %s\n", info.Name)
	fmt.Printf("Symbol:   %s\n", info.Symbol)
	fmt.Printf("Address:  %s\n", info.Address)
	fmt.Printf("Decimals: %d\n", info.Decimals)
	fmt.Printf("Supply:   %d\n", info.TotalSupply)
	fmt.Printf("Owner:    %s\n", info.Owner)
	fmt.Printf("Paused:   %v\n", info.Paused)
}

func cmdAssetCreate(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("asset create", flag.ExitOnError)
	name := fs.String("name", "", "Asset name")
	symbol := fs.String("symbol", "", "Asset symbol")
	decimals := fs.Uint("decimals", 8, "Display decimals")
	owner := fs.String("owner", "", "Owner address")
	fs.Parse(args)

	if *name == "" || *symbol == "" || *owner == "" {
		fatal("Usage: rps-cli asset create --name <n> --symbol <SYM> --decimals <d> --owner <addr>")
	}

	var info rpc.AssetInfoResult
	if err := client.Call("ledger_create", rpc.CreateAssetParam{
		Name:     *name,
		Symbol:   *symbol,
		Decimals: uint8(*decimals),
		Owner:    *owner,
	}, &info); err != nil {
		fatal("ledger_create: %v", err)
	}

	fmt.Printf("Asset created: %s (%s)\n", info.Symbol, info.Name)
	fmt.Printf("Address: %s\n", info.Address)
}

func cmdAssetMint(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("asset mint", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	caller := fs.String("caller", "", "Owner address")
	to := fs.String("to", "", "Recipient address")
	amount := fs.Uint64("amount", 0, "Amount to mint")
	fs.Parse(args)

	if *asset == "" || *caller == "" || *to == "" || *amount == 0 {
		fatal("Usage: rps-cli asset mint --asset <a> --caller <owner> --to <addr> --amount <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("ledger_mint", rpc.TransferParam{
		Asset:  *asset,
		From:   *caller,
		To:     *to,
		Amount: *amount,
	}, &ok); err != nil {
		fatal("ledger_mint: %v", err)
	}
	fmt.Printf("Minted %d to %s\n", *amount, *to)
}

func cmdAssetBurn(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("asset burn", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	caller := fs.String("caller", "", "Owner address")
	from := fs.String("from", "", "Account to burn from")
	amount := fs.Uint64("amount", 0, "Amount to burn")
	fs.Parse(args)

	if *asset == "" || *caller == "" || *from == "" || *amount == 0 {
		fatal("Usage: rps-cli asset burn --asset <a> --caller <owner> --from <addr> --amount <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("ledger_burn", rpc.TransferParam{
		Asset:  *asset,
		From:   *caller,
		To:     *from,
		Amount: *amount,
	}, &ok); err != nil {
		fatal("ledger_burn: %v", err)
	}
	fmt.Printf("Burned %d from %s\n", *amount, *from)
}

func cmdAssetPause(client *rpcclient.Client, args []string, method string) {
	fs := flag.NewFlagSet("asset pause", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	caller := fs.String("caller", "", "Owner address")
	fs.Parse(args)

	if *asset == "" || *caller == "" {
		fatal("Usage: rps-cli asset pause|unpause --asset <a> --caller <owner>")
	}

	var ok rpc.OKResult
	if err := client.Call(method, rpc.PauseParam{Asset: *asset, Caller: *caller}, &ok); err != nil {
		fatal("%s: %v", method, err)
	}
	fmt.Println("OK")
}

// ── transfers and allowances ────────────────────────────────────────────

func cmdTransfer(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	from := fs.String("from", "", "Sender address")
	to := fs.String("to", "", "Recipient address")
	amount := fs.Uint64("amount", 0, "Amount to transfer")
	fs.Parse(args)

	if *asset == "" || *from == "" || *to == "" || *amount == 0 {
		fatal("Usage: rps-cli transfer --asset <a> --from <addr> --to <addr> --amount <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("ledger_transfer", rpc.TransferParam{
		Asset:  *asset,
		From:   *from,
		To:     *to,
		Amount: *amount,
	}, &ok); err != nil {
		fatal("ledger_transfer: %v", err)
	}
	fmt.Printf("Transferred %d to %s\n", *amount, *to)
}

func cmdApprove(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	owner := fs.String("owner", "", "Owner address")
	spender := fs.String("spender", "", "Spender address")
	amount := fs.Uint64("amount", 0, "Allowance (0 revokes)")
	fs.Parse(args)

	if *asset == "" || *owner == "" || *spender == "" {
		fatal("Usage: rps-cli approve --asset <a> --owner <addr> --spender <addr> --amount <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("ledger_approve", rpc.ApproveParam{
		Asset:   *asset,
		Owner:   *owner,
		Spender: *spender,
		Amount:  *amount,
	}, &ok); err != nil {
		fatal("ledger_approve: %v", err)
	}
	fmt.Printf("Approved %s for %d\n", *spender, *amount)
}

func cmdAllowance(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("allowance", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	owner := fs.String("owner", "", "Owner address")
	spender := fs.String("spender", "", "Spender address")
	fs.Parse(args)

	if *asset == "" || *owner == "" || *spender == "" {
		fatal("Usage: rps-cli allowance --asset <a> --owner <addr> --spender <addr>")
	}

	var result rpc.AllowanceResult
	if err := client.Call("ledger_allowance", rpc.AllowanceParam{
		Asset:   *asset,
		Owner:   *owner,
		Spender: *spender,
	}, &result); err != nil {
		fatal("ledger_allowance: %v", err)
	}
	fmt.Printf("Allowance: %d\n", result.Allowance)
}

func cmdTransferFrom(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("transferfrom", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	spender := fs.String("spender", "", "Spender address")
	from := fs.String("from", "", "Owner address")
	to := fs.String("to", "", "Recipient address")
	amount := fs.Uint64("amount", 0, "Amount to transfer")
	fs.Parse(args)

	if *asset == "" || *spender == "" || *from == "" || *to == "" || *amount == 0 {
		fatal("Usage: rps-cli transferfrom --asset <a> --spender <addr> --from <addr> --to <addr> --amount <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("ledger_transferFrom", rpc.TransferFromParam{
		Asset:   *asset,
		Spender: *spender,
		From:    *from,
		To:      *to,
		Amount:  *amount,
	}, &ok); err != nil {
		fatal("ledger_transferFrom: %v", err)
	}
	fmt.Printf("Transferred %d from %s to %s\n", *amount, *from, *to)
}

// ── exchange ────────────────────────────────────────────────────────────

func cmdExchange(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: rps-cli exchange <info|list|delist|rate|swap|withdraw> [flags]")
	}

	switch args[0] {
	case "info":
		cmdExchangeInfo(client)
	case "list":
		cmdExchangeListing(client, args[1:], "exchange_listToken")
	case "delist":
		cmdExchangeListing(client, args[1:], "exchange_delistToken")
	case "rate":
		cmdExchangeRate(client, args[1:])
	case "swap":
		cmdExchangeSwap(client, args[1:])
	case "withdraw":
		cmdExchangeWithdraw(client, args[1:])
	default:
		fatal("Unknown exchange command: %s\nUsage: rps-cli exchange <info|list|delist|rate|swap|withdraw> [flags]", args[0])
	}
}

func cmdExchangeInfo(client *rpcclient.Client) {
	var info rpc.ExchangeInfoResult
	if err := client.Call("exchange_getInfo", nil, &info); err != nil {
		fatal("exchange_getInfo: %v", err)
	}

	fmt.Printf("Address: %s\n", info.Address)
	fmt.Printf("Owner:   %s\n", info.Owner)
	fmt.Printf("Pool:    %d\n", info.NativePool)
	if len(info.Listed) == 0 {
		fmt.Println("Listed:  none")
		return
	}
	fmt.Println("Listed:")
	for _, a := range info.Listed {
		fmt.Printf("  %s\n", a)
	}
}

func cmdExchangeListing(client *rpcclient.Client, args []string, method string) {
	fs := flag.NewFlagSet("exchange listing", flag.ExitOnError)
	asset := fs.String("asset", "", "Asset address or symbol")
	caller := fs.String("caller", "", "Exchange owner address")
	fs.Parse(args)

	if *asset == "" || *caller == "" {
		fatal("Usage: rps-cli exchange list|delist --asset <a> --caller <owner>")
	}

	var ok rpc.OKResult
	if err := client.Call(method, rpc.ListingParam{Caller: *caller, Asset: *asset}, &ok); err != nil {
		fatal("%s: %v", method, err)
	}
	fmt.Println("OK")
}

func cmdExchangeRate(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("exchange rate", flag.ExitOnError)
	sell := fs.String("sell", "", "Sell side (empty = native)")
	buy := fs.String("buy", "", "Buy side (empty = native)")
	set := fs.Uint64("set", 0, "Record this rate instead of querying")
	fs.Parse(args)

	if *set != 0 {
		var ok rpc.OKResult
		if err := client.Call("exchange_setSwapRate", rpc.RateParam{Sell: *sell, Buy: *buy, Rate: *set}, &ok); err != nil {
			fatal("exchange_setSwapRate: %v", err)
		}
		fmt.Println("OK")
		return
	}

	var result rpc.RateResult
	if err := client.Call("exchange_getSwapRate", rpc.RateParam{Sell: *sell, Buy: *buy}, &result); err != nil {
		fatal("exchange_getSwapRate: %v", err)
	}
	fmt.Printf("Rate: %d\n", result.Rate)
}

func cmdExchangeSwap(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("exchange swap", flag.ExitOnError)
	caller := fs.String("caller", "", "Caller address")
	sell := fs.String("sell", "", "Asset to sell (empty = native)")
	buy := fs.String("buy", "", "Asset to buy (empty = native)")
	amount := fs.Uint64("amount", 0, "Amount to swap")
	value := fs.Uint64("value", 0, "Native currency to attach")
	fs.Parse(args)

	if *caller == "" || *amount == 0 {
		fatal("Usage: rps-cli exchange swap --caller <addr> [--sell <a>] [--buy <a>] --amount <n> [--value <n>]")
	}

	var ok rpc.OKResult
	if err := client.Call("exchange_swapTokens", rpc.SwapParam{
		Caller:        *caller,
		Sell:          *sell,
		Buy:           *buy,
		Amount:        *amount,
		AttachedValue: *value,
	}, &ok); err != nil {
		fatal("exchange_swapTokens: %v", err)
	}
	fmt.Printf("Swapped %d\n", *amount)
}

func cmdExchangeWithdraw(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("exchange withdraw", flag.ExitOnError)
	caller := fs.String("caller", "", "Exchange owner address")
	amount := fs.Uint64("amount", 0, "Amount to withdraw")
	fs.Parse(args)

	if *caller == "" || *amount == 0 {
		fatal("Usage: rps-cli exchange withdraw --caller <owner> --amount <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("exchange_withdrawNative", rpc.WithdrawParam{Caller: *caller, Amount: *amount}, &ok); err != nil {
		fatal("exchange_withdrawNative: %v", err)
	}
	fmt.Printf("Withdrew %d\n", *amount)
}

// ── deposit ─────────────────────────────────────────────────────────────

func cmdDeposit(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("deposit", flag.ExitOnError)
	to := fs.String("to", "", "Recipient address")
	amount := fs.Uint64("amount", 0, "Amount to credit")
	fs.Parse(args)

	if *to == "" || *amount == 0 {
		fatal("Usage: rps-cli deposit --to <addr> --amount <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("native_deposit", rpc.DepositParam{Address: *to, Amount: *amount}, &ok); err != nil {
		fatal("native_deposit: %v", err)
	}
	fmt.Printf("Credited %d to %s\n", *amount, *to)
}

// ── nft ─────────────────────────────────────────────────────────────────

func cmdNFT(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: rps-cli nft <mint|owner|uri|transfer> [flags]")
	}

	switch args[0] {
	case "mint":
		cmdNFTMint(client, args[1:])
	case "owner":
		cmdNFTOwner(client, args[1:])
	case "uri":
		cmdNFTURI(client, args[1:])
	case "transfer":
		cmdNFTTransfer(client, args[1:])
	default:
		fatal("Unknown nft command: %s\nUsage: rps-cli nft <mint|owner|uri|transfer> [flags]", args[0])
	}
}

func cmdNFTMint(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("nft mint", flag.ExitOnError)
	caller := fs.String("caller", "", "Collection owner address")
	to := fs.String("to", "", "Recipient address")
	id := fs.Uint64("id", 0, "Token ID")
	uri := fs.String("uri", "", "Metadata URI")
	fs.Parse(args)

	if *caller == "" || *to == "" {
		fatal("Usage: rps-cli nft mint --caller <owner> --to <addr> --id <n> [--uri <s>]")
	}

	var ok rpc.OKResult
	if err := client.Call("nft_mint", rpc.NFTMintParam{
		Caller:  *caller,
		To:      *to,
		TokenID: *id,
		URI:     *uri,
	}, &ok); err != nil {
		fatal("nft_mint: %v", err)
	}
	fmt.Printf("Minted token %d to %s\n", *id, *to)
}

func cmdNFTOwner(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: rps-cli nft owner <id>")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fatal("invalid token id: %v", err)
	}

	var result rpc.NFTOwnerResult
	if err := client.Call("nft_ownerOf", rpc.NFTTokenParam{TokenID: id}, &result); err != nil {
		fatal("nft_ownerOf: %v", err)
	}
	fmt.Printf("Owner: %s\n", result.Owner)
}

func cmdNFTURI(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: rps-cli nft uri <id>")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fatal("invalid token id: %v", err)
	}

	var result rpc.NFTURIResult
	if err := client.Call("nft_tokenURI", rpc.NFTTokenParam{TokenID: id}, &result); err != nil {
		fatal("nft_tokenURI: %v", err)
	}
	fmt.Println(result.URI)
}

func cmdNFTTransfer(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("nft transfer", flag.ExitOnError)
	caller := fs.String("caller", "", "Current owner address")
	to := fs.String("to", "", "Recipient address")
	id := fs.Uint64("id", 0, "Token ID")
	fs.Parse(args)

	if *caller == "" || *to == "" {
		fatal("Usage: rps-cli nft transfer --caller <owner> --to <addr> --id <n>")
	}

	var ok rpc.OKResult
	if err := client.Call("nft_transfer", rpc.NFTTransferParam{
		Caller:  *caller,
		To:      *to,
		TokenID: *id,
	}, &ok); err != nil {
		fatal("nft_transfer: %v", err)
	}
	fmt.Printf("Transferred token %d to %s\n", *id, *to)
}

// ── wallet ──────────────────────────────────────────────────────────────

func cmdWallet(args []string, ksDir string) {
	if len(args) < 1 {
		fatal("Usage: rps-cli wallet <create|import|list|address> [flags]")
	}

	switch args[0] {
	case "create":
		cmdWalletCreate(args[1:], ksDir)
	case "import":
		cmdWalletImport(args[1:], ksDir)
	case "list":
		cmdWalletList(ksDir)
	case "address":
		cmdWalletAddress(args[1:], ksDir)
	default:
		fatal("Unknown wallet command: %s\nUsage: rps-cli wallet <create|import|list|address> [flags]", args[0])
	}
}

func cmdWalletCreate(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: rps-cli wallet create --name <name>")
	}

	// Generate mnemonic.
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	// Prompt for password (twice).
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	// Derive seed.
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	// Derive account 0 address before encrypting.
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	// Create keystore and save.
	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("create keystore: %v", err)
	}

	if err := ks.Create(*name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}

	// Zero seed.
	for i := range seed {
		seed[i] = 0
	}

	// Store account 0 metadata.
	if err := ks.AddAccount(*name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("\nWallet created: %s\n", *name)
	fmt.Printf("Address: %s\n", addr.String())
}

func cmdWalletImport(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic (24 words)")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: rps-cli wallet import --name <name> --mnemonic \"word1 word2 ...\"")
	}

	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}

	// Prompt for password (twice).
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	// Derive seed.
	seed, err := wallet.SeedFromMnemonic(*mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	// Derive account 0 address.
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	// Create keystore and save.
	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("create keystore: %v", err)
	}

	if err := ks.Create(*name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}

	// Zero seed.
	for i := range seed {
		seed[i] = 0
	}

	// Store account 0 metadata.
	if err := ks.AddAccount(*name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("Wallet imported: %s\n", *name)
	fmt.Printf("Address: %s\n", addr.String())
}

func cmdWalletList(ksDir string) {
	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}

	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}

	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}

	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdWalletAddress(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: rps-cli wallet address --wallet <name>")
	}

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}

	accounts, err := ks.ListAccounts(*walletName)
	if err != nil {
		fatal("list accounts: %v", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No addresses found.")
		return
	}

	for _, acct := range accounts {
		fmt.Printf("  [%d] %s\n", acct.Index, acct.Address)
	}
}

// ── events ──────────────────────────────────────────────────────────────

func cmdEvents(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum events to show")
	fs.Parse(args)

	var raw json.RawMessage
	if err := client.Call("events_getRecent", rpc.RecentEventsParam{Limit: *limit}, &raw); err != nil {
		fatal("events_getRecent: %v", err)
	}

	var evs []struct {
		Type   string `json:"type"`
		Asset  string `json:"asset,omitempty"`
		From   string `json:"from,omitempty"`
		To     string `json:"to,omitempty"`
		Amount uint64 `json:"amount"`
		Seq    uint64 `json:"seq"`
	}
	if err := json.Unmarshal(raw, &evs); err != nil {
		fatal("decode events: %v", err)
	}

	if len(evs) == 0 {
		fmt.Println("No events.")
		return
	}
	for _, ev := range evs {
		fmt.Printf("[%d] %-12s asset=%s from=%s to=%s amount=%d\n",
			ev.Seq, ev.Type, ev.Asset, ev.From, ev.To, ev.Amount)
	}
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
