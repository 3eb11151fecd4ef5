package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/pflag"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/agent"
	"github.com/feral-file/nft-registry/internal/dispatcher"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/providers/jetstream"
	"github.com/feral-file/nft-registry/internal/query"
	"github.com/feral-file/nft-registry/internal/token"
)

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commandOrder = []string{
	"address", "mint", "transfer", "update-metadata", "burn", "approve",
	"set-view-list", "get", "owned", "receipt", "watch",
}

var commands = map[string]command{
	"address":         {"print the signer address and its wallet page", runAddress},
	"mint":            {"mint a token", runMint},
	"transfer":        {"transfer a token, optionally as a sale", runTransfer},
	"update-metadata": {"replace the metadata of a token", runUpdateMetadata},
	"burn":            {"burn a token", runBurn},
	"approve":         {"set or revoke the delegated-transfer operator of a token", runApprove},
	"set-view-list":   {"replace the addresses allowed to see a private token", runSetViewList},
	"get":             {"show a token", runGet},
	"owned":           {"list the tokens held by an address", runOwned},
	"receipt":         {"show the receipt of a transaction", runReceipt},
	"watch":           {"follow registry events involving an address", runWatch},
}

// errHelp stops a command after its usage was printed
var errHelp = errors.New("help requested")

func parseFlags(fs *pflag.FlagSet, args []string) error {
	fs.BoolP("help", "h", false, "show help")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return err
	}
	if help, _ := fs.GetBool("help"); help {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n%s", fs.Name(), fs.FlagUsages())
		return errHelp
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}

// withFlags parses args into fs and treats a help request as success
func withFlags(fs *pflag.FlagSet, args []string, fn func() error) error {
	if err := parseFlags(fs, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	return fn()
}

// metadataFlags collects the metadata of a mint or an update
type metadataFlags struct {
	name        string
	description string
	mediaURI    string
	attributes  map[string]string
	binary      map[string]string
}

func (m *metadataFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&m.name, "name", "", "token name")
	fs.StringVar(&m.description, "description", "", "token description")
	fs.StringVar(&m.mediaURI, "media-uri", "", "media URI")
	fs.StringToStringVar(&m.attributes, "attr", nil, "text attribute key=value, repeatable")
	fs.StringToStringVar(&m.binary, "attr-hex", nil, "binary attribute key=0x..., repeatable")
}

func (m *metadataFlags) metadata() (token.Metadata, error) {
	md := token.Metadata{}
	if m.name != "" {
		md["name"] = token.Text(m.name)
	}
	if m.description != "" {
		md["description"] = token.Text(m.description)
	}
	if m.mediaURI != "" {
		md["media_uri"] = token.Text(m.mediaURI)
	}
	for k, v := range m.attributes {
		md[k] = token.Text(v)
	}
	for k, v := range m.binary {
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --attr-hex %s: %w", k, err)
		}
		md[k] = token.Bytes(b)
	}
	return md, nil
}

func runAddress(_ context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("address", pflag.ContinueOnError)
	return withFlags(fs, args, func() error {
		fmt.Fprintln(e.out, e.client.Address())
		fmt.Fprintf(e.out, "Wallet NFTs: %s\n", e.explorer.WalletNFTsURL(e.client.Address()))
		return nil
	})
}

func runMint(ctx context.Context, e *env, args []string) error {
	var (
		md              metadataFlags
		tokenID         string
		owner           string
		royaltyTo       string
		royaltyBps      uint16
		splits          []string
		private         bool
		viewList        []string
		immutable       bool
		nonTransferable bool
	)

	fs := pflag.NewFlagSet("mint", pflag.ContinueOnError)
	md.register(fs)
	fs.StringVar(&tokenID, "token-id", "", "explicit token id, derived from the transaction when empty")
	fs.StringVar(&owner, "owner", "", "initial owner (default: the signer)")
	fs.StringVar(&royaltyTo, "royalty-recipient", "", "royalty recipient")
	fs.Uint16Var(&royaltyBps, "royalty-bps", 0, "royalty in basis points")
	fs.StringSliceVar(&splits, "royalty-split", nil, "secondary royalty recipient:basis_points, repeatable")
	fs.BoolVar(&private, "private", false, "restrict visibility to the owner and the view list")
	fs.StringSliceVar(&viewList, "view", nil, "address allowed to see a private token, repeatable")
	fs.BoolVar(&immutable, "immutable", false, "forbid metadata updates")
	fs.BoolVar(&nonTransferable, "non-transferable", false, "forbid transfers")

	return withFlags(fs, args, func() error {
		metadata, err := md.metadata()
		if err != nil {
			return err
		}
		if owner == "" {
			owner = e.client.Address().String()
		}

		req := dispatcher.MintRequest{
			TokenID:         tokenID,
			Owner:           owner,
			Metadata:        metadata,
			Private:         private,
			ViewList:        viewList,
			NonTransferable: nonTransferable,
		}
		if immutable {
			mutable := false
			req.MetadataMutable = &mutable
		}
		if royaltyTo != "" {
			req.Royalty = &dispatcher.RoyaltyRequest{Recipient: royaltyTo, BasisPoints: royaltyBps}
			for _, s := range splits {
				split, err := parseSplit(s)
				if err != nil {
					return err
				}
				req.Royalty.Splits = append(req.Royalty.Splits, split)
			}
		} else if len(splits) > 0 {
			return fmt.Errorf("--royalty-split requires --royalty-recipient")
		}

		receipt, err := e.client.Mint(ctx, req)
		return e.printReceipt(receipt, err)
	})
}

func parseSplit(s string) (dispatcher.SplitRequest, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return dispatcher.SplitRequest{}, fmt.Errorf("invalid royalty split %q, expected recipient:basis_points", s)
	}
	bps, err := strconv.ParseUint(s[i+1:], 10, 16)
	if err != nil {
		return dispatcher.SplitRequest{}, fmt.Errorf("invalid royalty split %q: %w", s, err)
	}
	return dispatcher.SplitRequest{Recipient: s[:i], BasisPoints: uint16(bps)}, nil
}

func runTransfer(ctx context.Context, e *env, args []string) error {
	var tokenID, from, to string
	var price uint64

	fs := pflag.NewFlagSet("transfer", pflag.ContinueOnError)
	fs.StringVar(&tokenID, "token-id", "", "token id")
	fs.StringVar(&from, "from", "", "current owner (default: the signer)")
	fs.StringVar(&to, "to", "", "recipient")
	fs.Uint64Var(&price, "price", 0, "sale price, omitted for a gift")

	return withFlags(fs, args, func() error {
		if from == "" {
			from = e.client.Address().String()
		}
		req := dispatcher.TransferRequest{TokenID: tokenID, From: from, To: to}
		if fs.Changed("price") {
			req.SalePrice = &price
		}

		receipt, err := e.client.Transfer(ctx, req)
		return e.printReceipt(receipt, err)
	})
}

func runUpdateMetadata(ctx context.Context, e *env, args []string) error {
	var md metadataFlags
	var tokenID string

	fs := pflag.NewFlagSet("update-metadata", pflag.ContinueOnError)
	md.register(fs)
	fs.StringVar(&tokenID, "token-id", "", "token id")

	return withFlags(fs, args, func() error {
		metadata, err := md.metadata()
		if err != nil {
			return err
		}
		receipt, err := e.client.UpdateMetadata(ctx, dispatcher.UpdateMetadataRequest{TokenID: tokenID, Metadata: metadata})
		return e.printReceipt(receipt, err)
	})
}

func runBurn(ctx context.Context, e *env, args []string) error {
	var tokenID string

	fs := pflag.NewFlagSet("burn", pflag.ContinueOnError)
	fs.StringVar(&tokenID, "token-id", "", "token id")

	return withFlags(fs, args, func() error {
		receipt, err := e.client.Burn(ctx, dispatcher.BurnRequest{TokenID: tokenID})
		return e.printReceipt(receipt, err)
	})
}

func runApprove(ctx context.Context, e *env, args []string) error {
	var tokenID, operator string

	fs := pflag.NewFlagSet("approve", pflag.ContinueOnError)
	fs.StringVar(&tokenID, "token-id", "", "token id")
	fs.StringVar(&operator, "operator", "", "operator allowed to transfer, empty revokes")

	return withFlags(fs, args, func() error {
		req := dispatcher.ApproveRequest{TokenID: tokenID}
		if operator != "" {
			req.Operator = &operator
		}
		receipt, err := e.client.Approve(ctx, req)
		return e.printReceipt(receipt, err)
	})
}

func runSetViewList(ctx context.Context, e *env, args []string) error {
	var tokenID string
	var viewList []string

	fs := pflag.NewFlagSet("set-view-list", pflag.ContinueOnError)
	fs.StringVar(&tokenID, "token-id", "", "token id")
	fs.StringSliceVar(&viewList, "view", nil, "address allowed to see the token, repeatable, none clears the list")

	return withFlags(fs, args, func() error {
		if viewList == nil {
			viewList = []string{}
		}
		receipt, err := e.client.SetViewList(ctx, dispatcher.SetViewListRequest{TokenID: tokenID, ViewList: viewList})
		return e.printReceipt(receipt, err)
	})
}

func runGet(ctx context.Context, e *env, args []string) error {
	var tokenID string

	fs := pflag.NewFlagSet("get", pflag.ContinueOnError)
	fs.StringVar(&tokenID, "token-id", "", "token id")

	return withFlags(fs, args, func() error {
		id, err := domain.ParseTokenID(tokenID)
		if err != nil {
			return err
		}
		view, err := e.client.GetToken(ctx, id)
		if err != nil {
			return err
		}
		if err := e.print(view); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "View NFT on Explorer: %s\n", e.explorer.TokenURL(id))
		return nil
	})
}

func runOwned(ctx context.Context, e *env, args []string) error {
	var owner, after string
	var limit int

	fs := pflag.NewFlagSet("owned", pflag.ContinueOnError)
	fs.StringVar(&owner, "owner", "", "owner address (default: the signer)")
	fs.IntVar(&limit, "limit", query.DefaultPageLimit, "page size")
	fs.StringVar(&after, "after", "", "continue after this token id")

	return withFlags(fs, args, func() error {
		addr := e.client.Address()
		if owner != "" {
			parsed, err := domain.ParseAddress(owner)
			if err != nil {
				return err
			}
			addr = parsed
		}

		page := query.Page{Limit: limit}
		if after != "" {
			id, err := domain.ParseTokenID(after)
			if err != nil {
				return err
			}
			page.After = id
		}

		result, err := e.client.ListOwned(ctx, addr, page)
		if err != nil {
			return err
		}
		if err := e.print(result); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "View Wallet NFTs: %s\n", e.explorer.WalletNFTsURL(addr))
		return nil
	})
}

func runReceipt(ctx context.Context, e *env, args []string) error {
	var txID string
	var wait bool

	fs := pflag.NewFlagSet("receipt", pflag.ContinueOnError)
	fs.StringVar(&txID, "tx-id", "", "transaction id")
	fs.BoolVar(&wait, "wait", false, "wait until the transaction is sealed")

	return withFlags(fs, args, func() error {
		var receipt *ledger.Receipt
		var err error
		if wait {
			receipt, err = e.client.WaitReceipt(ctx, txID)
		} else {
			receipt, err = e.client.GetReceipt(ctx, txID)
		}
		if err != nil {
			return err
		}
		return e.print(receipt)
	})
}

func runWatch(ctx context.Context, e *env, args []string) error {
	var address string

	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	fs.StringVar(&address, "address", "", "only show events involving this address, empty shows all")

	return withFlags(fs, args, func() error {
		if e.cfg.NATS.URL == "" {
			return fmt.Errorf("watch needs the event stream, set NFT_REGISTRY_NATS_URL")
		}

		var addr domain.Address
		if address != "" {
			parsed, err := domain.ParseAddress(address)
			if err != nil {
				return err
			}
			addr = parsed
		}

		sub, err := jetstream.NewSubscriber(jetstream.Config{
			URL:            e.cfg.NATS.URL,
			StreamName:     e.cfg.NATS.StreamName,
			SubjectPrefix:  e.cfg.NATS.SubjectPrefix,
			ConsumerName:   e.cfg.NATS.ConsumerName,
			MaxReconnects:  e.cfg.NATS.MaxReconnects,
			ReconnectWait:  e.cfg.NATS.ReconnectWait,
			ConnectionName: e.cfg.NATS.ConnectionName,
			AckWaitTimeout: e.cfg.NATS.AckWait,
			MaxDeliver:     e.cfg.NATS.MaxDeliver,
		}, adapter.NewNatsJetStream(), e.json)
		if err != nil {
			return err
		}
		defer sub.Close()

		err = agent.Watch(ctx, sub, addr, func(_ context.Context, event *domain.Event) error {
			return e.print(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
}

// printReceipt prints the receipt of a mutating command, then its error
func (e *env) printReceipt(receipt *ledger.Receipt, err error) error {
	if receipt != nil {
		if printErr := e.print(receipt); printErr != nil {
			return printErr
		}
		if receipt.Result != nil && receipt.Result.Event != nil {
			fmt.Fprintf(e.out, "View NFT on Explorer: %s\n", e.explorer.TokenURL(receipt.Result.Event.TokenID))
		}
	}
	return err
}

func (e *env) print(v interface{}) error {
	b, err := e.json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	_, err = fmt.Fprintln(e.out, string(b))
	return err
}
