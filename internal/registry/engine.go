package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/policy"
	"github.com/feral-file/nft-registry/internal/storage"
	"github.com/feral-file/nft-registry/internal/token"
)

// Engine is the registry state machine. Every operation re-reads current
// state through env.Store, validates against it and issues its writes as one
// storage batch. Operations never log and never retry; a returned error means
// the enclosing host transaction must be rolled back.
//
//go:generate mockgen -source=engine.go -destination=../mocks/engine.go -package=mocks -mock_names=Engine=MockEngine
type Engine interface {
	// Mint creates a new token owned by args.Owner
	Mint(ctx context.Context, env host.Env, args MintArgs) (*domain.Event, error)

	// Transfer moves a token from its owner to a new address
	Transfer(ctx context.Context, env host.Env, args TransferArgs) (*domain.Event, error)

	// UpdateMetadata replaces the metadata of a token wholesale
	UpdateMetadata(ctx context.Context, env host.Env, args UpdateMetadataArgs) (*domain.Event, error)

	// Burn tombstones a token and removes it from the ownership index
	Burn(ctx context.Context, env host.Env, args BurnArgs) (*domain.Event, error)

	// Approve grants or revokes the single delegated-transfer capability of a token
	Approve(ctx context.Context, env host.Env, args ApproveArgs) (*domain.Event, error)

	// SetViewList replaces the addresses allowed to see a private token
	SetViewList(ctx context.Context, env host.Env, args SetViewListArgs) (*domain.Event, error)
}

// MintArgs are the arguments of a mint. An empty TokenID is derived from the
// transaction id and the caller.
type MintArgs struct {
	TokenID  domain.TokenID
	Owner    domain.Address
	Metadata token.Metadata
	Royalty  *token.Royalty
	Private  bool
	ViewList []domain.Address
	Policy   token.Policy
}

// TransferArgs are the arguments of a transfer
type TransferArgs struct {
	TokenID domain.TokenID
	From    domain.Address
	To      domain.Address
	Sale    policy.SaleContext
}

// UpdateMetadataArgs are the arguments of a metadata update
type UpdateMetadataArgs struct {
	TokenID  domain.TokenID
	Metadata token.Metadata
}

// BurnArgs are the arguments of a burn
type BurnArgs struct {
	TokenID domain.TokenID
}

// ApproveArgs are the arguments of an approval. An empty Operator revokes.
type ApproveArgs struct {
	TokenID  domain.TokenID
	Operator domain.Address
}

// SetViewListArgs are the arguments of a view list update
type SetViewListArgs struct {
	TokenID  domain.TokenID
	ViewList []domain.Address
}

// Config holds the registry-wide policy
type Config struct {
	// Permissionless allows any caller to mint
	Permissionless bool
	// Minters may mint when the registry is not permissionless and may
	// update metadata of any mutable token
	Minters MinterRegistry
	// ProgramFee is charged on sale transfers
	ProgramFee policy.Fee
	// Limits bounds token record sizes
	Limits token.Limits
}

type engine struct {
	cfg Config
}

// NewEngine creates a registry engine
func NewEngine(cfg Config) Engine {
	if cfg.Minters == nil {
		cfg.Minters = NewMinterRegistry(nil)
	}
	return &engine{cfg: cfg}
}

var errNoStore = errors.New("host context has no storage")

// accessor checks the host context and returns an accessor over its storage
func (e *engine) accessor(env host.Env) (storage.Accessor, error) {
	if env.Store == nil {
		return nil, errNoStore
	}
	if !env.Caller.Valid() {
		return nil, fmt.Errorf("%w: caller %q is not a valid address", domain.ErrUnauthorized, env.Caller)
	}
	return storage.NewAccessor(env.Store), nil
}

// load returns a live token. Burned tokens are reported as not found.
func (e *engine) load(ctx context.Context, acc storage.Accessor, id domain.TokenID) (*token.Token, error) {
	if !id.Valid() {
		return nil, domain.NewSchemaError("token_id", "must be 0x-prefixed lowercase hex of 32 bytes")
	}

	t, ok, err := acc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok || t.Burned {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return t, nil
}

func (e *engine) event(env host.Env, kind domain.EventKind, id domain.TokenID, participants ...domain.Address) *domain.Event {
	seen := make(map[domain.Address]bool, len(participants))
	unique := make([]domain.Address, 0, len(participants))
	for _, p := range participants {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}

	return &domain.Event{
		Kind:         kind,
		TokenID:      id,
		Participants: unique,
		BlockHeight:  env.BlockHeight,
		TxID:         env.TxID,
	}
}

func (e *engine) Mint(ctx context.Context, env host.Env, args MintArgs) (*domain.Event, error) {
	acc, err := e.accessor(env)
	if err != nil {
		return nil, err
	}

	if !e.cfg.Permissionless && !e.cfg.Minters.IsMinter(env.Caller) {
		return nil, fmt.Errorf("%w: %s is not a minter", domain.ErrUnauthorized, env.Caller)
	}

	id := args.TokenID
	if id == "" {
		id = domain.DeriveTokenID(env.TxID, env.Caller)
	}

	t := &token.Token{
		ID:            id,
		Owner:         args.Owner,
		Creator:       env.Caller,
		Metadata:      args.Metadata.Clone(),
		Private:       args.Private,
		Policy:        args.Policy,
		CreatedAt:     env.BlockHeight,
		UpdatedAt:     env.BlockHeight,
		TransferCount: 0,
	}
	if t.Metadata == nil {
		t.Metadata = token.Metadata{}
	}
	if args.Royalty != nil {
		r := *args.Royalty
		r.Splits = append([]token.Split(nil), args.Royalty.Splits...)
		t.Royalty = &r
	}
	if len(args.ViewList) > 0 {
		t.ViewList = append([]domain.Address{}, args.ViewList...)
	}

	if err := token.Validate(t, e.cfg.Limits); err != nil {
		return nil, err
	}

	// Burned ids stay reserved so a tombstone also blocks the mint
	_, exists, err := acc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, id)
	}

	if err := storage.NewBatch().
		Put(t).
		AddIndexEntry(t.Owner, t.ID).
		Apply(ctx, acc); err != nil {
		return nil, err
	}

	return e.event(env, domain.EventKindMint, id, env.Caller, t.Owner), nil
}

func (e *engine) Transfer(ctx context.Context, env host.Env, args TransferArgs) (*domain.Event, error) {
	acc, err := e.accessor(env)
	if err != nil {
		return nil, err
	}

	if !args.From.Valid() {
		return nil, domain.NewSchemaError("from", "invalid address %q", args.From)
	}
	if !args.To.Valid() {
		return nil, domain.NewSchemaError("to", "invalid address %q", args.To)
	}
	if args.From == args.To {
		return nil, fmt.Errorf("%w: %s", domain.ErrSelfTransfer, args.From)
	}

	current, err := e.load(ctx, acc, args.TokenID)
	if err != nil {
		return nil, err
	}

	if current.Owner != args.From {
		return nil, fmt.Errorf("%w: %s does not own %s", domain.ErrNotOwner, args.From, args.TokenID)
	}
	if env.Caller != args.From && (current.Approved == "" || env.Caller != current.Approved) {
		return nil, fmt.Errorf("%w: %s may not transfer %s", domain.ErrUnauthorized, env.Caller, args.TokenID)
	}
	if current.Policy.NonTransferable {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotTransferable, args.TokenID)
	}

	// Settle against the pre-transfer record
	settlement := policy.Settle(current, e.cfg.ProgramFee, args.Sale)

	next := current.Clone()
	next.Owner = args.To
	next.Approved = ""
	next.ViewList = nil
	next.TransferCount = current.TransferCount + 1
	next.UpdatedAt = env.BlockHeight

	if err := token.Validate(next, e.cfg.Limits); err != nil {
		return nil, err
	}

	if err := storage.NewBatch().
		DeleteIndexEntry(args.From, next.ID).
		Put(next).
		AddIndexEntry(args.To, next.ID).
		Apply(ctx, acc); err != nil {
		return nil, err
	}

	ev := e.event(env, domain.EventKindTransfer, next.ID, args.From, args.To, env.Caller)
	ev.Settlement = settlement
	return ev, nil
}

func (e *engine) UpdateMetadata(ctx context.Context, env host.Env, args UpdateMetadataArgs) (*domain.Event, error) {
	acc, err := e.accessor(env)
	if err != nil {
		return nil, err
	}

	current, err := e.load(ctx, acc, args.TokenID)
	if err != nil {
		return nil, err
	}

	if env.Caller != current.Owner && !e.cfg.Minters.IsMinter(env.Caller) {
		return nil, fmt.Errorf("%w: %s may not update metadata of %s", domain.ErrUnauthorized, env.Caller, args.TokenID)
	}
	if !current.Policy.MetadataMutable {
		return nil, fmt.Errorf("%w: metadata of %s is immutable", domain.ErrUnauthorized, args.TokenID)
	}

	next := current.Clone()
	next.Metadata = args.Metadata.Clone()
	if next.Metadata == nil {
		next.Metadata = token.Metadata{}
	}
	next.UpdatedAt = env.BlockHeight

	if err := token.Validate(next, e.cfg.Limits); err != nil {
		return nil, err
	}

	if err := storage.NewBatch().Put(next).Apply(ctx, acc); err != nil {
		return nil, err
	}

	return e.event(env, domain.EventKindUpdateMetadata, next.ID, env.Caller), nil
}

func (e *engine) Burn(ctx context.Context, env host.Env, args BurnArgs) (*domain.Event, error) {
	acc, err := e.accessor(env)
	if err != nil {
		return nil, err
	}

	current, err := e.load(ctx, acc, args.TokenID)
	if err != nil {
		return nil, err
	}

	if env.Caller != current.Owner {
		return nil, fmt.Errorf("%w: %s does not own %s", domain.ErrNotOwner, env.Caller, args.TokenID)
	}

	next := current.Clone()
	next.Burned = true
	next.LastOwner = current.Owner
	next.Owner = ""
	next.Approved = ""
	next.UpdatedAt = env.BlockHeight

	if err := token.Validate(next, e.cfg.Limits); err != nil {
		return nil, err
	}

	if err := storage.NewBatch().
		DeleteIndexEntry(current.Owner, next.ID).
		Put(next).
		Apply(ctx, acc); err != nil {
		return nil, err
	}

	return e.event(env, domain.EventKindBurn, next.ID, current.Owner), nil
}

func (e *engine) Approve(ctx context.Context, env host.Env, args ApproveArgs) (*domain.Event, error) {
	acc, err := e.accessor(env)
	if err != nil {
		return nil, err
	}

	if args.Operator != "" && !args.Operator.Valid() {
		return nil, domain.NewSchemaError("operator", "invalid address %q", args.Operator)
	}

	current, err := e.load(ctx, acc, args.TokenID)
	if err != nil {
		return nil, err
	}

	if env.Caller != current.Owner {
		return nil, fmt.Errorf("%w: %s does not own %s", domain.ErrNotOwner, env.Caller, args.TokenID)
	}
	if args.Operator != "" && current.Policy.NonTransferable {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotTransferable, args.TokenID)
	}
	if args.Operator == current.Owner {
		return nil, domain.NewSchemaError("operator", "must differ from owner")
	}

	next := current.Clone()
	next.Approved = args.Operator
	next.UpdatedAt = env.BlockHeight

	if err := storage.NewBatch().Put(next).Apply(ctx, acc); err != nil {
		return nil, err
	}

	return e.event(env, domain.EventKindApprove, next.ID, current.Owner, current.Approved, args.Operator), nil
}

func (e *engine) SetViewList(ctx context.Context, env host.Env, args SetViewListArgs) (*domain.Event, error) {
	acc, err := e.accessor(env)
	if err != nil {
		return nil, err
	}

	current, err := e.load(ctx, acc, args.TokenID)
	if err != nil {
		return nil, err
	}

	if env.Caller != current.Owner {
		return nil, fmt.Errorf("%w: %s does not own %s", domain.ErrNotOwner, env.Caller, args.TokenID)
	}

	next := current.Clone()
	next.ViewList = nil
	if len(args.ViewList) > 0 {
		next.ViewList = append([]domain.Address{}, args.ViewList...)
	}
	next.UpdatedAt = env.BlockHeight

	if err := token.Validate(next, e.cfg.Limits); err != nil {
		return nil, err
	}

	if err := storage.NewBatch().Put(next).Apply(ctx, acc); err != nil {
		return nil, err
	}

	return e.event(env, domain.EventKindSetViewList, next.ID, current.Owner), nil
}
