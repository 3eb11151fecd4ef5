package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/host"
	"github.com/feral-file/nft-registry/internal/logger"
	"github.com/feral-file/nft-registry/internal/metrics"
	"github.com/feral-file/nft-registry/internal/registry"
)

// Method names an entry point
type Method string

const (
	MethodMint           Method = "mint"
	MethodTransfer       Method = "transfer"
	MethodUpdateMetadata Method = "update_metadata"
	MethodBurn           Method = "burn"
	MethodApprove        Method = "approve"
	MethodSetViewList    Method = "set_view_list"
)

// Valid reports whether the method is a known entry point
func (m Method) Valid() bool {
	switch m {
	case MethodMint, MethodTransfer, MethodUpdateMetadata, MethodBurn, MethodApprove, MethodSetViewList:
		return true
	default:
		return false
	}
}

// Call is an incoming entry point call
type Call struct {
	Method Method          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

// Result is the structured outcome of a call
type Result struct {
	OK        bool             `json:"ok"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`
	Event     *domain.Event    `json:"event,omitempty"`
}

// Dispatcher is the externally callable surface of the registry
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatcher.go -package=mocks -mock_names=Dispatcher=MockDispatcher
type Dispatcher interface {
	// Dispatch runs call in its own host transaction. The transaction is
	// committed when the engine succeeds and rolled back otherwise.
	Dispatch(ctx context.Context, env host.Env, call Call) Result
}

type dispatcher struct {
	engine  registry.Engine
	backend host.Backend
	clock   adapter.Clock
	metrics *metrics.Metrics
}

// New creates a dispatcher over backend
func New(engine registry.Engine, backend host.Backend, clock adapter.Clock, m *metrics.Metrics) Dispatcher {
	return &dispatcher{
		engine:  engine,
		backend: backend,
		clock:   clock,
		metrics: m,
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, env host.Env, call Call) Result {
	start := d.clock.Now()

	event, err := d.execute(ctx, env, call)

	outcome := "ok"
	result := Result{OK: true, Event: event}
	if err != nil {
		kind := domain.KindOf(err)
		outcome = string(kind)
		result = Result{ErrorKind: kind, Error: err.Error()}
	}

	method := string(call.Method)
	if !call.Method.Valid() {
		method = "unknown"
	}
	d.metrics.ObserveCall(method, outcome, d.clock.Since(start))

	fields := append(logger.TxFields(env), zap.String("method", method), zap.String("outcome", outcome))
	switch {
	case err == nil:
		logger.DebugCtx(ctx, "Entry point call applied", append(fields, zap.String("tokenID", event.TokenID.String()))...)
	case result.ErrorKind == domain.KindInternal:
		logger.ErrorCtx(ctx, err, fields...)
	default:
		logger.WarnCtx(ctx, "Entry point call rejected", append(fields, zap.Error(err))...)
	}

	return result
}

// execute runs the call inside a fresh transaction
func (d *dispatcher) execute(ctx context.Context, env host.Env, call Call) (*domain.Event, error) {
	txn, err := d.backend.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	env.Store = txn

	event, err := d.route(ctx, env, call)
	if err != nil {
		if rbErr := txn.Rollback(ctx); rbErr != nil {
			logger.ErrorCtx(ctx, rbErr, zap.String("message", "Failed to roll back transaction"))
		}
		return nil, err
	}

	if err := txn.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return event, nil
}

// route decodes the payload and invokes the matching engine operation
func (d *dispatcher) route(ctx context.Context, env host.Env, call Call) (*domain.Event, error) {
	switch call.Method {
	case MethodMint:
		var req MintRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			return nil, err
		}
		args, err := req.toArgs()
		if err != nil {
			return nil, err
		}
		return d.engine.Mint(ctx, env, args)

	case MethodTransfer:
		var req TransferRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			return nil, err
		}
		args, err := req.toArgs()
		if err != nil {
			return nil, err
		}
		return d.engine.Transfer(ctx, env, args)

	case MethodUpdateMetadata:
		var req UpdateMetadataRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			return nil, err
		}
		args, err := req.toArgs()
		if err != nil {
			return nil, err
		}
		return d.engine.UpdateMetadata(ctx, env, args)

	case MethodBurn:
		var req BurnRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			return nil, err
		}
		args, err := req.toArgs()
		if err != nil {
			return nil, err
		}
		return d.engine.Burn(ctx, env, args)

	case MethodApprove:
		var req ApproveRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			return nil, err
		}
		args, err := req.toArgs()
		if err != nil {
			return nil, err
		}
		return d.engine.Approve(ctx, env, args)

	case MethodSetViewList:
		var req SetViewListRequest
		if err := decodeArgs(call.Args, &req); err != nil {
			return nil, err
		}
		args, err := req.toArgs()
		if err != nil {
			return nil, err
		}
		return d.engine.SetViewList(ctx, env, args)

	default:
		return nil, domain.NewSchemaError("method", "unknown entry point %q", call.Method)
	}
}
