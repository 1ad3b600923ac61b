// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/approval"
	"github.com/ava-labs/guardianwallet/auth"
	"github.com/ava-labs/guardianwallet/codec"
	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/lockmap"
	"github.com/ava-labs/guardianwallet/quota"
	"github.com/ava-labs/guardianwallet/security"
	"github.com/ava-labs/guardianwallet/state"
	"github.com/ava-labs/guardianwallet/state/tstate"
	"github.com/ava-labs/guardianwallet/storage"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// Dispatcher is the only way wallet state changes. Operations on the same
// wallet are serialized; each one is verified and executed against a
// transactional view and written to [state.Database] in a single batch, or
// not at all.
type Dispatcher struct {
	log     logging.Logger
	tracer  trace.Tracer
	db      state.Database
	rules   actions.Rules
	chainID *big.Int
	clock   mockable.Clock
	metrics *metrics
	locks   *lockmap.Map[common.Address]
	subs    event.Subscribers
}

func New(
	log logging.Logger,
	tracer trace.Tracer,
	db state.Database,
	rules actions.Rules,
	chainID *big.Int,
	subs ...event.Subscriber,
) (*Dispatcher, *prometheus.Registry, error) {
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, nil, err
	}
	return &Dispatcher{
		log:     log,
		tracer:  tracer,
		db:      db,
		rules:   rules,
		chainID: new(big.Int).Set(chainID),
		metrics: metrics,
		locks:   lockmap.New[common.Address](64),
		subs:    event.Subscribers(subs),
	}, registry, nil
}

// Clock is the source of every timestamp the dispatcher evaluates
// against.
func (d *Dispatcher) Clock() *mockable.Clock {
	return &d.clock
}

func (d *Dispatcher) ChainID() *big.Int {
	return new(big.Int).Set(d.chainID)
}

func (d *Dispatcher) now() int64 {
	return d.clock.Time().Unix()
}

// Close releases every subscriber. The database is owned by the caller.
func (d *Dispatcher) Close() error {
	return d.subs.Close()
}

// operation is one serialized unit of work on a wallet.
type operation struct {
	name   string
	wallet common.Address
	create bool
	// keys returns the state the operation needs beyond the wallet's own
	// records. [acct] is nil when creating.
	keys func(acct *storage.Account) (state.Keys, error)
	run  func(ctx context.Context, c *actions.Context, view state.Mutable) error
}

func walletKeys(wallet common.Address) state.Keys {
	return state.Keys{
		string(storage.AccountKey(wallet)):   state.All,
		string(storage.GuardiansKey(wallet)): state.All,
		string(storage.QuotaKey(wallet)):     state.All,
	}
}

func (d *Dispatcher) execute(ctx context.Context, op *operation) (_ []event.Record, rerr error) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "Dispatcher."+op.name, oteltrace.WithAttributes(
		attribute.String("wallet", op.wallet.Hex()),
	))
	defer span.End()

	release := d.locks.Acquire(op.wallet, true)
	d.metrics.locked.Set(float64(d.locks.Len()))
	defer func() {
		release()
		d.metrics.locked.Set(float64(d.locks.Len()))
		d.metrics.execute.Observe(float64(time.Since(start)))

		outcome := "success"
		if rerr != nil {
			outcome = "failure"
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
			d.log.Debug("operation rejected",
				zap.String("op", op.name),
				zap.Stringer("wallet", op.wallet),
				zap.Error(rerr),
			)
		}
		d.metrics.operations.WithLabelValues(op.name, outcome).Inc()
	}()

	now := d.now()

	// The account is read before the view exists because it determines the
	// signing domain and so the remaining keys.
	committed, err := storage.GetAccount(ctx, &dbReader{d.db}, op.wallet)
	switch {
	case op.create && err == nil:
		return nil, fmt.Errorf("%w: %s", ErrWalletExists, op.wallet)
	case op.create && errors.Is(err, storage.ErrWalletNotFound):
		committed = nil
	case err != nil:
		return nil, err
	}

	keys := walletKeys(op.wallet)
	extra, err := op.keys(committed)
	if err != nil {
		return nil, err
	}
	keys.Merge(extra)

	scope, err := d.load(keys)
	if err != nil {
		return nil, err
	}
	ts := tstate.New(len(keys))
	view := ts.NewView(keys, scope)

	guardians, err := guardian.Load(ctx, view, d.rules.GuardianPolicy(), op.wallet, now)
	if err != nil {
		return nil, err
	}
	c := &actions.Context{
		Rules:     d.rules,
		State:     view,
		Wallet:    op.wallet,
		Account:   committed,
		Guardians: guardians,
		Timestamp: now,
		Log:       event.NewLog(op.wallet),
	}
	if err := op.run(ctx, c, view); err != nil {
		return nil, err
	}
	if err := storage.SetAccount(ctx, view, op.wallet, c.Account); err != nil {
		return nil, err
	}
	if err := c.Guardians.Save(ctx, view); err != nil {
		return nil, err
	}
	view.Commit()

	batch := d.db.NewBatch()
	if err := ts.WriteTo(batch); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}

	records := c.Log.Records()
	d.metrics.records.Add(float64(len(records)))
	d.metrics.stateChanges.Add(float64(ts.PendingChanges()))
	span.SetAttributes(attribute.Int("records", len(records)))
	d.log.Info("operation committed",
		zap.String("op", op.name),
		zap.Stringer("wallet", op.wallet),
		zap.Int("records", len(records)),
		zap.Int64("timestamp", now),
	)
	if len(d.subs) > 0 {
		b := event.Batch{Wallet: op.wallet, Operation: op.name, Timestamp: now, Records: records}
		// State is already committed, so a failing subscriber is only
		// reported.
		if err := d.subs.Accept(ctx, b); err != nil {
			d.log.Warn("subscriber failed",
				zap.String("op", op.name),
				zap.Stringer("wallet", op.wallet),
				zap.Error(err),
			)
		}
	}
	return records, nil
}

// load reads the committed value of every key in [keys].
func (d *Dispatcher) load(keys state.Keys) (map[string][]byte, error) {
	scope := make(map[string][]byte, len(keys))
	for k := range keys {
		v, err := d.db.Get([]byte(k))
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		scope[k] = v
	}
	return scope, nil
}

// Create instantiates a wallet.
func (d *Dispatcher) Create(ctx context.Context, req *CreateRequest) (*Result, error) {
	records, err := d.execute(ctx, &operation{
		name:   "Create",
		wallet: req.Wallet,
		create: true,
		keys: func(*storage.Account) (state.Keys, error) {
			return state.Keys{}, nil
		},
		run: func(ctx context.Context, c *actions.Context, view state.Mutable) error {
			switch req.Owner {
			case codec.EmptyAddress, req.Wallet:
				return fmt.Errorf("%w: %s", ErrInvalidOwner, req.Owner)
			}
			if req.MasterCopy == codec.EmptyAddress {
				return ErrInvalidMasterCopy
			}
			if err := codec.VerifyAscending(req.Guardians); err != nil {
				return err
			}
			c.Account = &storage.Account{
				Owner:      req.Owner,
				MasterCopy: req.MasterCopy,
				LastActive: c.Timestamp,
			}
			c.Log.Emit(event.WalletCreated, req.Owner, nil, c.Timestamp)
			for _, addr := range req.Guardians {
				g, err := c.Guardians.Add(req.Owner, addr)
				if err != nil {
					return err
				}
				c.Log.Emit(event.GuardianAdded, g.Addr, nil, g.EffectiveTime)
			}
			if req.Quota != nil {
				if _, err := quota.ChangeDailyQuota(ctx, view, d.rules.QuotaPolicy(), req.Wallet, req.Quota, true, c.Timestamp); err != nil {
					return err
				}
				c.Log.Emit(event.QuotaChanged, codec.EmptyAddress, req.Quota, c.Timestamp)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Records: records}, nil
}

// ExecuteNormal runs an owner-signed action. The wallet must be unlocked
// and the action must allow the normal path.
func (d *Dispatcher) ExecuteNormal(ctx context.Context, req *NormalRequest) (*Result, error) {
	a := req.Action
	if a == nil {
		return nil, ErrMissingAction
	}
	records, err := d.execute(ctx, &operation{
		name:   "ExecuteNormal",
		wallet: req.Wallet,
		keys: func(acct *storage.Account) (state.Keys, error) {
			keys := a.StateKeys(req.Wallet)
			keys.Merge(signerKeys(acct.Owner))
			return keys, nil
		},
		run: func(ctx context.Context, c *actions.Context, view state.Mutable) error {
			if a.Paths()&actions.NormalPath == 0 {
				return fmt.Errorf("%w: %s requires guardian approval", actions.ErrPathNotAllowed, actions.Name(a))
			}
			acct := c.Account
			if acct.Locked {
				return ErrLocked
			}
			if req.Nonce != acct.Nonce+1 {
				return fmt.Errorf("%w: have %d, expected %d", ErrInvalidNonce, req.Nonce, acct.Nonce+1)
			}
			hash, err := NormalHash(d.chainID, acct.MasterCopy, req.Wallet, req.Nonce, a)
			if err != nil {
				return err
			}
			if err := auth.VerifySignature(ctx, &accountView{view}, acct.Owner, hash, req.Signature); err != nil {
				return fmt.Errorf("%w: %w", ErrUnauthorized, err)
			}
			acct.Nonce = req.Nonce
			security.Touch(acct, c.Timestamp)

			c.Path = actions.NormalPath
			return a.Execute(ctx, c)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Records: records}, nil
}

// ExecuteWithApproval runs a guardian approved action. It ignores the lock
// and the quota, and consumes the approval digest so it can never be
// replayed.
func (d *Dispatcher) ExecuteWithApproval(ctx context.Context, req *ApprovalRequest) (*Result, error) {
	a := req.Action
	if a == nil {
		return nil, ErrMissingAction
	}
	var digest common.Hash
	records, err := d.execute(ctx, &operation{
		name:   "ExecuteWithApproval",
		wallet: req.Wallet,
		keys: func(acct *storage.Account) (state.Keys, error) {
			var err error
			digest, err = ApprovalHash(d.chainID, acct.MasterCopy, req.Wallet, a, req.Approval.ValidUntil, req.Approval.Salt)
			if err != nil {
				return nil, err
			}
			keys := a.StateKeys(req.Wallet)
			keys.Add(string(storage.ApprovalKey(req.Wallet, digest)), state.All)
			keys.Merge(signerKeys(req.Approval.Signers...))
			keys.Merge(signerKeys(acct.Owner))
			return keys, nil
		},
		run: func(ctx context.Context, c *actions.Context, view state.Mutable) error {
			if a.Paths()&actions.ApprovalPath == 0 {
				return fmt.Errorf("%w: %s is owner only", actions.ErrPathNotAllowed, actions.Name(a))
			}
			if req.Approval.Expired(c.Timestamp) {
				return fmt.Errorf("%w: valid until %d, now %d", approval.ErrApprovalExpired, req.Approval.ValidUntil, c.Timestamp)
			}
			acct := c.Account
			if err := approval.Verify(
				ctx,
				&accountView{view},
				digest,
				&req.Approval,
				c.Guardians,
				acct.Owner,
				req.OwnerSignature,
				a.RequiresOwner(),
			); err != nil {
				return err
			}
			if err := approval.ConsumeOnce(ctx, view, req.Wallet, digest, c.Timestamp); err != nil {
				return err
			}
			if a.RequiresOwner() {
				security.Touch(acct, c.Timestamp)
			}

			c.Path = actions.ApprovalPath
			return a.Execute(ctx, c)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Records: records, Digest: digest}, nil
}

// Lock is available to the owner and to any active guardian. [caller] must
// already be authenticated.
func (d *Dispatcher) Lock(ctx context.Context, wallet common.Address, caller common.Address) (*Result, error) {
	return d.lock(ctx, wallet, caller, noKeys, nil)
}

// LockSigned authenticates the caller by its signature over [LockHash]
// before locking.
func (d *Dispatcher) LockSigned(ctx context.Context, wallet common.Address, ca *CallerAuth) (*Result, error) {
	return d.lock(ctx, wallet, ca.Caller, callerKeys(ca), func(ctx context.Context, c *actions.Context, view state.Mutable) error {
		return d.authenticate(ctx, c, view, ca, func(masterCopy common.Address) (common.Hash, error) {
			return LockHash(d.chainID, masterCopy, wallet, ca.ValidUntil)
		})
	})
}

func (d *Dispatcher) lock(
	ctx context.Context,
	wallet common.Address,
	caller common.Address,
	keys func(*storage.Account) (state.Keys, error),
	authn func(context.Context, *actions.Context, state.Mutable) error,
) (*Result, error) {
	records, err := d.execute(ctx, &operation{
		name:   "Lock",
		wallet: wallet,
		keys:   keys,
		run: func(ctx context.Context, c *actions.Context, view state.Mutable) error {
			if authn != nil {
				if err := authn(ctx, c, view); err != nil {
					return err
				}
			}
			changed, err := security.Lock(c.Account, c.Guardians, caller, c.Timestamp)
			if err != nil {
				return err
			}
			if changed {
				c.Log.Emit(event.Locked, caller, nil, c.Timestamp)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Records: records}, nil
}

// Inherit hands the wallet to [newOwner] on behalf of the configured
// inheritor once the owner has been inactive for the waiting period.
// [caller] must already be authenticated.
func (d *Dispatcher) Inherit(
	ctx context.Context,
	wallet common.Address,
	caller common.Address,
	newOwner common.Address,
	clearGuardians bool,
) (*Result, error) {
	return d.inherit(ctx, wallet, caller, newOwner, clearGuardians, noKeys, nil)
}

// InheritSigned authenticates the caller by its signature over
// [InheritHash] before inheriting.
func (d *Dispatcher) InheritSigned(
	ctx context.Context,
	wallet common.Address,
	newOwner common.Address,
	clearGuardians bool,
	ca *CallerAuth,
) (*Result, error) {
	return d.inherit(ctx, wallet, ca.Caller, newOwner, clearGuardians, callerKeys(ca), func(ctx context.Context, c *actions.Context, view state.Mutable) error {
		return d.authenticate(ctx, c, view, ca, func(masterCopy common.Address) (common.Hash, error) {
			return InheritHash(d.chainID, masterCopy, wallet, ca.ValidUntil, newOwner, clearGuardians)
		})
	})
}

func (d *Dispatcher) inherit(
	ctx context.Context,
	wallet common.Address,
	caller common.Address,
	newOwner common.Address,
	clearGuardians bool,
	keys func(*storage.Account) (state.Keys, error),
	authn func(context.Context, *actions.Context, state.Mutable) error,
) (*Result, error) {
	records, err := d.execute(ctx, &operation{
		name:   "Inherit",
		wallet: wallet,
		keys:   keys,
		run: func(ctx context.Context, c *actions.Context, view state.Mutable) error {
			if authn != nil {
				if err := authn(ctx, c, view); err != nil {
					return err
				}
			}
			dropped := c.Guardians.Guardians(true)
			if err := security.Inherit(c.Account, c.Guardians, caller, newOwner, clearGuardians, c.Timestamp); err != nil {
				return err
			}
			c.Log.Emit(event.Inherited, newOwner, nil, c.Timestamp)
			if clearGuardians {
				for _, g := range dropped {
					c.Log.Emit(event.GuardianRemoved, g.Addr, nil, c.Timestamp)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Records: records}, nil
}

func callerKeys(ca *CallerAuth) func(*storage.Account) (state.Keys, error) {
	return func(*storage.Account) (state.Keys, error) {
		return signerKeys(ca.Caller), nil
	}
}

// authenticate checks [ca] against the hash of the wallet's current
// signing domain.
func (d *Dispatcher) authenticate(
	ctx context.Context,
	c *actions.Context,
	view state.Immutable,
	ca *CallerAuth,
	hash func(masterCopy common.Address) (common.Hash, error),
) error {
	if ca.ValidUntil == 0 || c.Timestamp > ca.ValidUntil {
		return fmt.Errorf("%w: validUntil=%d now=%d", ErrExpired, ca.ValidUntil, c.Timestamp)
	}
	h, err := hash(c.Account.MasterCopy)
	if err != nil {
		return err
	}
	if err := auth.VerifySignature(ctx, &accountView{view}, ca.Caller, h, ca.Signature); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// Deposit credits [amount] of [token] to [wallet]. Anyone may fund a
// wallet, so no authorization is involved.
func (d *Dispatcher) Deposit(ctx context.Context, wallet common.Address, token common.Address, amount *uint256.Int) (*Result, error) {
	records, err := d.execute(ctx, &operation{
		name:   "Deposit",
		wallet: wallet,
		keys: func(*storage.Account) (state.Keys, error) {
			return state.Keys{string(storage.BalanceKey(wallet, token)): state.All}, nil
		},
		run: func(ctx context.Context, c *actions.Context, view state.Mutable) error {
			if amount == nil || amount.IsZero() {
				return actions.ErrOutputValueZero
			}
			_, err := storage.AddBalance(ctx, view, wallet, token, amount)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Records: records}, nil
}

func noKeys(*storage.Account) (state.Keys, error) {
	return state.Keys{}, nil
}

// Status reads the committed state of [wallet].
func (d *Dispatcher) Status(ctx context.Context, wallet common.Address) (*Status, error) {
	_, span := d.tracer.Start(ctx, "Dispatcher.Status")
	defer span.End()

	release := d.locks.Acquire(wallet, false)
	defer release()

	now := d.now()
	im := &dbReader{d.db}
	acct, err := storage.GetAccount(ctx, im, wallet)
	if err != nil {
		return nil, err
	}
	guardians, err := guardian.Load(ctx, im, d.rules.GuardianPolicy(), wallet, now)
	if err != nil {
		return nil, err
	}
	q, err := quota.Get(ctx, im, d.rules.QuotaPolicy(), wallet, now)
	if err != nil {
		return nil, err
	}
	return &Status{
		Wallet:        wallet,
		Owner:         acct.Owner,
		MasterCopy:    acct.MasterCopy,
		Locked:        acct.Locked,
		Nonce:         acct.Nonce,
		LastActive:    acct.LastActive,
		Inheritor:     acct.Inheritor,
		InheritableAt: security.InheritableAt(acct),
		Guardians:     guardians.Guardians(true),
		Quorum:        guardians.Quorum(),
		Quota:         q,
		Timestamp:     now,
	}, nil
}

// Balance reads the committed balance of [owner] in [token].
func (d *Dispatcher) Balance(ctx context.Context, owner common.Address, token common.Address) (*uint256.Int, error) {
	return storage.GetBalance(ctx, &dbReader{d.db}, owner, token)
}

// IsConsumed reports whether an approval digest was already used.
func (d *Dispatcher) IsConsumed(ctx context.Context, wallet common.Address, digest common.Hash) (bool, error) {
	return approval.IsConsumed(ctx, &dbReader{d.db}, wallet, digest)
}
