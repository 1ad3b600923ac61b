// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"errors"
	"fmt"
)

var (
	_ Subscriber = SubscriberFunc(nil)
	_ Subscriber = Subscribers(nil)
)

// Subscriber is handed every committed [Batch], in commit order per wallet.
type Subscriber interface {
	Accept(ctx context.Context, b Batch) error
	Close() error
}

// SubscriberFunc is a [Subscriber] that holds no resources.
type SubscriberFunc func(ctx context.Context, b Batch) error

func (f SubscriberFunc) Accept(ctx context.Context, b Batch) error {
	return f(ctx, b)
}

func (SubscriberFunc) Close() error {
	return nil
}

// Subscribers fans a batch out to each member. A member that fails does
// not stop delivery to the rest; failures are reported together, tagged
// with the member's position.
type Subscribers []Subscriber

func (s Subscribers) Accept(ctx context.Context, b Batch) error {
	var errs []error
	for i, sub := range s {
		if err := sub.Accept(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %d rejected %s batch: %w", i, b.Operation, err))
		}
	}
	return errors.Join(errs...)
}

func (s Subscribers) Close() error {
	var errs []error
	for i, sub := range s {
		if err := sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
