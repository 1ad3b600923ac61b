// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ava-labs/guardianwallet/event"
	"github.com/ava-labs/guardianwallet/pubsub"
)

var _ event.Subscriber = (*WebSocketServer)(nil)

// SubscribeRequest registers a connection for the batches of [Wallet], or
// of every wallet when [Wallet] is nil.
type SubscribeRequest struct {
	Wallet *common.Address `json:"wallet,omitempty"`
}

// Message is the envelope of everything the server writes.
type Message struct {
	Subscribed *SubscribeRequest `json:"subscribed,omitempty"`
	Batch      *event.Batch      `json:"batch,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// WebSocketServer streams committed batches to subscribed clients.
type WebSocketServer struct {
	log logging.Logger
	s   *pubsub.Server

	lock    sync.Mutex
	all     *pubsub.Connections
	wallets map[common.Address]*pubsub.Connections
}

func NewWebSocketServer(log logging.Logger, config pubsub.ServerConfig) (*WebSocketServer, *pubsub.Server) {
	w := &WebSocketServer{
		log:     log,
		all:     pubsub.NewConnections(),
		wallets: make(map[common.Address]*pubsub.Connections),
	}
	w.s = pubsub.New(log, config, w.handle)
	return w, w.s
}

func (w *WebSocketServer) handle(msg []byte, c *pubsub.Connection) {
	var req SubscribeRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		w.log.Debug("unable to parse subscription", zap.Error(err))
		w.reply(c, &Message{Error: ErrInvalidFilter.Error()})
		return
	}

	w.lock.Lock()
	if req.Wallet == nil {
		w.all.Add(c)
	} else {
		conns, ok := w.wallets[*req.Wallet]
		if !ok {
			conns = pubsub.NewConnections()
			w.wallets[*req.Wallet] = conns
		}
		conns.Add(c)
	}
	w.lock.Unlock()

	w.reply(c, &Message{Subscribed: &req})
}

func (w *WebSocketServer) reply(c *pubsub.Connection, m *Message) {
	b, err := json.Marshal(m)
	if err != nil {
		w.log.Error("unable to marshal message", zap.Error(err))
		return
	}
	if err := c.Send(b); err != nil {
		w.log.Debug("dropping reply to connection", zap.Error(err))
	}
}

// Accept publishes [b] once to every connection subscribed to its wallet
// or to all wallets.
func (w *WebSocketServer) Accept(_ context.Context, b event.Batch) error {
	msg, err := json.Marshal(&Message{Batch: &b})
	if err != nil {
		return err
	}

	live := w.s.Connections()
	recipients := pubsub.NewConnections()

	w.lock.Lock()
	for _, c := range w.all.Conns() {
		if !live.Has(c) {
			w.all.Remove(c)
			continue
		}
		recipients.Add(c)
	}
	if conns, ok := w.wallets[b.Wallet]; ok {
		for _, c := range conns.Conns() {
			if !live.Has(c) {
				conns.Remove(c)
				continue
			}
			recipients.Add(c)
		}
		if conns.Len() == 0 {
			delete(w.wallets, b.Wallet)
		}
	}
	w.lock.Unlock()

	w.s.Publish(msg, recipients)
	return nil
}

func (w *WebSocketServer) Close() error {
	w.s.Close()
	return nil
}
