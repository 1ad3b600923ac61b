// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"

	"github.com/ava-labs/guardianwallet/event"
)

type WebSocketClient struct {
	conn *websocket.Conn
	wl   sync.Mutex
	rl   sync.Mutex
	cl   sync.Once
}

// NewWebSocketClient dials the batch stream of the wallet service mounted
// at [uri].
func NewWebSocketClient(uri string) (*WebSocketClient, error) {
	uri = strings.TrimSuffix(uri, "/")
	uri = strings.Replace(uri, "http", "ws", 1) + WebSocketEndpoint
	conn, resp, err := websocket.DefaultDialer.Dial(uri, nil)
	if err != nil {
		return nil, err
	}
	// not using resp for now
	_ = resp.Body.Close()
	return &WebSocketClient{conn: conn}, nil
}

// SubscribeWallet streams batches of [w] and returns once the server
// confirms.
func (c *WebSocketClient) SubscribeWallet(ctx context.Context, w common.Address) error {
	return c.subscribe(ctx, &SubscribeRequest{Wallet: &w})
}

// SubscribeAll streams batches of every wallet.
func (c *WebSocketClient) SubscribeAll(ctx context.Context) error {
	return c.subscribe(ctx, &SubscribeRequest{})
}

func (c *WebSocketClient) subscribe(ctx context.Context, req *SubscribeRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	c.wl.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, b)
	c.wl.Unlock()
	if err != nil {
		return err
	}
	for {
		msg, err := c.read(ctx)
		if err != nil {
			return err
		}
		if msg.Error != "" {
			return errors.New(msg.Error)
		}
		if msg.Subscribed != nil {
			return nil
		}
	}
}

// ListenBatch blocks until the next batch arrives or [ctx] is done.
func (c *WebSocketClient) ListenBatch(ctx context.Context) (*event.Batch, error) {
	for {
		msg, err := c.read(ctx)
		if err != nil {
			return nil, err
		}
		if msg.Batch != nil {
			return msg.Batch, nil
		}
	}
}

func (c *WebSocketClient) read(ctx context.Context) (*Message, error) {
	c.rl.Lock()
	defer c.rl.Unlock()

	// A zero deadline blocks until a message arrives.
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	_, b, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(b, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Close closes [c]'s connection to the server.
func (c *WebSocketClient) Close() error {
	var err error
	c.cl.Do(func() {
		err = c.conn.Close()
	})
	return err
}
