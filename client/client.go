/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"go.osspkg.com/algorithms/control"
	"go.osspkg.com/errors"
	"go.osspkg.com/logx"

	"go.osspkg.com/relay/internal"
)

type (
	Client interface {
		Dial(ctx context.Context) (net.Conn, error)
		Call(ctx context.Context, handler func(ctx context.Context, w io.Writer, r io.Reader) error) error
	}

	_client struct {
		conf Config
		sem  control.Semaphore
	}

	connect struct {
		net.Conn
		once    sync.Once
		release func()
	}
)

func New(c Config) (Client, error) {
	addr, err := c.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve address: %w", err)
	}

	c.Address = addr.String()

	if c.MaxConns <= 0 {
		c.MaxConns = 1
	}

	cli := &_client{
		conf: c,
		sem:  control.NewSemaphore(c.MaxConns),
	}

	return cli, nil
}

// Dial opens a connection that occupies one slot of MaxConns until it is closed.
func (v *_client) Dial(ctx context.Context) (net.Conn, error) {
	v.sem.Acquire()

	var dial net.Dialer
	conn, err := dial.DialContext(ctx, v.conf.Network, v.conf.Address)
	if err != nil {
		v.sem.Release()
		return nil, fmt.Errorf("dial %s: %w", v.conf.Network, err)
	}

	if v.conf.Timeout > 0 {
		if err = internal.Deadline(conn, v.conf.Timeout); err != nil {
			v.sem.Release()
			return nil, errors.Wrap(fmt.Errorf("set deadline: %w", err), conn.Close())
		}
	}

	return &connect{Conn: conn, release: v.sem.Release}, nil
}

func (v *_client) Call(ctx context.Context, handler func(ctx context.Context, w io.Writer, r io.Reader) error) (e error) {
	conn, err := v.Dial(ctx)
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		if err := internal.NormalCloseError(conn.Close()); err != nil {
			logx.Warn("Client: close on cancel", "err", err, "network", v.conf.Network, "address", v.conf.Address)
		}
	})

	defer func() {
		stop()
		e = errors.Wrap(e, internal.NormalCloseError(conn.Close()))
	}()

	e = handler(ctx, conn, conn)

	return
}

func (v *connect) Close() (err error) {
	err = v.Conn.Close()
	v.once.Do(v.release)
	return
}
