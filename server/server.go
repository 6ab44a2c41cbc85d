/*
 *  Copyright (c) 2024-2025 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package server

import (
	"context"

	"go.osspkg.com/do"
	"go.osspkg.com/errors"
	"go.osspkg.com/logx"
	"go.osspkg.com/syncing"

	"go.osspkg.com/relay/epoll"
	"go.osspkg.com/relay/internal"
	"go.osspkg.com/relay/listen"
)

type (
	Server interface {
		ListenAndServe(ctx context.Context) error
	}

	_server struct {
		conf Config
		sync syncing.Switch
	}
)

func New(conf Config) Server {
	conf.Default()
	return &_server{
		conf: conf,
		sync: syncing.NewSwitch(),
	}
}

// ListenAndServe binds the listener and runs the relay loop on the calling goroutine until ctx
// is done. Bind and poller setup failures are returned as is.
func (v *_server) ListenAndServe(ctx context.Context) (err error) {
	if err = v.conf.Validate(); err != nil {
		return errors.Wrapf(err, "validate config")
	}
	if !v.sync.On() {
		return internal.ErrServAlreadyRunning
	}
	defer v.sync.Off()

	l, err := listen.New(ctx, v.conf.Network, v.conf.Address)
	if err != nil {
		return err
	}

	p, err := epoll.New(epoll.Option{CountEvents: v.conf.CountEvents})
	if err != nil {
		return errors.Wrap(err, l.Close())
	}

	r := newReactor(v.conf, &acceptor{Listener: l}, p)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	do.Async(func() {
		defer close(done)
		<-ctx.Done()
		if e := p.Wake(); e != nil {
			logx.Error("Relay wake", "err", e)
		}
	}, func(e error) {
		logx.Error("Relay wake panic", "err", errors.Unwrap(e), "full", e)
	})

	defer func() {
		cancel()
		<-done
		err = errors.Wrap(err, r.close())
		logx.Info("Relay stopped", "network", v.conf.Network, "addr", l.Addr())
	}()

	logx.Info("Relay started", "network", v.conf.Network, "addr", l.Addr())

	return r.run(ctx)
}
