/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package server

import (
	"context"

	"go.osspkg.com/errors"
	"go.osspkg.com/logx"

	"go.osspkg.com/relay/epoll"
	"go.osspkg.com/relay/internal"
)

// reactor is the single-threaded dispatcher. Wait is its only blocking call, handlers run to
// completion between two waits.
type reactor struct {
	conf     Config
	acceptor TAcceptor
	poller   epoll.TEpoll
	peers    *registry
	events   []epoll.Event
	chunks   internal.BytesPool
	messages internal.BufferPool
	notice   []byte
}

func newReactor(conf Config, a TAcceptor, p epoll.TEpoll) *reactor {
	return &reactor{
		conf:     conf,
		acceptor: a,
		poller:   p,
		peers:    newRegistry(p),
		events:   make([]epoll.Event, conf.CountEvents),
		chunks:   internal.NewBytesPool(conf.BufferSize),
		messages: internal.NewBufferPool(conf.BufferSize),
		notice:   []byte(conf.Notice),
	}
}

// run loops until ctx is done or the poller fails. Cancellation is noticed on the next wakeup,
// so whoever cancels ctx must also call Wake on the poller.
func (v *reactor) run(ctx context.Context) error {
	if err := v.peers.register(v.acceptor.FD(), nil, epoll.InterestAccept); err != nil {
		return errors.Wrapf(err, "register listener")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := v.poller.Wait(v.events)
		if err != nil {
			return err
		}

		for i := 0; i < n; i++ {
			ev := v.events[i]
			switch ev.Kind {
			case epoll.KindWakeup:
				if ctx.Err() != nil {
					return nil
				}
			case epoll.KindAcceptable:
				if err = v.handleAccept(); err != nil {
					logx.Error("Relay accept", "err", err, "addr", v.acceptor.Addr())
				}
			case epoll.KindReadable:
				v.handleRead(ev.FD)
			case epoll.KindHangup:
				v.drop(ev.FD, "hangup")
			}
		}
	}
}

// drop forgets the peer and closes it.
func (v *reactor) drop(fd int32, reason string) {
	e, err := v.peers.unregister(fd)
	if err != nil {
		logx.Warn("Relay unregister connect", "err", err, "fd", fd)
	}
	if e == nil || e.conn == nil {
		return
	}
	internal.WriteErrLog("Relay close connect", e.conn.Close(), e.conn.Addr())
	logx.Info("Relay peer disconnected", "addr", e.conn.Addr(), "reason", reason, "peers", v.peers.len())
}

func (v *reactor) close() error {
	return errors.Wrap(
		v.peers.closeAll(),
		internal.NormalCloseError(v.acceptor.Close()),
		v.poller.Close(),
	)
}
