/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package listen

import (
	"context"
	"fmt"
	"net"
	"os"
	"syscall"

	"go.osspkg.com/errors"
	"go.osspkg.com/ioutils/fs"

	"go.osspkg.com/relay/address"
	"go.osspkg.com/relay/fd"
	"go.osspkg.com/relay/internal"
)

// Listener is the bound acceptor of the relay. Its descriptor is polled by the caller,
// Accept never blocks.
type Listener struct {
	l    net.Listener
	fd   int
	addr string
}

func New(ctx context.Context, network, addr string) (*Listener, error) {
	if err := internal.IsPassableNetwork(network); err != nil {
		return nil, err
	}

	switch network {
	case internal.NetTCP:
		addr = address.ResolveIPPort(addr, address.DefaultPort)
	case internal.NetUNIX:
		if fs.FileExist(addr) {
			if err := os.Remove(addr); err != nil {
				return nil, errors.Wrapf(err, "fail clean socket file")
			}
		}
	}

	var lc net.ListenConfig
	l, err := lc.Listen(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	sc, ok := l.(syscall.Conn)
	if !ok {
		return nil, errors.Wrap(fmt.Errorf("listener %T has no descriptor", l), l.Close())
	}
	sysfd, err := fd.Of(sc)
	if err != nil {
		return nil, errors.Wrap(err, l.Close())
	}

	return &Listener{l: l, fd: sysfd, addr: l.Addr().String()}, nil
}

func (v *Listener) FD() int32 {
	return int32(v.fd)
}

func (v *Listener) Addr() string {
	return v.addr
}

// Accept returns errs.ErrWouldBlock when no connection is pending.
func (v *Listener) Accept() (*fd.Socket, error) {
	return fd.Accept(v.fd)
}

func (v *Listener) Close() error {
	return v.l.Close()
}
