package server

import (
	"io"

	"go.osspkg.com/relay/listen"
)

type (
	// TConnect is a registered peer. Reads and writes never block.
	TConnect interface {
		io.ReadWriteCloser
		FD() int32
		Addr() string
	}

	// TAcceptor is the listen endpoint.
	TAcceptor interface {
		FD() int32
		Addr() string
		Accept() (TConnect, error)
		Close() error
	}
)

type acceptor struct {
	*listen.Listener
}

func (v *acceptor) Accept() (TConnect, error) {
	conn, err := v.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return conn, nil
}
