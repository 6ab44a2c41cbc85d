package server

import (
	"bytes"
	"fmt"

	"go.osspkg.com/relay/epoll"
	"go.osspkg.com/relay/errs"
)

var errFakeDone = fmt.Errorf("fake poller: no more events")

type fakePoller struct {
	interests map[int32]epoll.Interest
	calls     int
	batches   [][]epoll.Event
	woken     int
	closed    bool
	onWait    func()
}

func newFakePoller(batches ...[]epoll.Event) *fakePoller {
	return &fakePoller{interests: make(map[int32]epoll.Interest), batches: batches}
}

func (v *fakePoller) Register(fd int32, in epoll.Interest) error {
	v.calls++
	v.interests[fd] = in
	return nil
}

func (v *fakePoller) Unregister(fd int32) error {
	delete(v.interests, fd)
	return nil
}

func (v *fakePoller) Interest(fd int32) (epoll.Interest, bool) {
	in, ok := v.interests[fd]
	return in, ok
}

func (v *fakePoller) Len() int { return len(v.interests) }

func (v *fakePoller) Wait(list []epoll.Event) (int, error) {
	if v.onWait != nil {
		v.onWait()
	}
	if len(v.batches) == 0 {
		return 0, errFakeDone
	}
	batch := v.batches[0]
	v.batches = v.batches[1:]
	return copy(list, batch), nil
}

func (v *fakePoller) Wake() error {
	v.woken++
	return nil
}

func (v *fakePoller) Close() error {
	v.closed = true
	return nil
}

type fakeConn struct {
	fd       int32
	addr     string
	chunks   [][]byte
	readErr  error
	out      bytes.Buffer
	writes   int
	writeErr error
	closed   bool
}

func newFakeConn(fd int32) *fakeConn {
	return &fakeConn{fd: fd, addr: fmt.Sprintf("10.0.0.%d:5000", fd)}
}

// send queues bytes that become available as separate reads.
func (v *fakeConn) send(chunks ...string) *fakeConn {
	for _, c := range chunks {
		v.chunks = append(v.chunks, []byte(c))
	}
	return v
}

func (v *fakeConn) FD() int32    { return v.fd }
func (v *fakeConn) Addr() string { return v.addr }

func (v *fakeConn) Read(b []byte) (int, error) {
	if len(v.chunks) == 0 {
		if v.readErr != nil {
			return 0, v.readErr
		}
		return 0, errs.ErrWouldBlock
	}
	n := copy(b, v.chunks[0])
	if n < len(v.chunks[0]) {
		v.chunks[0] = v.chunks[0][n:]
	} else {
		v.chunks = v.chunks[1:]
	}
	return n, nil
}

func (v *fakeConn) Write(b []byte) (int, error) {
	if v.writeErr != nil {
		return 0, v.writeErr
	}
	v.writes++
	return v.out.Write(b)
}

func (v *fakeConn) Close() error {
	v.closed = true
	return nil
}

type fakeAcceptor struct {
	fd      int32
	pending []*fakeConn
	err     error
	closed  bool
}

func (v *fakeAcceptor) FD() int32    { return v.fd }
func (v *fakeAcceptor) Addr() string { return "0.0.0.0:8000" }

func (v *fakeAcceptor) Accept() (TConnect, error) {
	if v.err != nil {
		err := v.err
		v.err = nil
		return nil, err
	}
	if len(v.pending) == 0 {
		return nil, errs.ErrWouldBlock
	}
	c := v.pending[0]
	v.pending = v.pending[1:]
	return c, nil
}

func (v *fakeAcceptor) Close() error {
	v.closed = true
	return nil
}
