package server

import (
	"go.osspkg.com/errors"

	"go.osspkg.com/relay/epoll"
)

type entry struct {
	fd       int32
	conn     TConnect
	interest epoll.Interest
}

func (e *entry) isPeer() bool {
	return e.conn != nil && e.interest == epoll.InterestRead
}

// registry owns every registered endpoint. Only the reactor goroutine touches it.
type registry struct {
	poller epoll.TEpoll
	list   map[int32]*entry
	peers  int
}

func newRegistry(p epoll.TEpoll) *registry {
	return &registry{
		poller: p,
		list:   make(map[int32]*entry),
	}
}

// register adds the endpoint or refreshes its interest. Calling it again for the same fd keeps
// a single entry.
func (r *registry) register(fd int32, conn TConnect, in epoll.Interest) error {
	if err := r.poller.Register(fd, in); err != nil {
		return err
	}
	if e, ok := r.list[fd]; ok {
		wasPeer := e.isPeer()
		e.interest = in
		if conn != nil {
			e.conn = conn
		}
		r.count(wasPeer, e.isPeer())
		return nil
	}
	e := &entry{fd: fd, conn: conn, interest: in}
	r.list[fd] = e
	r.count(false, e.isPeer())
	return nil
}

func (r *registry) count(was, is bool) {
	switch {
	case !was && is:
		r.peers++
	case was && !is:
		r.peers--
	}
}

func (r *registry) get(fd int32) (*entry, bool) {
	e, ok := r.list[fd]
	return e, ok
}

// unregister removes fd from the registry and the poller. The connection is not closed.
func (r *registry) unregister(fd int32) (*entry, error) {
	e, ok := r.list[fd]
	if !ok {
		return nil, nil
	}
	delete(r.list, fd)
	r.count(e.isPeer(), false)
	return e, r.poller.Unregister(fd)
}

func (r *registry) scan(fn func(e *entry)) {
	for _, e := range r.list {
		fn(e)
	}
}

func (r *registry) len() int {
	return r.peers
}

func (r *registry) closeAll() (err error) {
	for fd, e := range r.list {
		if _, err0 := r.unregister(fd); err0 != nil {
			err = errors.Wrap(err, err0)
		}
		if e.isPeer() {
			if err0 := e.conn.Close(); err0 != nil {
				err = errors.Wrap(err, err0)
			}
		}
	}
	return
}
