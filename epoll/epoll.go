/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package epoll

import (
	"encoding/binary"
	"fmt"

	"go.osspkg.com/errors"
	"golang.org/x/sys/unix"
)

type (
	_epoll struct {
		fd        int
		wakeFD    int
		interests map[int32]Interest
		events    []unix.EpollEvent
		wake      [8]byte
	}
	TEpoll interface {
		Register(fd int32, in Interest) error
		Unregister(fd int32) error
		Interest(fd int32) (Interest, bool)
		Len() int
		Wait(list []Event) (int, error)
		Wake() error
		Close() error
	}
)

// New creates a level-triggered epoll instance. The instance is not safe for concurrent use
// except for Wake.
func New(c Option) (TEpoll, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	v, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrapf(err, "epoll create")
	}
	w, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(errors.Wrapf(err, "eventfd create"), unix.Close(v))
	}
	err = unix.EpollCtl(v, unix.EPOLL_CTL_ADD, w, &unix.EpollEvent{Events: wakeEvents, Fd: int32(w)})
	if err != nil {
		return nil, errors.Wrap(errors.Wrapf(err, "epoll add eventfd"), unix.Close(w), unix.Close(v))
	}
	ep := &_epoll{
		fd:        v,
		wakeFD:    w,
		interests: make(map[int32]Interest, c.CountEvents),
		events:    make([]unix.EpollEvent, c.CountEvents),
	}
	binary.NativeEndian.PutUint64(ep.wake[:], 1)
	return ep, nil
}

// Register adds fd or, when fd is already registered, replaces its interest.
// An fd never has more than one registration.
func (v *_epoll) Register(fd int32, in Interest) error {
	ev := &unix.EpollEvent{Events: in.mask(), Fd: fd}
	if _, ok := v.interests[fd]; ok {
		if err := unix.EpollCtl(v.fd, unix.EPOLL_CTL_MOD, int(fd), ev); err != nil {
			return errors.Wrapf(err, "epoll mod fd=%d", fd)
		}
		v.interests[fd] = in
		return nil
	}
	if err := unix.EpollCtl(v.fd, unix.EPOLL_CTL_ADD, int(fd), ev); err != nil {
		return errors.Wrapf(err, "epoll add fd=%d", fd)
	}
	v.interests[fd] = in
	return nil
}

func (v *_epoll) Unregister(fd int32) error {
	if _, ok := v.interests[fd]; !ok {
		return nil
	}
	delete(v.interests, fd)
	if err := unix.EpollCtl(v.fd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return errors.Wrapf(err, "epoll del fd=%d", fd)
	}
	return nil
}

func (v *_epoll) Interest(fd int32) (Interest, bool) {
	in, ok := v.interests[fd]
	return in, ok
}

func (v *_epoll) Len() int {
	return len(v.interests)
}

// Wait blocks until at least one registered fd is ready and fills list with the consumed
// events. An interrupted wait returns zero events and no error.
func (v *_epoll) Wait(list []Event) (int, error) {
	size := min(len(list), len(v.events))
	if size == 0 {
		return 0, fmt.Errorf("epoll wait: empty event list")
	}
	n, err := unix.EpollWait(v.fd, v.events[:size], -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "epoll wait")
	}

	count := 0
	for i := 0; i < n; i++ {
		raw := v.events[i]
		if int(raw.Fd) == v.wakeFD {
			v.drainWake()
			list[count] = Event{Kind: KindWakeup, FD: raw.Fd}
			count++
			continue
		}
		in, ok := v.interests[raw.Fd]
		if !ok {
			continue
		}
		list[count] = Event{Kind: classify(in, raw.Events), FD: raw.Fd}
		count++
	}
	return count, nil
}

func (v *_epoll) drainWake() {
	var b [8]byte
	for {
		if _, err := unix.Read(v.wakeFD, b[:]); err != nil {
			return
		}
	}
}

// Wake interrupts a blocked Wait. Safe to call from any goroutine.
func (v *_epoll) Wake() error {
	_, err := unix.Write(v.wakeFD, v.wake[:])
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		return errors.Wrapf(err, "eventfd write")
	}
	return nil
}

func (v *_epoll) Close() error {
	v.interests = make(map[int32]Interest)
	return errors.Wrap(
		unix.Close(v.wakeFD),
		unix.Close(v.fd),
	)
}
