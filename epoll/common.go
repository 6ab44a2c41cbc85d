/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package epoll

import (
	"golang.org/x/sys/unix"
)

const (
	acceptEvents = unix.EPOLLIN
	readEvents   = unix.EPOLLIN | unix.EPOLLRDHUP
	wakeEvents   = unix.EPOLLIN
	hangupEvents = unix.EPOLLERR | unix.EPOLLHUP | unix.EPOLLRDHUP
)

type Interest uint8

const (
	InterestAccept Interest = iota + 1
	InterestRead
)

func (i Interest) String() string {
	switch i {
	case InterestAccept:
		return "accept"
	case InterestRead:
		return "read"
	default:
		return "unknown"
	}
}

func (i Interest) mask() uint32 {
	switch i {
	case InterestAccept:
		return acceptEvents
	default:
		return readEvents
	}
}

type Kind uint8

const (
	KindAcceptable Kind = iota + 1
	KindReadable
	KindHangup
	KindWakeup
)

func (k Kind) String() string {
	switch k {
	case KindAcceptable:
		return "acceptable"
	case KindReadable:
		return "readable"
	case KindHangup:
		return "hangup"
	case KindWakeup:
		return "wakeup"
	default:
		return "unknown"
	}
}

// Event is one consumed readiness notification.
type Event struct {
	Kind Kind
	FD   int32
}

func classify(in Interest, events uint32) Kind {
	if in == InterestAccept {
		return KindAcceptable
	}
	if events&unix.EPOLLIN != 0 {
		return KindReadable
	}
	if events&hangupEvents != 0 {
		return KindHangup
	}
	return KindReadable
}
