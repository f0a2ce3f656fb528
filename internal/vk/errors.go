package vk

import (
	"errors"
	"fmt"
)

// TransportError -- сетевой сбой или 5xx, запрос можно повторить.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vk %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError -- VK отверг запрос или long poll сессия устарела.
// Failed -- код из long poll ответа (2 -- ключ истёк, 3 -- потерян ts),
// Code -- error_code из тела API-ответа. Ненулевое только одно из двух.
type ProtocolError struct {
	Op     string
	Failed int
	Code   int
	Msg    string
}

func (e *ProtocolError) Error() string {
	if e.Failed != 0 {
		return fmt.Sprintf("vk %s: long poll failed=%d", e.Op, e.Failed)
	}
	return fmt.Sprintf("vk %s: api error %d: %s", e.Op, e.Code, e.Msg)
}

// IsTransport reports whether err is a retriable transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err invalidates the current long poll session.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
