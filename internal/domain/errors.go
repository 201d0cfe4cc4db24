package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNotConnected = errors.New("feed not connected")
	ErrNoQuotes     = errors.New("no usable quotes")
	ErrRateLimited  = errors.New("rate limited")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
