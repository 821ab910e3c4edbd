// Package session groups the client-state stores of anonymous storefront
// sessions and manages their lifecycle.
package session

import (
	"sync/atomic"
	"time"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/favorite"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/viewed"
)

// Key returns the storage key of a session's store.
func Key(id, suffix string) string {
	return id + ":" + suffix
}

// Session is the client state of one visitor.
type Session struct {
	ID        string
	Cart      *cart.Store
	Favorites *favorite.Store
	Orders    *order.Store
	Viewed    *viewed.Store
	Draft     *order.DraftHolder

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen returns the time the session was last handed out.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}
