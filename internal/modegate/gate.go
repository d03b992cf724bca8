// Package modegate holds the process-wide public/private switch and the admin list.
package modegate

import (
	"strings"
	"sync/atomic"
)

type Mode string

const (
	Public  Mode = "public"
	Private Mode = "private"
)

type Gate struct {
	private atomic.Bool
	admins  map[string]struct{}
}

func NewGate(admins []string, startPrivate bool) *Gate {
	g := &Gate{admins: make(map[string]struct{}, len(admins))}
	for _, a := range admins {
		if id := NormalizeIdentity(a); id != "" {
			g.admins[id] = struct{}{}
		}
	}
	g.private.Store(startPrivate)
	return g
}

// NormalizeIdentity drops the platform suffix ("1234@c.us" -> "1234").
func NormalizeIdentity(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.IndexByte(id, '@'); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSpace(id)
}

func (g *Gate) IsAdmin(senderID string) bool {
	id := NormalizeIdentity(senderID)
	if id == "" {
		return false
	}
	_, ok := g.admins[id]
	return ok
}

func (g *Gate) Mode() Mode {
	if g.private.Load() {
		return Private
	}
	return Public
}

func (g *Gate) SetMode(m Mode) {
	g.private.Store(m == Private)
}

// Allowed reports whether senderID may run a gated command in the current mode.
func (g *Gate) Allowed(senderID string) bool {
	return !g.private.Load() || g.IsAdmin(senderID)
}
