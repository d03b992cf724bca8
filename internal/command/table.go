// Package command is the declarative command table: name -> arity -> handler.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

type Arity int

const (
	// ArgsNone ignores anything after the command name.
	ArgsNone Arity = iota
	ArgsOptional
	ArgsRequired
)

var (
	ErrMissingArgs = errors.New("command: missing arguments")
	ErrDuplicate   = errors.New("command: duplicate name")
)

type Request struct {
	ChatID     string
	SenderID   string
	SenderName string
	// Name is the canonical command name, even when an alias was typed.
	Name    string
	Args    string
	Raw     string
	IsAdmin bool
}

type Reply struct {
	Text     string
	Mentions []string
}

func Text(s string) *Reply { return &Reply{Text: s} }

type HandlerFunc func(ctx context.Context, req *Request) (*Reply, error)

type Spec struct {
	Name    string
	Aliases []string
	Arity   Arity
	// AdminOnly commands produce no reply at all for other senders.
	AdminOnly bool
	// BypassPrivate commands still run while the bot is private.
	BypassPrivate bool
	// Usage is the catalog key replied when required args are missing.
	Usage   string
	Handler HandlerFunc
}

// CheckArgs validates args against the command's arity.
func (s *Spec) CheckArgs(args string) error {
	if s.Arity == ArgsRequired && strings.TrimSpace(args) == "" {
		return ErrMissingArgs
	}
	return nil
}

type Table struct {
	prefix string
	byName map[string]*Spec
	order  []*Spec
}

func NewTable(prefix string) *Table {
	return &Table{prefix: prefix, byName: make(map[string]*Spec)}
}

func (t *Table) Prefix() string { return t.prefix }

func (t *Table) Register(spec Spec) error {
	name := strings.ToLower(strings.TrimSpace(spec.Name))
	if name == "" || spec.Handler == nil {
		return fmt.Errorf("command: invalid spec %q", spec.Name)
	}
	spec.Name = name
	s := &spec
	names := append([]string{name}, spec.Aliases...)
	for i, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if _, ok := t.byName[n]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, n)
		}
		names[i] = n
	}
	for _, n := range names {
		t.byName[n] = s
	}
	t.order = append(t.order, s)
	return nil
}

// MustRegister panics on a bad or duplicate command; tables are built at startup.
func (t *Table) MustRegister(specs ...Spec) {
	for _, s := range specs {
		if err := t.Register(s); err != nil {
			panic(err)
		}
	}
}

// Parse splits "<prefix><name> <args>" into a lowercased name and trimmed args.
// ok is false when text does not start with the prefix or the name is empty.
func (t *Table) Parse(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if t.prefix == "" || !strings.HasPrefix(text, t.prefix) {
		return "", "", false
	}
	rest := text[len(t.prefix):]
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}
	name = strings.ToLower(rest[:end])
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(rest[end:]), true
}

func (t *Table) Lookup(name string) (*Spec, bool) {
	s, ok := t.byName[strings.ToLower(name)]
	return s, ok
}

// Resolve parses text and looks the command up. Text naming an unknown command
// resolves to nothing.
func (t *Table) Resolve(text string) (*Spec, string, bool) {
	name, args, ok := t.Parse(text)
	if !ok {
		return nil, "", false
	}
	s, ok := t.Lookup(name)
	if !ok {
		return nil, "", false
	}
	return s, args, true
}

// Specs lists commands in registration order.
func (t *Table) Specs() []*Spec {
	out := make([]*Spec, len(t.order))
	copy(out, t.order)
	return out
}
