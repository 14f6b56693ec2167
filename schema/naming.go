package schema

import (
	"github.com/go-openapi/inflect"
)

// NamingStrategy derives a table name from a Go type name. It is applied
// only when the type does not set Config.Table.
type NamingStrategy func(typeName string) string

var rules = inflect.NewDefaultRuleset()

// Naming strategies.
var (
	// DefaultNaming keeps the Go type name, "OrderLine" stays "OrderLine".
	DefaultNaming NamingStrategy = func(name string) string { return name }
	// SnakeCase maps "OrderLine" to "order_line".
	SnakeCase NamingStrategy = func(name string) string { return rules.Underscore(name) }
	// SnakePlural maps "OrderLine" to "order_lines".
	SnakePlural NamingStrategy = func(name string) string { return rules.Pluralize(rules.Underscore(name)) }
)

// NamingByName returns the strategy registered under name ("", "default",
// "snake" or "snake_plural").
func NamingByName(name string) (NamingStrategy, bool) {
	switch name {
	case "", "default":
		return DefaultNaming, true
	case "snake":
		return SnakeCase, true
	case "snake_plural":
		return SnakePlural, true
	default:
		return nil, false
	}
}

// Option configures Describe.
type Option func(*options)

type options struct {
	naming NamingStrategy
}

// WithNaming sets the table naming strategy.
func WithNaming(n NamingStrategy) Option {
	return func(o *options) {
		if n != nil {
			o.naming = n
		}
	}
}
