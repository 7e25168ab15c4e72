package translate

import (
	"log/slog"

	"github.com/roach88/sieve/internal/expr"
	"github.com/roach88/sieve/internal/filter"
)

// Helper lets entity-specific code take part in a translation.
type Helper interface {
	// ForceKeep reports whether ref may appear in more than one AND-ed record
	// of a set even though its field is not marked keep in the catalog.
	ForceKeep(ref *expr.PropertyRef) bool

	// ShapeSets post-processes the raw filter sets before final validation.
	// It may rewrite, add or remove sets.
	ShapeSets(sets []filter.Set) []filter.Set
}

// Option configures a Builder.
type Option func(*Builder)

// WithStrict makes every unsupported fragment an error instead of a silent
// degradation.
func WithStrict(strict bool) Option {
	return func(b *Builder) {
		b.strict = strict
	}
}

// WithHelper installs an entity-specific helper.
func WithHelper(h Helper) Option {
	return func(b *Builder) {
		b.helper = h
	}
}

// WithLogger sets the logger for drop, split and fallback decisions.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// noHelper is used when no Helper is configured.
type noHelper struct{}

func (noHelper) ForceKeep(*expr.PropertyRef) bool { return false }
func (noHelper) ShapeSets(sets []filter.Set) []filter.Set { return sets }
