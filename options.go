package crucible

import "github.com/xraph/crucible/logger"

// options collects the knobs New accepts.
type options struct {
	logger          logger.Logger
	providers       []Provider
	withoutDefaults bool
}

// Option configures a container at construction time.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{logger: logger.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithLogger attaches a logger. Container and provider activity is reported
// at debug level with the container id as a field.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithProviders seeds the container with providers ahead of the defaults. A
// seeded provider takes the place of the default with the same concrete
// type.
func WithProviders(providers ...Provider) Option {
	return func(o *options) {
		for _, p := range providers {
			if p != nil {
				o.providers = append(o.providers, p)
			}
		}
	}
}

// WithoutDefaultProviders skips the standard provider set. The registration
// facade reports the missing providers as invalid registrations until
// matching providers are added.
func WithoutDefaultProviders() Option {
	return func(o *options) {
		o.withoutDefaults = true
	}
}
