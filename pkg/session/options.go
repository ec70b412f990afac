package session

import (
	"context"
	"log/slog"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/event"
	"github.com/getmockd/apictl/pkg/logging"
)

// Persister saves a whole API definition and returns the definition the
// service stored together with its new concurrency token.
type Persister interface {
	UpdateAPI(ctx context.Context, a *api.API) (*api.API, string, error)
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(ctx context.Context, a *api.API) (*api.API, string, error)

// UpdateAPI calls f.
func (f PersisterFunc) UpdateAPI(ctx context.Context, a *api.API) (*api.API, string, error) {
	return f(ctx, a)
}

// Publisher receives the "api changed" event after a successful commit.
// *event.Bus implements it.
type Publisher interface {
	Publish(e event.Event)
}

type options struct {
	pub Publisher
	log *slog.Logger
}

// Option configures a session.
type Option func(*options)

// WithPublisher sets where change events are published.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.pub = p }
}

// WithLogger sets the session logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) publish(a *api.API) {
	if o.pub != nil {
		o.pub.Publish(event.NewAPIChangedEvent(a))
	}
}
