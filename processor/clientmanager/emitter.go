package clientmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360/clientmanager/component"
	"github.com/c360/clientmanager/engine"
	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/message"
	"github.com/c360/clientmanager/natsclient"
)

// Transport is the slice of natsclient.Client the processor uses.
type Transport interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) (natsclient.Subscription, error)
	Publish(ctx context.Context, subject string, data []byte) error
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// route is where commands for one target go.
type route struct {
	subject string
	stream  bool // publish through JetStream with retries
	// perAction appends ".<action>" to subject
	perAction bool
}

// natsEmitter publishes engine commands as JSON. Delivery failures are
// logged and counted, never returned: the engine does not roll back.
type natsEmitter struct {
	transport Transport
	routes    map[engine.Target]route
	retry     errors.RetryConfig
	logger    *slog.Logger
	metrics   *processorMetrics
}

// routesFromPorts maps each output port named after a command target to a
// route. A subject ending in ".>" or ".*" publishes one subject per action.
func routesFromPorts(outputs []component.Port) map[engine.Target]route {
	routes := make(map[engine.Target]route, len(outputs))
	for _, port := range outputs {
		subject := port.Subject()
		if subject == "" {
			continue
		}
		r := route{subject: subject}
		if _, ok := port.Config.(component.JetStreamPort); ok {
			r.stream = true
		}
		for _, wildcard := range []string{".>", ".*"} {
			if strings.HasSuffix(subject, wildcard) {
				r.subject = strings.TrimSuffix(subject, wildcard)
				r.perAction = true
			}
		}
		routes[engine.Target(port.Name)] = r
	}
	return routes
}

// Emit implements engine.Emitter.
func (e *natsEmitter) Emit(ctx context.Context, cmd engine.Command) {
	target := string(cmd.Target())

	r, ok := e.routes[cmd.Target()]
	if !ok {
		e.metrics.recordPublishFailed(target)
		e.logger.Warn("No output port for command target",
			"target", target,
			"action", cmd.Action(),
			"id", cmd.CorrelationID())
		return
	}

	payload, err := encodeCommand(cmd)
	if err != nil {
		e.metrics.recordPublishFailed(target)
		e.logger.Error("Failed to encode command",
			"target", target,
			"action", cmd.Action(),
			"error", err)
		return
	}

	subject := r.subject
	if r.perAction {
		subject = subject + "." + cmd.Action()
	}

	if r.stream {
		err = e.retry.Retry(ctx, func() error {
			return e.transport.PublishToStream(ctx, subject, payload)
		})
	} else {
		err = e.transport.Publish(ctx, subject, payload)
	}
	if err != nil {
		e.metrics.recordPublishFailed(target)
		e.logger.Error("Failed to publish command",
			"target", target,
			"action", cmd.Action(),
			"subject", subject,
			"id", cmd.CorrelationID(),
			"error", err)
		return
	}

	e.metrics.recordPublished(subject)
	e.logger.Debug("Published command",
		"target", target,
		"action", cmd.Action(),
		"subject", subject,
		"id", cmd.CorrelationID())
}

// encodeCommand marshals cmd and tags it with its id and action.
func encodeCommand(cmd engine.Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, errors.WrapInvalid(err, "ClientManager", "encodeCommand", "marshal command")
	}
	if payload, err = message.Stamp(payload, cmd.CorrelationID()); err != nil {
		return nil, err
	}
	return message.SetAction(payload, cmd.Action())
}

// defaultPublishRetry bounds JetStream publish retries so a broker outage
// cannot stall the engine loop for long.
func defaultPublishRetry() errors.RetryConfig {
	return errors.RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

func (r route) String() string {
	if r.perAction {
		return fmt.Sprintf("%s.<action>", r.subject)
	}
	return r.subject
}
