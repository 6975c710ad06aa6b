package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NatsSink publishes every event on <prefix>.<event type>, for example
// click.schedule.post.scheduled.
type NatsSink struct {
	nc     *nats.Conn
	prefix string
}

func NewNatsSink(natsURL, prefix string) (*NatsSink, error) {
	nc, err := nats.Connect(natsURL, nats.Name("click-scheduler"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logrus.Infof("[NOTIFY] Connected to NATS at %s", nc.ConnectedUrl())
	return NewNatsSinkFromConn(nc, prefix), nil
}

func NewNatsSinkFromConn(nc *nats.Conn, prefix string) *NatsSink {
	if prefix == "" {
		prefix = "click.schedule"
	}
	return &NatsSink{nc: nc, prefix: strings.TrimSuffix(prefix, ".")}
}

func (s *NatsSink) Name() string { return "nats" }

// Subject is the subject an event type is published on.
func (s *NatsSink) Subject(t domain.EventType) string {
	return s.prefix + "." + string(t)
}

func (s *NatsSink) Deliver(_ context.Context, evt domain.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.nc.Publish(s.Subject(evt.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}

func (s *NatsSink) Close() {
	if s.nc != nil {
		_ = s.nc.Drain()
	}
}
