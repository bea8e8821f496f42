package nats

import (
	"sort"
	"strings"

	"github.com/nats-io/nats.go"
)

// Subscriber is satisfied by *services.EventBus.
type Subscriber interface {
	Subscribe(subject, durable string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// DurableName derives a consumer name from a subject; durable names may not
// contain dots.
func DurableName(prefix, subject string) string {
	return prefix + "-" + strings.ReplaceAll(subject, ".", "-")
}

// SubscribeAll loads all routes once during startup. Subjects are subscribed
// in sorted order; on failure the subscriptions made so far are returned
// along with the error so the caller can drain them.
func SubscribeAll(bus Subscriber, prefix string, routes map[string]nats.MsgHandler) ([]*nats.Subscription, error) {
	subjects := make([]string, 0, len(routes))
	for subject := range routes {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	subs := make([]*nats.Subscription, 0, len(subjects))
	for _, subject := range subjects {
		sub, err := bus.Subscribe(subject, DurableName(prefix, subject), routes[subject])
		if err != nil {
			return subs, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
