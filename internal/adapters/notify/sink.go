package notify

import "github.com/example/labctl/internal/ports/secondary"

// NopSink discards notifications. It stands in for optional delivery
// mechanisms (desktop banners and the like) when none is configured, so the
// orchestrator can hold a sink unconditionally.
type NopSink struct{}

var _ secondary.NotificationSink = NopSink{}

// Notify discards the notification.
func (NopSink) Notify(message, level, source string) error { return nil }

// MultiSink fans a notification out to several sinks. Delivery failures in
// one sink never stop the others, and the first error is returned only after
// every sink has been attempted.
type MultiSink []secondary.NotificationSink

var _ secondary.NotificationSink = MultiSink{}

// Notify delivers to every sink.
func (m MultiSink) Notify(message, level, source string) error {
	var first error
	for _, s := range m {
		if err := s.Notify(message, level, source); err != nil && first == nil {
			first = err
		}
	}
	return first
}
