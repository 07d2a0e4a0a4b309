package messaging

import (
	"context"
	"strings"

	"aviatorpro/internal/models"
)

// SignalPublisher emits every stored signal on <prefix>.<platform>.
type SignalPublisher struct {
	pub    Publisher
	prefix string
}

func NewSignalPublisher(pub Publisher, prefix string) *SignalPublisher {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "signals"
	}
	return &SignalPublisher{pub: pub, prefix: prefix}
}

func (p *SignalPublisher) Name() string { return "nats" }

func (p *SignalPublisher) Subject(platform string) string {
	return p.prefix + "." + platform
}

func (p *SignalPublisher) Notify(ctx context.Context, sig models.Signal) error {
	if p == nil || p.pub == nil {
		return nil
	}
	return p.pub.Publish(ctx, p.Subject(sig.Platform), sig)
}

// PlatformFromSubject returns the last token of subject, which feeds publish
// as outcomes.<platform>.
func PlatformFromSubject(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return ""
}
