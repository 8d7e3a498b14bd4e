package relay

import (
	"context"
	"errors"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// Publisher is one topic's send side.
type Publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) Result
	// Resume unblocks an ordering key after a failed publish.
	Resume(orderingKey string)
}

type Result interface {
	Get(ctx context.Context) (serverID string, err error)
}

// Topics hands out publishers by topic name. Open returns nil for a topic
// that cannot be published to.
type Topics interface {
	Open(topic string) Publisher
	Close()
}

type publisherSource interface {
	Publisher(name string) *gcppubsub.Publisher
}

// PubSubTopics keeps one gcp Publisher per topic. Each owns its own batching
// goroutines, so they are created once and stopped on Close.
type PubSubTopics struct {
	client   publisherSource
	ordering bool

	mu     sync.Mutex
	byName map[string]*gcppubsub.Publisher
}

func NewPubSubTopics(client publisherSource, ordering bool) *PubSubTopics {
	return &PubSubTopics{client: client, ordering: ordering, byName: map[string]*gcppubsub.Publisher{}}
}

func (t *PubSubTopics) Open(topic string) Publisher {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byName[topic]
	if !ok {
		if p = t.client.Publisher(topic); p == nil {
			return nil
		}
		p.EnableMessageOrdering = t.ordering
		t.byName[topic] = p
	}
	return gcpPublisher{p}
}

func (t *PubSubTopics) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, p := range t.byName {
		p.Stop()
		delete(t.byName, name)
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) Result {
	return gcpResult{g.p.Publish(ctx, msg)}
}

func (g gcpPublisher) Resume(orderingKey string) {
	g.p.ResumePublish(orderingKey)
}

type gcpResult struct {
	r *gcppubsub.PublishResult
}

func (g gcpResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("publish result is nil")
	}
	return g.r.Get(ctx)
}
