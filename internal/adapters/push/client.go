package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/internal/tlsconf"
	"github.com/auriga-audio/auriga/pkg/aw"
)

// Options configures the push client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	TopicBase string
	Timeout   time.Duration
}

// Client is an MQTT adapter implementing the Broker port. Retained
// zone state topics act as the push channel; the client also fans
// connection lifecycle changes out to active zone watches so views
// can degrade to offline.
type Client struct {
	client     paho.Client
	replyTopic string
	topicBase  string
	timeout    time.Duration

	mu            sync.Mutex
	replyHandlers map[string]chan aw.ReplyEnvelope
	connWatchers  map[int]chan ports.ConnEvent
	nextWatcher   int
}

// NewClient creates and connects a push client.
func NewClient(opts Options) (*Client, error) {
	if opts.TopicBase == "" {
		opts.TopicBase = aw.BaseTopic
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}

	c := &Client{
		replyTopic:    aw.TopicReply(opts.TopicBase, opts.ClientID),
		topicBase:     opts.TopicBase,
		timeout:       opts.Timeout,
		replyHandlers: map[string]chan aw.ReplyEnvelope{},
		connWatchers:  map[int]chan ports.ConnEvent{},
	}

	clientOpts := paho.NewClientOptions().AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetOnConnectHandler(func(client paho.Client) {
		token := client.Subscribe(c.replyTopic, 1, c.handleReply)
		token.Wait()
		c.broadcastConn(ports.ConnEvent{Kind: ports.ConnConnected})
	})
	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.broadcastConn(ports.ConnEvent{Kind: ports.ConnDisconnected, Err: err.Error()})
	})

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	tlsConfig, err := tlsconf.Build(opts.TLSCA, opts.TLSCert, opts.TLSKey)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		clientOpts.SetTLSConfig(tlsConfig)
	}

	c.client = paho.NewClient(clientOpts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	if token := c.client.Subscribe(c.replyTopic, 1, c.handleReply); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return c, nil
}

// ReplyTopic returns the topic used for replies.
func (c *Client) ReplyTopic() string {
	return c.replyTopic
}

// PublishCommand publishes a command and waits for the correlated
// reply.
func (c *Client) PublishCommand(ctx context.Context, zoneID string, cmd aw.CommandEnvelope) (aw.ReplyEnvelope, error) {
	req, err := json.Marshal(cmd)
	if err != nil {
		return aw.ReplyEnvelope{}, fmt.Errorf("marshal command: %w", err)
	}

	replyCh := make(chan aw.ReplyEnvelope, 1)
	c.mu.Lock()
	c.replyHandlers[cmd.ID] = replyCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.replyHandlers, cmd.ID)
		c.mu.Unlock()
	}()

	topic := aw.TopicCommands(c.topicBase, zoneID)
	if token := c.client.Publish(topic, 1, false, req); token.Wait() && token.Error() != nil {
		return aw.ReplyEnvelope{}, token.Error()
	}

	select {
	case <-ctx.Done():
		return aw.ReplyEnvelope{}, ctx.Err()
	case reply := <-replyCh:
		return reply, nil
	case <-time.After(c.timeout):
		return aw.ReplyEnvelope{}, errors.New("timeout waiting for reply")
	}
}

// ListPresence collects retained zone presence messages.
func (c *Client) ListPresence(ctx context.Context) ([]aw.Presence, error) {
	collect := make(map[string]aw.Presence)
	collectMu := sync.Mutex{}

	handler := func(_ paho.Client, msg paho.Message) {
		var presence aw.Presence
		if err := json.Unmarshal(msg.Payload(), &presence); err != nil {
			return
		}
		collectMu.Lock()
		collect[presence.ZoneID] = presence
		collectMu.Unlock()
	}

	topic := fmt.Sprintf("%s/zone/+/presence", c.topicBase)
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer func() {
		token := c.client.Unsubscribe(topic)
		token.Wait()
	}()

	wait := time.NewTimer(250 * time.Millisecond)
	select {
	case <-ctx.Done():
		wait.Stop()
	case <-wait.C:
	}

	collectMu.Lock()
	defer collectMu.Unlock()
	out := make([]aw.Presence, 0, len(collect))
	for _, presence := range collect {
		out = append(out, presence)
	}
	return out, nil
}

// GetZoneState returns the retained state for a zone.
func (c *Client) GetZoneState(ctx context.Context, zoneID string) (aw.ZoneState, error) {
	stateCh := make(chan aw.ZoneState, 1)
	handler := func(_ paho.Client, msg paho.Message) {
		var state aw.ZoneState
		if err := json.Unmarshal(msg.Payload(), &state); err != nil {
			return
		}
		select {
		case stateCh <- state:
		default:
		}
	}

	topic := aw.TopicState(c.topicBase, zoneID)
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return aw.ZoneState{}, token.Error()
	}
	defer func() {
		token := c.client.Unsubscribe(topic)
		token.Wait()
	}()

	select {
	case <-ctx.Done():
		return aw.ZoneState{}, ctx.Err()
	case state := <-stateCh:
		return state, nil
	case <-time.After(c.timeout):
		return aw.ZoneState{}, errors.New("timeout waiting for state")
	}
}

// WatchZone streams pushed state and connection lifecycle changes for
// a zone until the context ends.
func (c *Client) WatchZone(ctx context.Context, zoneID string) (<-chan aw.ZoneState, <-chan ports.ConnEvent, <-chan error) {
	stateCh := make(chan aw.ZoneState, 8)
	connCh := make(chan ports.ConnEvent, 4)
	errCh := make(chan error, 1)

	stateHandler := func(_ paho.Client, msg paho.Message) {
		var state aw.ZoneState
		if err := json.Unmarshal(msg.Payload(), &state); err != nil {
			return
		}
		sendLatest(stateCh, state)
	}

	stateTopic := aw.TopicState(c.topicBase, zoneID)
	if token := c.client.Subscribe(stateTopic, 1, stateHandler); token.Wait() && token.Error() != nil {
		errCh <- token.Error()
		return stateCh, connCh, errCh
	}

	watcherID := c.addConnWatcher(connCh)

	go func() {
		<-ctx.Done()
		c.client.Unsubscribe(stateTopic)
		c.removeConnWatcher(watcherID)
		close(stateCh)
		close(connCh)
		close(errCh)
	}()

	return stateCh, connCh, errCh
}

// WatchAllZones streams pushed state for every zone by subscribing the
// state topic wildcard, so an all-zones view updates without any
// outgoing command first.
func (c *Client) WatchAllZones(ctx context.Context) (<-chan ports.ZonePush, <-chan ports.ConnEvent, <-chan error) {
	pushCh := make(chan ports.ZonePush, 16)
	connCh := make(chan ports.ConnEvent, 4)
	errCh := make(chan error, 1)

	stateHandler := func(_ paho.Client, msg paho.Message) {
		zoneID := zoneFromStateTopic(c.topicBase, msg.Topic())
		if zoneID == "" {
			return
		}
		var state aw.ZoneState
		if err := json.Unmarshal(msg.Payload(), &state); err != nil {
			return
		}
		sendLatest(pushCh, ports.ZonePush{ZoneID: zoneID, State: state})
	}

	stateTopic := aw.TopicState(c.topicBase, "+")
	if token := c.client.Subscribe(stateTopic, 1, stateHandler); token.Wait() && token.Error() != nil {
		errCh <- token.Error()
		return pushCh, connCh, errCh
	}

	watcherID := c.addConnWatcher(connCh)

	go func() {
		<-ctx.Done()
		c.client.Unsubscribe(stateTopic)
		c.removeConnWatcher(watcherID)
		close(pushCh)
		close(connCh)
		close(errCh)
	}()

	return pushCh, connCh, errCh
}

// sendLatest enqueues a push without blocking. When the buffer is full
// the oldest entry is dropped so the newest state always wins.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// zoneFromStateTopic extracts the zone segment from a state topic
// under the given base, or "" when the topic does not match.
func zoneFromStateTopic(base, topic string) string {
	rest, ok := strings.CutPrefix(topic, base+"/zone/")
	if !ok {
		return ""
	}
	zoneID, ok := strings.CutSuffix(rest, "/state")
	if !ok || zoneID == "" || strings.Contains(zoneID, "/") {
		return ""
	}
	return zoneID
}

func (c *Client) addConnWatcher(ch chan ports.ConnEvent) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextWatcher
	c.nextWatcher++
	c.connWatchers[id] = ch
	return id
}

func (c *Client) removeConnWatcher(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.connWatchers, id)
}

func (c *Client) broadcastConn(event ports.ConnEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.connWatchers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (c *Client) handleReply(_ paho.Client, msg paho.Message) {
	var reply aw.ReplyEnvelope
	if err := json.Unmarshal(msg.Payload(), &reply); err != nil {
		return
	}

	c.mu.Lock()
	ch, ok := c.replyHandlers[reply.ID]
	c.mu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- reply:
	default:
	}
}
