package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wheelphone.go/pkg/l1"
	"github.com/robotalks/wheelphone.go/pkg/l1/comm"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements l1.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	brokerURL string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	if _, _, err := ClientOptionsFromURL(brokerURL); err != nil {
		return nil, err
	}
	return &Connector{DiscoverTimeout: DefaultDiscoverTimeout, brokerURL: brokerURL}, nil
}

func (c *Connector) newQueue() *Queue {
	opts, prefix, _ := ClientOptionsFromURL(c.brokerURL)
	return NewQueue(opts, prefix)
}

// ParseMetaTopic extracts the ControllerRef from TYPE/ID/meta.
func ParseMetaTopic(topic string) (ref l1.ControllerRef, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != MetaTopic {
		return
	}
	ref = l1.ControllerRef{Type: items[0], ID: items[1]}
	return ref, ref.IsValid()
}

// ParseMeta decodes the retained meta payload. Empty payload indicates
// the controller is offline.
func ParseMeta(topic string, payload []byte) (info l1.ControllerInfo, ok bool) {
	if info.Ref, ok = ParseMetaTopic(topic); !ok || len(payload) == 0 {
		return info, false
	}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.V(2).Infof("invalid meta from %s: %v", topic, err)
	}
	return info, true
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) (res []l1.ControllerInfo, err error) {
	q := c.newQueue()
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()

	resCh := make(chan l1.ControllerInfo, 16)
	sub := q.Sub("+/+/"+MetaTopic, Handler(func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-ctx.Done():
			}
		}
	}))
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	seen := make(map[string]bool)
	for {
		select {
		case info := <-resCh:
			if name := info.Ref.Name(); !seen[name] {
				seen[name] = true
				res = append(res, info)
			}
		case <-timeout:
			return
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// Connect implements Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	conn := &ControllerConn{Queue: c.newQueue()}
	conn.Init(NewPacketReadWriter(conn.Queue).ForConnector(ref))
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// ControllerConn implements ControllerConn using MQTT.
type ControllerConn struct {
	comm.ControllerConn
	Queue *Queue
}

// Close disconnects from the broker.
func (c *ControllerConn) Close() error {
	c.ControllerConn.Close()
	return c.Queue.Close()
}
