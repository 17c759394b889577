package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/websocket"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l1"
	"github.com/robotalks/wheelphone.go/pkg/l1/comm"
)

// Connector implements l1.Connector for a websocket Server.
type Connector struct {
	URL    string
	Origin string
}

// NewConnector creates a Connector, url is ws://host:port/path.
func NewConnector(url string) *Connector {
	return &Connector{URL: url, Origin: "http://localhost/"}
}

func (c *Connector) infoURL() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported websocket scheme %q", u.Scheme)
	}
	u.Path += InfoSuffix
	return u.String(), nil
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	infoURL, err := c.infoURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discover %s: %s", infoURL, resp.Status)
	}
	var infoList []l1.ControllerInfo
	if err := json.NewDecoder(resp.Body).Decode(&infoList); err != nil {
		return nil, err
	}
	return infoList, nil
}

// Connect implements Connector. The server only hosts one controller,
// ref is not checked.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	ws, err := websocket.Dial(c.URL, "", c.Origin)
	if err != nil {
		return nil, err
	}
	conn := &ControllerConn{ws: ws}
	conn.Init(New(ws))
	return conn, nil
}

// ControllerConn implements ControllerConn over websocket.
type ControllerConn struct {
	comm.ControllerConn
	ws *websocket.Conn
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	c.ControllerConn.AddToLoop(l)
	l.AddRunnable(fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		c.ws.Close()
		return ctx.Err()
	}))
}
