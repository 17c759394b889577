package websocket

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l1"
	"github.com/robotalks/wheelphone.go/pkg/l1/msgs"
)

func TestServerAndConnector(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	info := l1.ControllerInfo{
		Ref:  l1.ControllerRef{Type: "wheelphone", ID: "test"},
		Meta: l1.ControllerMeta{Description: "test robot"},
	}
	srv := NewServer("", info)
	srv.Listener = ln
	require.NoError(t, srv.SendEvent(context.Background(), msgs.NewCommandOK()))

	ctlLoop := fx.NewLoop()
	ctlLoop.Interval = 10 * time.Millisecond
	ctlLoop.Add(srv)
	ctlLoop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
			if cmdMsg, ok := mc.CurrentMessage().(*l1.CommandMsg); ok {
				if _, ok := cmdMsg.Command.Msg().(*msgs.Nav2DCapsQuery); ok {
					mc.MessageTaken()
					cmdMsg.Command.Done(&msgs.Nav2DCaps{MaxSpeed: 350})
				}
			}
		}))
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctlLoop.Run(ctx)

	connector := NewConnector("ws://" + ln.Addr().String() + DefaultPath)
	// the listener accepts before serving starts.
	infoList, err := connector.Discover(ctx)
	require.NoError(t, err)
	require.Equal(t, []l1.ControllerInfo{info}, infoList)

	conn, err := connector.Connect(ctx, info.Ref)
	require.NoError(t, err)
	connLoop := fx.NewLoop()
	connLoop.Interval = 10 * time.Millisecond
	connLoop.Add(conn.(fx.LoopAdder))
	go connLoop.Run(ctx)

	select {
	case res := <-conn.DoCommand(&msgs.Nav2DCapsQuery{}).ResultChan():
		require.NoError(t, res.Err)
		require.Equal(t, &msgs.Nav2DCaps{MaxSpeed: 350}, res.Msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for reply")
	}
}

func TestConnectorInfoURL(t *testing.T) {
	testCases := []struct {
		url    string
		expect string
		err    bool
	}{
		{url: "ws://host:1234/l1", expect: "http://host:1234/l1/info"},
		{url: "wss://host/l1", expect: "https://host/l1/info"},
		{url: "http://host/l1", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			u, err := NewConnector(tc.url).infoURL()
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, u)
		})
	}
}
