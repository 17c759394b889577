package comm

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l1"
	"github.com/robotalks/wheelphone.go/pkg/l1/msgs"
)

type chanPacketRW struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once sync.Once
}

func newChanPacketRW(in <-chan []byte, out chan<- []byte) *chanPacketRW {
	return &chanPacketRW{in: in, out: out, done: make(chan struct{})}
}

func (c *chanPacketRW) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.in:
		return pkt, nil
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *chanPacketRW) WritePacket(pkt []byte) error {
	select {
	case c.out <- pkt:
		return nil
	case <-c.done:
		return io.ErrClosedPipe
	}
}

func (c *chanPacketRW) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *chanPacketRW) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return ctx.Err()
}

func waitResult(t *testing.T, f l1.CommandFuture) l1.Result {
	select {
	case res := <-f.ResultChan():
		return res
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for result")
	}
	return l1.Result{}
}

func TestRegistrarAndControllerConn(t *testing.T) {
	toCtl, toConn := make(chan []byte, 8), make(chan []byte, 8)

	var reg Registrar
	reg.Init(newChanPacketRW(toCtl, toConn))
	ctlLoop := fx.NewLoop()
	ctlLoop.Interval = 10 * time.Millisecond
	ctlLoop.Add(&reg, &UnsupportedCommands{})
	ctlLoop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
			if cmdMsg, ok := mc.CurrentMessage().(*l1.CommandMsg); ok {
				if drive, ok := cmdMsg.Command.Msg().(*msgs.Nav2DDrive); ok {
					mc.MessageTaken()
					cmdMsg.Command.Done(&msgs.Nav2DCaps{MaxSpeed: drive.Speed})
				}
			}
		}))
		return nil
	}))

	var conn ControllerConn
	conn.Init(newChanPacketRW(toConn, toCtl))
	connLoop := fx.NewLoop()
	connLoop.Interval = 10 * time.Millisecond
	connLoop.Add(&conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctlLoop.Run(ctx)
	go connLoop.Run(ctx)

	res := waitResult(t, conn.DoCommand(&msgs.Nav2DDrive{Speed: 42}))
	require.NoError(t, res.Err)
	require.Equal(t, &msgs.Nav2DCaps{MaxSpeed: 42}, res.Msg)

	res = waitResult(t, conn.DoCommand(&msgs.Nav2DTurn{Speed: 1}))
	require.Error(t, res.Err)
	require.Equal(t, msgs.ErrUnsupportedCommand.Error(), res.Err.Error())
}

func TestPipeUnknownCommand(t *testing.T) {
	toCtl, toConn := make(chan []byte, 8), make(chan []byte, 8)
	rw := newChanPacketRW(toCtl, toConn)
	pipe := NewPipe(rw)
	errCh := make(chan error, 1)
	go func() { errCh <- pipe.Run(context.Background()) }()

	pkt, err := (&msgs.Typed{TypeId: msgs.GroupCustom | 0x7777, Sequence: 3}).Encode()
	require.NoError(t, err)
	toCtl <- pkt
	// unknown replies are ignored.
	pkt, err = (&msgs.Typed{TypeId: msgs.GroupCustom | msgs.TypeIDMaskReply | 0x7777}).Encode()
	require.NoError(t, err)
	toCtl <- pkt

	select {
	case pkt = <-toConn:
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}
	typed, err := msgs.DecodeTyped(pkt)
	require.NoError(t, err)
	require.Equal(t, uint32(3), typed.Sequence)
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.IsType(t, &msgs.CommandErr{}, msg)

	rw.Close()
	require.Equal(t, io.EOF, <-errCh)
	select {
	case <-toConn:
		t.Fatal("unexpected reply")
	default:
	}
}

func TestPipeSendKind(t *testing.T) {
	pipe := NewPipe(newChanPacketRW(nil, make(chan []byte, 1)))
	require.Equal(t, ErrNotEvent, pipe.SendEventMsg(msgs.NewCommandOK()))
	require.Equal(t, msgs.ErrNotSerializable, pipe.SendCommandMsg(&l1.CommandMsg{}, 1))
}

func TestControllerConnExpiration(t *testing.T) {
	out := make(chan []byte, 8)
	var conn ControllerConn
	conn.Init(newChanPacketRW(nil, out))
	conn.Expiration = 20 * time.Millisecond
	loop := fx.NewLoop()
	loop.Interval = 5 * time.Millisecond
	loop.Add(&conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	f := conn.DoCommand(&msgs.Nav2DCapsQuery{})
	<-out
	res := waitResult(t, f)
	require.Equal(t, context.DeadlineExceeded, res.Err)
	require.Equal(t, 0, conn.Pending())
}
