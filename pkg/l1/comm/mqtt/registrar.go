package mqtt

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
	"github.com/robotalks/wheelphone.go/pkg/l1"
	"github.com/robotalks/wheelphone.go/pkg/l1/comm"
)

// Registrar implements l1.Registrar using MQTT. The meta is published
// retained and cleared by the will when the controller goes away.
type Registrar struct {
	Queue *Queue

	lock      sync.Mutex
	info      l1.ControllerInfo
	metaTopic string
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := ControllerTopic(info.Ref, MetaTopic)
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("wheelphone:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:     NewQueue(opts, topicPrefix),
		info:      info,
		metaTopic: metaTopic,
	}
	r.Queue.OnConnect = func(*Queue) { r.publishMeta() }
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForController(info.Ref))
	return r, nil
}

// Info returns current ControllerInfo.
func (r *Registrar) Info() l1.ControllerInfo {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.info
}

// UpdateLabels merges labels into meta and republishes it if changed.
func (r *Registrar) UpdateLabels(labels map[string]string) {
	r.lock.Lock()
	changed := false
	for k, v := range labels {
		if r.info.Meta.Labels[k] != v {
			if !changed {
				copied := make(map[string]string, len(r.info.Meta.Labels)+len(labels))
				for key, val := range r.info.Meta.Labels {
					copied[key] = val
				}
				r.info.Meta.Labels = copied
				changed = true
			}
			r.info.Meta.Labels[k] = v
		}
	}
	r.lock.Unlock()
	if changed && r.Queue.Client.IsConnected() {
		r.publishMeta()
	}
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	token := r.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	r.Queue.PubWith(r.metaTopic, nil, 1, true).Wait()
	r.Queue.Close()
	return nil
}

func (r *Registrar) publishMeta() {
	info := r.Info()
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		glog.Errorf("encode meta error: %v", err)
		return
	}
	r.Queue.PubWith(r.metaTopic, meta, 1, true)
}
