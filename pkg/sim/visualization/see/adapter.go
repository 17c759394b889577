// Package see is the adapter to visualize robot poses in
// github.com/robotalks/see.
package see

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	fx "github.com/robotalks/wheelphone.go/pkg/framework"
)

// Source provides the objects to visualize.
type Source interface {
	VisibleObjects() []Object
}

// SourceFunc is the func form of Source.
type SourceFunc func() []Object

// VisibleObjects implements Source.
func (f SourceFunc) VisibleObjects() []Object {
	return f()
}

// Adapter is the visualization adapter to visualize using
// github.com/robotalks/see.
type Adapter struct {
	Config  *Config
	Sources []Source
	Output  io.Writer

	initial bool
	last    map[string]string
}

// NewAdapter creates the adapter.
func NewAdapter(config *Config) *Adapter {
	return &Adapter{
		Config:  config,
		Output:  os.Stdout,
		initial: true,
	}
}

// Add adds sources.
func (a *Adapter) Add(sources ...Source) *Adapter {
	a.Sources = append(a.Sources, sources...)
	return a
}

// AddToLoop implements LoopAdder.
func (a *Adapter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(a.ReportChanges))
}

// ReportChanges is a controller to report changed and removed objects.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	msgs, err := a.Changes()
	if err != nil || len(msgs) == 0 {
		return err
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.Output, string(encoded))
	return err
}

// Changes collects objects from sources and returns the messages for
// what has changed since the last call.
func (a *Adapter) Changes() ([]Message, error) {
	var msgs []Message
	if a.initial {
		w, h := a.Config.W/2, a.Config.H/2
		msgs = []Message{
			{Action: ActionReset},
			{Action: ActionObject, Object: NewObject("corner", "corner-lt").With("loc", "lt").At(-w, -h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-lb").With("loc", "lb").At(-w, h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rt").With("loc", "rt").At(w, -h).Radius(1)},
			{Action: ActionObject, Object: NewObject("corner", "corner-rb").With("loc", "rb").At(w, h).Radius(1)},
		}
		a.initial = false
		a.last = nil
	}

	current := make(map[string]string)
	for _, src := range a.Sources {
		for _, obj := range src.VisibleObjects() {
			if obj == nil {
				continue
			}
			encoded, err := json.Marshal(obj)
			if err != nil {
				return nil, err
			}
			id := obj.ID()
			current[id] = string(encoded)
			if a.last[id] != current[id] {
				msgs = append(msgs, Message{Action: ActionObject, Object: obj})
			}
		}
	}
	for id := range a.last {
		if _, ok := current[id]; !ok {
			msgs = append(msgs, Message{Action: ActionRemove, RemoveID: id})
		}
	}
	a.last = current
	return msgs, nil
}
