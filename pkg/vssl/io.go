// ABOUTME: Input routing, analog output and analog input state for one zone
// ABOUTME: Commands go over Alpha; feedback frames update the cached state
package vssl

import (
	"fmt"
	"log"
	"sync"
)

// InputRouter selects what feeds a zone and which input wins when both a
// stream and the local analog input are active.
type InputRouter struct {
	zone *Zone

	mu       sync.Mutex
	source   InputSource
	priority InputPriority
}

func newInputRouter(z *Zone) *InputRouter {
	return &InputRouter{zone: z}
}

// Source returns the routed input.
func (r *InputRouter) Source() InputSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// Priority returns the stream/local precedence.
func (r *InputRouter) Priority() InputPriority {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.priority
}

// SetSource routes the zone input.
func (r *InputRouter) SetSource(src InputSource) error {
	if !src.Valid() {
		return fmt.Errorf("input source %d does not exist", src)
	}
	r.zone.alpha.requestSetInputSource(src)
	return nil
}

// SetPriority sets the stream/local precedence.
func (r *InputRouter) SetPriority(p InputPriority) error {
	if !p.Valid() {
		return fmt.Errorf("input priority %d does not exist", p)
	}
	r.zone.alpha.requestSetInputPriority(p)
	return nil
}

func (r *InputRouter) setSource(raw int) {
	src := InputSource(raw)
	if !src.Valid() {
		log.Printf("Zone %d: unknown input source %d", r.zone.id, raw)
		return
	}
	r.mu.Lock()
	changed := change(&r.source, src)
	r.mu.Unlock()
	if changed {
		r.zone.publish(EventInputSourceChange, src)
	}
}

func (r *InputRouter) setPriority(raw int) {
	p := InputPriority(raw)
	if !p.Valid() {
		log.Printf("Zone %d: unknown input priority %d", r.zone.id, raw)
		return
	}
	r.mu.Lock()
	changed := change(&r.priority, p)
	r.mu.Unlock()
	if changed {
		r.zone.publish(EventInputPriorityChange, p)
	}
}

// AnalogOutput is the line-level output paired with a zone. Feedback for an
// output arrives on the zone whose id matches the output id.
type AnalogOutput struct {
	zone *Zone

	mu          sync.Mutex
	source      AnalogOutputSource
	fixedVolume bool
}

func newAnalogOutput(z *Zone) *AnalogOutput {
	return &AnalogOutput{
		zone: z,
		// Factory routing, offset from the zone id per the firmware default.
		source: AnalogOutputSource(int(z.id) + 3),
	}
}

// Source returns what the output is carrying.
func (o *AnalogOutput) Source() AnalogOutputSource {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.source
}

// IsFixedVolume reports whether the output ignores the zone volume.
func (o *AnalogOutput) IsFixedVolume() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fixedVolume
}

// SetSource routes the output.
func (o *AnalogOutput) SetSource(src AnalogOutputSource) error {
	if !src.Valid() {
		return fmt.Errorf("analog output source %d does not exist", src)
	}
	o.zone.alpha.requestSetAnalogOutputSource(src)
	return nil
}

// SetFixedVolume pins the output at line level, independent of zone volume.
func (o *AnalogOutput) SetFixedVolume(fixed bool) {
	o.zone.alpha.requestSetAnalogOutputFixed(fixed)
}

func (o *AnalogOutput) setSource(raw int) {
	src := AnalogOutputSource(raw)
	if !src.Valid() {
		log.Printf("Zone %d: unknown analog output source %d", o.zone.id, raw)
		return
	}
	o.mu.Lock()
	changed := change(&o.source, src)
	o.mu.Unlock()
	if changed {
		o.zone.publish(EventAnalogOutputSourceChange, src)
	}
}

func (o *AnalogOutput) setFixedVolume(fixed bool) {
	o.mu.Lock()
	changed := change(&o.fixedVolume, fixed)
	o.mu.Unlock()
	if changed {
		o.zone.publish(EventAnalogOutputFixedChange, fixed)
	}
}

// AnalogInput is the local line-level input of a zone. A fixed gain of zero
// means variable gain.
type AnalogInput struct {
	zone *Zone

	mu        sync.Mutex
	name      string
	fixedGain int
}

func newAnalogInput(z *Zone) *AnalogInput {
	return &AnalogInput{
		zone: z,
		name: fmt.Sprintf("Analog In %d", z.id),
	}
}

// Name returns the input's display name.
func (a *AnalogInput) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// FixedGain returns the fixed gain, zero when variable.
func (a *AnalogInput) FixedGain() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fixedGain
}

// SetName renames the input.
func (a *AnalogInput) SetName(name string) {
	a.zone.alpha.requestSetAnalogInputName(name)
}

// SetFixedGain fixes the input gain; zero restores variable gain.
func (a *AnalogInput) SetFixedGain(gain int) {
	a.zone.alpha.requestSetAnalogInputGain(gain)
}

func (a *AnalogInput) setName(name string) {
	a.mu.Lock()
	changed := change(&a.name, name)
	a.mu.Unlock()
	if changed {
		a.zone.publish(EventAnalogInputNameChange, name)
	}
}

func (a *AnalogInput) setFixedGain(gain int) {
	gain = clampVolume(gain)
	a.mu.Lock()
	changed := change(&a.fixedGain, gain)
	a.mu.Unlock()
	if changed {
		a.zone.publish(EventAnalogInputGainChange, gain)
	}
}
