package synth

import "github.com/sirupsen/logrus"

// Reclaimer destroys removed nodes off the render thread. The engine
// sends detached nodes into its channel; a collector goroutine drains
// and drops them, so destructors of arbitrary cost never run during
// rendering.
type Reclaimer struct {
	drops  chan Droppable
	closed chan struct{}
	logger *logrus.Logger
}

// NewReclaimer starts a collector with the provided channel buffer.
func NewReclaimer(buffer int, logger *logrus.Logger) *Reclaimer {
	r := &Reclaimer{
		drops:  make(chan Droppable, buffer),
		closed: make(chan struct{}),
		logger: logger,
	}
	go r.collect()
	return r
}

// Reclaim hands a droppable to the collector.
func (r *Reclaimer) Reclaim(d Droppable) {
	r.drops <- d
}

// Close stops the collector after draining everything already sent.
func (r *Reclaimer) Close() {
	close(r.drops)
	<-r.closed
}

func (r *Reclaimer) collect() {
	defer close(r.closed)
	for d := range r.drops {
		d.Drop()
		r.logger.Debugf("reclaimed %T", d)
	}
}
