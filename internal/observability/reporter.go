package observability

import (
	"sync"
	"time"

	"github.com/jonathan/ats-analyzer/internal/logger"
	"github.com/jonathan/ats-analyzer/internal/scoring"
	"go.uber.org/zap"
)

var _ scoring.Reporter = (*ZapReporter)(nil)

// ZapReporter logs analyzer phase boundaries at debug level with the
// elapsed time of each phase.
type ZapReporter struct {
	log *zap.Logger

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewZapReporter returns a reporter writing to log. A nil logger discards everything.
func NewZapReporter(log *zap.Logger) *ZapReporter {
	return &ZapReporter{
		log:    logger.WithFields(log),
		starts: make(map[string]time.Time),
	}
}

// PhaseStarted records the start of phase
func (r *ZapReporter) PhaseStarted(phase string) {
	r.mu.Lock()
	r.starts[phase] = time.Now()
	r.mu.Unlock()

	r.log.Debug("phase started", zap.String(logger.FieldPhase, phase))
}

// PhaseCompleted logs phase with its detail fields and duration
func (r *ZapReporter) PhaseCompleted(phase string, detail map[string]any) {
	r.mu.Lock()
	start, ok := r.starts[phase]
	delete(r.starts, phase)
	r.mu.Unlock()

	fields := make([]zap.Field, 0, len(detail)+2)
	fields = append(fields, zap.String(logger.FieldPhase, phase))
	if ok {
		fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	}
	for k, v := range detail {
		fields = append(fields, zap.Any(k, v))
	}
	r.log.Debug("phase completed", fields...)
}

// ChannelReporter forwards phase events to a channel. Sends never block:
// events are dropped when the buffer is full.
type ChannelReporter struct {
	events chan<- PhaseEvent
}

// PhaseEvent is one analyzer phase boundary
type PhaseEvent struct {
	Phase     string         `json:"phase"`
	Completed bool           `json:"completed"`
	Detail    map[string]any `json:"detail,omitempty"`
}

var _ scoring.Reporter = (*ChannelReporter)(nil)

// NewChannelReporter returns a reporter sending to events
func NewChannelReporter(events chan<- PhaseEvent) *ChannelReporter {
	return &ChannelReporter{events: events}
}

// PhaseStarted sends a start event
func (r *ChannelReporter) PhaseStarted(phase string) {
	r.send(PhaseEvent{Phase: phase})
}

// PhaseCompleted sends a completion event with a copy of detail
func (r *ChannelReporter) PhaseCompleted(phase string, detail map[string]any) {
	copied := make(map[string]any, len(detail))
	for k, v := range detail {
		copied[k] = v
	}
	r.send(PhaseEvent{Phase: phase, Completed: true, Detail: copied})
}

func (r *ChannelReporter) send(ev PhaseEvent) {
	select {
	case r.events <- ev:
	default:
	}
}

// MultiReporter forwards every phase event to each reporter in order
type MultiReporter []scoring.Reporter

var _ scoring.Reporter = MultiReporter(nil)

// PhaseStarted forwards to every reporter
func (m MultiReporter) PhaseStarted(phase string) {
	for _, r := range m {
		r.PhaseStarted(phase)
	}
}

// PhaseCompleted forwards to every reporter
func (m MultiReporter) PhaseCompleted(phase string, detail map[string]any) {
	for _, r := range m {
		r.PhaseCompleted(phase, detail)
	}
}
