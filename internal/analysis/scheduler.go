package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/kobzarvs/cypherpad/internal/diag"
	"github.com/kobzarvs/cypherpad/internal/logger"
	"github.com/kobzarvs/cypherpad/internal/statement"
)

// DefaultDebounce is the quiescence window used when Options.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

// DefaultOwner keys the markers this scheduler installs.
const DefaultOwner = "cypherpad.analysis"

// Prober sends a rewritten query to the server and returns its notifications.
type Prober interface {
	Probe(ctx context.Context, query string) ([]diag.Notification, error)
}

// MarkerLayer is the diagnostic overlay of the host buffer.
type MarkerLayer interface {
	ClearMarkers(owner string)
	AddMarkers(owner string, diags ...diag.Diagnostic)
}

// Options configures a Scheduler.
type Options struct {
	Parser         statement.Parser
	Prober         Prober
	Debounce       time.Duration
	MultiStatement func() bool
	Owner          string
	// Context is handed to every probe. Defaults to context.Background.
	Context context.Context
	// OnUpdate runs after markers change, outside the scheduler lock.
	OnUpdate func()
}

// Scheduler keeps the marker layer in line with the latest buffer text.
// Re-analysis is debounced; every eligible statement gets one probe whose
// result is applied only if no newer probe was issued for the same slot.
type Scheduler struct {
	parser         statement.Parser
	prober         Prober
	debounce       time.Duration
	multiStatement func() bool
	owner          string
	ctx            context.Context
	onUpdate       func()

	mu          sync.Mutex
	layer       MarkerLayer
	timer       *time.Timer
	pending     string
	passSeq     uint64
	passes      uint64
	generations map[int]uint64
	inflight    sync.WaitGroup
}

func New(opts Options) *Scheduler {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	parser := opts.Parser
	if parser == nil {
		parser = statement.DefaultParser{}
	}
	multi := opts.MultiStatement
	if multi == nil {
		multi = func() bool { return false }
	}
	owner := opts.Owner
	if owner == "" {
		owner = DefaultOwner
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Scheduler{
		parser:         parser,
		prober:         opts.Prober,
		debounce:       debounce,
		multiStatement: multi,
		owner:          owner,
		ctx:            ctx,
		onUpdate:       opts.OnUpdate,
		generations:    make(map[int]uint64),
	}
}

// Attach binds the scheduler to a marker layer.
func (s *Scheduler) Attach(layer MarkerLayer) {
	s.mu.Lock()
	s.layer = layer
	s.mu.Unlock()
}

// Detach unbinds the layer and drops any pending pass. Probes still in
// flight resolve into no-ops, even if a layer is attached again before
// they return.
func (s *Scheduler) Detach() {
	s.mu.Lock()
	s.stopTimerLocked()
	for slot := range s.generations {
		s.generations[slot]++
	}
	s.layer = nil
	s.mu.Unlock()
}

// OnBufferChanged schedules a pass over text. Only the last call inside the
// debounce window reaches the parser.
func (s *Scheduler) OnBufferChanged(text string) {
	s.mu.Lock()
	s.passSeq++
	seq := s.passSeq
	s.pending = text
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fire(seq)
	})
	s.mu.Unlock()
}

// Flush runs a pending pass now instead of waiting for the window to close.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.timer == nil {
		s.mu.Unlock()
		return
	}
	text := s.pending
	s.stopTimerLocked()
	updated := s.runPassLocked(text)
	s.mu.Unlock()
	if updated {
		s.notify()
	}
}

// Wait blocks until every probe issued so far has resolved.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// Passes returns how many analysis passes have run.
func (s *Scheduler) Passes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

func (s *Scheduler) fire(seq uint64) {
	s.mu.Lock()
	if seq != s.passSeq || s.timer == nil {
		s.mu.Unlock()
		return
	}
	text := s.pending
	s.timer = nil
	updated := s.runPassLocked(text)
	s.mu.Unlock()
	if updated {
		s.notify()
	}
}

// stopTimerLocked also bumps passSeq so a callback that already fired
// finds itself superseded.
func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.passSeq++
}

func (s *Scheduler) runPassLocked(text string) bool {
	if s.layer == nil {
		return false
	}
	s.passes++
	s.layer.ClearMarkers(s.owner)

	stmts := s.parser.Parse(text)
	lines := diag.MeasureLines(text)

	// Results of earlier passes are stale for every slot, including slots
	// this pass does not probe.
	for slot := range s.generations {
		s.generations[slot]++
	}

	if len(stmts) > 1 && !s.multiStatement() {
		s.layer.AddMarkers(s.owner, diag.MultiStatementWarning(stmts[1], lines))
	}

	probes := 0
	if s.prober != nil {
		for slot, st := range stmts {
			if !statement.Eligible(st.Text) {
				continue
			}
			s.generations[slot]++
			token := s.generations[slot]
			probes++
			s.inflight.Add(1)
			go s.probe(slot, token, st, lines)
		}
	}
	logger.Debug("analysis pass", "pass", s.passes, "statements", len(stmts), "probes", probes)
	return true
}

func (s *Scheduler) probe(slot int, token uint64, st statement.Statement, lines diag.LineLengths) {
	defer s.inflight.Done()

	notes, err := s.prober.Probe(s.ctx, diag.Rewrite(st.Text))
	if err != nil {
		logger.Debug("probe failed", "slot", slot, "err", err)
		return
	}

	s.mu.Lock()
	if s.layer == nil {
		s.mu.Unlock()
		return
	}
	if s.generations[slot] != token {
		current := s.generations[slot]
		s.mu.Unlock()
		logger.Debug("discard stale probe", "slot", slot, "token", token, "current", current)
		return
	}
	diags := make([]diag.Diagnostic, 0, len(notes))
	for _, n := range notes {
		d, ok := diag.FromNotification(n, st, lines)
		if !ok {
			logger.Debug("drop unmappable notification", "slot", slot, "code", n.Code,
				"line", n.Position.Line, "column", n.Position.Column)
			continue
		}
		diags = append(diags, d)
	}
	if len(diags) > 0 {
		s.layer.AddMarkers(s.owner, diags...)
	}
	s.mu.Unlock()

	if len(diags) > 0 {
		s.notify()
	}
}

func (s *Scheduler) notify() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}
