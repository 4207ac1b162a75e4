// Package scanner drives incremental price annotation over a mutating
// document. It registers with an injected change notifier, queues and
// debounces incoming batches, bounds the pending set under bursty input, and
// runs extraction → conversion → annotation for each candidate node.
//
// The original design is single-threaded and cooperative; in Go the notifier
// callback and the debounce timer may run on different goroutines, so one
// mutex serializes all state access. Processing passes remain strictly
// sequential: the isProcessing gate keeps a firing timer from starting a
// second pass while one is in flight. Embedders that mutate the observed
// document from their own goroutines serialize those mutations against
// passes with Sync.
package scanner

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/workprice/workprice/models"
	"github.com/workprice/workprice/pkg/annotate"
	"github.com/workprice/workprice/pkg/convert"
	"github.com/workprice/workprice/pkg/extract"
)

const (
	// DefaultDebounce coalesces rapid mutation batches into one pass.
	DefaultDebounce = 200 * time.Millisecond
	// DefaultMaxPendingNodes bounds the combined pending queues; admissions
	// beyond it are dropped for the batch (mutation storms, infinite scroll).
	DefaultMaxPendingNodes = 2000
)

// Callback receives one successful extraction+conversion. It owns insertion,
// marking and styling; its return value (none) is ignored by design.
type Callback func(originalText string, breakdown models.TimeBreakdown, node *html.Node)

// Options tunes one scanner instance.
type Options struct {
	Debounce        time.Duration
	MaxPendingNodes int
	// ScanExisting seeds the observation target itself into the first
	// pass, so content present before Start is annotated too.
	ScanExisting bool
}

// Stats counts scanner activity since Start.
type Stats struct {
	Passes    int
	Admitted  int
	Annotated int
	Dropped   int
	Failures  int
}

// Scanner is the incremental change-processing engine. One instance observes
// one target; it exclusively owns its pending queues.
type Scanner struct {
	logger    *slog.Logger
	notifier  Notifier
	extractor *extract.Extractor
	converter *convert.Converter
	callback  Callback

	debounce   time.Duration
	maxPending int
	scanSeed   bool

	// docMu serializes processing passes against external document
	// mutations routed through Sync. Held for the whole of a pass.
	docMu sync.Mutex

	mu          sync.Mutex
	running     bool
	processing  bool
	handle      Handle
	timer       *time.Timer
	pendingElem []*html.Node
	elemSet     map[*html.Node]struct{}
	pendingText []*html.Node
	textSet     map[*html.Node]struct{}
	stats       Stats
}

func New(notifier Notifier, extractor *extract.Extractor, converter *convert.Converter, callback Callback, options Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if options.MaxPendingNodes <= 0 {
		options.MaxPendingNodes = DefaultMaxPendingNodes
	}
	return &Scanner{
		logger:     logger,
		notifier:   notifier,
		extractor:  extractor,
		converter:  converter,
		callback:   callback,
		debounce:   options.Debounce,
		maxPending: options.MaxPendingNodes,
		scanSeed:   options.ScanExisting,
		elemSet:    make(map[*html.Node]struct{}),
		textSet:    make(map[*html.Node]struct{}),
	}
}

// Start registers with the notifier and begins observing target. A
// registration failure is propagated and leaves the scanner stopped.
func (s *Scanner) Start(target *html.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scanner is already observing")
	}

	handle, err := s.notifier.Register(target, ObserveOptions{
		Subtree:       true,
		CharacterData: true,
	}, s.onBatch)
	if err != nil {
		return fmt.Errorf("failed to register with change notifier: %w", err)
	}

	s.handle = handle
	s.running = true
	s.stats = Stats{}

	if s.scanSeed && target != nil {
		s.admitElementLocked(target)
		s.armTimerLocked()
	}

	s.logger.Debug("scanner observing",
		"debounce", s.debounce,
		"max_pending_nodes", s.maxPending,
	)
	return nil
}

// Stop unregisters, clears both queues and cancels any armed timer so
// detached subtrees are not retained. Stopping an already-stopped scanner is
// a no-op signalled by the false return, not an error. An in-flight pass is
// not interrupted; passes are bounded and synchronous.
func (s *Scanner) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	if err := s.notifier.Unregister(s.handle); err != nil {
		s.logger.Warn("failed to unregister from change notifier", "error", err)
	}
	s.running = false
	s.processing = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.clearQueuesLocked()

	s.logger.Debug("scanner stopped")
	return true
}

// Stats returns a snapshot of the activity counters.
func (s *Scanner) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Sync runs fn while no processing pass is in flight. The scanner walks and
// annotates the observed tree on its own timer goroutine, so embedders that
// mutate the document from another goroutine wrap each mutation in Sync.
// The annotation callback already runs inside a pass and must not call Sync.
func (s *Scanner) Sync(fn func()) {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	fn()
}

// PendingNodes reports the combined pending queue size.
func (s *Scanner) PendingNodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingElem) + len(s.pendingText)
}

// onBatch classifies one mutation batch and admits candidates, bounded by
// MaxPendingNodes. Overflow drops the remainder of the batch with a warning
// but still refreshes the debounce timer; the mutation stream itself is
// never paused.
func (s *Scanner) onBatch(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	dropped := 0
	for _, record := range records {
		switch record.Type {
		case RecordNodeAdded:
			for _, added := range record.Added {
				if !s.admissible(added) {
					continue
				}
				if s.queueFullLocked() {
					dropped++
					continue
				}
				s.admitNodeLocked(added)
			}
		case RecordTextChanged:
			if !s.admissible(record.Target) {
				continue
			}
			if s.queueFullLocked() {
				dropped++
				continue
			}
			s.admitTextLocked(record.Target)
		}
	}

	if dropped > 0 {
		s.stats.Dropped += dropped
		s.logger.Warn("pending queue full, dropping nodes from batch",
			"dropped", dropped,
			"max_pending_nodes", s.maxPending,
		)
	}

	s.armTimerLocked()
}

// admissible filters batch entries: only element and text nodes qualify, and
// nothing inside an annotated region is ever re-admitted.
func (s *Scanner) admissible(n *html.Node) bool {
	if n == nil {
		return false
	}
	if n.Type != html.ElementNode && n.Type != html.TextNode {
		return false
	}
	return !annotate.InsideMarked(n)
}

func (s *Scanner) queueFullLocked() bool {
	return len(s.pendingElem)+len(s.pendingText) >= s.maxPending
}

func (s *Scanner) admitNodeLocked(n *html.Node) {
	if n.Type == html.TextNode {
		s.admitTextLocked(n)
		return
	}
	s.admitElementLocked(n)
}

func (s *Scanner) admitElementLocked(el *html.Node) {
	if _, ok := s.elemSet[el]; ok {
		return
	}
	s.elemSet[el] = struct{}{}
	s.pendingElem = append(s.pendingElem, el)
	s.stats.Admitted++
}

func (s *Scanner) admitTextLocked(text *html.Node) {
	if _, ok := s.textSet[text]; ok {
		return
	}
	s.textSet[text] = struct{}{}
	s.pendingText = append(s.pendingText, text)
	s.stats.Admitted++
}

func (s *Scanner) clearQueuesLocked() {
	s.pendingElem = nil
	s.pendingText = nil
	s.elemSet = make(map[*html.Node]struct{})
	s.textSet = make(map[*html.Node]struct{})
}

func (s *Scanner) armTimerLocked() {
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flush)
		return
	}
	s.timer.Reset(s.debounce)
}

// flush drains both queues into one processing pass. The queues are cleared
// before any extraction runs, so extraction side effects that trigger
// further mutations populate a fresh round for the next cycle rather than
// mutating the pass in progress.
func (s *Scanner) flush() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	if s.processing {
		// A pass is in flight; try again after another interval.
		s.armTimerLocked()
		s.mu.Unlock()
		return
	}
	if len(s.pendingElem)+len(s.pendingText) == 0 {
		// A batch re-armed the timer after an earlier flush had already
		// drained everything; firing with empty queues is not a pass.
		s.timer = nil
		s.mu.Unlock()
		return
	}

	elements := s.pendingElem
	texts := s.pendingText
	s.clearQueuesLocked()
	s.timer = nil
	s.processing = true
	s.mu.Unlock()

	annotated, failures := s.process(elements, texts)

	s.mu.Lock()
	s.processing = false
	s.stats.Passes++
	s.stats.Annotated += annotated
	s.stats.Failures += failures
	if s.running && len(s.pendingElem)+len(s.pendingText) > 0 {
		s.armTimerLocked()
	}
	s.mu.Unlock()
}

// process runs one synchronous pass in queue-insertion order: elements
// first, then text nodes. The document lock is held throughout so external
// mutations routed through Sync never interleave with the walk.
func (s *Scanner) process(elements, texts []*html.Node) (annotated, failures int) {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	for _, el := range elements {
		if annotate.InsideMarked(el) {
			continue
		}
		s.extractor.Walk(el, annotate.HasMarker, func(token *models.PriceToken) {
			if s.handleToken(token) {
				annotated++
			} else {
				failures++
			}
		})
	}

	for _, text := range texts {
		if annotate.InsideMarked(text) {
			continue
		}
		token, ok := s.extractor.Extract(text)
		if !ok {
			continue
		}
		if s.handleToken(token) {
			annotated++
		} else {
			failures++
		}
	}
	return annotated, failures
}

// handleToken converts one token and invokes the annotation callback. Every
// per-node failure is contained here: a conversion error or a panicking
// callback means "no annotation for this node", never an aborted pass.
func (s *Scanner) handleToken(token *models.PriceToken) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("annotation callback panicked", "panic", r, "price", token.RawText)
			ok = false
		}
	}()

	breakdown, err := s.converter.Convert(token.Value, token.CurrencyUnit)
	if err != nil {
		s.logger.Debug("conversion failed",
			"price", token.RawText,
			"strategy", token.StrategyUsed,
			"error", err,
		)
		return false
	}

	s.callback(token.RawText, breakdown, token.SourceNode)
	return true
}
