// Package pipeline orchestrates signal processing: resolve signals, generate
// outreach and a landing page for each one, and persist a status-tagged
// record.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/signal-outreach/internal/fanout"
	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/outreach"
	"github.com/jonathan/signal-outreach/internal/types"
)

// MessageNoSignals is the result message when nothing could be resolved
const MessageNoSignals = "No signal data provided or retrieved"

// Enricher resolves webhook payloads into enriched signals
type Enricher interface {
	ProcessWebhook(ctx context.Context, payload []byte) []types.EnrichedSignal
}

// OutreachGenerator produces outreach copy; an error fails the signal
type OutreachGenerator interface {
	Generate(ctx context.Context, sig types.Signal, entities types.Entities) (types.Outreach, error)
}

// LandingGenerator produces a landing page or reports none
type LandingGenerator interface {
	Generate(ctx context.Context, sig types.Signal, entities types.Entities) (string, bool)
}

// SignalWriter persists stored signals and maintains the index
type SignalWriter interface {
	Save(ctx context.Context, stored types.StoredSignal) error
}

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step     string `json:"step"`
	SignalID string `json:"signal_id,omitempty"`
	Message  string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Progress steps
const (
	StepResolve  = "resolve"
	StepGenerate = "generate"
	StepStore    = "store"
)

// Input is either an inline signal or a raw webhook payload. Entities and
// Raw only apply to an inline signal. OnProgress receives this run's events
// in addition to the orchestrator-wide callback.
type Input struct {
	Signal     *types.Signal
	Entities   types.Entities
	Raw        json.RawMessage
	Webhook    json.RawMessage
	OnProgress ProgressCallback
}

// Result summarizes one run
type Result struct {
	Success  bool   `json:"success"`
	SignalID string `json:"signalId,omitempty"`
	Message  string `json:"message"`
}

// Deps are the collaborators of an Orchestrator. Enricher may be nil when
// only inline signals are processed; Landing may be nil to skip pages.
type Deps struct {
	Enricher   Enricher
	Outreach   OutreachGenerator
	Landing    LandingGenerator
	Store      SignalWriter
	Logger     logger.Logger
	Now        func() time.Time
	OnProgress ProgressCallback
}

// Orchestrator runs the signal pipeline
type Orchestrator struct {
	enricher   Enricher
	outreach   OutreachGenerator
	landing    LandingGenerator
	store      SignalWriter
	log        logger.Logger
	now        func() time.Time
	onProgress ProgressCallback

	inflight sync.WaitGroup
}

// New creates an orchestrator
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		enricher:   deps.Enricher,
		outreach:   deps.Outreach,
		landing:    deps.Landing,
		store:      deps.Store,
		log:        deps.Logger,
		now:        deps.Now,
		onProgress: deps.OnProgress,
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

type emitFunc func(step, signalID, message string)

// emitter fans events out to the orchestrator callback and the run callback.
// Callbacks may be invoked from several goroutines at once.
func (o *Orchestrator) emitter(run ProgressCallback) emitFunc {
	return func(step, signalID, message string) {
		event := ProgressEvent{Step: step, SignalID: signalID, Message: message}
		if o.onProgress != nil {
			o.onProgress(event)
		}
		if run != nil {
			run(event)
		}
	}
}

// signalOutcome is the settled state of one signal
type signalOutcome struct {
	ID        string
	Generated bool
}

// Run processes the input to completion. The returned error is non-nil only
// when an error record could not be persisted; the Result is valid either way.
func (o *Orchestrator) Run(ctx context.Context, in Input) (Result, error) {
	emit := o.emitter(in.OnProgress)

	signals := o.resolve(ctx, in)
	if len(signals) == 0 {
		emit(StepResolve, "", MessageNoSignals)
		return Result{Success: false, Message: MessageNoSignals}, nil
	}
	emit(StepResolve, "", fmt.Sprintf("Resolved %d signal(s)", len(signals)))

	outcomes := fanout.Collect(ctx, signals, func(ctx context.Context, sig types.EnrichedSignal) (signalOutcome, error) {
		return o.processSignal(ctx, sig, emit)
	})

	var (
		succeeded []string
		failed    int
		errs      []error
	)
	for _, oc := range outcomes {
		switch {
		case oc.Err != nil:
			failed++
			errs = append(errs, oc.Err)
		case oc.Value.Generated:
			succeeded = append(succeeded, oc.Value.ID)
		default:
			failed++
		}
	}

	var result Result
	if len(succeeded) > 0 {
		result = Result{
			Success:  true,
			SignalID: succeeded[0],
			Message:  fmt.Sprintf("Generated content for %d signal(s) (first: %s)", len(succeeded), succeeded[0]),
		}
	} else {
		result = Result{Success: false, Message: fmt.Sprintf("Generation failed for %d signal(s)", failed)}
	}

	o.log.Info("Pipeline run finished",
		logger.Int("signals", len(signals)),
		logger.Int("generated", len(succeeded)),
		logger.Int("failed", failed),
	)
	return result, errors.Join(errs...)
}

// RunAsync starts a run detached from ctx cancellation and returns a channel
// that receives the result once the run completes.
func (o *Orchestrator) RunAsync(ctx context.Context, in Input) <-chan Result {
	done := make(chan Result, 1)
	detached := context.WithoutCancel(ctx)

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		defer close(done)

		result, err := o.Run(detached, in)
		if err != nil {
			o.log.Error("Background pipeline run failed to persist results", logger.Error(err))
		}
		o.log.Info("Background pipeline run completed",
			logger.Bool("success", result.Success),
			logger.String("message", result.Message),
		)
		done <- result
	}()
	return done
}

// Wait blocks until every background run has finished
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

func (o *Orchestrator) resolve(ctx context.Context, in Input) []types.EnrichedSignal {
	if in.Signal != nil {
		return []types.EnrichedSignal{{
			Signal:   in.Signal.Normalize(),
			Entities: in.Entities,
			Raw:      types.CompactRaw(in.Raw),
		}}
	}
	if len(in.Webhook) > 0 && o.enricher != nil {
		return o.enricher.ProcessWebhook(ctx, in.Webhook)
	}
	return nil
}

// processSignal generates and stores one signal. A generation or store
// failure becomes an error record; only a failed error-record write is
// returned as an error.
func (o *Orchestrator) processSignal(ctx context.Context, sig types.EnrichedSignal, emit emitFunc) (signalOutcome, error) {
	id := sig.Signal.ID
	log := o.log.With(logger.String("signal_id", id))
	emit(StepGenerate, id, "Generating outreach and landing page")

	bundle, html, err := o.generate(ctx, sig)
	if err == nil {
		stored := types.NewGeneratedSignal(sig, bundle, html, o.now())
		if err = o.store.Save(ctx, stored); err == nil {
			log.Info("Signal generated", logger.Bool("landing_page", html != ""))
			emit(StepStore, id, "Stored generated signal")
			return signalOutcome{ID: id, Generated: true}, nil
		}
		err = fmt.Errorf("failed to store generated signal: %w", err)
	}

	log.Error("Signal processing failed", logger.Error(err))
	if saveErr := o.store.Save(ctx, types.NewErrorSignal(sig, recordMessage(err), o.now())); saveErr != nil {
		return signalOutcome{ID: id}, fmt.Errorf("failed to store error record for signal %s: %w", id, saveErr)
	}
	emit(StepStore, id, "Stored error record")
	return signalOutcome{ID: id}, nil
}

// recordMessage is the text stored on an error record. Generation failures
// record the completion call's own message; other errors their full text.
func recordMessage(err error) string {
	var genErr *outreach.GenerationError
	if errors.As(err, &genErr) && genErr.Reason != "" {
		return genErr.Reason
	}
	return err.Error()
}

// generate runs outreach and landing generation concurrently. An outreach
// failure cancels the landing page; a landing failure only drops the page.
func (o *Orchestrator) generate(ctx context.Context, sig types.EnrichedSignal) (types.Outreach, string, error) {
	var (
		bundle types.Outreach
		html   string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("outreach generation panicked: %v", r)
			}
		}()
		bundle, err = o.outreach.Generate(gctx, sig.Signal, sig.Entities)
		return err
	})
	if o.landing != nil {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					o.log.Error("Landing page generation panicked",
						logger.String("signal_id", sig.Signal.ID),
						logger.Any("panic", r),
					)
					html = ""
				}
			}()
			if page, ok := o.landing.Generate(gctx, sig.Signal, sig.Entities); ok {
				html = page
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return types.Outreach{}, "", err
	}
	return bundle, html, nil
}
