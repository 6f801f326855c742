// Package landing builds a personalized HTML landing page per signal by
// running a generation agent inside a remote sandbox and polling for its
// output file.
package landing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/prompts"
	"github.com/jonathan/signal-outreach/internal/sandbox"
	"github.com/jonathan/signal-outreach/internal/types"
)

// Options configures sandbox provisioning and output polling
type Options struct {
	PollInterval    time.Duration
	PollTimeout     time.Duration
	MinLength       int
	OutputPath      string
	AgentCommand    string
	AgentArgs       []string
	TeardownTimeout time.Duration
	Spec            sandbox.Spec
}

// DefaultOptions polls every 3s for up to 180s and accepts documents of at
// least 100 characters.
func DefaultOptions() Options {
	return Options{
		PollInterval:    3 * time.Second,
		PollTimeout:     180 * time.Second,
		MinLength:       100,
		OutputPath:      "/workspace/landing/index.html",
		AgentCommand:    "page-agent",
		AgentArgs:       []string{"--non-interactive", "--prompt"},
		TeardownTimeout: 30 * time.Second,
		Spec:            sandbox.DefaultSpec(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = d.PollTimeout
	}
	if o.MinLength <= 0 {
		o.MinLength = d.MinLength
	}
	if o.OutputPath == "" {
		o.OutputPath = d.OutputPath
	}
	if o.AgentCommand == "" {
		o.AgentCommand = d.AgentCommand
		o.AgentArgs = d.AgentArgs
	}
	if o.TeardownTimeout <= 0 {
		o.TeardownTimeout = d.TeardownTimeout
	}
	if o.Spec.VCPUs == 0 {
		o.Spec = d.Spec
	}
	return o
}

// Generator produces landing pages. A Generator without a provider is
// valid and always reports no page.
type Generator struct {
	provider sandbox.Provider
	opts     Options
	log      logger.Logger
}

// NewGenerator creates a generator; provider may be nil
func NewGenerator(provider sandbox.Provider, opts Options, log logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{provider: provider, opts: opts.withDefaults(), log: log}
}

// Available reports whether sandbox provisioning is configured
func (g *Generator) Available() bool {
	return g != nil && g.provider != nil
}

// Generate returns the landing page HTML for sig, or false when none could
// be produced. It never returns an error; every failure is logged and the
// sandbox is destroyed exactly once when one was created.
func (g *Generator) Generate(ctx context.Context, sig types.Signal, entities types.Entities) (html string, ok bool) {
	if !g.Available() {
		return "", false
	}
	log := g.log.With(logger.String("signal_id", sig.ID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Landing page generation panicked", logger.Any("panic", r))
			html, ok = "", false
		}
	}()

	start := time.Now()
	sbx, err := g.provider.Create(ctx, g.opts.Spec)
	if err != nil {
		log.Error("Failed to create sandbox", logger.Error(err))
		return "", false
	}
	log = log.With(logger.String("sandbox_id", sbx.ID()))
	defer g.destroy(ctx, sbx, log)

	if err := sbx.Execute(ctx, g.command(sig, entities)); err != nil {
		log.Error("Failed to dispatch landing page command", logger.Error(err))
		return "", false
	}

	raw, found := g.poll(ctx, sbx)
	if !found {
		log.Warn("Landing page not ready before timeout", logger.Duration("timeout", g.opts.PollTimeout))
		return "", false
	}

	html, ok = ExtractHTML(raw)
	if !ok {
		log.Warn("Sandbox output contains no HTML document")
		return "", false
	}
	log.Info("Landing page generated",
		logger.Int("bytes", len(html)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return html, true
}

// command builds the detached agent invocation for sig
func (g *Generator) command(sig types.Signal, entities types.Entities) sandbox.Command {
	instruction := BuildInstruction(sig, entities, g.opts.OutputPath)
	args := make([]string, 0, len(g.opts.AgentArgs)+1)
	args = append(args, g.opts.AgentArgs...)
	args = append(args, instruction)
	return sandbox.Command{
		Cmd:      g.opts.AgentCommand,
		Args:     args,
		Timeout:  g.opts.Spec.Timeout,
		Detached: true,
	}
}

// BuildInstruction renders the natural-language generation instruction
func BuildInstruction(sig types.Signal, entities types.Entities, outputPath string) string {
	company := sig.Company
	if company == "" {
		company = types.ResolveCompanyName(entities)
	}
	return prompts.Format(prompts.MustGet("landing.json", "landing-command"), map[string]string{
		"Signal":        prompts.SignalBlock(sig),
		"EntityContext": prompts.EntityContext(entities),
		"CallToAction":  prompts.CallToAction(entities),
		"Company":       company,
		"OutputPath":    outputPath,
	})
}

// poll reads the output file until it holds an HTML document or the
// ceiling elapses. A missing or unreadable file means not ready yet.
func (g *Generator) poll(ctx context.Context, sbx sandbox.Sandbox) (string, bool) {
	deadline := time.Now().Add(g.opts.PollTimeout)
	timer := time.NewTimer(g.opts.PollInterval)
	defer timer.Stop()

	for polls := 1; ; polls++ {
		data, err := sbx.ReadFile(ctx, g.opts.OutputPath)
		switch {
		case err == nil && looksLikeHTML(string(data), g.opts.MinLength):
			return string(data), true
		case err != nil && !errors.Is(err, sandbox.ErrFileNotFound) && polls%10 == 0:
			g.log.Debug("Sandbox output still unreadable",
				logger.Int("poll", polls),
				logger.String("error", err.Error()),
			)
		}

		if time.Now().Add(g.opts.PollInterval).After(deadline) {
			return "", false
		}
		timer.Reset(g.opts.PollInterval)
		select {
		case <-ctx.Done():
			return "", false
		case <-timer.C:
		}
	}
}

// destroy tears down sbx on a context detached from cancellation so
// teardown still happens when ctx is done. Errors and panics are logged.
func (g *Generator) destroy(ctx context.Context, sbx sandbox.Sandbox, log logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Sandbox teardown panicked", logger.String("panic", fmt.Sprint(r)))
		}
	}()

	teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.opts.TeardownTimeout)
	defer cancel()

	if err := sbx.Destroy(teardownCtx); err != nil {
		log.Warn("Failed to destroy sandbox", logger.Error(err))
	}
}
