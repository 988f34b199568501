package synth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parsesmith/internal/extract"
	"parsesmith/internal/history"
	"parsesmith/internal/llm"
)

// State names one phase of the synthesis loop.
type State int

const (
	StateGenerating State = iota
	StateValidating
	StateTesting
	StatePassed
	StateRetrying
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "generating"
	case StateValidating:
		return "validating"
	case StateTesting:
		return "testing"
	case StatePassed:
		return "passed"
	case StateRetrying:
		return "retrying"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Status is the terminal outcome of a run.
type Status int

const (
	// StatusPassed: a synthesized artifact reproduced the reference table.
	StatusPassed Status = iota
	// StatusFallbackPassed: synthesis was exhausted, the fallback passed.
	StatusFallbackPassed
	// StatusFallbackFailed: even the installed fallback failed comparison.
	StatusFallbackFailed
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFallbackPassed:
		return "fallback-passed"
	case StatusFallbackFailed:
		return "fallback-failed"
	}
	return "unknown"
}

// Completer is the completion-service contract the agent depends on.
type Completer interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

const (
	maxSynthesisAttempts = 3
	retryPause           = time.Second
	excerptPages         = 2
	excerptCSVLines      = 10
)

// Agent drives the bounded generate → validate → test → feedback loop and
// installs the fallback artifact when the budget is exhausted.
type Agent struct {
	completer Completer
	store     *ArtifactStore
	tester    *Tester
	journal   *history.Journal // optional
	logger    *zap.Logger
	model     string

	maxAttempts int
	sleep       func(time.Duration) // swapped out in tests
}

// NewAgent wires an orchestrator. The journal may be nil.
func NewAgent(completer Completer, store *ArtifactStore, tester *Tester, journal *history.Journal, model string, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		completer:   completer,
		store:       store,
		tester:      tester,
		journal:     journal,
		logger:      logger.Named("agent"),
		model:       model,
		maxAttempts: maxSynthesisAttempts,
		sleep:       time.Sleep,
	}
}

// RunResult reports the terminal state of one synthesis run.
type RunResult struct {
	RunID    string
	Status   Status
	Attempts int
	Diff     string // last comparison diff, empty on a clean pass
}

// Run executes the synthesis loop for one profile. Only two errors are fatal
// here: the completion client exhausting its rate-limit budget, and the
// sample/reference inputs being unreadable. Everything else is recovered by
// retrying and, ultimately, the fallback.
func (a *Agent) Run(ctx context.Context, samplePath, referencePath string) (*RunResult, error) {
	docExcerpt, err := documentExcerpt(samplePath, excerptPages)
	if err != nil {
		return nil, err
	}
	refExcerpt, err := referenceExcerpt(referencePath, excerptCSVLines)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	a.journalStart(runID)

	feedback := ""
	attempt := 1
	state := StateGenerating
	var sanitized string
	var lastTest Result

	for {
		switch state {
		case StateGenerating:
			a.logger.Info("synthesis attempt", zap.Int("attempt", attempt), zap.String("run_id", runID))
			raw, err := a.completer.Complete(ctx, a.model, SystemPrompt, BuildPrompt(PromptInput{
				DocumentExcerpt:  docExcerpt,
				ReferenceExcerpt: refExcerpt,
				Feedback:         feedback,
			}))
			if err != nil {
				if errors.Is(err, llm.ErrRateLimited) {
					a.journalFinish(runID, "aborted: "+err.Error())
					return nil, err
				}
				a.logger.Warn("completion failed, will retry", zap.Error(err))
				feedback = fmt.Sprintf("The previous attempt failed before any code ran: %v", err)
				a.journalAttempt(runID, attempt, false, false, feedback)
				state = StateRetrying
				continue
			}
			sanitized = Sanitize(raw)
			state = StateValidating

		case StateValidating:
			v := Validate(sanitized)
			if !v.Valid {
				a.logger.Warn("generated code syntax invalid",
					zap.Int("line", v.Line), zap.String("diagnostic", v.Diagnostic()))
				feedback = "Syntax error in generated parser code."
				a.journalAttempt(runID, attempt, false, false, v.Diagnostic())
				state = StateRetrying
				continue
			}
			if err := a.store.Write(sanitized); err != nil {
				a.logger.Warn("failed to store artifact", zap.Error(err))
				feedback = err.Error()
				a.journalAttempt(runID, attempt, true, false, feedback)
				state = StateRetrying
				continue
			}
			state = StateTesting

		case StateTesting:
			lastTest = a.tester.RunAndCompare(ctx, referencePath, samplePath)
			if lastTest.Passed {
				a.journalAttempt(runID, attempt, true, true, "")
				state = StatePassed
				continue
			}
			a.logger.Info("differential test failed", zap.String("diff", lastTest.Diff))
			feedback = lastTest.Diff
			a.journalAttempt(runID, attempt, true, false, feedback)
			state = StateRetrying

		case StateRetrying:
			if attempt >= a.maxAttempts {
				state = StateExhausted
				continue
			}
			attempt++
			a.sleep(retryPause)
			state = StateGenerating

		case StatePassed:
			a.logger.Info("parser passed the differential test", zap.Int("attempts", attempt))
			a.journalFinish(runID, StatusPassed.String())
			return &RunResult{RunID: runID, Status: StatusPassed, Attempts: attempt}, nil

		case StateExhausted:
			a.logger.Warn("synthesis exhausted, installing fallback parser", zap.Int("attempts", attempt))
			if err := a.store.Write(FallbackArtifact); err != nil {
				a.journalFinish(runID, "aborted: "+err.Error())
				return nil, fmt.Errorf("failed to install fallback artifact: %w", err)
			}
			res := a.tester.RunAndCompare(ctx, referencePath, samplePath)
			status := StatusFallbackPassed
			if !res.Passed {
				status = StatusFallbackFailed
				a.logger.Error("fallback parser failed the differential test", zap.String("diff", res.Diff))
			} else {
				a.logger.Info("fallback parser passed the differential test")
			}
			a.journalFinish(runID, status.String())
			return &RunResult{RunID: runID, Status: status, Attempts: attempt, Diff: res.Diff}, nil
		}
	}
}

// documentExcerpt extracts the text of the first maxPages pages.
func documentExcerpt(samplePath string, maxPages int) (string, error) {
	doc, err := extract.Open(samplePath)
	if err != nil {
		return "", fmt.Errorf("failed to read sample document: %w", err)
	}
	var texts []string
	for i, page := range doc.Pages {
		if i >= maxPages {
			break
		}
		if text := strings.TrimSpace(page.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n"), nil
}

// referenceExcerpt reads the first maxLines raw lines of the reference CSV.
func referenceExcerpt(referencePath string, maxLines int) (string, error) {
	f, err := os.Open(referencePath)
	if err != nil {
		return "", fmt.Errorf("failed to read reference csv: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for len(lines) < maxLines && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read reference csv: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

func (a *Agent) journalStart(runID string) {
	if a.journal == nil {
		return
	}
	if err := a.journal.StartRun(runID, a.model); err != nil {
		a.logger.Warn("failed to journal run start", zap.Error(err))
	}
}

func (a *Agent) journalAttempt(runID string, idx int, valid, passed bool, feedback string) {
	if a.journal == nil {
		return
	}
	if err := a.journal.RecordAttempt(runID, idx, valid, passed, feedback); err != nil {
		a.logger.Warn("failed to journal attempt", zap.Error(err))
	}
}

func (a *Agent) journalFinish(runID, outcome string) {
	if a.journal == nil {
		return
	}
	if err := a.journal.FinishRun(runID, outcome); err != nil {
		a.logger.Warn("failed to journal run outcome", zap.Error(err))
	}
}
