package synth

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"parsesmith/internal/extract"
	"parsesmith/internal/table"
)

// The tester interprets the stored artifact with yaegi instead of compiling
// it, so a bad candidate can never wedge the loop in a build step. The
// artifact sees only stdlib symbols plus the injected table and extract
// capabilities.

// Result is the outcome of one differential test. All failure modes —
// load errors, execution faults, panics, mismatches — surface here; the
// tester never raises to its caller.
type Result struct {
	Passed bool
	Diff   string
}

// Tester loads the stored artifact, runs it against the sample document,
// and compares the produced table with the reference table.
type Tester struct {
	store   *ArtifactStore
	schema  table.Schema
	timeout time.Duration
	logger  *zap.Logger
}

// NewTester creates a differential tester over the given store.
func NewTester(store *ArtifactStore, logger *zap.Logger) *Tester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{
		store:   store,
		schema:  StatementSchema,
		timeout: 10 * time.Second,
		logger:  logger.Named("tester"),
	}
}

// capabilitySymbols exposes the table and extract packages to interpreted
// artifacts under their canonical import paths.
func capabilitySymbols() interp.Exports {
	return interp.Exports{
		"parsesmith/internal/table/table": {
			"New":         reflect.ValueOf(table.New),
			"ReadCSV":     reflect.ValueOf(table.ReadCSV),
			"ParseDate":   reflect.ValueOf(table.ParseDate),
			"ParseNumber": reflect.ValueOf(table.ParseNumber),
			"Missing":     reflect.ValueOf(&table.Missing).Elem(),
			"Table":       reflect.ValueOf((*table.Table)(nil)),
			"Cell":        reflect.ValueOf((*table.Cell)(nil)),
		},
		"parsesmith/internal/extract/extract": {
			"Open":     reflect.ValueOf(extract.Open),
			"Document": reflect.ValueOf((*extract.Document)(nil)),
			"Page":     reflect.ValueOf((*extract.Page)(nil)),
		},
	}
}

// RunAndCompare executes the stored artifact against the sample document and
// compares its output with the reference table.
func (t *Tester) RunAndCompare(ctx context.Context, referencePath, samplePath string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Diff: fmt.Sprintf("artifact panicked: %v", r)}
		}
	}()

	src, err := t.store.Read()
	if err != nil {
		return Result{Diff: err.Error()}
	}

	fn, err := t.loadParse(src)
	if err != nil {
		return Result{Diff: err.Error()}
	}

	got, err := t.callWithTimeout(ctx, fn, samplePath)
	if err != nil {
		return Result{Diff: fmt.Sprintf("artifact execution failed: %v", err)}
	}
	if got == nil {
		return Result{Diff: "artifact returned a nil table"}
	}

	want, err := table.ReadCSV(referencePath)
	if err != nil {
		return Result{Diff: err.Error()}
	}

	gotNorm := got.Normalize(t.schema)
	wantNorm := want.Normalize(t.schema)
	t.logger.Debug("comparing tables",
		zap.String("parsed_head", gotNorm.Head(5)),
		zap.String("reference_head", wantNorm.Head(5)))

	passed, diffs := table.Compare(gotNorm, wantNorm, t.schema)
	return Result{Passed: passed, Diff: strings.Join(diffs, "\n")}
}

type parseFunc func(string) (*table.Table, error)

// loadParse evaluates the wrapped artifact in a fresh interpreter and
// resolves its Parse entry point.
func (t *Tester) loadParse(src string) (parseFunc, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}
	if err := i.Use(capabilitySymbols()); err != nil {
		return nil, fmt.Errorf("failed to load capability symbols: %w", err)
	}
	if _, err := i.Eval(wrapArtifact(src)); err != nil {
		return nil, fmt.Errorf("artifact failed to load: %w", err)
	}
	v, err := i.Eval("main.Parse")
	if err != nil {
		return nil, fmt.Errorf("Parse function not found in artifact: %w", err)
	}
	fn, ok := v.Interface().(func(string) (*table.Table, error))
	if !ok {
		return nil, fmt.Errorf("Parse has wrong signature (expected func(string) (*table.Table, error))")
	}
	return fn, nil
}

// callWithTimeout invokes the artifact's Parse under the tester's timeout.
func (t *Tester) callWithTimeout(ctx context.Context, fn parseFunc, samplePath string) (*table.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type outcome struct {
		tbl *table.Table
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		tbl, err := fn(samplePath)
		done <- outcome{tbl: tbl, err: err}
	}()

	select {
	case o := <-done:
		return o.tbl, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("artifact execution timed out: %w", ctx.Err())
	}
}
