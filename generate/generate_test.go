package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/cachedprop/errors"
	cptest "github.com/teranos/cachedprop/internal/testing"
	"github.com/teranos/cachedprop/rewrite"
)

const squareSource = `//go:build cachedprop

package shapes

//cachedprop:struct {Area float64}
type Square struct {
	Side float64
}

//cachedprop:property
func (s *Square) Area() float64 { return s.Side * s.Side }
`

const brokenSource = `//go:build cachedprop

package shapes

//cachedprop:struct {Area float64}
type Celsius float64
`

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	opts := DefaultOptions()
	opts.Concurrency = 2
	return New(opts, zaptest.NewLogger(t).Sugar())
}

func TestOutputPath(t *testing.T) {
	g := New(Options{}, nil)
	assert.Equal(t, "/src/shapes/square_cachedprop.go", g.OutputPath("/src/shapes/square.go"))
	assert.Equal(t, "_cachedprop.go", g.Options().OutputSuffix)
	assert.GreaterOrEqual(t, g.Options().Concurrency, 1)
}

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)
	g := newTestGenerator(t)

	summary, err := g.Run(context.Background(), []string{input})
	require.NoError(t, err)
	require.NoError(t, summary.Err())
	require.Len(t, summary.Files, 1)

	res := summary.Files[0]
	assert.Equal(t, StatusWritten, res.Status)
	assert.Equal(t, filepath.Join(dir, "square_cachedprop.go"), res.Output)
	assert.Equal(t, res.Output, res.Report.Output)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Contains(t, string(out), "func (s *Square) PrefetchArea() float64 {")
	assert.Contains(t, string(out), "cachedProperties cachedPropertyStorageForSquare")
}

func TestRunSkipsCurrentOutputs(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)
	g := newTestGenerator(t)

	_, err := g.Run(context.Background(), []string{input})
	require.NoError(t, err)

	summary, err := g.Run(context.Background(), []string{input})
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, summary.Files[0].Status)
	assert.Equal(t, 1, summary.Count(StatusUnchanged))

	cptest.WriteFile(t, dir, "square.go", strings.Replace(squareSource, "Side float64", "Side, Unused float64", 1))
	summary, err = g.Run(context.Background(), []string{input})
	require.NoError(t, err)
	assert.Equal(t, StatusWritten, summary.Files[0].Status)
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := cptest.WriteFile(t, dir, "square.go", squareSource)
	bad := cptest.WriteFile(t, dir, "celsius.go", brokenSource)
	g := newTestGenerator(t)

	summary, err := g.Run(context.Background(), []string{bad, good})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, summary.Files[0].Status)
	assert.Equal(t, StatusWritten, summary.Files[1].Status)
	assert.Equal(t, 1, summary.Count(StatusFailed))

	assert.NoFileExists(t, filepath.Join(dir, "celsius_cachedprop.go"))
	assert.FileExists(t, filepath.Join(dir, "square_cachedprop.go"))

	require.Error(t, summary.Err())
	diags := rewrite.DiagnosticsOf(summary.Files[0].Err)
	require.Len(t, diags, 1)
	assert.True(t, errors.Is(diags[0], errors.ErrUnsupportedShape))
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGenerator(t).Run(ctx, []string{input})
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "square_cachedprop.go"))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)
	output := filepath.Join(dir, "square_cachedprop.go")
	g := newTestGenerator(t)
	ctx := context.Background()

	result, err := g.Check(ctx, []string{input})
	require.NoError(t, err)
	assert.False(t, result.UpToDate)
	require.Len(t, result.Problems, 1)
	assert.Equal(t, ProblemMissing, result.Problems[0].Kind)
	assert.NoFileExists(t, output, "check never writes")

	_, err = g.Run(ctx, []string{input})
	require.NoError(t, err)
	result, err = g.Check(ctx, []string{input})
	require.NoError(t, err)
	assert.True(t, result.UpToDate)
	assert.Equal(t, 1, result.Checked)

	generated, err := os.ReadFile(output)
	require.NoError(t, err)

	t.Run("modified output", func(t *testing.T) {
		cptest.WriteFile(t, dir, "square_cachedprop.go", string(generated)+"\nvar extra = 1\n")
		result, err := g.Check(ctx, []string{input})
		require.NoError(t, err)
		require.Len(t, result.Problems, 1)
		assert.Equal(t, ProblemModified, result.Problems[0].Kind)
	})

	t.Run("incompatible naming", func(t *testing.T) {
		cptest.WriteFile(t, dir, "square_cachedprop.go",
			strings.Replace(string(generated), "// cachedprop:naming 1.0.0", "// cachedprop:naming 2.0.0", 1))
		result, err := g.Check(ctx, []string{input})
		require.NoError(t, err)
		require.Len(t, result.Problems, 1)
		assert.Equal(t, ProblemIncompatible, result.Problems[0].Kind)
	})

	t.Run("stale output", func(t *testing.T) {
		cptest.WriteFile(t, dir, "square_cachedprop.go", string(generated))
		cptest.WriteFile(t, dir, "square.go", squareSource+"\nconst Sides = 4\n")
		result, err := g.Check(ctx, []string{input})
		require.NoError(t, err)
		require.Len(t, result.Problems, 1)
		assert.Equal(t, ProblemStale, result.Problems[0].Kind)
	})

	t.Run("failing input", func(t *testing.T) {
		bad := cptest.WriteFile(t, dir, "celsius.go", brokenSource)
		result, err := g.Check(ctx, []string{bad})
		require.NoError(t, err)
		require.Len(t, result.Problems, 1)
		assert.Equal(t, ProblemFailed, result.Problems[0].Kind)
		assert.True(t, errors.IsTransformError(result.Problems[0].Err))
	})
}

func TestResolveFiles(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)
	plain := cptest.WriteFile(t, dir, "plain.go", "package shapes\n")
	output := cptest.WriteFile(t, dir, "square_cachedprop.go", "// Code generated by cachedprop from square.go. DO NOT EDIT.\n\npackage shapes\n")
	other := cptest.WriteFile(t, dir, "other.go", "// Code generated by hand. DO NOT EDIT.\n\n//cachedprop:struct {A int}\npackage shapes\n")

	quoted := cptest.WriteFile(t, dir, "quoted.go", "package shapes\n\nconst prefix = \"//cachedprop:\"\n")

	files, err := Resolve(context.Background(), []string{plain, output, input, other, quoted, input}, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{input}, files)
}

func TestResolveMissingFile(t *testing.T) {
	_, err := Resolve(context.Background(), []string{filepath.Join(t.TempDir(), "nope.go")}, DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestResolvePackages(t *testing.T) {
	dir := t.TempDir()
	cptest.WriteFile(t, dir, "go.mod", "module example.com/shapes\n\ngo 1.24\n")
	input := cptest.WriteFile(t, dir, "square.go", squareSource)
	cptest.WriteFile(t, dir, "plain.go", "package shapes\n")
	nested := cptest.WriteFile(t, dir, "inner/inner.go", "//go:build cachedprop\n\npackage inner\n\n//cachedprop:struct {N int}\ntype T struct{}\n")

	opts := DefaultOptions()
	opts.Dir = dir
	files, err := Resolve(context.Background(), []string{"./..."}, opts, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	evalInput, _ := filepath.EvalSymlinks(input)
	evalNested, _ := filepath.EvalSymlinks(nested)
	var got []string
	for _, f := range files {
		resolved, _ := filepath.EvalSymlinks(f)
		got = append(got, resolved)
	}
	assert.ElementsMatch(t, []string{evalInput, evalNested}, got)
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)
	g := newTestGenerator(t)

	summary, err := g.Run(context.Background(), []string{input})
	require.NoError(t, err)

	path := filepath.Join(dir, "cachedprop.yaml")
	require.NoError(t, WriteManifest(path, summary))

	m, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Naming)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "square.go", m.Files[0].Input)
	assert.Equal(t, "square_cachedprop.go", m.Files[0].Output)
	require.Len(t, m.Files[0].Records, 1)
	assert.Equal(t, []string{"Area"}, m.Files[0].Records[0].Properties)
	require.Len(t, m.Files[0].Methods, 1)
	assert.Equal(t, "PrefetchArea", m.Files[0].Methods[0].Prefetch)
}

func TestWatcherRegenerates(t *testing.T) {
	dir := t.TempDir()
	g := newTestGenerator(t)

	w, err := NewWatcher(g, []string{dir}, 20*time.Millisecond, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer w.Close()

	runs := make(chan *Summary, 4)
	w.OnGenerate(func(s *Summary) { runs <- s })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	cptest.WriteFile(t, dir, "notes.txt", "ignored")
	cptest.WriteFile(t, dir, "square.go", squareSource)

	select {
	case s := <-runs:
		require.Len(t, s.Files, 1)
		assert.Equal(t, "square.go", filepath.Base(s.Files[0].Input))
		assert.Equal(t, StatusWritten, s.Files[0].Status)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not regenerate")
	}
	assert.FileExists(t, filepath.Join(dir, "square_cachedprop.go"))
}

func TestWatcherHoldsChangesDuringRun(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)

	w, err := NewWatcher(newTestGenerator(t), []string{dir}, time.Hour, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer w.Close()

	runs := 0
	w.OnGenerate(func(*Summary) { runs++ })

	w.pending[input] = true
	w.running = true
	w.flush(context.Background())
	assert.Zero(t, runs)
	assert.True(t, w.pending[input], "change stays queued while a run is in progress")
	assert.NoFileExists(t, filepath.Join(dir, "square_cachedprop.go"))

	w.running = false
	w.flush(context.Background())
	assert.Equal(t, 1, runs)
	assert.Empty(t, w.pending)
	assert.FileExists(t, filepath.Join(dir, "square_cachedprop.go"))
}

func TestWatcherCancelledFlushIsQuiet(t *testing.T) {
	dir := t.TempDir()
	input := cptest.WriteFile(t, dir, "square.go", squareSource)

	core, logs := observer.New(zap.DebugLevel)
	w, err := NewWatcher(newTestGenerator(t), []string{dir}, time.Hour, zap.New(core).Sugar())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.pending[input] = true
	w.flush(ctx)

	assert.Zero(t, logs.FilterLevelExact(zap.ErrorLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("Regeneration cancelled").Len())
	assert.NoFileExists(t, filepath.Join(dir, "square_cachedprop.go"))
}
