// Package driver runs a documentation check over a set of source units:
// units are loaded sequentially, checked in parallel and their violations
// merged into one sorted report.
package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"doccheck/internal/diag"
	"doccheck/internal/extract"
	"doccheck/internal/links"
	"doccheck/internal/observ"
	"doccheck/internal/rules"
	"doccheck/internal/source"
	"doccheck/internal/trace"
)

// Options configures a run.
type Options struct {
	Jobs           int // parallel workers; <= 0 means GOMAXPROCS
	MaxDiagnostics int // per unit and for the merged report; <= 0 means unlimited
	BaseDir        string
	Languages      source.LanguageMap
	Exclude        []string // doublestar patterns for walked paths, relative to ExcludeRoot
	ExcludeRoot    string   // defaults to BaseDir
	Rules          rules.Options
	Links          links.Options
	Annotations    rules.Annotations
	Engine         *rules.Engine // nil means the default rule set

	Cache        *DiskCache // optional
	ConfigDigest string     // identifies the configuration in cache keys

	Events   EventSink
	Timer    *observ.Timer
	Counters *observ.Counters
}

// UnitResult is the outcome of checking one unit.
type UnitResult struct {
	Path     string
	FileID   source.FileID
	Entities int
	Bag      *diag.Bag
	Cached   bool
}

// Result holds everything a report needs.
type Result struct {
	FileSet *source.FileSet
	Units   []UnitResult
	Bag     *diag.Bag // merged, sorted and deduplicated
}

// CheckPaths checks every source unit named by paths. Directories are walked
// recursively. A unit that cannot be read becomes an IOLoadFile violation;
// the returned error is reserved for failures of the run itself, such as a
// cancelled context.
func CheckPaths(ctx context.Context, paths []string, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	loadSpan := trace.Begin(tracer, trace.ScopePhase, "load", trace.CurrentSpan(ctx))
	loadPhase := opts.Timer.Begin("load")

	langs := opts.Languages
	if langs == nil {
		langs = source.DefaultLanguageMap()
	}
	skip := excluder{root: opts.ExcludeRoot, patterns: opts.Exclude}
	if skip.root == "" {
		skip.root = opts.BaseDir
	}
	if abs, err := filepath.Abs(skip.root); err == nil {
		skip.root = abs
	}
	files, err := collectUnits(ctx, paths, langs, skip)
	if err != nil {
		opts.Timer.End(loadPhase, "")
		loadSpan.End(err.Error())
		return nil, err
	}

	fs := source.NewFileSetWithBase(opts.BaseDir)
	fs.SetLanguages(langs)
	ids := make([]source.FileID, 0, len(files))
	loadErrs := make(map[source.FileID]error)
	for _, path := range files {
		id, err := fs.Load(path)
		if err != nil {
			id = fs.Add(path, nil, source.FileLoadFailed)
			loadErrs[id] = err
		}
		ids = append(ids, id)
	}
	opts.Timer.End(loadPhase, strconv.Itoa(len(ids))+" units")
	loadSpan.WithExtra("units", strconv.Itoa(len(ids))).End("")
	opts.Events.emit(Event{Kind: EventLoaded, Total: len(ids)})

	return check(ctx, fs, ids, loadErrs, opts)
}

// CheckFileSet checks units that are already in fs, e.g. virtual units.
func CheckFileSet(ctx context.Context, fs *source.FileSet, ids []source.FileID, opts Options) (*Result, error) {
	opts.Events.emit(Event{Kind: EventLoaded, Total: len(ids)})
	return check(ctx, fs, ids, nil, opts)
}

func check(ctx context.Context, fs *source.FileSet, ids []source.FileID, loadErrs map[source.FileID]error, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	checkSpan := trace.Begin(tracer, trace.ScopePhase, "check", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, checkSpan)
	checkPhase := opts.Timer.Begin("check")

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	engine := opts.Engine
	if engine == nil {
		engine = rules.NewEngine()
	}

	// each worker writes only its own slot
	results := make([]UnitResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(jobs, len(ids)), 1))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file := fs.Get(id)
			opts.Events.emit(Event{Kind: EventUnitStarted, Path: file.Path, Total: len(ids)})

			var res UnitResult
			if loadErr, failed := loadErrs[id]; failed {
				res = loadFailure(file, loadErr, opts)
			} else {
				res = checkUnit(gctx, file, engine, opts)
			}
			results[i] = res

			if opts.Counters != nil {
				opts.Counters.Units.Add(1)
				opts.Counters.Entities.Add(int64(res.Entities))
				opts.Counters.Violations.Add(int64(res.Bag.Len()))
			}
			opts.Events.emit(Event{Kind: EventUnitDone, Path: file.Path, Total: len(ids), Violations: res.Bag.Len(), Cached: res.Cached})
			return nil
		})
	}
	err := g.Wait()

	merged := diag.NewBag(0)
	for _, res := range results {
		if res.Bag != nil {
			merged.Merge(res.Bag)
		}
	}
	merged.Sort(fs)
	merged.Dedup()
	if opts.MaxDiagnostics > 0 && merged.Len() > opts.MaxDiagnostics {
		n := 0
		merged.Filter(func(diag.Diagnostic) bool {
			n++
			return n <= opts.MaxDiagnostics
		})
	}

	opts.Timer.End(checkPhase, strconv.Itoa(merged.Len())+" violations")
	checkSpan.WithExtra("violations", strconv.Itoa(merged.Len())).End("")
	opts.Events.emit(Event{Kind: EventDone, Total: len(ids), Violations: merged.Len(), Err: err})

	result := &Result{FileSet: fs, Units: results, Bag: merged}
	if err != nil {
		return result, fmt.Errorf("check interrupted: %w", err)
	}
	return result, nil
}

func loadFailure(file *source.File, err error, opts Options) UnitResult {
	if opts.Counters != nil {
		opts.Counters.LoadErrors.Add(1)
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFile,
		source.Span{File: file.ID},
		fmt.Sprintf("source unit could not be read: %v", err)).Emit()
	return UnitResult{Path: file.Path, FileID: file.ID, Bag: bag}
}

// checkUnit extracts the entities of file and runs the rules and the link
// analyzer over them. Results come from opts.Cache when possible.
func checkUnit(ctx context.Context, file *source.File, engine *rules.Engine, opts Options) UnitResult {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeUnit, "unit:"+file.Path, trace.CurrentSpan(ctx))

	res := UnitResult{Path: file.Path, FileID: file.ID, Bag: diag.NewBag(opts.MaxDiagnostics)}

	var key Digest
	if opts.Cache != nil {
		key = unitKey(file, opts.ConfigDigest)
		var payload DiskPayload
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
			fromDiskPayload(&payload, file.ID, res.Bag)
			res.Entities = payload.Entities
			res.Cached = true
			if opts.Counters != nil {
				opts.Counters.CacheHits.Add(1)
			}
			span.WithExtra("cached", "true").End("")
			return res
		}
		if opts.Counters != nil {
			opts.Counters.CacheMiss.Add(1)
		}
	}

	r := diag.BagReporter{Bag: res.Bag}
	entities := extract.Collect(file, r)
	res.Entities = len(entities)
	if tracer.Level().ShouldEmit(trace.ScopeEntity) {
		for _, e := range entities {
			trace.Point(tracer, trace.ScopeEntity, "entity:"+e.FullName(), e.Kind.String(), span.ID())
		}
	}

	engine.Check(&rules.Context{File: file, Options: opts.Rules, Annotations: opts.Annotations}, entities, r)
	links.Analyze(entities, opts.Links, r)

	if opts.Cache != nil {
		// a failed write only costs the next run a recheck
		if err := opts.Cache.Put(key, toDiskPayload(res.Entities, res.Bag.Items())); err != nil {
			trace.Point(tracer, trace.ScopeUnit, "cache-put", err.Error(), span.ID())
		}
	}

	span.WithExtra("entities", strconv.Itoa(res.Entities)).
		WithExtra("violations", strconv.Itoa(res.Bag.Len())).
		End("")
	return res
}
