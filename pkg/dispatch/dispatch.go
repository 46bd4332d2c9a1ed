// Package dispatch implements the request dispatcher: the component that
// pulls index/x/y/z/no/fmt out of a parsed httpserver.Request, runs the
// kNN query (through the query cache) and formats the response. Grounded
// on original_source's Work::run, which the spec names as the model for
// this "param extraction, lookup, GetNN, format" pipeline, including its
// policy of collapsing every failure mode into a 404.
package dispatch

import (
	"errors"
	"strconv"
	"time"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/dispatch/format"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/geo"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/httpserver"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/indexstats"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/observability"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/querycache"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/registry"
)

// ErrRequest is the sentinel wrapped by every malformed- or
// unservable-request condition: a missing/unparseable parameter, an
// unknown index, or an index looked up before the registry is frozen.
// Every ErrRequest maps to a 404 response, per spec.md §7.
var ErrRequest = errors.New("dispatch: bad request")

const defaultNo = 1

// Dispatcher wires the registry, query cache, usage tracker and metrics
// together behind one Handle entry point suitable for connserver.Handler.
type Dispatcher struct {
	reg    *registry.Registry
	cache  *querycache.LRUCache
	stats  *indexstats.Tracker
	metric *observability.Metrics
	log    *observability.Logger
}

// New returns a Dispatcher. cache may be nil to disable query caching.
func New(reg *registry.Registry, cache *querycache.LRUCache, stats *indexstats.Tracker, metric *observability.Metrics, log *observability.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, cache: cache, stats: stats, metric: metric, log: log}
}

// Handle implements connserver.Handler.
func (d *Dispatcher) Handle(req *httpserver.Request) *httpserver.Response {
	start := time.Now()
	resp, index, resultSize := d.handle(req)
	if index != "" {
		d.metric.RecordQuery(index, time.Since(start).Seconds(), resultSize)
	}
	return resp
}

func (d *Dispatcher) handle(req *httpserver.Request) (*httpserver.Response, string, int) {
	index, ok := req.Param("index")
	if !ok || index == "" {
		d.reject("missing_param")
		return httpserver.NotFound(), "", 0
	}

	xStr, ok := req.Param("x")
	if !ok {
		d.reject("missing_param")
		return httpserver.NotFound(), "", 0
	}
	x, err := parseCoord(xStr)
	if err != nil {
		d.reject("bad_param")
		return httpserver.NotFound(), "", 0
	}

	yStr, ok := req.Param("y")
	if !ok {
		d.reject("missing_param")
		return httpserver.NotFound(), "", 0
	}
	y, err := parseCoord(yStr)
	if err != nil {
		d.reject("bad_param")
		return httpserver.NotFound(), "", 0
	}

	var z geo.Coord
	is3D := false
	if zStr, ok := req.Param("z"); ok {
		z, err = parseCoord(zStr)
		if err != nil {
			d.reject("bad_param")
			return httpserver.NotFound(), "", 0
		}
		is3D = true
	}

	no := defaultNo
	if noStr, ok := req.Param("no"); ok {
		if n, err := strconv.Atoi(noStr); err == nil && n > 0 {
			no = n
		}
	}

	eps := 0.0
	if epsStr, ok := req.Param("eps"); ok {
		if e, err := strconv.ParseFloat(epsStr, 64); err == nil && e > 0 {
			eps = e
		}
	}

	fmtName, _ := req.Param("fmt")

	var results []geo.Result
	if is3D {
		pd, err := d.reg.Get3D(index)
		if err != nil {
			d.reject(reasonFor(err))
			return httpserver.NotFound(), "", 0
		}
		results, err = d.queryWithCache3D(index, pd, geo.Point3{x, y, z}, no, eps)
		if err != nil {
			d.reject("index_state")
			return httpserver.NotFound(), "", 0
		}
	} else {
		pd, err := d.reg.Get2D(index)
		if err != nil {
			d.reject(reasonFor(err))
			return httpserver.NotFound(), "", 0
		}
		results, err = d.queryWithCache2D(index, pd, geo.Point2{x, y}, no, eps)
		if err != nil {
			d.reject("index_state")
			return httpserver.NotFound(), "", 0
		}
	}

	body, contentType, err := format.Render(fmtName, results)
	if err != nil {
		d.reject("bad_format")
		return httpserver.NotFound(), "", 0
	}

	d.stats.RecordQuery(index)
	return httpserver.NewResponse(contentType, body), index, len(results)
}

// queryWithCache2D serves an exact (eps<=0) query through the query
// cache; an eps-relaxed query always bypasses it, since an approximate
// answer cached under the same key as an exact one would silently
// degrade later exact lookups.
func (d *Dispatcher) queryWithCache2D(index string, pd *geo.PointData[geo.Point2], q geo.Point2, no int, eps float64) ([]geo.Result, error) {
	if d.cache == nil || eps > 0 {
		return pd.GetNNApprox(q, no, eps)
	}
	key := querycache.GenerateKey(index, int64(q[0]), int64(q[1]), 0, false, no)
	if cached, ok := d.cache.Get(key); ok {
		d.metric.RecordCacheHit()
		return cached, nil
	}
	d.metric.RecordCacheMiss()
	results, err := pd.GetNN(q, no)
	if err != nil {
		return nil, err
	}
	d.cache.Put(key, results)
	return results, nil
}

func (d *Dispatcher) queryWithCache3D(index string, pd *geo.PointData[geo.Point3], q geo.Point3, no int, eps float64) ([]geo.Result, error) {
	if d.cache == nil || eps > 0 {
		return pd.GetNNApprox(q, no, eps)
	}
	key := querycache.GenerateKey(index, int64(q[0]), int64(q[1]), int64(q[2]), true, no)
	if cached, ok := d.cache.Get(key); ok {
		d.metric.RecordCacheHit()
		return cached, nil
	}
	d.metric.RecordCacheMiss()
	results, err := pd.GetNN(q, no)
	if err != nil {
		return nil, err
	}
	d.cache.Put(key, results)
	return results, nil
}

func (d *Dispatcher) reject(reason string) {
	d.metric.RecordQueryError(reason)
	d.log.Debugf("%s: %s", ErrRequest, reason)
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, registry.ErrUnknownIndex):
		return "unknown_index"
	case errors.Is(err, registry.ErrNotFrozen):
		return "not_ready"
	default:
		return "unknown"
	}
}

func parseCoord(s string) (geo.Coord, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return geo.Coord(v), nil
}
