package dispatch

import (
	"net/url"
	"strings"
	"testing"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/geo"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/httpserver"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/indexstats"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/observability"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/querycache"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/registry"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	reg := registry.New()
	pd, err := reg.Declare2D("places")
	if err != nil {
		t.Fatalf("Declare2D: %v", err)
	}
	if err := pd.Add(geo.Point2{0, 0}, geo.Attributes{"gid": "0", "name": "origin"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := pd.Add(geo.Point2{10, 10}, geo.Attributes{"gid": "1", "name": "far"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := reg.Declare3D("places3"); err != nil {
		t.Fatalf("Declare3D: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	return New(reg, querycache.New(16, 0), indexstats.New(), observability.NewMetrics(), observability.NewDefaultLogger())
}

func request(query string) *httpserver.Request {
	v, _ := url.ParseQuery(query)
	return &httpserver.Request{
		Method:  "GET",
		Path:    []string{"query"},
		Query:   v,
		Headers: map[string]string{},
	}
}

func TestDispatchBasicQuery(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(request("index=places&x=1&y=1&no=2"))
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if !strings.Contains(string(resp.Body), `"gid":"0"`) {
		t.Fatalf("expected nearest point first: %s", resp.Body)
	}
}

func TestDispatchCSVFormat(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(request("index=places&x=0&y=0&no=1&fmt=csv"))
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if resp.Header["Content-Type"] != "text/csv" {
		t.Fatalf("expected text/csv, got %v", resp.Header)
	}
}

func TestDispatchMissingParam(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(request("index=places&x=1"))
	if resp.Status != 404 {
		t.Fatalf("expected 404 for missing y, got %d", resp.Status)
	}
}

func TestDispatchUnknownIndex(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(request("index=ghost&x=1&y=1"))
	if resp.Status != 404 {
		t.Fatalf("expected 404 for unknown index, got %d", resp.Status)
	}
}

func TestDispatchBadCoord(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(request("index=places&x=abc&y=1"))
	if resp.Status != 404 {
		t.Fatalf("expected 404 for bad coordinate, got %d", resp.Status)
	}
}

func TestDispatch3DSelectsByZPresence(t *testing.T) {
	d := newTestDispatcher(t)
	// places3 is declared but empty; the z parameter routes the query to
	// it, and since Freeze sealed it, GetNN returns a valid-but-empty
	// result set rather than an error.
	resp := d.Handle(request("index=places3&x=1&y=1&z=1"))
	if resp.Status != 200 {
		t.Fatalf("expected 200 for empty 3D index, got %d", resp.Status)
	}
	if strings.TrimSpace(string(resp.Body)) != `{"result":[]}` {
		t.Fatalf("expected empty result envelope, got %s", resp.Body)
	}
}

func TestDispatchEpsParamIsAccepted(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(request("index=places&x=0&y=0&no=2&eps=0.5"))
	if resp.Status != 200 {
		t.Fatalf("expected 200 for eps-relaxed query, got %d", resp.Status)
	}
	if !strings.Contains(string(resp.Body), `"gid":"0"`) {
		t.Fatalf("expected nearest point still present under relaxation: %s", resp.Body)
	}
}

func TestDispatchDefaultsNoTo1(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(request("index=places&x=0&y=0"))
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if strings.Count(string(resp.Body), `"id"`) != 1 {
		t.Fatalf("expected exactly one result by default, got %s", resp.Body)
	}
}
