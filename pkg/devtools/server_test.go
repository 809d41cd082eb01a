package devtools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ripple-go/ripple/pkg/reactive"
)

func newTestInspector(t *testing.T) (*reactive.Runtime, *Server, *httptest.Server) {
	t.Helper()
	rt := reactive.NewRuntime()
	insp := NewServer(rt)
	srv := httptest.NewServer(insp.Handler())
	t.Cleanup(func() {
		srv.Close()
		insp.Close()
	})
	return rt, insp, srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
	return resp
}

func TestInspectorHealthz(t *testing.T) {
	_, _, srv := newTestInspector(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestInspectorNodesSnapshot(t *testing.T) {
	rt, _, srv := newTestInspector(t)

	rt.Run(func() {
		count := reactive.NewSignal(5).WithName("count")
		doubled := reactive.NewMemo(func() int { return count.Get() * 2 }).WithName("doubled")
		_ = doubled.Get()
	})

	var nodes []reactive.NodeInfo
	resp := getJSON(t, srv.URL+"/nodes", &nodes)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}

	byName := map[string]reactive.NodeInfo{}
	for _, n := range nodes {
		byName[n.Name] = n
	}
	if n, ok := byName["count"]; !ok || n.KindName != "signal" {
		t.Fatalf("expected count to be a signal, got %+v", n)
	}
	if n, ok := byName["doubled"]; !ok || n.KindName != "memo" {
		t.Fatalf("expected doubled to be a memo, got %+v", n)
	}
}

func TestInspectorNodeByID(t *testing.T) {
	rt, _, srv := newTestInspector(t)

	var id uint64
	rt.Run(func() {
		id = reactive.NewSignal("hello").WithName("greeting").ID()
	})

	var info reactive.NodeInfo
	resp := getJSON(t, srv.URL+"/nodes/"+strconv.FormatUint(id, 10), &info)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if info.Name != "greeting" {
		t.Fatalf("expected node name greeting, got %q", info.Name)
	}

	resp = getJSON(t, srv.URL+"/nodes/999999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown node, got %d", resp.StatusCode)
	}

	resp = getJSON(t, srv.URL+"/nodes/notanumber", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad id, got %d", resp.StatusCode)
	}
}

func TestInspectorGraphEdges(t *testing.T) {
	rt, _, srv := newTestInspector(t)

	var srcID, memoID uint64
	rt.Run(func() {
		count := reactive.NewSignal(1)
		doubled := reactive.NewMemo(func() int { return count.Get() * 2 })
		_ = doubled.Get()
		srcID, memoID = count.ID(), doubled.ID()
	})

	var graph graphBody
	resp := getJSON(t, srv.URL+"/graph", &graph)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if len(graph.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(graph.Nodes))
	}
	if len(graph.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(graph.Edges))
	}
	if e := graph.Edges[0]; e.Source != srcID || e.Dependent != memoID {
		t.Fatalf("expected edge %d->%d, got %d->%d", srcID, memoID, e.Source, e.Dependent)
	}
}

func TestInspectorIndexPage(t *testing.T) {
	_, _, srv := newTestInspector(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected text/html content type, got %q", ct)
	}
}

func TestInspectorDefaultRuntime(t *testing.T) {
	insp := NewServer(nil)
	defer insp.Close()

	srv := httptest.NewServer(insp.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nodes")
	if err != nil {
		t.Fatalf("GET /nodes failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connected clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(time.Millisecond)
	}
}
