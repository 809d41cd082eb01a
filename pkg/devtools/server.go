package devtools

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// Server is the runtime inspector: a read-only HTTP surface over one
// runtime's registry plus a live WebSocket event stream.
//
// Routes:
//   - GET / serves a minimal HTML inspector page
//   - GET /healthz is the liveness check
//   - GET /nodes returns a JSON snapshot of all live nodes
//   - GET /nodes/{id} returns one node, 404 when absent
//   - GET /graph returns nodes plus dependency edges
//   - GET /events is the WebSocket stream of StreamEvent frames
//
// Mount it wherever convenient:
//
//	insp := devtools.NewServer(rt)
//	defer insp.Close()
//	go http.ListenAndServe("localhost:6390", insp.Handler())
type Server struct {
	rt  *reactive.Runtime
	hub *Hub
}

// NewServer attaches an event hub to the runtime and returns the inspector.
// Pass nil to inspect the default runtime.
func NewServer(rt *reactive.Runtime) *Server {
	if rt == nil {
		rt = reactive.Default()
	}
	s := &Server{rt: rt, hub: NewHub()}
	rt.Observe(s.hub)
	return s
}

// Hub returns the event hub, for tests and custom broadcasts.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the inspector's router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/nodes", s.handleNodes)
	r.Get("/nodes/{id}", s.handleNode)
	r.Get("/graph", s.handleGraph)
	r.Get("/events", s.hub.HandleWebSocket)

	return r
}

// Close detaches the hub from the runtime and disconnects all clients.
func (s *Server) Close() {
	s.rt.Unobserve(s.hub)
	s.hub.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Nodes())
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid node id"})
		return
	}
	info, ok := s.rt.Node(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "node not found"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// graphBody is the /graph response.
type graphBody struct {
	Nodes []reactive.NodeInfo `json:"nodes"`
	Edges []reactive.Edge     `json:"edges"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, graphBody{
		Nodes: s.rt.Nodes(),
		Edges: s.rt.Edges(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(inspectorPage))
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

// inspectorPage is a dependency-free inspector UI served at the root. It
// polls /nodes and tails /events over WebSocket.
const inspectorPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Ripple Inspector</title>
<style>
body { font-family: monospace; font-size: 13px; margin: 20px; background: #111; color: #ddd; }
h1 { font-size: 16px; color: #7fd7ff; }
table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
th, td { text-align: left; padding: 4px 10px; border-bottom: 1px solid #333; }
th { color: #888; }
.err { color: #ff5555; }
#log { background: #1a1a1a; padding: 10px; border-radius: 6px; height: 260px; overflow: auto; white-space: pre; }
</style>
</head>
<body>
<h1>Ripple Inspector</h1>
<table>
<thead><tr><th>ID</th><th>Name</th><th>Kind</th><th>Status</th><th>Value</th><th>Deps</th><th>Subs</th></tr></thead>
<tbody id="nodes"></tbody>
</table>
<div id="log"></div>
<script>
(function() {
    'use strict';

    function refreshNodes() {
        fetch('nodes').then(function(r) { return r.json(); }).then(function(nodes) {
            var tbody = document.getElementById('nodes');
            tbody.innerHTML = '';
            (nodes || []).forEach(function(n) {
                var tr = document.createElement('tr');
                [n.id, n.name || '', n.kind, n.status,
                 n.hasError ? 'error' : JSON.stringify(n.value),
                 n.deps, n.subs].forEach(function(cell) {
                    var td = document.createElement('td');
                    td.textContent = String(cell);
                    tr.appendChild(td);
                });
                if (n.hasError) { tr.className = 'err'; }
                tbody.appendChild(tr);
            });
        });
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var base = location.pathname.replace(/\/$/, '');
        var ws = new WebSocket(protocol + '//' + location.host + base + '/events');

        ws.onmessage = function(e) {
            var log = document.getElementById('log');
            log.textContent += e.data + '\n';
            log.scrollTop = log.scrollHeight;
            refreshNodes();
        };

        ws.onclose = function() {
            setTimeout(connect, 1000);
        };
    }

    refreshNodes();
    connect();
})();
</script>
</body>
</html>
`
