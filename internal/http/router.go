package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router standard library http.ServeMux; the API surface is small enough
// that a third-party router buys nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// pathParam the single path segment after prefix, "" when there is none or
// the path nests deeper.
func pathParam(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

// RegisterSubscriptionRoutes subscription list, manual create, feed upload
// and Excel I/O.
func (r *Router) RegisterSubscriptionRoutes(h *SubscriptionHandler) {
	r.Handle("/api/v1/subscriptions", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/subscriptions/upload", methodOnly(http.MethodPost, h.Upload))
	r.Handle("/api/v1/subscriptions/export", methodOnly(http.MethodGet, h.Export))
	r.Handle("/api/v1/subscriptions/import-template", methodOnly(http.MethodGet, h.GetImportTemplate))
}

// RegisterRadioRoutes radio search and detail.
func (r *Router) RegisterRadioRoutes(h *RadioHandler) {
	r.Handle("/api/v1/radios/search", methodOnly(http.MethodGet, h.Search))
	r.Handle("/api/v1/radios/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		tei := pathParam(req.URL.Path, "/api/v1/radios/")
		if tei == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Get(w, req, tei)
	})
}

// RegisterAssignmentRoutes endpoint lookup and the assignment ledger.
func (r *Router) RegisterAssignmentRoutes(h *AssignmentHandler) {
	r.Handle("/api/v1/endpoints/search", methodOnly(http.MethodGet, h.SearchEndpoints))
	r.Handle("/api/v1/containers", methodOnly(http.MethodGet, h.ListContainers))

	r.Handle("/api/v1/endpoints/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/endpoints/")
		switch {
		case strings.HasSuffix(rest, "/assign") && req.Method == http.MethodPost:
			h.Assign(w, req, strings.TrimSuffix(rest, "/assign"))
		case !strings.Contains(rest, "/") && rest != "" && req.Method == http.MethodGet:
			h.GetEndpoint(w, req, rest)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.Handle("/api/v1/assignments/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/assignments/")
		if strings.HasSuffix(rest, "/close") && req.Method == http.MethodPost {
			h.Close(w, req, strings.TrimSuffix(rest, "/close"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
}

// RegisterTicketRoutes the request workflow.
func (r *Router) RegisterTicketRoutes(h *TicketHandler) {
	r.Handle("/api/v1/requests", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/requests/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/requests/")
		switch {
		case strings.HasSuffix(rest, "/transition") && req.Method == http.MethodPost:
			h.Transition(w, req, strings.TrimSuffix(rest, "/transition"))
		case !strings.Contains(rest, "/") && rest != "" && req.Method == http.MethodGet:
			h.Get(w, req, rest)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterSyncRoutes the legacy fleet synchronizations.
func (r *Router) RegisterSyncRoutes(h *SyncHandler) {
	r.Handle("/api/v1/sync/fleet", methodOnly(http.MethodPost, h.SyncFleet))
	r.Handle("/api/v1/sync/vectors", methodOnly(http.MethodPost, h.SyncVectors))
	r.Handle("/api/v1/sync/status", methodOnly(http.MethodGet, h.Status))
	r.Handle("/api/v1/vehicles", methodOnly(http.MethodGet, h.ListVehicles))
}
