package http

import (
	"encoding/json"
	stdhttp "net/http"
	"os"
	"strings"
	"sync"

	"github.com/campuslink/campuslink-api/internal/app/controllers"
	"github.com/campuslink/campuslink-api/internal/platform/middleware"
	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v3"
)

type RouterConfig struct {
	ResourceCtrl   *controllers.ResourceController
	MembershipCtrl *controllers.MembershipController
	AuditCtrl      *controllers.AuditController
	Logger         zerolog.Logger
	DocsEnable     bool
	MasterToken    string
}

func NewRouter(cfg RouterConfig) stdhttp.Handler {
	mux := stdhttp.NewServeMux()

	mux.HandleFunc("/", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(stdhttp.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "endpoint not found",
			})
			return
		}
		if r.Method != stdhttp.MethodGet {
			w.WriteHeader(stdhttp.StatusMethodNotAllowed)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "method not allowed",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"name":        "CampusLink Membership API",
			"version":     "0.1.0",
			"description": "Join requests, approvals and capacity for projects and events",
			"features": map[string]bool{
				"projects": true,
				"events":   true,
				"audit":    cfg.AuditCtrl != nil,
			},
			"endpoints": map[string]string{
				"health":        "/health",
				"resources":     "/resources",
				"join":          "/memberships/join",
				"cancel":        "/memberships/cancel",
				"decide":        "/memberships/decide",
				"documentation": "/docs",
				"openapi_yaml":  "/openapi.yaml",
				"openapi_json":  "/openapi.json",
			},
		})
	})

	mux.HandleFunc("/health", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	splitSegments := func(path string) []string {
		raw := strings.Split(path, "/")
		out := make([]string, 0, len(raw))
		for _, segment := range raw {
			if segment == "" {
				continue
			}
			out = append(out, segment)
		}
		return out
	}

	// --- Documentation endpoints (if enabled) ---
	if cfg.DocsEnable {
		var (
			once     sync.Once
			yamlData []byte
			yamlErr  error
		)
		loadYAML := func() ([]byte, error) {
			once.Do(func() { yamlData, yamlErr = os.ReadFile("docs/openapi.yaml") })
			return yamlData, yamlErr
		}
		mux.HandleFunc("/openapi.yaml", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			data, err := loadYAML()
			if err != nil {
				w.WriteHeader(stdhttp.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
			w.Write(data)
		})
		mux.HandleFunc("/openapi.json", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			data, err := loadYAML()
			if err != nil {
				w.WriteHeader(stdhttp.StatusNotFound)
				return
			}
			var v interface{}
			if err := yaml.Unmarshal(data, &v); err != nil {
				w.WriteHeader(stdhttp.StatusInternalServerError)
				return
			}
			jsonBytes, err := json.Marshal(v)
			if err != nil {
				w.WriteHeader(stdhttp.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write(jsonBytes)
		})
		mux.HandleFunc("/docs", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<!DOCTYPE html><html><head><title>API Docs</title><link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"/></head><body><div id="swagger-ui"></div><script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script><script>window.onload=()=>{SwaggerUIBundle({url:'/openapi.yaml',dom_id:'#swagger-ui'});};</script></body></html>`))
		})
	}

	// Resource routes: list/create plus per-resource reads.
	resourceMux := stdhttp.NewServeMux()
	resourceMux.HandleFunc("/", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Path == "/resources" || r.URL.Path == "/resources/" {
			switch r.Method {
			case stdhttp.MethodGet:
				cfg.ResourceCtrl.List(w, r)
			case stdhttp.MethodPost:
				cfg.ResourceCtrl.Create(w, r)
			default:
				w.WriteHeader(stdhttp.StatusMethodNotAllowed)
			}
			return
		}

		if !strings.HasPrefix(r.URL.Path, "/resources/") {
			w.WriteHeader(stdhttp.StatusNotFound)
			return
		}

		// patterns: /resources/{id} and /resources/{id}/membership
		segments := splitSegments(r.URL.Path[len("/resources/"):])
		if len(segments) == 0 || segments[0] == "" {
			w.WriteHeader(stdhttp.StatusBadRequest)
			return
		}
		resourceID := segments[0]
		switch {
		case len(segments) == 1:
			if r.Method != stdhttp.MethodGet {
				w.WriteHeader(stdhttp.StatusMethodNotAllowed)
				return
			}
			cfg.ResourceCtrl.Get(w, r, resourceID)
		case len(segments) == 2 && segments[1] == "membership":
			if r.Method != stdhttp.MethodGet {
				w.WriteHeader(stdhttp.StatusMethodNotAllowed)
				return
			}
			cfg.MembershipCtrl.Membership(w, r, resourceID)
		default:
			w.WriteHeader(stdhttp.StatusNotFound)
		}
	})

	// Membership workflow routes.
	membershipMux := stdhttp.NewServeMux()
	membershipMux.HandleFunc("/", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.Method != stdhttp.MethodPost {
			w.WriteHeader(stdhttp.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Path {
		case "/memberships/join":
			cfg.MembershipCtrl.Join(w, r)
		case "/memberships/cancel":
			cfg.MembershipCtrl.Cancel(w, r)
		case "/memberships/decide":
			cfg.MembershipCtrl.Decide(w, r)
		default:
			w.WriteHeader(stdhttp.StatusNotFound)
		}
	})

	var resourceHandler stdhttp.Handler = resourceMux
	var membershipHandler stdhttp.Handler = membershipMux
	if cfg.MasterToken != "" {
		authenticated := middleware.BearerAuth(func(token string, r *stdhttp.Request) bool {
			return token == cfg.MasterToken
		})
		resourceHandler = authenticated(resourceMux)
		membershipHandler = authenticated(membershipMux)
	}

	mux.Handle("/resources", resourceHandler)
	mux.Handle("/resources/", resourceHandler)
	mux.Handle("/memberships/", membershipHandler)

	if cfg.AuditCtrl != nil {
		auditHandler := stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			if r.Method != stdhttp.MethodGet {
				w.WriteHeader(stdhttp.StatusMethodNotAllowed)
				return
			}
			cfg.AuditCtrl.Recent(w, r)
		})
		// The audit trail is operator-facing; a configured master token is required.
		if cfg.MasterToken != "" {
			mux.Handle("/audit/recent", middleware.BearerAuth(func(token string, r *stdhttp.Request) bool {
				return token == cfg.MasterToken
			})(auditHandler))
		} else {
			mux.Handle("/audit/recent", auditHandler)
		}
	}

	return middleware.CORS(middleware.Logging(cfg.Logger)(mux))
}
