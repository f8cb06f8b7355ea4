// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"launchpad/internal/adapters/in/http/handlers"
	"launchpad/internal/adapters/in/http/middleware"
	delegationapp "launchpad/internal/application/delegation"
	usecase "launchpad/internal/application/usecase"
)

// RouterDeps collects the usecases (and other dependencies) injected from main.go.
type RouterDeps struct {
	DelegationUC *delegationapp.Usecase
	LaunchUC     *usecase.LaunchRecordUsecase

	// nil なら POST /api/launches は認証なし
	UserAuth *middleware.UserAuthMiddleware

	// EnableCORS は本番以外で true（フロントの dev server から叩くため）
	EnableCORS     bool
	AllowedOrigins []string

	// StaticDir が空でなければフロントのビルド成果物を配信する
	StaticDir string
}

// NewRouter sets up HTTP routing.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// chain: RequestLog → CORS → Recover → handler
	r.Use(middleware.RequestLog)
	if deps.EnableCORS {
		r.Use(middleware.CORS(deps.AllowedOrigins))
	}
	r.Use(middleware.Recover)

	// Health check (always on)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Delegation は未設定でも mount し、503 を返させる
	r.Method(http.MethodPost, "/api/w3up-delegation", handlers.NewDelegationHandler(deps.DelegationUC))

	if deps.LaunchUC != nil {
		h := handlers.NewLaunchHandler(deps.LaunchUC)
		r.Route("/api/launches", func(r chi.Router) {
			if deps.UserAuth != nil {
				r.With(deps.UserAuth.Handler).Post("/", h.Create)
			} else {
				r.Post("/", h.Create)
			}
			r.Get("/", h.List)
			r.Get("/{mint}", h.Get)
		})
	}

	if deps.StaticDir != "" {
		static := handlers.NewStaticHandler(deps.StaticDir)
		r.NotFound(static.ServeHTTP)
	}

	return r
}
