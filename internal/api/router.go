package api

import (
	"net/http"
	"os"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/blog-be/internal/api/handlers"
	"github.com/isdelr/blog-be/internal/auth"
	"github.com/isdelr/blog-be/internal/services"
	"github.com/isdelr/blog-be/internal/websocket"
)

// Services groups what the router dispatches to.
type Services struct {
	Users   services.UserServiceProvider
	Posts   services.PostServiceProvider
	Uploads services.UploadServiceProvider
	Events  services.EventServiceProvider
	Health  handlers.HealthReporter
}

// Options tunes the router.
type Options struct {
	// AllowedOrigins for CORS. "*" allows any origin without credentials.
	AllowedOrigins []string
	// UploadDir, when set, serves /uploads straight from the local disk.
	// Otherwise files are streamed from the upload service.
	UploadDir string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(hub *websocket.Hub, tokens *auth.TokenIssuer, svc Services, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	allowAny := len(opts.AllowedOrigins) == 0 || slices.Contains(opts.AllowedOrigins, "*")
	origins := opts.AllowedOrigins
	if allowAny {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: !allowAny,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(svc.Users)
	postHandler := handlers.NewPostHandler(svc.Posts)
	uploadHandler := handlers.NewUploadHandler(svc.Uploads)
	eventHandler := handlers.NewEventHandler(svc.Events)
	healthHandler := handlers.NewHealthHandler(svc.Health)
	wsHandler := handlers.NewWebSocketHandler(hub)

	requireAuth := auth.JWTMiddleware(tokens)

	r.Get("/healthz", healthHandler.Get)

	// WebSocket connection endpoints
	r.Get("/ws", wsHandler.Serve)
	r.Get("/ws/posts/{id}", wsHandler.Serve)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.With(requireAuth).Get("/me", userHandler.Me)
	})

	r.With(requireAuth).Post("/upload", uploadHandler.Upload)
	if opts.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesOnly{http.Dir(opts.UploadDir)})))
	} else {
		r.Get("/uploads/{name}", uploadHandler.Serve)
	}

	r.Get("/tags", postHandler.GetLastTags)
	r.Get("/events", eventHandler.GetRecent)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.GetAll)
		r.Get("/tags", postHandler.GetLastTags)
		r.Get("/{id}", postHandler.GetOne)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postHandler.Create)
			r.Patch("/{id}", postHandler.Update)
			r.Delete("/{id}", postHandler.Delete)
		})
	})

	return r
}

// filesOnly serves regular files and reports directories as missing, so
// the upload directory is never listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
