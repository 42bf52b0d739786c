package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkforge/inkforge-backend/api/controllers"
	"github.com/inkforge/inkforge-backend/api/middleware"
	"github.com/inkforge/inkforge-backend/internal/assets"
	"github.com/inkforge/inkforge-backend/internal/auth"
	"github.com/inkforge/inkforge-backend/internal/cart"
	"github.com/inkforge/inkforge-backend/internal/notifications"
	"github.com/inkforge/inkforge-backend/internal/orders"
	"github.com/inkforge/inkforge-backend/internal/printfile"
	"github.com/inkforge/inkforge-backend/internal/products"
	"github.com/inkforge/inkforge-backend/internal/users"
	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db"
	"github.com/inkforge/inkforge-backend/pkg/logger"
	"github.com/inkforge/inkforge-backend/pkg/metrics"
	"github.com/inkforge/inkforge-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Products      products.Service
	Cart          cart.Service
	Orders        orders.Service
	Notifications notifications.Service
	Assets        assets.Service
	PrintFiles    printfile.Service
}

// NewRouter wires middleware, the role table and every resource route.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	uploadDir string,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(dbClient, redisClient)))
	})

	// Locally stored uploads (previews, assets, print files) are served as
	// static files. GCS deployments serve objects from the bucket instead.
	if uploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
		r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
			fileServer.ServeHTTP(w, req)
		})
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/otp/send", controllers.AuthSendOTP(svcs.Auth, logg))
		r.Post("/otp/verify", controllers.AuthVerifyOTP(svcs.Auth, logg))
		r.Post("/password/reset", controllers.AuthResetPassword(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog.
		r.Get("/products", controllers.ProductList(svcs.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(svcs.Products, logg))
		r.Get("/variants/{variantId}", controllers.VariantDetail(svcs.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Cart, logg))
				r.Delete("/", controllers.CartClear(svcs.Cart, logg))
				r.Post("/items", controllers.CartItemAdd(svcs.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartItemUpdate(svcs.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartItemRemove(svcs.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
				r.Post("/checkout", controllers.OrderCheckout(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
				r.Get("/unread-count", controllers.NotificationUnreadCount(svcs.Notifications, logg))
				r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
				r.Get("/{notificationId}", controllers.NotificationDetail(svcs.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
				r.Delete("/{notificationId}", controllers.NotificationDelete(svcs.Notifications, logg))
			})

			r.Route("/assets", func(r chi.Router) {
				r.Post("/", controllers.AssetUpload(svcs.Assets, cfg.Storage.MaxUploadMB, logg))
				r.Get("/mine", controllers.AssetListMine(svcs.Assets, logg))
			})
		})

		// Staff-only surfaces.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireStaff(logg))

			r.Post("/products", controllers.ProductCreate(svcs.Products, logg))
			r.Patch("/products/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/products/{productId}", controllers.ProductDelete(svcs.Products, logg))
			r.Post("/products/{productId}/variants", controllers.VariantCreate(svcs.Products, logg))
			r.Patch("/variants/{variantId}", controllers.VariantUpdate(svcs.Products, logg))
			r.Delete("/variants/{variantId}", controllers.VariantDelete(svcs.Products, logg))

			r.Get("/orders", controllers.OrderList(svcs.Orders, logg))
			r.Patch("/orders/{orderId}", controllers.OrderUpdate(svcs.Orders, logg))
			r.Delete("/orders/{orderId}", controllers.OrderDelete(svcs.Orders, logg))
			r.Get("/orders/{orderId}/print-details", controllers.OrderPrintDetails(svcs.Orders, logg))
			r.Get("/orders/{orderId}/items", controllers.OrderItemList(svcs.Orders, logg))
			r.Post("/order-items", controllers.OrderItemCreate(svcs.Orders, logg))
			r.Get("/order-items/{itemId}", controllers.OrderItemDetail(svcs.Orders, logg))
			r.Patch("/order-items/{itemId}", controllers.OrderItemUpdate(svcs.Orders, logg))
			r.Delete("/order-items/{itemId}", controllers.OrderItemDelete(svcs.Orders, logg))
			r.Get("/order-items/{itemId}/designs", controllers.OrderItemDesigns(svcs.Orders, logg))
			r.Get("/order-items/{itemId}/print-file", controllers.OrderItemFinalPrintFile(svcs.Orders, logg))
			r.Post("/order-items/{itemId}/print-file", controllers.PrintFileGenerate(svcs.PrintFiles, logg))

			r.Post("/users", controllers.UserCreate(svcs.Users, logg))
			r.Get("/users", controllers.UserList(svcs.Users, logg))
			r.Get("/users/{userId}", controllers.UserDetail(svcs.Users, logg))
			r.Patch("/users/{userId}", controllers.UserUpdate(svcs.Users, logg))
			r.Delete("/users/{userId}", controllers.UserDelete(svcs.Users, logg))

			r.Get("/assets", controllers.AssetList(svcs.Assets, logg))
			r.Delete("/assets/{assetId}", controllers.AssetDelete(svcs.Assets, logg))
		})
	})

	return r
}
