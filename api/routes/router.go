package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/autopartsvn/backend/api/controllers"
	cartcontrollers "github.com/autopartsvn/backend/api/controllers/cart"
	ordercontrollers "github.com/autopartsvn/backend/api/controllers/orders"
	"github.com/autopartsvn/backend/api/middleware"
	authsvc "github.com/autopartsvn/backend/internal/auth"
	cartsvc "github.com/autopartsvn/backend/internal/cart"
	ordersvc "github.com/autopartsvn/backend/internal/orders"
	productsvc "github.com/autopartsvn/backend/internal/products"
	usersvc "github.com/autopartsvn/backend/internal/users"
	"github.com/autopartsvn/backend/pkg/config"
	"github.com/autopartsvn/backend/pkg/db"
	"github.com/autopartsvn/backend/pkg/enums"
	"github.com/autopartsvn/backend/pkg/logger"
	"github.com/autopartsvn/backend/pkg/metrics"
	"github.com/autopartsvn/backend/pkg/redis"
)

// NewRouter assembles the HTTP surface on top of the wired services.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	authService authsvc.Service,
	userService usersvc.Service,
	productService productsvc.Service,
	cartService cartsvc.Service,
	orderService ordersvc.Service,
	paymentGateway controllers.PaymentGatewayAPI,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	if httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, redisClient, logg)).Post("/signup", controllers.AuthSignup(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/google", controllers.AuthGoogle(authService, logg))
		r.Post("/forgot-password", controllers.AuthForgotPassword(userService, logg))
		r.Post("/verify-code", controllers.AuthVerifyCode(userService, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(userService, logg))
	})

	r.Route("/app", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Get("/items", cartcontrollers.CartItems(cartService, logg))
			r.Post("/add", cartcontrollers.CartAdd(cartService, logg))
			r.Put("/update", cartcontrollers.CartUpdate(cartService, logg))
			r.Delete("/remove", cartcontrollers.CartRemove(cartService, logg))
			r.Delete("/clear", cartcontrollers.CartClear(cartService, logg))
			r.Get("/image-urls", cartcontrollers.CartImageURLs(cartService, logg))
			r.Post("/checkout", cartcontrollers.CartCheckout(cartService, logg))
			r.Get("/status", cartcontrollers.CartStatus(cartService, logg))
			r.Get("/total", cartcontrollers.CartTotal(cartService, logg))
		})

		r.Route("/order", func(r chi.Router) {
			r.Post("/create", ordercontrollers.OrderCreate(orderService, logg))
			r.Get("/check-pending-status", ordercontrollers.OrderCheckPending(orderService, logg))
			r.Get("/pending-order-details", ordercontrollers.OrderPendingDetails(orderService, logg))
			r.Put("/change-order-status", ordercontrollers.OrderChangeStatus(orderService, logg))
			r.Get("/get-all-orders", ordercontrollers.OrderListAll(orderService, logg))
			r.Get("/get-orders-by-status", ordercontrollers.OrderListByStatus(orderService, logg))
			r.Get("/user-orders", ordercontrollers.OrderUserOrders(orderService, logg))
		})

		r.Route("/payment", func(r chi.Router) {
			r.Get("/status", controllers.PaymentStatus(paymentGateway, logg))
			r.Put("/cancel", controllers.PaymentCancel(paymentGateway, logg))
		})

		r.Route("/product", func(r chi.Router) {
			r.Get("/all", controllers.ProductList(productService, logg))
			r.Get("/get/{id}", controllers.ProductGet(productService, logg))
			r.Get("/image-urls/{id}", controllers.ProductImageURLs(productService, logg))

			// Catalog writes are an admin surface.
			admin := middleware.RequireRole(string(enums.UserRoleAdmin), logg)
			r.With(admin).Post("/add", controllers.ProductCreate(productService, logg))
			r.With(admin).Put("/update/{id}", controllers.ProductUpdate(productService, logg))
			r.With(admin).Delete("/delete/{id}", controllers.ProductDelete(productService, logg))
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", controllers.UserProfile(userService, logg))
			r.Put("/update", controllers.UserUpdate(userService, logg))
			r.Put("/avatar", controllers.UserAvatar(userService, logg))
		})
	})

	return r
}
