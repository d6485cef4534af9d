package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aminufarouk/kiosa-backend/api/controllers"
	"github.com/aminufarouk/kiosa-backend/api/middleware"
	"github.com/aminufarouk/kiosa-backend/internal/cart"
	"github.com/aminufarouk/kiosa-backend/internal/catalog"
	checkoutsvc "github.com/aminufarouk/kiosa-backend/internal/checkout"
	"github.com/aminufarouk/kiosa-backend/internal/customers"
	"github.com/aminufarouk/kiosa-backend/internal/notifications"
	"github.com/aminufarouk/kiosa-backend/internal/orders"
	"github.com/aminufarouk/kiosa-backend/internal/payments"
	"github.com/aminufarouk/kiosa-backend/internal/staff"
	"github.com/aminufarouk/kiosa-backend/internal/wishlist"
	"github.com/aminufarouk/kiosa-backend/pkg/auth/session"
	"github.com/aminufarouk/kiosa-backend/pkg/config"
	"github.com/aminufarouk/kiosa-backend/pkg/db"
	"github.com/aminufarouk/kiosa-backend/pkg/enums"
	"github.com/aminufarouk/kiosa-backend/pkg/logger"
	"github.com/aminufarouk/kiosa-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.SessionChecker

	Payments      *payments.Service
	Orders        orders.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Wishlist      wishlist.Service
	Checkout      checkoutsvc.Service
	Customers     customers.Service
	Notifications notifications.Service
	Staff         staff.Service

	Metrics http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	callbackPolicy := middleware.NewRateLimitPolicy(
		"payment-callback",
		cfg.RateLimit.CallbackWindow,
		cfg.RateLimit.CallbackLimit,
	)
	verifyPolicy := middleware.NewRateLimitPolicy(
		"payment-verify",
		cfg.RateLimit.VerifyWindow,
		cfg.RateLimit.VerifyLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.With(middleware.RateLimit(callbackPolicy, deps.Redis, logg)).
				Post("/callback", controllers.PaymentCallback(deps.Payments, logg))
			r.With(middleware.RateLimit(verifyPolicy, deps.Redis, logg)).
				Post("/verify", controllers.PaymentVerify(deps.Payments, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{slug}", controllers.GetProduct(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Put("/", controllers.CartReplace(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
			r.Post("/", controllers.WishlistSave(deps.Wishlist, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(deps.Wishlist, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderNumber}", controllers.GetOrder(deps.Orders, logg))
		})

		r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.StaffLogin(deps.Staff, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.StaffAuth(cfg.JWT, deps.Sessions, logg))

			r.Post("/auth/logout", controllers.StaffLogout(deps.Staff, logg))
			r.Post("/auth/change-password", controllers.StaffChangePassword(deps.Staff, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Post("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				r.Post("/{orderId}/assign-rider", controllers.AdminAssignRider(deps.Orders, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
				r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminDeactivateProduct(deps.Catalog, logg))
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/top", controllers.AdminTopCustomers(deps.Customers, logg))
				r.Get("/{email}/stats", controllers.AdminCustomerStats(deps.Customers, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.StaffRoleAdmin), logg))
				r.Route("/staff", func(r chi.Router) {
					r.Get("/", controllers.StaffList(deps.Staff, logg))
					r.Post("/", controllers.StaffCreate(deps.Staff, logg))
					r.Post("/{staffId}/deactivate", controllers.StaffDeactivate(deps.Staff, logg))
				})
			})
		})
	})

	return r
}
