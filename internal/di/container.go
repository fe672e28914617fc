package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bookcourier/api/internal/payments"
	"github.com/bookcourier/api/internal/platform/config"
	"github.com/bookcourier/api/internal/repositories"
	"github.com/bookcourier/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders    services.OrderService
	Books     services.BookService
	Payments  services.PaymentService
	Users     services.UserService
	Wishlists services.WishlistService
	Reviews   services.ReviewService
	System    services.SystemService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// Options carries optional collaborators resolved by the caller (PSP client,
// event publisher, logger). Zero values disable the corresponding feature.
type Options struct {
	PaymentProvider payments.Provider
	OrderEvents     services.OrderEventPublisher
	Logger          *zap.Logger
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts Options) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, reg, cfg, opts)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(ctx context.Context, reg repositories.Registry, cfg config.Config, opts Options) (Services, error) {
	var svc Services
	logger := serviceLogger(opts.Logger)

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			Health: healthRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	ordersRepo := reg.Orders()
	countersRepo := reg.Counters()
	if ordersRepo != nil && countersRepo != nil {
		orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
			Orders:     ordersRepo,
			Counters:   countersRepo,
			UnitOfWork: reg,
			Events:     opts.OrderEvents,
			Logger:     logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build order service: %w", err)
		}
		svc.Orders = orderSvc
	}

	if booksRepo := reg.Books(); booksRepo != nil {
		authorizer, err := services.NewRoleAuthorizer(reg.Roles())
		if err != nil {
			return Services{}, fmt.Errorf("build book authorizer: %w", err)
		}
		bookSvc, err := services.NewBookService(services.BookServiceDeps{
			Books:      booksRepo,
			Orders:     svc.Orders,
			Authorizer: authorizer,
			Logger:     logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build book service: %w", err)
		}
		svc.Books = bookSvc
	}

	if opts.PaymentProvider != nil {
		paymentSvc, err := services.NewPaymentService(services.PaymentServiceDeps{
			Provider:        opts.PaymentProvider,
			DefaultCurrency: cfg.PSP.DefaultCurrency,
			Logger:          logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build payment service: %w", err)
		}
		svc.Payments = paymentSvc
	}

	if usersRepo, rolesRepo := reg.Users(), reg.Roles(); usersRepo != nil && rolesRepo != nil {
		userSvc, err := services.NewUserService(services.UserServiceDeps{
			Users:  usersRepo,
			Roles:  rolesRepo,
			Logger: logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build user service: %w", err)
		}
		svc.Users = userSvc
	}

	if wishlistRepo := reg.Wishlists(); wishlistRepo != nil {
		wishlistSvc, err := services.NewWishlistService(services.WishlistServiceDeps{
			Wishlists: wishlistRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build wishlist service: %w", err)
		}
		svc.Wishlists = wishlistSvc
	}

	if reviewRepo := reg.Reviews(); reviewRepo != nil {
		reviewSvc, err := services.NewReviewService(services.ReviewServiceDeps{
			Reviews: reviewRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build review service: %w", err)
		}
		svc.Reviews = reviewSvc
	}

	return svc, nil
}

// serviceLogger adapts zap to the event-style logging hook the services accept.
func serviceLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	if logger == nil {
		return nil
	}
	return func(_ context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
