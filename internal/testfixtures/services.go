package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/campus-reservation/internal/application"
	"github.com/example/campus-reservation/internal/lock"
	"github.com/example/campus-reservation/internal/persistence"
)

// ServiceFactory builds application services that share one deterministic
// clock, one identifier sequence and a discarding logger.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a factory frozen at ReferenceTime issuing
// "id-<n>" identifiers.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger routes service logs to logger instead of discarding them.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewReservationService builds a reservation service over store. A nil locker
// selects an in-process lock.Local.
func (f *ServiceFactory) NewReservationService(store application.ReservationStore, locker lock.Locker) *application.ReservationService {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return application.NewReservationServiceWithLogger(store, locker, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewBlackoutService builds a blackout service over store.
func (f *ServiceFactory) NewBlackoutService(store application.BlackoutStore) *application.BlackoutService {
	return application.NewBlackoutServiceWithLogger(store, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewKeyManagerService builds a key manager service over store.
func (f *ServiceFactory) NewKeyManagerService(store application.KeyManagerStore) *application.KeyManagerService {
	return application.NewKeyManagerServiceWithLogger(store, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewCampusService builds a campus service whose cache lives for ttl.
func (f *ServiceFactory) NewCampusService(campuses persistence.CampusRepository, ttl time.Duration) *application.CampusService {
	return application.NewCampusServiceWithLogger(campuses, ttl, f.Logger)
}
