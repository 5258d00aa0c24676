package observed

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	"user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

const instrumentationName = "user-crud-service/internal/adapter/repository/observed"

// Metrics holds the instruments recorded for every repository call.
type Metrics struct {
	CallCount    metric.Int64Counter
	CallDuration metric.Float64Histogram
	CallErrors   metric.Int64Counter
}

// NewMetrics creates the repository instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	count, err := meter.Int64Counter("user_repository.calls",
		metric.WithDescription("Total number of user repository calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("user_repository.duration",
		metric.WithDescription("User repository call duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("user_repository.errors",
		metric.WithDescription("Total number of failed user repository calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{CallCount: count, CallDuration: duration, CallErrors: errs}, nil
}

// UserRepository implements user.Repository by wrapping another repository
// with a span, call metrics and a slow call warning per operation.
type UserRepository struct {
	next          user.Repository
	tracer        trace.Tracer
	metrics       *Metrics
	log           *zap.Logger
	slowThreshold time.Duration
}

var _ user.Repository = (*UserRepository)(nil)

// Option configures a UserRepository.
type Option func(*UserRepository)

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *UserRepository) { r.tracer = tracer }
}

// WithMeter records metrics on meter instead of the global one.
func WithMeter(meter metric.Meter) Option {
	return func(r *UserRepository) {
		if m, err := NewMetrics(meter); err == nil {
			r.metrics = m
		}
	}
}

// WithSlowThreshold logs calls slower than d. Zero disables the warning.
func WithSlowThreshold(d time.Duration) Option {
	return func(r *UserRepository) { r.slowThreshold = d }
}

// NewUserRepository wraps next. Without options it uses the global OpenTelemetry
// providers, which are no-ops until the process installs real ones.
func NewUserRepository(next user.Repository, log *zap.Logger, opts ...Option) *UserRepository {
	r := &UserRepository{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
		log:    log,
	}
	if m, err := NewMetrics(otel.Meter(instrumentationName)); err == nil {
		r.metrics = m
	} else {
		log.Warn("failed to create repository metrics", zap.Error(err))
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *UserRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := r.tracer.Start(ctx, "UserRepository."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(attrs, attribute.String("db.operation", op))...),
	)
	begin := time.Now()

	return ctx, func(err error) {
		elapsed := time.Since(begin)
		defer span.End()

		failed := err != nil && !isOutcome(err)
		if err != nil {
			span.SetAttributes(attribute.String("error.type", errorType(err)))
		}
		if failed {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		if r.metrics != nil {
			set := metric.WithAttributes(attribute.String("db.operation", op))
			r.metrics.CallCount.Add(ctx, 1, set)
			r.metrics.CallDuration.Record(ctx, float64(elapsed.Microseconds())/1000, set)
			if failed {
				r.metrics.CallErrors.Add(ctx, 1, set)
			}
		}

		if r.slowThreshold > 0 && elapsed > r.slowThreshold {
			logger.WithContext(ctx, r.log).Warn("slow repository call",
				zap.String("operation", op),
				zap.Duration("elapsed", elapsed),
				zap.Duration("threshold", r.slowThreshold),
			)
		}
	}
}

// isOutcome reports whether err is an expected domain result rather than a failure.
func isOutcome(err error) bool {
	var notFound *pkgerrors.NotFoundError
	var exists *pkgerrors.AlreadyExistsError
	return errors.As(err, &notFound) || errors.As(err, &exists)
}

func errorType(err error) string {
	var notFound *pkgerrors.NotFoundError
	var exists *pkgerrors.AlreadyExistsError
	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &exists):
		return "already_exists"
	default:
		return "internal"
	}
}

// Create delegates to the wrapped repository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, done := r.start(ctx, "Create")
	created, err := r.next.Create(ctx, u)
	done(err)
	return created, err
}

// GetByID delegates to the wrapped repository.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, done := r.start(ctx, "GetByID", attribute.Int64("user.id", id))
	u, err := r.next.GetByID(ctx, id)
	done(err)
	return u, err
}

// GetByEmail delegates to the wrapped repository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, done := r.start(ctx, "GetByEmail")
	u, err := r.next.GetByEmail(ctx, email)
	done(err)
	return u, err
}

// Exists delegates to the wrapped repository.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, done := r.start(ctx, "Exists", attribute.Int64("user.id", id))
	ok, err := r.next.Exists(ctx, id)
	done(err)
	return ok, err
}

// Update delegates to the wrapped repository.
func (r *UserRepository) Update(ctx context.Context, id int64, changes domain.UserChanges) (*domain.User, error) {
	ctx, done := r.start(ctx, "Update", attribute.Int64("user.id", id))
	u, err := r.next.Update(ctx, id, changes)
	done(err)
	return u, err
}

// Delete delegates to the wrapped repository.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, done := r.start(ctx, "Delete", attribute.Int64("user.id", id))
	err := r.next.Delete(ctx, id)
	done(err)
	return err
}

// List delegates to the wrapped repository.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, done := r.start(ctx, "List")
	users, err := r.next.List(ctx)
	done(err)
	return users, err
}
