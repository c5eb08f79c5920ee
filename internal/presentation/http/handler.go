package httppresentation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/homeflavors/internal/application"
	appmenu "github.com/Zhima-Mochi/homeflavors/internal/application/menu"
	appnotification "github.com/Zhima-Mochi/homeflavors/internal/application/notification"
	apporder "github.com/Zhima-Mochi/homeflavors/internal/application/order"
	dommenu "github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
	domorder "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
	"github.com/Zhima-Mochi/homeflavors/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	tracerName           = "homeflavors.http"
	headerIdempotencyKey = "Idempotency-Key"
)

// UseCases are the application entry points the HTTP surface drives.
type UseCases struct {
	ListMenu     application.UseCase[appmenu.ListMenuInput, []dommenu.Category]
	SubmitOrder  application.UseCase[apporder.SubmitOrderInput, *apporder.SubmitOrderResult]
	GetOrder     application.UseCase[string, *domorder.Order]
	UpdateStatus application.UseCase[apporder.UpdateOrderStatusInput, *apporder.UpdateOrderStatusResult]
	SendTest     application.UseCase[appnotification.SendTestInput, *appnotification.SendTestResult]
}

type Options struct {
	CORSAllowOrigins []string
	// Metrics, when set, is mounted at /metrics outside the instrumented chain.
	Metrics http.Handler
}

type Handler struct {
	uc   UseCases
	opts Options
	log  observability.Logger
	tel  observability.Observability
}

func NewHandler(uc UseCases, opts Options, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if logger == nil {
		logger = tel.Logger()
	}
	if len(opts.CORSAllowOrigins) == 0 {
		opts.CORSAllowOrigins = []string{"*"}
	}
	return &Handler{
		uc:   uc,
		opts: opts,
		log:  logger.With(observability.F("component", componentHTTPHandler)),
		tel:  tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORS(h.opts.CORSAllowOrigins))

	h.handle(r, http.MethodGet, "/health", h.handleHealth)
	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.Metrics)
	}

	h.handle(r, http.MethodGet, "/api/menu", h.handleListMenu)
	h.handle(r, http.MethodPost, "/api/orders", h.handleSubmitOrder)
	h.handle(r, http.MethodGet, "/api/orders/{orderNumber}", h.handleGetOrder)
	h.handle(r, http.MethodPost, "/api/orders/{orderNumber}/status", h.handleUpdateStatus)
	h.handle(r, http.MethodPost, "/api/notifications/test", h.handleSendTest)

	return r
}

// handle registers a route wrapped as Trace → request logger + metrics → access log → handler.
func (h *Handler) handle(r chi.Router, method, pattern string, fn http.HandlerFunc) {
	route := method + " " + pattern
	wrapped := h.withTrace(
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}, h.tel)(
			h.withAccessLog(fn),
		),
	)
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), route)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withAccessLog writes a single access log after the handler completes.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace opens a server span, continuing any W3C parent from the request headers.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}

		ctx, span := tracer.Start(parentCtx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
