package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gartstein/companies/internal/company/metrics"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig holds what NewRouter needs besides the handlers.
type RouterConfig struct {
	ClientURL string
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

type route struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

// NewRouter registers every HTTP route and wraps them in the middleware chain.
func NewRouter(companies *CompanyHandler, status *StatusHandler, cfg RouterConfig, logger *zap.Logger) (http.Handler, error) {
	logger = logger.Named("http")
	gw := runtime.NewServeMux(runtime.WithRoutingErrorHandler(routingErrorHandler(logger)))

	routes := []route{
		{http.MethodPost, "/companies", companies.CreateCompany},
		{http.MethodGet, "/companies", companies.ListCompanies},
		{http.MethodGet, "/companies/{id}", companies.GetCompany},
		{http.MethodPatch, "/companies/{id}", companies.UpdateCompany},
		{http.MethodDelete, "/companies/soft/{id}", companies.SoftDeleteCompany},
		{http.MethodDelete, "/companies/{id}", companies.DeleteCompany},
		{http.MethodPost, "/seed/companies", companies.SeedCompanies},
		{http.MethodGet, "/health", status.Health},
	}
	for _, rt := range routes {
		if err := gw.HandlePath(rt.method, rt.pattern, observe(cfg.Metrics, rt.method, rt.pattern, rt.handler)); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", rt.method, rt.pattern, err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /{$}", status.Page)
	mux.Handle("/", gw)

	return Chain(mux,
		RequestID(),
		Recovery(logger),
		Logging(logger),
		CORS(cfg.ClientURL),
	), nil
}

// routingErrorHandler answers unknown paths and methods with the standard error body.
func routingErrorHandler(logger *zap.Logger) runtime.RoutingErrorHandlerFunc {
	return func(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, r *http.Request, httpStatus int) {
		kind := "route not found"
		if httpStatus == http.StatusMethodNotAllowed {
			kind = "method not allowed"
		}
		writeJSON(w, httpStatus, errorResponse{
			StatusCode: httpStatus,
			Message:    fmt.Sprintf("%s: %s %s", kind, r.Method, r.URL.Path),
			Path:       r.URL.RequestURI(),
			Method:     r.Method,
			Timestamp:  nowRFC3339(),
		})
		if httpStatus >= http.StatusInternalServerError {
			logger.Warn("Unroutable request", zap.Int("status", httpStatus), zap.String("path", r.URL.Path))
		}
	}
}
