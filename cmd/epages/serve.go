package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/infrastructure/fakeshop"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	serveAddr     *string
	serveShop     *string
	serveToken    *string
	serveProducts *int
	serveOrders   *int
)

var serveFakeCmd = &cobra.Command{
	Use:   "serve-fake",
	Short: "Serve an in-memory shop with the REST API for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shop := fakeshop.New(*serveShop, logger)
		if *serveToken != "" {
			shop.RequireToken(*serveToken, true)
		}
		seed(shop, *serveProducts, *serveOrders)

		srv := &http.Server{
			Addr:              *serveAddr,
			Handler:           fakeRouter(shop, registry, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", *serveAddr).Str("shop", *serveShop).Msg("Starting fake shop")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info().Msg("Fake shop stopped")
		return nil
	},
}

func init() {
	f := serveFakeCmd.Flags()
	serveAddr = f.String("addr", ":8080", "Listen address")
	serveShop = f.String("shop", "DemoShop", "Shop identifier")
	serveToken = f.String("token", "", "Require this bearer token for writes (and reads that send one)")
	serveProducts = f.Int("products", 25, "Number of products to seed")
	serveOrders = f.Int("orders", 5, "Number of orders to seed")
	rootCmd.AddCommand(serveFakeCmd)
}

// fakeRouter mounts the shop next to /health and /metrics.
func fakeRouter(shop *fakeshop.Server, reg *prometheus.Registry, logger zerolog.Logger) http.Handler {
	served := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "epages_fakeshop_requests_total",
		Help: "Requests served by the fake shop.",
	}, []string{"method", "status"})
	reg.MustRegister(served)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	api := shop.Handler()
	r.Handle("/"+domain.RestPathPrefix+"/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		api.ServeHTTP(ww, r)
		served.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
	}))
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("Served request")
		})
	}
}

func seed(shop *fakeshop.Server, products, orders int) {
	shop.SetLocales("de_DE", "de_DE", "en_GB")
	shop.SetCurrencies("EUR", "EUR", "GBP")
	for _, page := range domain.InformationPages {
		shop.SetInformation(page, "de_DE", domain.Information{Name: page, Title: page})
		shop.SetInformation(page, "en_GB", domain.Information{Name: page, Title: page})
	}
	for i := 1; i <= products; i++ {
		shop.AddProduct(map[string]any{
			"productNumber": fmt.Sprintf("P-%03d", i),
			"name":          fmt.Sprintf("Product %d", i),
			"forSale":       true,
			"visible":       i%5 != 0,
			"priceInfo": map[string]any{
				"price": map[string]any{"amount": float64(i) + 0.99, "currency": "EUR", "taxType": "GROSS"},
			},
		})
	}
	for i := 1; i <= orders; i++ {
		shop.AddOrder(map[string]any{
			"orderNumber":  fmt.Sprintf("O-%04d", i),
			"creationDate": time.Date(2024, 1, i, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
			"currencyId":   "EUR",
			"locale":       "de_DE",
			"billingAddress": map[string]any{
				"firstName": "Erika",
				"lastName":  "Mustermann",
				"city":      "Jena",
				"country":   "DE",
			},
			"grandTotal": map[string]any{"amount": float64(i) * 10, "currency": "EUR"},
		})
	}
}
