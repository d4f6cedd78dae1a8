package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/api-gateway/internal/federation"
	"github.com/shopgrid/platform/shared/config"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/middleware"
)

const ServiceName = "api-gateway"

// Subgraphs turns the configured name=url pairs into subgraphs, sorted by name.
func Subgraphs(cfg config.Gateway) ([]federation.Subgraph, error) {
	if len(cfg.Subgraphs) == 0 {
		return nil, fmt.Errorf("no subgraphs configured")
	}
	out := make([]federation.Subgraph, 0, len(cfg.Subgraphs))
	for name, url := range cfg.Subgraphs {
		name = strings.TrimSpace(name)
		url = strings.TrimSuffix(strings.TrimSpace(url), "/")
		if name == "" || url == "" {
			return nil, fmt.Errorf("subgraph entry %q=%q is incomplete", name, url)
		}
		timeout, err := cfg.TimeoutFor(name)
		if err != nil {
			return nil, err
		}
		out = append(out, federation.Subgraph{Name: name, URL: url, Timeout: timeout})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// New composes the supergraph and builds the gateway router. Composition
// runs once; any failure is returned and the gateway must not start.
func New(ctx context.Context, cfg config.Gateway, hc *http.Client, logger *logrus.Logger) (*gin.Engine, error) {
	logger = logging.OrDiscard(logger)

	subgraphs, err := Subgraphs(cfg)
	if err != nil {
		return nil, err
	}

	client := federation.NewClient(hc)
	if cfg.StartupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.StartupTimeout)
		defer cancel()
	}
	sg, err := federation.Compose(ctx, client, subgraphs)
	if err != nil {
		return nil, err
	}
	for _, s := range sg.Summary() {
		logger.WithFields(logrus.Fields{
			"subgraph": s.Name,
			"url":      s.URL,
			"query":    s.Query,
			"mutation": s.Mutation,
		}).Info("subgraph composed")
	}

	router := middleware.NewEngine(logger, cfg.App.AllowedOrigins)
	router.GET("/health", middleware.Health(ServiceName))
	federation.NewGateway(sg, client, logger).Register(router)
	return router, nil
}
