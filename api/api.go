package api

import (
	"context"
	"math/big"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/luminaworld/lumina-go-node/config"
	"github.com/luminaworld/lumina-go-node/core/bridge"
	"github.com/luminaworld/lumina-go-node/core/chain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/time/rate"
)

// Response is the envelope of every API reply
type Response struct {
	Code   uint32      `json:"code"`
	Result interface{} `json:"result,omitempty"`
	Log    string      `json:"log,omitempty"`
}

var requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lumina_api_requests_total",
	Help: "Number of API requests by path and status",
}, []string{"path", "status"})

// Service carries the handlers' dependencies
type Service struct {
	blockchain *chain.Blockchain
	bridge     *bridge.Bridge
	moniker    string
	logger     log.Logger
}

// RunAPI serves the HTTP API until the context is done or the listener
// fails
func RunAPI(ctx context.Context, cfg *config.Config, blockchain *chain.Blockchain, b *bridge.Bridge, logger log.Logger) error {
	service := &Service{
		blockchain: blockchain,
		bridge:     b,
		moniker:    cfg.Moniker,
		logger:     logger,
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lumina_block_height",
		Help: "Height of the last committed block",
	}, func() float64 {
		return float64(blockchain.LastHeight())
	})
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lumina_total_supply",
		Help: "Circulating supply in raw units",
	}, func() float64 {
		supply, _ := new(big.Float).SetInt(blockchain.CheckState().Token().TotalSupply()).Float64()
		return supply
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metricsMiddleware())
	if cfg.APIRateLimit > 0 {
		router.Use(rateLimitMiddleware(cfg.APIRateLimit))
	}

	router.POST("/transaction", service.SendTransaction)
	router.GET("/balance/:address", service.Balance)
	router.GET("/nonce/:address", service.Nonce)
	router.GET("/block/:height", service.Block)
	router.GET("/status", service.Status)
	router.GET("/bridge/stats", service.BridgeStats)
	router.GET("/bridge/transfer/:id", service.BridgeTransfer)
	router.POST("/bridge/inbound", service.BridgeInbound)
	router.POST("/bridge/outbound_result", service.BridgeOutboundResult)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
	)(router)

	listenAddr := strings.TrimPrefix(cfg.APIListenAddress, "tcp://")
	server := &http.Server{Addr: listenAddr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("serving api", "addr", listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		requestCount.WithLabelValues(c.FullPath(), http.StatusText(c.Writer.Status())).Inc()
	}
}

// rateLimitMiddleware keeps one token bucket per client address
func rateLimitMiddleware(perSecond int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := map[string]*rate.Limiter{}

	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		mu.Lock()
		limiter, ok := limiters[host]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
			limiters[host] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
				Code: http.StatusTooManyRequests,
				Log:  "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
