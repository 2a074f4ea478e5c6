package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/obsidianwallet/obsidian-wallet-client/metrics"
	"github.com/obsidianwallet/obsidian-wallet-client/session"
)

func InitAPIService(address string, orch Orchestrator) *APIService {
	api := &APIService{
		address: address,
		orch:    orch,
		hub:     NewHub(),
	}
	orch.AddSubscriber(api.hub)
	return api
}

func (api *APIService) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/v1/ws", "/metrics"})))

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiv1 := r.Group("/v1")
	apiv1.GET("/state", api.GetState)
	apiv1.GET("/networks", api.ListNetworks)
	apiv1.GET("/notifications", api.ListNotifications)
	apiv1.DELETE("/notifications", api.ClearNotifications)
	apiv1.GET("/ws", api.Stream)

	ss := apiv1.Group("/session")
	ss.POST("/login", api.LogIn)
	ss.POST("/logout", api.LogOut)

	apiv1.POST("/network/switch", api.SwitchNetwork)
	apiv1.POST("/bond/refresh", api.RefreshBond)
	apiv1.POST("/balance/refresh", api.RefreshBalance)
	apiv1.POST("/panel/toggle", api.TogglePanel)

	vl := apiv1.Group("/validators")
	vl.POST("/fetch", api.FetchValidators)
	vl.POST("/select", api.SelectValidator)

	return r
}

func (api *APIService) Serve() error {
	log.Info().Str("address", api.address).Msg("initiating api-service...")
	api.server = &http.Server{
		Addr:    api.address,
		Handler: api.Router(),
	}
	err := api.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (api *APIService) Shutdown(ctx context.Context) error {
	api.hub.Close()
	if api.server == nil {
		return nil
	}
	return api.server.Shutdown(ctx)
}

func (api *APIService) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": api.orch.State()})
}

func (api *APIService) LogIn(c *gin.Context) {
	var req session.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := api.orch.LogIn(c.Request.Context(), req)
	var verr *session.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"result": api.orch.State()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, session.ErrAlreadyLoggedIn), errors.Is(err, session.ErrLoginAborted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	}
}

func (api *APIService) LogOut(c *gin.Context) {
	api.orch.LogOut(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"result": api.orch.State()})
}

func (api *APIService) RefreshBond(c *gin.Context) {
	api.orch.GetBondDetails(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"result": api.orch.State().Bond})
}

// RefreshBalance answers 200 even when the fetch failed; the failure is part
// of the balance state the view shows inline.
func (api *APIService) RefreshBalance(c *gin.Context) {
	err := api.orch.RefreshBalance(c.Request.Context())
	if errors.Is(err, session.ErrNotLoggedIn) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": api.orch.State().Balance})
}

func (api *APIService) TogglePanel(c *gin.Context) {
	var req TogglePanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	panel, err := session.ParsePanel(req.Panel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := api.orch.TogglePanel(panel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": api.orch.State().Panel})
}

func (api *APIService) ListNotifications(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = v
	}
	list, err := api.orch.Notifications(limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": list})
}

func (api *APIService) ClearNotifications(c *gin.Context) {
	if err := api.orch.ClearNotifications(); err != nil {
		log.Error().Err(err).Msg("failed to clear notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": true})
}
