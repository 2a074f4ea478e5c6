package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/session"
)

func (api *APIService) ListNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": common.Catalog()})
}

func (api *APIService) SwitchNetwork(c *gin.Context) {
	var req SwitchNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	network, err := common.ParseNetwork(req.Network)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err = api.orch.SwitchNetwork(network)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"result": api.orch.State()})
	case errors.Is(err, session.ErrNotLoggedIn):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (api *APIService) FetchValidators(c *gin.Context) {
	var req FetchValidatorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	network, err := common.ParseNetwork(req.Network)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// a missing set means "no custom validators", not an error
	c.JSON(http.StatusOK, gin.H{"result": api.orch.FetchValidatorsURL(c.Request.Context(), network, req.Force)})
}

func (api *APIService) SelectValidator(c *gin.Context) {
	var req SelectValidatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	network, err := common.ParseNetwork(req.Network)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ack := api.orch.SelectValidatorNymd(c.Request.Context(), req.URL, network)
	if ack == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "validator selection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": ack})
}
