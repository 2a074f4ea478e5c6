package api

import (
	"context"
	"net/http"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/session"
)

type APIService struct {
	address string
	orch    Orchestrator
	hub     *Hub
	server  *http.Server
}

// Orchestrator is the part of session.Orchestrator the views drive.
type Orchestrator interface {
	State() session.State
	AddSubscriber(s session.Subscriber)
	LogIn(ctx context.Context, req session.LoginRequest) error
	LogOut(ctx context.Context)
	SwitchNetwork(network common.Network) error
	GetBondDetails(ctx context.Context)
	RefreshBalance(ctx context.Context) error
	FetchValidatorsURL(ctx context.Context, network common.Network, force bool) *common.ValidatorSet
	SelectValidatorNymd(ctx context.Context, url string, network common.Network) *common.ValidatorAck
	TogglePanel(panel session.Panel) error
	Notifications(limit int) ([]common.Notification, error)
	ClearNotifications() error
}

type SwitchNetworkRequest struct {
	Network string `json:"network" binding:"required"`
}

type FetchValidatorsRequest struct {
	Network string `json:"network" binding:"required"`
	Force   bool   `json:"force"`
}

type SelectValidatorRequest struct {
	URL     string `json:"url" binding:"required"`
	Network string `json:"network" binding:"required"`
}

type TogglePanelRequest struct {
	Panel string `json:"panel" binding:"required"`
}

// Event is one message on the websocket stream.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventState        = "state"
	EventNotification = "notification"
	EventNavigate     = "navigate"
)
