package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/obsidianwallet/obsidian-wallet-client/common"
	"github.com/obsidianwallet/obsidian-wallet-client/metrics"
)

const (
	cmdSignInWithMnemonic = "sign_in_with_mnemonic"
	cmdSignInWithPassword = "sign_in_with_password"
	cmdSignOut            = "logout"
	cmdSelectNetwork      = "switch_network"
	cmdMixnodeBondDetails = "mixnode_bond_details"
	cmdGetBalance         = "get_balance"
	cmdGetValidatorURLs   = "get_validator_nymd_urls"
	cmdSelectValidator    = "select_validator_nymd_url"
	cmdGetEnv             = "get_env"
)

// ErrNoAccount is returned when sign-in succeeds without yielding an account.
var ErrNoAccount = errors.New("no account returned")

// Error is a failure reported by the backend. Message is what the backend
// said, unmodified, so it can be shown to the user as-is.
type Error struct {
	Command string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client invokes backend commands over HTTP: POST <base>/invoke/<command>
// with a JSON object of arguments.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ Bridge = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) SignInWithMnemonic(ctx context.Context, mnemonic string) (*common.Account, error) {
	return c.signIn(ctx, cmdSignInWithMnemonic, map[string]any{"mnemonic": mnemonic})
}

func (c *Client) SignInWithPassword(ctx context.Context, password string) (*common.Account, error) {
	return c.signIn(ctx, cmdSignInWithPassword, map[string]any{"password": password})
}

func (c *Client) signIn(ctx context.Context, command string, args map[string]any) (*common.Account, error) {
	acc, err := c.account(ctx, command, args)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%s: %w", command, ErrNoAccount)
	}
	return acc, nil
}

// account decodes an account result; a null result yields nil.
func (c *Client) account(ctx context.Context, command string, args map[string]any) (*common.Account, error) {
	var acc common.Account
	present, err := c.invoke(ctx, command, args, &acc)
	if err != nil || !present {
		return nil, err
	}
	return &acc, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.invoke(ctx, cmdSignOut, nil, nil)
	return err
}

// SelectNetwork returns nil without error when the backend has no account
// for network.
func (c *Client) SelectNetwork(ctx context.Context, network common.Network) (*common.Account, error) {
	return c.account(ctx, cmdSelectNetwork, map[string]any{"network": network})
}

func (c *Client) GetMixnodeBondDetails(ctx context.Context) (*common.MixnodeBond, error) {
	var bond common.MixnodeBond
	present, err := c.invoke(ctx, cmdMixnodeBondDetails, nil, &bond)
	if err != nil || !present {
		return nil, err
	}
	return &bond, nil
}

func (c *Client) GetBalance(ctx context.Context, address string) (*common.Balance, error) {
	var balance common.Balance
	if _, err := c.invoke(ctx, cmdGetBalance, map[string]any{"address": address}, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *Client) GetValidatorURLs(ctx context.Context, network common.Network) (*common.ValidatorSet, error) {
	var set common.ValidatorSet
	if _, err := c.invoke(ctx, cmdGetValidatorURLs, map[string]any{"network": network}, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

func (c *Client) SelectValidatorNymdURL(ctx context.Context, url string, network common.Network) (*common.ValidatorAck, error) {
	if _, err := c.invoke(ctx, cmdSelectValidator, map[string]any{"url": url, "network": network}, nil); err != nil {
		return nil, err
	}
	return &common.ValidatorAck{Network: network, URL: url}, nil
}

// GetEnv tolerates the backend sending flags as strings or omitting them.
func (c *Client) GetEnv(ctx context.Context) (*common.AppEnv, error) {
	var raw json.RawMessage
	if _, err := c.invoke(ctx, cmdGetEnv, nil, &raw); err != nil {
		return nil, err
	}
	result := gjson.ParseBytes(raw)
	env := &common.AppEnv{
		AdminAddress: result.Get("ADMIN_ADDRESS").String(),
	}
	switch flag := result.Get("SHOW_TERMINAL"); flag.Type {
	case gjson.True:
		env.DevMode = true
	case gjson.String:
		env.DevMode = flag.String() != "" && flag.String() != "false"
	}
	return env, nil
}

// invoke runs a command and decodes its result into out. It reports
// whether the backend returned a non-null result.
func (c *Client) invoke(ctx context.Context, command string, args map[string]any, out any) (present bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordBridgeCall(command, err == nil, time.Since(start))
	}()

	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return false, fmt.Errorf("encode %s arguments: %w", command, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke/"+command, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build %s request: %w", command, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", command, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read %s response: %w", command, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, newError(command, resp.StatusCode, payload)
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || gjson.ParseBytes(trimmed).Type == gjson.Null {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		log.Debug().Str("command", command).Err(err).Msg("undecodable bridge response")
		return false, fmt.Errorf("decode %s response: %w", command, err)
	}
	return true, nil
}

func newError(command string, status int, payload []byte) *Error {
	msg := strings.TrimSpace(string(payload))
	if gjson.ValidBytes(payload) {
		parsed := gjson.ParseBytes(payload)
		switch {
		case parsed.Type == gjson.String:
			msg = parsed.String()
		case parsed.Get("error").Exists():
			msg = parsed.Get("error").String()
		case parsed.Get("message").Exists():
			msg = parsed.Get("message").String()
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Command: command, Status: status, Message: msg}
}

// IsBackendError reports whether err came from the backend rather than
// from transport.
func IsBackendError(err error) bool {
	var bErr *Error
	return errors.As(err, &bErr)
}
