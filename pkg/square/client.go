package square

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sqclient "github.com/square/square-go-sdk/client"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

// Environment selects the Square API host.
type Environment string

const (
	Sandbox    Environment = "sandbox"
	Production Environment = "production"
)

func (e Environment) baseURL() string {
	if e == Production {
		return "https://connect.squareup.com"
	}
	return "https://connect.squareupsandbox.com"
}

var (
	errAccessTokenRequired   = errors.New("square access token is required")
	errWebhookSecretRequired = errors.New("square webhook secret is required")
	errLocationRequired      = errors.New("square location id is required")
	errUnknownEnvironment    = fmt.Errorf("square environment must be %q or %q", Sandbox, Production)
	errLoggerRequired        = errors.New("square logger is required")
)

// Client takes card payments for one seller location.
type Client struct {
	sdk           *sqclient.Client
	environment   Environment
	webhookSecret string
	locationID    string
	logger        *logger.Logger
}

func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := ParseEnvironment(cfg.Env)
	if err != nil {
		return nil, err
	}

	required := []struct {
		value string
		err   error
	}{
		{cfg.AccessToken, errAccessTokenRequired},
		{cfg.WebhookSecret, errWebhookSecretRequired},
		{cfg.LocationID, errLocationRequired},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, r.err
		}
	}

	c := &Client{
		sdk: sqclient.NewClient(
			sqoption.WithBaseURL(env.baseURL()),
			sqoption.WithToken(strings.TrimSpace(cfg.AccessToken)),
		),
		environment:   env,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		locationID:    strings.TrimSpace(cfg.LocationID),
		logger:        logg,
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"square_env":  string(env),
		"location_id": c.locationID,
	}), "square client initialized")
	return c, nil
}

// ParseEnvironment defaults a blank value to the sandbox.
func ParseEnvironment(raw string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(raw))); env {
	case "":
		return Sandbox, nil
	case Sandbox, Production:
		return env, nil
	default:
		return "", errUnknownEnvironment
	}
}

func (c *Client) Environment() Environment {
	if c == nil {
		return ""
	}
	return c.environment
}

// LocationID is the seller location payments are taken for.
func (c *Client) LocationID() string {
	if c == nil {
		return ""
	}
	return c.locationID
}

// NewIdempotencyKey returns "<prefix>-<uuid>"; a blank prefix becomes "vb".
func NewIdempotencyKey(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "vb"
	}
	return prefix + "-" + uuid.NewString()
}

func idempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return NewIdempotencyKey(prefix)
}
