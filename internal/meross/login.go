package meross

import (
	"context"
	"errors"
)

// DefaultEndpoints lists endpoint candidates in trial order. The empty string
// means "let the client pick its default" and goes first; the regional
// endpoints follow for accounts pinned to a specific deployment.
var DefaultEndpoints = []string{
	"",
	"https://iotx.meross.com",
	"https://iotx-us.meross.com",
	"https://iotx-eu.meross.com",
	"https://iotx-ap.meross.com",
}

// loginShape is one accepted argument shape for the vendor login call.
type loginShape struct {
	name string
	call func(ctx context.Context, c Client, endpoint, email, password string) (Session, error)
}

// loginShapes are tried in order for each endpoint. The vendor library has
// shipped all four of these over time.
var loginShapes = []loginShape{
	{
		name: "options with endpoint",
		call: func(ctx context.Context, c Client, endpoint, email, password string) (Session, error) {
			return c.Login(ctx, LoginOptions{Endpoint: endpoint, Email: email, Password: password})
		},
	},
	{
		name: "options without endpoint",
		call: func(ctx context.Context, c Client, _, email, password string) (Session, error) {
			return c.Login(ctx, LoginOptions{Email: email, Password: password})
		},
	},
	{
		name: "positional with endpoint",
		call: func(ctx context.Context, c Client, endpoint, email, password string) (Session, error) {
			return c.LoginAt(ctx, endpoint, email, password)
		},
	},
	{
		name: "positional without endpoint",
		call: func(ctx context.Context, c Client, _, email, password string) (Session, error) {
			return c.LoginBasic(ctx, email, password)
		},
	},
}

// LoginEngine walks the ordered (endpoint, call shape) candidates until one
// yields a live session. Candidates are tried strictly in sequence; the first
// success stops the search.
type LoginEngine struct {
	client    Client
	endpoints []string
}

// NewLoginEngine builds an engine over the given client. With no endpoints
// given, DefaultEndpoints is used.
func NewLoginEngine(client Client, endpoints ...string) *LoginEngine {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	return &LoginEngine{client: client, endpoints: endpoints}
}

// Login returns a live session or ErrLoginFailed. Failures of individual
// candidates are classified and absorbed:
//   - signature mismatch: next shape, same endpoint
//   - malformed response: remaining shapes abandoned, next endpoint
//   - anything else (network, rejection, timeout): next endpoint
func (e *LoginEngine) Login(ctx context.Context, email, password string) (Session, error) {
	for _, endpoint := range e.endpoints {
		for _, shape := range loginShapes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			session, err := shape.call(ctx, e.client, endpoint, email, password)
			if err == nil {
				return session, nil
			}
			if errors.Is(err, ErrSignatureMismatch) {
				continue
			}
			// Malformed response or any other failure: this endpoint is done.
			break
		}
	}
	return nil, ErrLoginFailed
}
