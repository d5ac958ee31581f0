package meross

import (
	"context"
	"errors"
)

var (
	// ErrSignatureMismatch means the client rejected the login call shape
	// itself, not the credentials. The engine retries the next shape against
	// the same endpoint and never counts this as a credential failure.
	ErrSignatureMismatch = errors.New("login call shape not accepted")

	// ErrMalformedResponse means the endpoint answered but the response was
	// missing expected structure. Remaining call shapes are pointless for
	// that endpoint.
	ErrMalformedResponse = errors.New("vendor response missing expected structure")

	// ErrLoginFailed is the only login error that crosses the service
	// boundary. The message is deliberately generic: it must never carry
	// vendor error text or anything derived from the password.
	ErrLoginFailed = errors.New("could not sign in to the vendor cloud with the given email and password; " +
		"if the account was created with Google or Apple sign-in, set a vendor app password and retry")
)

// LoginOptions is the options ("keyword") login form. Endpoint may be empty,
// meaning the client's default.
type LoginOptions struct {
	Endpoint string
	Email    string
	Password string
}

// Client is the boundary to the vendor cloud API. The accepted login call
// shape has drifted across vendor library versions, so every known shape is
// a separate method; a client rejects shapes it does not support with
// ErrSignatureMismatch.
type Client interface {
	Login(ctx context.Context, opts LoginOptions) (Session, error)
	LoginAt(ctx context.Context, endpoint, email, password string) (Session, error)
	LoginBasic(ctx context.Context, email, password string) (Session, error)
}

// Session is a live authenticated vendor session. It is owned by exactly one
// connect call, which must Logout and Close it on every path.
type Session interface {
	ListDevices(ctx context.Context) ([]any, error)
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

// CredentialProvider is implemented by sessions that expose their cloud
// credential as plain fields (modern vendor library versions).
type CredentialProvider interface {
	CredentialFields() map[string]any
}

// TokenHolder is the legacy session shape: nothing but a bare token.
type TokenHolder interface {
	Token() string
}

// FieldProvider exposes a plain-map view of an otherwise opaque vendor
// object, such as an attribute-bearing device record.
type FieldProvider interface {
	Fields() map[string]any
}
