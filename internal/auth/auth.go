package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"

	"github.com/agentx-labs/promptreg/internal/branding"
	"github.com/agentx-labs/promptreg/internal/config"
)

// Kind is the way a credential is presented on the wire.
type Kind string

const (
	KindNone   Kind = ""
	KindBearer Kind = "bearer"
	KindBasic  Kind = "basic"
)

// Credential is attached to outgoing requests. The zero value means none.
type Credential struct {
	Kind     Kind
	Token    string
	Username string
	Password string
}

// None is the empty credential.
var None = Credential{}

// IsZero reports whether the credential carries nothing.
func (c Credential) IsZero() bool { return c.Kind == KindNone }

// Apply sets the Authorization header on req.
func (c Credential) Apply(req *http.Request) {
	switch c.Kind {
	case KindBearer:
		req.Header.Set("Authorization", "Bearer "+c.Token)
	case KindBasic:
		req.SetBasicAuth(c.Username, c.Password)
	}
}

// String never reveals secrets.
func (c Credential) String() string {
	if c.IsZero() {
		return "none"
	}
	return string(c.Kind) + " (redacted)"
}

// Resolver turns catalog auth settings into credentials.
type Resolver struct {
	// ConfigDir holds the optional .env fallback file.
	ConfigDir string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// NewResolver returns a Resolver reading .env from configDir.
func NewResolver(configDir string) *Resolver {
	return &Resolver{ConfigDir: configDir, LookupEnv: os.LookupEnv}
}

// Resolve returns the credential for catalogID. A nil or "none" config
// resolves to None.
func (r *Resolver) Resolve(catalogID string, cfg *config.AuthConfig) (Credential, error) {
	if cfg == nil {
		return None, nil
	}

	switch cfg.Type {
	case "", config.AuthNone:
		return None, nil
	case config.AuthBearer:
		if cfg.Token == "" {
			return None, fmt.Errorf("catalog %s: bearer auth needs a token", catalogID)
		}
		return Credential{Kind: KindBearer, Token: cfg.Token}, nil
	case config.AuthBasic:
		if cfg.Username == "" {
			return None, fmt.Errorf("catalog %s: basic auth needs a username", catalogID)
		}
		return Credential{Kind: KindBasic, Username: cfg.Username, Password: cfg.Password}, nil
	case config.AuthEnv:
		token, err := r.fromEnv(cfg.EnvVar)
		if err != nil {
			return None, fmt.Errorf("catalog %s: %w", catalogID, err)
		}
		return Credential{Kind: KindBearer, Token: token}, nil
	case config.AuthKeyring:
		token, err := keyring.Get(branding.KeyringService(), catalogID)
		if errors.Is(err, keyring.ErrNotFound) {
			return None, fmt.Errorf("catalog %s: no keyring entry for service %q", catalogID, branding.KeyringService())
		}
		if err != nil {
			return None, fmt.Errorf("catalog %s: reading keyring: %w", catalogID, err)
		}
		return Credential{Kind: KindBearer, Token: token}, nil
	default:
		return None, fmt.Errorf("catalog %s: unknown auth type %q", catalogID, cfg.Type)
	}
}

func (r *Resolver) fromEnv(name string) (string, error) {
	if name == "" {
		return "", errors.New("env auth needs envVar")
	}
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(name); ok && v != "" {
		return v, nil
	}

	if r.ConfigDir != "" {
		vals, err := godotenv.Read(filepath.Join(r.ConfigDir, ".env"))
		if err == nil && vals[name] != "" {
			return vals[name], nil
		}
	}
	return "", fmt.Errorf("environment variable %s is not set", name)
}

// StoreKeyring saves a token for catalogID in the OS keychain.
func StoreKeyring(catalogID, token string) error {
	if err := keyring.Set(branding.KeyringService(), catalogID, token); err != nil {
		return fmt.Errorf("writing keyring entry for %s: %w", catalogID, err)
	}
	return nil
}
