package httpclient

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=fetcher.go Fetcher

import (
	"context"

	"github.com/agentx-labs/promptreg/internal/auth"
)

// Fetcher retrieves the raw bytes behind a URL.
type Fetcher interface {
	Get(ctx context.Context, url string, cred auth.Credential) ([]byte, error)
}
