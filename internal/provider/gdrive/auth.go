package gdrive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/secrets"
)

// loadToken reads a persisted OAuth token. A token that fails to
// decode is treated as absent so the caller re-establishes the grant.
func loadToken(path string) *oauth2.Token {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		os.Remove(path)
		return nil
	}
	return tok
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := config.EnsureConfigDirectory(); err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// obtainToken yields a usable token: stored token first, refresh if
// expired, interactive grant as the last resort. Refreshed and newly
// granted tokens are persisted for the next run.
func (p *Provider) obtainToken(ctx context.Context, oc *oauth2.Config) (*oauth2.Token, error) {
	tokenPath := config.TokenFile()
	if tok := loadToken(tokenPath); tok != nil {
		fresh, err := oc.TokenSource(ctx, tok).Token()
		if err == nil {
			if fresh.AccessToken != tok.AccessToken {
				if err := saveToken(tokenPath, fresh); err != nil {
					p.log.Warnf("Could not persist refreshed token: %s", secrets.Mask(err.Error()))
				}
			}
			return fresh, nil
		}
		p.log.Warnf("Stored token rejected, requesting a new grant: %s", secrets.Mask(err.Error()))
		os.Remove(tokenPath)
	}

	if !p.interactive {
		return nil, fmt.Errorf("no stored token and no terminal for the authorization flow")
	}
	tok, err := p.grantInteractively(ctx, oc)
	if err != nil {
		return nil, err
	}
	if err := saveToken(tokenPath, tok); err != nil {
		p.log.Warnf("Could not persist token: %s", secrets.Mask(err.Error()))
	}
	return tok, nil
}

func (p *Provider) grantInteractively(ctx context.Context, oc *oauth2.Config) (*oauth2.Token, error) {
	url := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following URL, authorize access, then paste the code here:\n%s\n\nCode: ", url)

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := oc.Exchange(ctx, trimCode(code))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func trimCode(code string) string {
	for len(code) > 0 && (code[len(code)-1] == '\n' || code[len(code)-1] == '\r' || code[len(code)-1] == ' ') {
		code = code[:len(code)-1]
	}
	return code
}

// connect builds an authenticated Drive client. All Drive traffic
// rides a retrying HTTP client underneath the OAuth transport.
func (p *Provider) connect(ctx context.Context) (driveAPI, error) {
	data, err := os.ReadFile(p.cfg.Storage.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	oc, err := google.ConfigFromJSON(data, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	base := retryablehttp.NewClient()
	base.Logger = nil
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base.StandardClient())

	tok, err := p.obtainToken(ctx, oc)
	if err != nil {
		return nil, err
	}
	return newDriveService(ctx, oc.Client(ctx, tok))
}
