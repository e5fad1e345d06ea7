package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	"bankrecon/internal/core"
	"bankrecon/internal/log"
)

const defaultTokenFile = "token.json"

// NewAuthCommand returns the standalone OAuth bootstrap command used by
// cmd/oauth-init.
func NewAuthCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := newAuthCommand(opts)
	cmd.Use = "oauth-init"
	pf := cmd.Flags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.StringVar(&opts.logLevel, "log-level", "", "override log.level")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func newAuthCommand(opts *globalOptions) *cobra.Command {
	var port string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to the ledger and save the OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Google.OAuthClientFile == "" {
				return errors.New("google.oauth_client_file is required")
			}
			tokenFile := cfg.Google.OAuthTokenFile
			if tokenFile == "" {
				tokenFile = defaultTokenFile
			}

			b, err := os.ReadFile(cfg.Google.OAuthClientFile)
			if err != nil {
				return fmt.Errorf("read client file: %w", err)
			}
			oc, err := goauth.ConfigFromJSON(b, gsheet.SpreadsheetsReadonlyScope)
			if err != nil {
				return fmt.Errorf("oauth config: %w", err)
			}
			// The OAuth client must list this URI among its authorized redirect URIs.
			oc.RedirectURL = "http://localhost:" + port + "/callback"

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			code, err := waitForCode(ctx, "localhost:"+port, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n",
					oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
			})
			if err != nil {
				return err
			}
			tok, err := oc.Exchange(ctx, code)
			if err != nil {
				return core.ExternalIO("token exchange", err)
			}
			if err := saveToken(tokenFile, tok); err != nil {
				return err
			}
			logger.Info("Saved OAuth token", log.FieldFile, tokenFile)
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", tokenFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "8085", "local port of the OAuth redirect")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for authorization")

	return cmd
}

// waitForCode serves the OAuth redirect on addr until a code arrives or ctx
// ends. ready is called once the listener is up.
func waitForCode(ctx context.Context, addr string, ready func()) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", core.ExternalIO("listen for oauth redirect", err)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(codeCh, errCh))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if ready != nil {
		ready()
	}

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}

func callbackHandler(codeCh chan<- string, errCh chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("oauth error: %s", e):
			default:
			}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- code:
		default:
		}
	}
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return core.ExternalIO("open token file", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return core.ExternalIO("write token", err)
	}
	if err := f.Close(); err != nil {
		return core.ExternalIO("close token file", err)
	}
	return nil
}
