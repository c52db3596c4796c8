package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
	"github.com/iho/cashledger/internal/infrastructure/postgres"
)

const actorHeader = "X-Actor-ID"

type options struct {
	baseURL     string
	timeout     time.Duration
	actor       string
	secret      string
	databaseURL string
}

// errDrift is returned when reconciliation finds drifting accounts so the
// process exits non-zero.
var errDrift = errors.New("ledger drift detected")

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "cashledger-cli",
		Short:         "Cash ledger CLI tool",
		Long:          `A command line interface for operating the cash ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.actor, "actor", os.Getenv("CASHLEDGER_ACTOR"), "Acting partner account")
	rootCmd.PersistentFlags().StringVar(&opts.secret, "jwt-secret", os.Getenv("JWT_SECRET"), "Sign requests with a bearer token for --actor")

	rootCmd.AddCommand(
		balanceCmd(opts),
		reconcileCmd(opts),
		nextNumberCmd(opts),
		tokenCmd(opts),
		migrateCmd(opts),
	)

	return rootCmd
}

func balanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's recorded balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out dto.BalanceResponse
			if _, err := opts.do(http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0])+"/balance", &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", out.AccountID, out.Balance)
			return nil
		},
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [account]",
		Short: "Compare recorded balances with their entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				var out dto.ReconciliationResponse
				status, err := opts.do(http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0])+"/reconciliation", &out)
				if err != nil && status != http.StatusConflict {
					return err
				}
				printReconciliation(w, &out)
				if !out.IsReconciled {
					return errDrift
				}
				return nil
			}

			var report dto.ReconciliationReportResponse
			if _, err := opts.do(http.MethodGet, "/api/v1/ledger/reconciliation", &report); err != nil {
				return err
			}
			fmt.Fprintf(w, "checked %d accounts, %d reconciled\n", report.TotalAccounts, report.ReconciledAccounts)
			for _, d := range report.Discrepancies {
				printReconciliation(w, d)
			}
			if len(report.Discrepancies) > 0 {
				return errDrift
			}
			return nil
		},
	}
}

func printReconciliation(w io.Writer, r *dto.ReconciliationResponse) {
	state := "OK"
	if !r.IsReconciled {
		state = "DRIFT"
	}
	fmt.Fprintf(w, "%s\t%s\trecorded=%s\tcalculated=%s\tdifference=%s\n",
		state, r.AccountID, r.RecordedBalance, r.CalculatedBalance, r.Difference)
}

func nextNumberCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next-number <kind>",
		Short: "Issue the next document number of a kind",
		Long:  "Issue the next document number. Kinds: invoice, expense, production, labor-entry, labor-payment, purchase, payment, transfer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseDocumentKind(args[0]); err != nil {
				return err
			}

			var out dto.DocumentNumberResponse
			if _, err := opts.do(http.MethodPost, "/api/v1/sequences/"+args[0]+"/next", &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Number)
			return nil
		},
	}
}

func tokenCmd(opts *options) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <account>",
		Short: "Mint a bearer token for a partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.secret == "" {
				return errors.New("--jwt-secret is required")
			}
			token, err := auth.NewJWTManager(opts.secret, ttl).Generate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func migrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	logger := func(cmd *cobra.Command) zerolog.Logger {
		return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true})
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if opts.databaseURL == "" {
					return errors.New("--database-url is required")
				}
				return postgres.RunMigrations(opts.databaseURL, logger(cmd))
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if opts.databaseURL == "" {
					return errors.New("--database-url is required")
				}
				return postgres.RunMigrationsDown(opts.databaseURL, logger(cmd))
			},
		},
	)

	return cmd
}

// do sends a request to the API and decodes a 2xx body into out. The status
// code is returned even on error so callers can accept documented conflicts.
func (o *options) do(method, path string, out any) (int, error) {
	req, err := http.NewRequest(method, strings.TrimRight(o.baseURL, "/")+path, nil)
	if err != nil {
		return 0, err
	}

	if err := o.authenticate(req); err != nil {
		return 0, err
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	var apiErr error
	if resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.Unmarshal(body, &e)
		apiErr = fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode, e.Error, e.Message)
	}

	if out != nil && len(body) > 0 && (apiErr == nil || resp.StatusCode == http.StatusConflict) {
		if err := json.Unmarshal(body, out); err != nil && apiErr == nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return resp.StatusCode, apiErr
}

func (o *options) authenticate(req *http.Request) error {
	if o.actor == "" {
		return nil
	}
	if o.secret == "" {
		req.Header.Set(actorHeader, o.actor)
		return nil
	}

	token, err := auth.NewJWTManager(o.secret, time.Minute).Generate(o.actor)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
