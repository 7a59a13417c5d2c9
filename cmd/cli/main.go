package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/usecase"
)

var bcryptGenerate = bcrypt.GenerateFromPassword

// options are the persistent flags shared by every command.
type options struct {
	baseURL        string
	token          string
	timeout        time.Duration
	databaseURL    string
	migrationsPath string
}

type seedAccount struct {
	Name    string
	Email   string
	Balance string
}

var demoAccounts = []seedAccount{
	{Name: "Alice", Email: "alice@example.com", Balance: "1000"},
	{Name: "Bob", Email: "bob@example.com", Balance: "500"},
	{Name: "Charlie", Email: "charlie@example.com", Balance: "0"},
	{Name: "Diana", Email: "diana@example.com", Balance: "10000"},
}

const demoPassword = "password"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gowallet-cli",
		Short:         "GoWallet CLI tool",
		Long:          `A command line interface for operating a GoWallet deployment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := &config.Config{}
	if cfg, err := config.Load(); err == nil {
		defaults = cfg
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the GoWallet API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("GOWALLET_TOKEN"), "Bearer token for authenticated endpoints")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", defaults.DatabaseURL, "PostgreSQL connection URL")
	rootCmd.PersistentFlags().StringVar(&opts.migrationsPath, "migrations", defaults.MigrationsPath, "Migrations directory")

	rootCmd.AddCommand(
		migrateCmd(opts),
		seedCmd(opts),
		transferCmd(opts),
		eventsCmd(opts),
		ledgerCmd(opts),
		hashPasswordCmd(),
	)

	return rootCmd
}

func migrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrations(opts.databaseURL, opts.migrationsPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrationsDown(opts.databaseURL, opts.migrationsPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := postgres.MigrationVersion(opts.databaseURL, opts.migrationsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Version: %d (dirty: %v)\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func seedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			accounts := usecase.NewAccountUseCase(postgresRepo.NewAccountRepository(pool), nil)
			return seed(cmd.Context(), cmd.OutOrStdout(), accounts)
		},
	}
}

type accountCreator interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
}

// seed creates the demo accounts and skips the ones that already exist.
func seed(ctx context.Context, out io.Writer, accounts accountCreator) error {
	for _, a := range demoAccounts {
		account, err := accounts.CreateAccount(ctx, usecase.CreateAccountInput{
			Name:     a.Name,
			Email:    a.Email,
			Password: demoPassword,
			Balance:  a.Balance,
		})
		if errors.Is(err, domain.ErrAccountExists) {
			fmt.Fprintf(out, "%-8s exists, skipped\n", a.Name)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
		fmt.Fprintf(out, "%-8s id=%d balance=%s\n", account.Name, account.ID, account.Balance.Format())
	}
	return nil
}

func transferCmd(opts *options) *cobra.Command {
	var (
		from, to    int64
		amount      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Execute a transfer directly against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			log := logger.New(logger.Config{Level: "warn", Format: "console", Service: "gowallet-cli"})
			uc := usecase.NewTransferUseCase(
				usecase.NewUnitOfWork(postgresRepo.NewTxManager(pool), log),
				postgresRepo.NewAccountRepository(pool),
				postgresRepo.NewTransactionRepository(pool),
				postgresRepo.NewBalanceLedgerRepository(pool),
				postgresRepo.NewCommissionLedgerRepository(pool),
				usecase.NewEventRecorder(postgresRepo.NewEventRepository(pool)),
				nil,
				postgresRepo.NewULIDGenerator(),
				nil,
				log,
			)

			txn, err := uc.Transfer(cmd.Context(), usecase.TransferInput{
				SenderID:    from,
				ReceiverID:  to,
				Amount:      amount,
				Description: description,
			})
			if err != nil {
				return err
			}

			printTransaction(cmd.OutOrStdout(), txn)
			return nil
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "Sender account id")
	cmd.Flags().Int64Var(&to, "to", 0, "Receiver account id")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func printTransaction(out io.Writer, txn *domain.Transaction) {
	fmt.Fprintf(out, "Transaction %d %s\n", txn.ID, txn.Status)
	fmt.Fprintf(out, "  amount:     %s\n", txn.Amount.Format())
	fmt.Fprintf(out, "  commission: %s\n", txn.CommissionFee.Format())
	fmt.Fprintf(out, "  debited:    %s\n", txn.TotalDebited.Format())
	if txn.Description != nil {
		fmt.Fprintf(out, "  note:       %s\n", truncate(*txn.Description, 60))
	}
}

func eventsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "events <tx-id>",
		Short: "Print the event history of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || txID <= 0 {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			pool, err := connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer pool.Close()

			history, err := usecase.NewEventRecorder(postgresRepo.NewEventRepository(pool)).History(cmd.Context(), txID)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return domain.ErrTransactionNotFound
			}

			printJSON(history)
			return nil
		},
	}
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency through the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: opts.timeout}
			return checkConsistency(cmd.Context(), client, opts.baseURL, opts.token, cmd.OutOrStdout())
		},
	})

	return cmd
}

func checkConsistency(ctx context.Context, client *http.Client, baseURL, token string, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/ledger/consistency", nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("consistency check FAILED (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result struct {
		Status     string `json:"status"`
		Consistent bool   `json:"consistent"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Fprintln(out, "Consistency check PASSED")
	fmt.Fprintf(out, "Consistent: %v\n", result.Consistent)
	fmt.Fprintf(out, "Status: %s\n", result.Status)
	return nil
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

func connect(ctx context.Context, opts *options) (*pgxpool.Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return postgres.NewPool(ctx, opts.databaseURL, 2, 0)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to format output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
