package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	handler "github.com/zdziszkee/mt103-simulator/internal/api/handlers"
	"github.com/zdziszkee/mt103-simulator/internal/api/router"
	"github.com/zdziszkee/mt103-simulator/internal/broker"
	config "github.com/zdziszkee/mt103-simulator/internal/configuration"
	"github.com/zdziszkee/mt103-simulator/internal/logging"
	"github.com/zdziszkee/mt103-simulator/internal/models"
	"github.com/zdziszkee/mt103-simulator/internal/mt103"
	parser "github.com/zdziszkee/mt103-simulator/internal/parsers"
	"github.com/zdziszkee/mt103-simulator/internal/readers/csv"
	"github.com/zdziszkee/mt103-simulator/internal/registry"
	service "github.com/zdziszkee/mt103-simulator/internal/services"
	"github.com/zdziszkee/mt103-simulator/internal/workers"
)

// loadBanksFromFile reads bank definitions from a CSV seed file
func loadBanksFromFile(filePath string) ([]models.BankDefinition, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	reader := &csv.CSVBankAccountsReader{}
	records, err := reader.LoadBankAccounts(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank data: %w", err)
	}

	defs, err := parser.DefaultBankAccountsParser{}.ParseBankAccounts(records)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bank data: %w", err)
	}
	slog.Info("loaded banks from file", "file", filePath, "rows", len(records), "banks", len(defs))
	return defs, nil
}

func printSummaries(w io.Writer, summaries []models.BankSummary) {
	for _, bank := range summaries {
		fmt.Fprintf(w, "%s (%s%s) queue=%s\n", bank.Name, bank.SwiftName, bank.BranchCode, bank.Queue)
		for _, acc := range bank.Accounts {
			fmt.Fprintf(w, "  %-20s %s %8d %s\n", acc.Name, acc.Number, acc.Balance, bank.Currency)
		}
		fmt.Fprintf(w, "  %-20s %20s %8d %s\n", "total", "", bank.Total, bank.Currency)
	}
}

// undelivered drains the in-process queues and sums what was still on the way
func undelivered(hub *broker.Hub, reg *registry.Registry) int {
	if hub == nil {
		return 0
	}
	total := 0
	for _, b := range reg.Banks() {
		for _, payload := range hub.Drain(b.QueueName()) {
			if p, err := mt103.Decode(payload); err == nil {
				total += p.Amount
			}
		}
	}
	return total
}

// pendingRows reports how many messages are left in each bank's table-backed queue
func pendingRows(ctx context.Context, cfg *config.Config, reg *registry.Registry) int {
	conn := broker.NewSQLBroker(cfg.Database, cfg.Broker.PollInterval)
	if err := conn.Open(ctx); err != nil {
		slog.Error("failed to count pending messages", "error", err)
		return 0
	}
	defer conn.Close()

	total := 0
	for _, b := range reg.Banks() {
		n, err := conn.Pending(ctx, b.QueueName())
		if err != nil {
			slog.Error("failed to count pending messages", "queue", b.QueueName(), "error", err)
			continue
		}
		slog.Info("messages left on queue", "queue", b.QueueName(), "pending", n)
		total += n
	}
	return total
}

// waitForStop returns when a line arrives on stdin or a termination signal is received.
// A closed stdin is ignored so the process can run detached.
func waitForStop(ctx context.Context) string {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	line := make(chan struct{})
	go func() {
		if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err == nil {
			close(line)
		}
	}()

	select {
	case <-line:
		return "stdin"
	case sig := <-quit:
		return sig.String()
	case <-ctx.Done():
		return "context"
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to configuration file")
	banksFile := flag.String("banks", "", "Path to bank seed CSV file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *banksFile != "" {
		cfg.Data.BanksFile = *banksFile
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger.With("app", cfg.AppName))

	defs := cfg.Definitions()
	if cfg.Data.BanksFile != "" {
		if defs, err = loadBanksFromFile(cfg.Data.BanksFile); err != nil {
			return err
		}
	}

	reg, err := registry.New(defs, cfg.Simulation.StartingBalance, nil)
	if err != nil {
		return fmt.Errorf("failed to build banks: %w", err)
	}
	if reg.Len() < 2 {
		slog.Warn("fewer than two banks, senders have no peers", "banks", reg.Len())
	}

	var hub *broker.Hub
	if cfg.Broker.Type == broker.TypeMemory {
		hub = broker.NewHub(cfg.Broker.QueueCapacity)
	}
	newBroker, err := broker.NewFactory(cfg.Broker, cfg.Database, hub)
	if err != nil {
		return err
	}

	receiverConfig := cfg.Receiver
	receiverConfig.Timeout = cfg.Broker.ReceiveTimeout
	supervisor, err := workers.BuildSupervisor(reg, newBroker, cfg.Sender, receiverConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to build workers: %w", err)
	}

	initial := reg.TotalBalance()
	printSummaries(os.Stdout, reg.Summaries())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := supervisor.Start(ctx); err != nil {
		return err
	}

	if cfg.HTTP.Enabled {
		h := handler.NewSimulationHandler(service.NewSimulationService(reg, supervisor))
		app := router.SetupRoutes(cfg.AppName, slog.Default(), h)
		go func() {
			slog.Info("starting status server", "address", cfg.HTTP.Address)
			if err := app.Listen(cfg.HTTP.Address); err != nil {
				slog.Error("status server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Simulation.ShutdownTimeout)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				slog.Error("status server forced to shutdown", "error", err)
			}
		}()
	}

	fmt.Println("Press ENTER to stop")
	reason := waitForStop(ctx)
	slog.Info("shutting down", "reason", reason)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Simulation.ShutdownTimeout)
	defer shutdownCancel()
	if err := supervisor.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, workers.ErrShutdownTimeout) {
			cancel()
		}
		slog.Error("workers did not shut down cleanly", "error", err)
	}

	if cfg.Broker.Type == broker.TypeSQL {
		countCtx, countCancel := context.WithTimeout(context.Background(), cfg.Simulation.ShutdownTimeout)
		fmt.Printf("pending messages %d\n", pendingRows(countCtx, cfg, reg))
		countCancel()
	}

	printSummaries(os.Stdout, reg.Summaries())
	fmt.Printf("initial total %d, final total %d, undelivered %d, in-flight loss %d\n",
		initial, reg.TotalBalance(), undelivered(hub, reg), supervisor.InFlightLoss())
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
}
