package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ryanlerler/fixflow/config"
	"github.com/ryanlerler/fixflow/driver"
	"github.com/ryanlerler/fixflow/fixapp"
	"github.com/ryanlerler/fixflow/journal"
	"github.com/ryanlerler/fixflow/seqnum"
	"github.com/ryanlerler/fixflow/session"
	"github.com/ryanlerler/fixflow/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect and drive random order flow from a config file",
	Long: `Run the order-flow client using settings from a configuration file.

With --sim the counterparty is simulated in-process; otherwise the FIX
engine connects using the session settings file named in the config.

Example:
  fixflow run --config fixflow.yaml --sim`,
	RunE: runRun,
}

var (
	runConfigPath string
	runSim        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVar(&runSim, "sim", false, "run against an in-process simulated counterparty")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger()

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := seqnum.Open(cfg.Sequence.File)
	if err != nil {
		// No outbound message can be numbered safely without the record.
		return fmt.Errorf("open sequence store: %w", err)
	}

	var j journal.Journal
	switch cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.FillsFile, cfg.Journal.StatsFile)
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	runID := journal.NewRunID()
	log.Info().Str("run_id", runID).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sess *session.Session
	if runSim || cfg.Session.SettingsFile == "" {
		// Daily reset runs at session creation, same as the engine path.
		if _, err := store.ResetIfDue(time.Now(), cfg.ResetLocation()); err != nil {
			return fmt.Errorf("daily reset: %w", err)
		}

		cp := sim.New(store.Current()+1, time.Now().UnixNano())
		sess = newSession(store, cp, j, runID, log)
		cp.Bind(sess)
	} else {
		app := fixapp.NewApp(store, cfg.ResetLocation(),
			cfg.Session.BeginString, cfg.Session.SenderCompID, cfg.Session.TargetCompID, log)
		sess = newSession(store, app, j, runID, log)
		app.Bind(sess)

		initiator, err := fixapp.NewInitiator(app, cfg.Session.SettingsFile)
		if err != nil {
			return fmt.Errorf("create initiator: %w", err)
		}
		if err := initiator.Start(); err != nil {
			return fmt.Errorf("start initiator: %w", err)
		}
		defer initiator.Stop()
	}

	d := driver.New(sess, cfg.Driver, log, time.Now().UnixNano())
	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("driver: %w", err)
	}

	report := sess.Report()
	fmt.Print(report.String())

	if j != nil {
		snap := journal.StatsSnapshot{
			RunID:         runID,
			Time:          time.Now().UTC(),
			TotalNotional: report.TotalNotional,
			RealizedPnL:   report.RealizedPnL,
		}
		if err := j.RecordStats(snap); err != nil {
			log.Error().Err(err).Msg("record stats failed")
		}
	}
	return nil
}

func newSession(store *seqnum.Store, t session.Transport, j journal.Journal, runID string, log zerolog.Logger) *session.Session {
	var opts []session.Option
	if j != nil {
		opts = append(opts, session.WithJournal(j, runID))
	}
	return session.New(store, t, log, opts...)
}
