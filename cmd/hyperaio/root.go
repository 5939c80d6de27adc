package main

import (
	"context"
	"time"

	"github.com/hodgesds/hyperaio"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	envFile   string // .env file with HYPERAIO_* settings
	entries   uint32 // ring entries, overrides the env
	batchSize uint32 // flush threshold, overrides the env
	verbose   bool   // log engine spans
	timeout   time.Duration

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:          "hyperaio",
	Short:        "Batched file I/O on io_uring.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.TraceLevel)
		}
	},
}

func init() {
	log.SetOutput(rootCmd.ErrOrStderr())
	log.SetLevel(logrus.WarnLevel)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", "", "read HYPERAIO_* settings from this file")
	flags.Uint32Var(&entries, "entries", hyperaio.DefaultCapacity, "ring entries, also the largest batch")
	flags.Uint32Var(&batchSize, "batch", hyperaio.DefaultBatchSize, "requests per flush")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log engine operations")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "give up waiting for completions after this long")
}

// loadConfig returns the env configuration overridden by explicit flags.
func loadConfig(cmd *cobra.Command) (hyperaio.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := hyperaio.ParseConfig(files...)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("entries") {
		cfg.Capacity = entries
	}
	if cmd.Flags().Changed("batch") {
		cfg.BatchSize = batchSize
	}
	return cfg, cfg.Validate()
}

// session is an initialized engine delivering into a Collector.
type session struct {
	cfg hyperaio.Config
	e   *hyperaio.Engine
	c   *hyperaio.Collector
}

func startSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s := &session{
		cfg: cfg,
		e: hyperaio.New(
			hyperaio.WithConfig(cfg),
			hyperaio.WithLogger(log.WithField("component", "hyperaio")),
		),
		c: hyperaio.NewCollector(),
	}
	if err := s.e.Init(s.c); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	if err := s.e.Destroy(); err != nil {
		log.WithError(err).Warn("destroy engine")
	}
}

func waitContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
