package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mailtally/mailtally/internal/classify"
	"github.com/mailtally/mailtally/internal/config"
	"github.com/mailtally/mailtally/internal/inbox"
	"github.com/mailtally/mailtally/internal/record"
	"github.com/mailtally/mailtally/internal/registry"
	"github.com/mailtally/mailtally/internal/store"
	"github.com/mailtally/mailtally/internal/web"
)

var (
	cfgFile      string
	registryFile string
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("config file %s not found", cfgFile)
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	path := registryFile
	if path == "" {
		path = cfg.Registry
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("brand registry %s not found: %w", path, err)
	}
	if info.IsDir() {
		return registry.LoadFromDir(path)
	}
	return registry.LoadFromFile(path)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailtally",
		Short: "mailtally - Classify receipt and subscription emails",
		Long: `mailtally sorts raw emails into purchases, subscriptions, and everything
else using weighted heuristics: brand detection against a YAML registry,
amount/date/frequency extraction, and a multi-signal receipt score. No
external services, no ML models.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mailtally/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "brand registry file or directory (default is ./data/brands.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(brandsCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file %s already exists", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func classifyCmd() *cobra.Command {
	var (
		outputFile string
		saveToDB   bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "classify <mails.json>",
		Short: "Classify a batch of exported mails",
		Long: `Read a JSON batch of mail records, classify each one, and write the
annotated batch back out. Mails are processed independently, so the batch
fans out over a bounded worker pool.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			mails, err := record.LoadBatch(args[0])
			if err != nil {
				return err
			}

			if workers == 0 {
				workers = cfg.Options.Workers
			}

			classifier := classify.New(reg)
			results := make([]record.Result, len(mails))

			var g errgroup.Group
			g.SetLimit(workers)
			for i := range mails {
				i := i
				g.Go(func() error {
					results[i] = record.NewResult(mails[i], classifier.Classify(mails[i]))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if err := record.SaveBatch(outputFile, results); err != nil {
				return err
			}

			if saveToDB {
				st, err := store.Open(cfg.Database, cfg.Options.ReviewThreshold)
				if err != nil {
					return err
				}
				defer st.Close()
				for i, m := range mails {
					if _, err := st.Save(m, results[i].Classification); err != nil {
						return err
					}
				}
			}

			printCounts(results)
			fmt.Printf("Wrote %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "categorized_mails.json", "output file for classified mails")
	cmd.Flags().BoolVar(&saveToDB, "save", false, "also save results to the database")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default from config)")
	return cmd
}

func printCounts(results []record.Result) {
	var purchases, subscriptions, others int
	for _, r := range results {
		switch r.Type {
		case classify.TypePurchase:
			purchases++
		case classify.TypeSubscription:
			subscriptions++
		default:
			others++
		}
	}
	fmt.Printf("Classified %d mails: %d purchases, %d subscriptions, %d others\n",
		len(results), purchases, subscriptions, others)
}

func monitorCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Fetch recent inbox mail, classify it, and store the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateInbox(); err != nil {
				return err
			}
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if days == 0 {
				days = cfg.Options.SinceDays
			}

			fetcher := inbox.NewFetcher(cfg.Inbox)
			if err := fetcher.Connect(ctx); err != nil {
				return err
			}
			defer fetcher.Disconnect()

			mails, err := fetcher.FetchSince(ctx, days)
			if err != nil {
				return err
			}
			if len(mails) == 0 {
				fmt.Println("No new mail to classify")
				return nil
			}

			st, err := store.Open(cfg.Database, cfg.Options.ReviewThreshold)
			if err != nil {
				return err
			}
			defer st.Close()

			classifier := classify.New(reg)
			results := make([]record.Result, len(mails))
			for i, m := range mails {
				c := classifier.Classify(m)
				results[i] = record.NewResult(m, c)
				if _, err := st.Save(m, c); err != nil {
					return err
				}
			}

			printCounts(results)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "fetch mail from the last N days (default from config)")
	return cmd
}

func brandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List the brands in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			fmt.Printf("%-20s %-15s %-9s %s\n", "BRAND", "CATEGORY", "PRIORITY", "PATTERNS")
			for _, name := range reg.Names() {
				b := reg.Get(name)
				fmt.Printf("%-20s %-15s %-9d %d\n", b.Name, b.Category, b.Priority, len(b.Patterns))
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a summary of stored classifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.Database, cfg.Options.ReviewThreshold)
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := st.Summarize()
			if err != nil {
				return err
			}

			fmt.Printf("Total:         %d\n", summary.Total)
			fmt.Printf("Purchases:     %d\n", summary.Purchases)
			fmt.Printf("Subscriptions: %d\n", summary.Subscriptions)
			fmt.Printf("Others:        %d\n", summary.Others)
			fmt.Printf("Needs review:  %d\n", summary.NeedsReview)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored results over a local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.Database, cfg.Options.ReviewThreshold)
			if err != nil {
				return err
			}
			defer st.Close()

			srv, err := web.NewServer(st, classify.New(reg), port)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	return cmd
}
