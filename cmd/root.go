package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/database"
	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	var (
		csvPath  string
		jsonPath string
		store    bool
	)
	cmd := &cobra.Command{
		Use:   "headlineminer [terms...]",
		Short: "Collect recent news headlines for search terms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(s)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var db *database.DB
			if store {
				db, err = openDB(ctx, s, log)
				if err != nil {
					return err
				}
				defer db.Close(context.Background())

				if !cmd.Flags().Changed("search-url") {
					s.SearchURL = storedSearchURL(ctx, db, s.SearchURL, log)
				}
			}

			botCfg, err := s.botConfig()
			if err != nil {
				return err
			}
			req, err := bots.NewCrawlRequest(args, s.from(time.Now()), s.Max)
			if err != nil {
				return err
			}

			bot := bots.NewYahooBot(botCfg, s.fetcher(log), log)
			result, err := bot.Crawl(ctx, req)
			if err != nil {
				return err
			}

			if db != nil {
				runID := uuid.NewString()
				for _, term := range req.Terms {
					n, err := db.SaveArticles(ctx, runID, bots.YahooAgency, term, result[term].Articles)
					if err != nil {
						return fmt.Errorf("store %s: %w", term, err)
					}
					log.WithFields(logrus.Fields{"run": runID, "term": term, "new": n}).Info("articles stored")
				}
			}

			if csvPath != "" {
				if err := writeCSV(csvPath, req.Terms, result); err != nil {
					return err
				}
			}
			if jsonPath != "" {
				if err := writeJSON(jsonPath, result); err != nil {
					return err
				}
			}
			renderTable(cmd.OutOrStdout(), req.Terms, result)

			if failed := result.Failed(); len(failed) > 0 {
				return fmt.Errorf("crawl failed for %v", failed)
			}
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.SortFlags = true

	f.String("config", "", "Config file (yaml, json or toml)")
	f.String("log-level", "info", "Log level")
	f.Bool("log-json", false, "Log as JSON")
	f.StringP("db", "d", "HeadlineMiner", "Database name")
	f.StringP("conn", "c", "mongodb://localhost:27017", "Database connection string")
	f.Int("days", 7, "Keep articles posted within this many days")
	f.IntP("max", "m", 10, "Maximum articles per term, 0 for no limit")
	f.IntP("workers", "w", 1, "Number of terms crawled at once")
	f.Int("max-pages", 50, "Maximum result pages per term")
	f.Duration("delay", time.Second, "Pause between result pages")
	f.Duration("term-timeout", 2*time.Minute, "Deadline for crawling one term")
	f.Duration("request-timeout", 30*time.Second, "Timeout of a single page request")
	f.Int("retries", 2, "Retries of a failed page request")
	f.String("search-url", bots.DefaultYahooSearchURL, "Search endpoint, %s receives the term")
	f.String("labeler-url", sentiment.DefaultEndpoint, "Sentiment inference endpoint")
	f.String("labeler-token", "", "Bearer token for the inference endpoint")

	f = cmd.Flags()
	f.SortFlags = true

	f.StringVar(&csvPath, "csv", "", "Write the articles to this CSV file")
	f.StringVar(&jsonPath, "json", "", "Write the articles to this JSON file")
	f.BoolVar(&store, "store", false, "Save the articles to the database")

	return cmd
}

func openDB(ctx context.Context, s settings, log logrus.FieldLogger) (*database.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.NewDB(connectCtx, s.DB, s.Conn, log)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.DB, err)
	}
	return db, nil
}

func storedSearchURL(ctx context.Context, db *database.DB, fallback string, log logrus.FieldLogger) string {
	u, ok, err := db.SearchURL(ctx, bots.YahooAgency)
	if err != nil {
		log.WithError(err).Warn("reading search endpoint, using default")
		return fallback
	}
	if !ok {
		return fallback
	}
	return u
}

// Execute executes the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
