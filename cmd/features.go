package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/features"
	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newFeaturesCommand() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "features [terms...]",
		Short: "Crawl, label and write balanced train/test rows to the feature store",
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

			terms := args
			if len(terms) == 0 {
				terms = features.DefaultTerms
			}

			db, err := openDB(ctx, s, log)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())

			if !cmd.Flags().Changed("search-url") {
				s.SearchURL = storedSearchURL(ctx, db, s.SearchURL, log)
			}
			botCfg, err := s.botConfig()
			if err != nil {
				return err
			}
			req, err := bots.NewCrawlRequest(terms, s.from(time.Now()), s.Max)
			if err != nil {
				return err
			}

			result, err := bots.NewYahooBot(botCfg, s.fetcher(log), log).Crawl(ctx, req)
			if err != nil {
				return err
			}
			for _, term := range result.Failed() {
				log.WithError(result[term].Err).WithField("term", term).Warn("term incomplete")
			}

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			labeler := sentiment.NewHTTPLabeler(s.LabelerURL, s.LabelerToken, s.RequestTimeout)
			pipeline := features.NewPipeline(labeler, db, rand.New(rand.NewPCG(seed, seed)), log)

			sum, err := pipeline.Run(ctx, result.Articles())
			if err != nil {
				return fmt.Errorf("feature pipeline: %w", err)
			}
			log.WithFields(logrus.Fields{"seed": seed, "train": sum.Train, "test": sum.Test}).Info("done")
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Shuffle seed, 0 picks one from the clock")
	return cmd
}

func init() {
	rootCmd.AddCommand(newFeaturesCommand())
}
