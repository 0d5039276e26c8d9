package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/MShoaei/HeadlineMiner/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var (
		addr        string
		origin      string
		noSentiment bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyze-sentiment HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(s)
			if err != nil {
				return err
			}
			botCfg, err := s.botConfig()
			if err != nil {
				return err
			}

			var labeler sentiment.Labeler
			if !noSentiment {
				labeler = sentiment.NewHTTPLabeler(s.LabelerURL, s.LabelerToken, s.RequestTimeout)
			}

			gin.SetMode(gin.ReleaseMode)
			bot := bots.NewYahooBot(botCfg, s.fetcher(log), log)
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(bot, labeler, s.Max, log, server.WithAllowedOrigin(origin)).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", addr).Info("server is running")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				log.Info("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3001", "Listen address")
	cmd.Flags().StringVar(&origin, "cors-origin", "", "Origin allowed to call the API from a browser, empty disables CORS")
	cmd.Flags().BoolVar(&noSentiment, "no-sentiment", false, "Return headlines without labelling them")
	return cmd
}

func init() {
	rootCmd.AddCommand(newServeCommand())
}
