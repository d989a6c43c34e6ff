package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-ref/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var faiPath string

	cmd := &cobra.Command{
		Use:   "serve <fasta>",
		Short: "Serve reference bases over HTTP",
		Long: `Serve an indexed FASTA over HTTP:

  GET /contigs                                  list contigs
  GET /contigs/{name}                           describe one contig
  GET /sequence/{contig}?start=&end=[&format=json] bases [start, end), 0-based

Each request reads through its own handle from a pool of --pool-size
readers, so at most that many fetches run at once.`,
		Example: `  vibe-ref serve ref.fa --addr :8080 --pool-size 8`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := server.NewPool(server.Opener(a.opener(args[0], faiPath)), viper.GetInt(keyPoolSize))
			if err != nil {
				return err
			}
			defer pool.Close()

			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := &http.Server{
				Addr:    viper.GetString(keyServeAddr),
				Handler: server.NewRouter(pool, a.logger.Named("server")),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("listening", zap.String("addr", srv.Addr), zap.Int("pool_size", pool.Size()))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&faiPath, "fai", "", "FASTA index (default <fasta>.fai)")
	f.String("addr", ":8080", "listen address")
	f.Int("pool-size", 4, "number of reader handles")
	viper.BindPFlag(keyServeAddr, f.Lookup("addr"))
	viper.BindPFlag(keyPoolSize, f.Lookup("pool-size"))
	return cmd
}
