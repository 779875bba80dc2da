package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/litescript/ls-odl/internal/metrics"
	"github.com/litescript/ls-odl/internal/service"
	"github.com/litescript/ls-odl/internal/target"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation and name resolution HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stop, err := a.startTracing(cmd)
			if err != nil {
				return err
			}
			defer stop()

			m, err := metrics.New(prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			srv := service.New(service.Options{
				Logger:   a.log.With("component", "http"),
				Decoder:  a.dec,
				Finalize: a.finalizeOptions(),
				Resolver: target.NewSesameResolver(a.cfg.Resolver.URL),
				Metrics:  m,
			})
			return srv.ListenAndServe(cmd.Context(), a.cfg.Serve.Addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
