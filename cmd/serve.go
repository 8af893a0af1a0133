package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/foomo/jsonhtml/pkg/batch"
	"github.com/foomo/jsonhtml/pkg/handler"
	"github.com/foomo/jsonhtml/pkg/publish"
	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func NewServeCommand() *cobra.Command {
	v := newViper()
	service.DefaultHTTPPProfAddr = ":6060"

	cmd := &cobra.Command{
		Use:   "serve <source-dir>",
		Short: "Publish a directory of outlines and render posted documents over http",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var comps []string
			if len(args) == 0 {
				comps = cobra.AppendActiveHelp(comps, "You must specify the directory of the documents to publish")
			} else {
				comps = cobra.AppendActiveHelp(comps, "This command does not take any more arguments")
			}
			return comps, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(cmd, v); err != nil {
				return err
			}
			if err := validateServeFlags(v); err != nil {
				return err
			}

			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
				keel.WithHTTPPProfService(servicePProfEnabledFlag(v)),
			)

			l := svr.Logger()

			s, err := createStorage(cmd.Context(), v, l)
			if err != nil {
				return fmt.Errorf("failed to create storage: %w", err)
			}

			fragmentConverter, err := newConverter(l.Named("inst.fragment"), v, false)
			if err != nil {
				return err
			}
			pageConverter, err := newConverter(l.Named("inst.page"), v, true)
			if err != nil {
				return err
			}

			p := publish.New(l.Named("inst.publish"),
				batch.New(l.Named("inst.batch"), pageConverter, s,
					batch.WithConcurrency(concurrencyFlag(v)),
					batch.WithSource("publish"),
				),
				os.DirFS(args[0]),
				publish.WithPoll(pollFlag(v)),
				publish.WithPollInterval(pollIntervalFlag(v)),
				publish.WithHistory(publish.NewHistory(l.Named("inst.history"), s,
					publish.HistoryWithHistoryLimit(historyLimitFlag(v)),
				)),
			)

			isLoadedHealtherFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
				if !p.Loaded() {
					return errors.New("pages not published yet")
				}
				return nil
			})
			// start initial publish and handle error
			svr.AddStartupHealthzers(isLoadedHealtherFn)
			svr.AddReadinessHealthzers(isLoadedHealtherFn)

			svr.AddClosers(func(ctx context.Context) error {
				return s.Close()
			})

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.publish"), "publish", func(ctx context.Context, l *zap.Logger) error {
					return p.Start(ctx)
				}),
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), fragmentConverter,
						handler.WithBasePath(basePathFlag(v)),
						handler.WithMaxBodySize(maxBodySizeFlag(v)),
						handler.WithPageConverter(pageConverter),
						handler.WithPublisher(p),
					),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.GZip(middleware.GZipWithLevel(gzipLevelFlag(v))),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addConversionFlags(flags, v)
	addConcurrencyFlag(flags, v)
	addStorageFlags(flags, v)
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addMaxBodySizeFlag(flags, v)
	addPollFlag(flags, v)
	addPollIntervalFlag(flags, v)
	addHistoryLimitFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)
	addServicePProfEnabledFlag(flags, v)
	addGzipLevelFlag(flags, v)

	return cmd
}

func validateServeFlags(v *viper.Viper) error {
	if pollFlag(v) && pollIntervalFlag(v) <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", pollIntervalFlag(v))
	}
	if historyLimitFlag(v) < 0 {
		return fmt.Errorf("history-limit must not be negative, got %d", historyLimitFlag(v))
	}
	return nil
}
