package cmd

import (
	"context"
	"io"
	"os"

	"github.com/foomo/jsonhtml/pkg/convert"
	"github.com/foomo/jsonhtml/pkg/outline"
	"github.com/foomo/jsonhtml/pkg/page"
	keelhttp "github.com/foomo/keel/net/http"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// defaultOutput is written when no output argument is given
const defaultOutput = "output.html"

func NewConvertCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "convert <input> [output]",
		Short: "Convert a JSON outline into an HTML page",
		Long: `Convert a JSON (or YAML) outline into an HTML page.

The input is a file path, an http(s) url or "-" for stdin.
The output defaults to ` + defaultOutput + `, "-" writes to stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(cmd, v); err != nil {
				return err
			}
			l := zap.L().Named("cmd.convert")

			input := args[0]
			output := defaultOutput
			if len(args) > 1 {
				output = args[1]
			}

			data, err := readInput(cmd.Context(), cmd, v, input)
			if err != nil {
				return err
			}

			format, err := inputFormat(v, input)
			if err != nil {
				return err
			}

			converter, err := newConverter(l, v, !fragmentFlag(v))
			if err != nil {
				return err
			}

			res, err := converter.Convert(data, format, "cli")
			if err != nil {
				return errors.Wrapf(err, "failed to convert %s", input)
			}

			if output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), res.HTML)
				return err
			}
			if err := os.WriteFile(output, []byte(res.HTML), 0o644); err != nil {
				return errors.Wrapf(err, "failed to write %s", output)
			}
			l.Info("converted",
				zap.String("input", input),
				zap.String("output", output),
				zap.Int("nodes", res.Nodes),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	addConversionFlags(flags, v)
	addFormatFlag(flags, v)
	addFragmentFlag(flags, v)
	addFetchTimeoutFlag(flags, v)

	return cmd
}

// newConverter builds a converter from the conversion flags
func newConverter(l *zap.Logger, v *viper.Viper, withPage bool) (*convert.Converter, error) {
	opts := []convert.Option{
		convert.WithRenderer(outline.NewRenderer(
			outline.WithFilters(convert.Filters(markdownFlag(v), sanitizeFlag(v))...),
		)),
		convert.WithSelect(selectFlag(v)),
		convert.WithVerify(verifyFlag(v)),
	}
	if withPage {
		tmpl, err := page.New(page.WithMeta(pageMetaFlag(v)))
		if err != nil {
			return nil, err
		}
		opts = append(opts, convert.WithPage(tmpl))
	}
	return convert.New(l, opts...), nil
}

func readInput(ctx context.Context, cmd *cobra.Command, v *viper.Viper, input string) ([]byte, error) {
	switch {
	case input == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read stdin")
	case convert.IsURL(input):
		client := keelhttp.NewHTTPClient(
			keelhttp.HTTPClientWithTimeout(fetchTimeoutFlag(v)),
			keelhttp.HTTPClientWithTelemetry(),
		)
		return convert.Fetch(ctx, client, input)
	default:
		data, err := os.ReadFile(input)
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Errorf("input file not found: %s", input)
		}
		return data, errors.Wrapf(err, "failed to read %s", input)
	}
}

// inputFormat prefers the format flag and falls back to json for unknown extensions
func inputFormat(v *viper.Viper, input string) (convert.Format, error) {
	switch f := convert.Format(formatFlag(v)); f {
	case convert.FormatJSON, convert.FormatYAML:
		return f, nil
	case "":
		if format, err := convert.FormatFromPath(input); err == nil {
			return format, nil
		}
		return convert.FormatJSON, nil
	default:
		return "", errors.Wrapf(convert.ErrUnsupportedFormat, "format %q", f)
	}
}
