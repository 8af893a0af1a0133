package cmd

import (
	"fmt"
	"os"

	"github.com/foomo/jsonhtml/pkg/batch"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewBatchCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Convert all JSON and YAML outlines below a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(cmd, v); err != nil {
				return err
			}
			l := zap.L().Named("cmd.batch")

			if info, err := os.Stat(args[0]); err != nil || !info.IsDir() {
				return errors.Errorf("source directory not found: %s", args[0])
			}

			s, err := createStorage(cmd.Context(), v, l)
			if err != nil {
				return errors.Wrap(err, "failed to create storage")
			}
			defer func() {
				if err := s.Close(); err != nil {
					l.Warn("failed to close storage", zap.Error(err))
				}
			}()

			converter, err := newConverter(l, v, !fragmentFlag(v))
			if err != nil {
				return err
			}

			b := batch.New(l, converter, s, batch.WithConcurrency(concurrencyFlag(v)))
			res, err := b.Run(cmd.Context(), os.DirFS(args[0]))
			if res != nil {
				out := cmd.OutOrStdout()
				for _, key := range res.Converted {
					_, _ = fmt.Fprintf(out, "converted %s\n", key)
				}
				for input, msg := range res.Failed {
					_, _ = fmt.Fprintf(out, "failed %s: %s\n", input, msg)
				}
			}
			return err
		},
	}

	flags := cmd.Flags()
	addConversionFlags(flags, v)
	addFragmentFlag(flags, v)
	addConcurrencyFlag(flags, v)
	addStorageFlags(flags, v)

	return cmd
}
