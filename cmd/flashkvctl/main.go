// Command flashkvctl operates on a flashkv image file from the host,
// for development and field diagnostics: inspect, edit, and
// snapshot/restore a store without real flash hardware.
//
// Uses cobra for its command tree, with zerolog wired the same way
// store.go wires it through flashkv.Config.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flashkv/flashkv"
	"github.com/flashkv/flashkv/platform"
	"github.com/flashkv/flashkv/snapshot"
)

var (
	imagePath  string
	regionSize int
	verbose    bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flashkvctl",
		Short: "Inspect and edit a flashkv image file",
	}
	root.PersistentFlags().StringVar(&imagePath, "image", "flashkv.img", "path to the backing image file")
	root.PersistentFlags().IntVar(&regionSize, "region-size", 64*1024, "size in bytes of each of the two regions")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newGetCmd(),
		newSetCmd(),
		newAddCmd(),
		newDeleteCmd(),
		newWipeCmd(),
		newDumpCmd(),
		newExportCmd(),
		newImportCmd(),
	)
	return root
}

func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func openStore(ctx context.Context) (*flashkv.Store, *platform.FileFlash, error) {
	ff, err := platform.OpenFileFlash(imagePath, regionSize)
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	store, err := flashkv.Open(ctx, ff, flashkv.Config{Logger: logger()})
	if err != nil {
		ff.Close()
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return store, ff, nil
}

func newGetCmd() *cobra.Command {
	var key uint16
	var index int
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a record's value",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()

			value, err := store.Get(ctx, key, index)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(value)
			return err
		},
	}
	cmd.Flags().Uint16Var(&key, "key", 0, "record key")
	cmd.Flags().IntVar(&index, "index", 0, "chain index")
	cmd.MarkFlagRequired("key")
	return cmd
}

func newSetCmd() *cobra.Command {
	var key uint16
	var value string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Overwrite a key's chain with a single value",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()
			return store.Set(ctx, key, []byte(value))
		},
	}
	cmd.Flags().Uint16Var(&key, "key", 0, "record key")
	cmd.Flags().StringVar(&value, "value", "", "value to store")
	cmd.MarkFlagRequired("key")
	return cmd
}

func newAddCmd() *cobra.Command {
	var key uint16
	var value string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a value to a key's chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()
			return store.Add(ctx, key, []byte(value))
		},
	}
	cmd.Flags().Uint16Var(&key, "key", 0, "record key")
	cmd.Flags().StringVar(&value, "value", "", "value to append")
	cmd.MarkFlagRequired("key")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var key uint16
	var index int
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one or all records of a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()
			return store.Delete(ctx, key, index)
		},
	}
	cmd.Flags().Uint16Var(&key, "key", 0, "record key")
	cmd.Flags().IntVar(&index, "index", -1, "chain index, or -1 for all")
	cmd.MarkFlagRequired("key")
	return cmd
}

func newWipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Erase the store entirely",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()
			return store.Wipe(ctx)
		},
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "List every live record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()

			entries, err := store.Dump(ctx)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%d[%d] = %q\n", e.Key, e.Index, e.Value)
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a compressed snapshot of the store to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()

			data, err := snapshot.Export(ctx, store)
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "flashkv.snapshot", "output snapshot path")
	return cmd
}

func newImportCmd() *cobra.Command {
	var in string
	var wipeFirst bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a snapshot into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ff, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer ff.Close()

			if wipeFirst {
				if err := store.Wipe(ctx); err != nil {
					return err
				}
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			return snapshot.Restore(ctx, store, data)
		},
	}
	cmd.Flags().StringVar(&in, "in", "flashkv.snapshot", "input snapshot path")
	cmd.Flags().BoolVar(&wipeFirst, "wipe", true, "wipe the store before restoring")
	return cmd
}
