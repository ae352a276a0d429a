package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"memoria_chatbot/internal/server"
	"memoria_chatbot/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd() *cobra.Command {
	opts := &appOptions{}

	cmd := &cobra.Command{
		Use:           "memoria_chatbot",
		Short:         "Chatbot that remembers answers by register and learns from Wikipedia",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Persona file, overrides PERSONA_FILE")

	cmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newMemoryCmd(opts),
	)

	return cmd
}

func newServeCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web chatbot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *opts)
		},
	}
}

func runServe(ctx context.Context, opts appOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	srv, err := server.New(server.Config{
		Addr:            app.Config.HTTPConfig.Addr,
		ShutdownTimeout: app.Config.HTTPConfig.ShutdownTimeout,
	}, app.Resolver, app.Stores, app.Log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if app.Files != nil && app.Config.MemoryConfig.Watch {
		w, err := storage.NewWatcher(app.Files, app.StoreList(), app.Log)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	g.Go(func() error { return srv.Run(ctx) })

	return g.Wait()
}

func newAskCmd(opts *appOptions) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask <mensagem>",
		Short: "Answer one message and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, *opts)
			if err != nil {
				return err
			}
			defer app.Close()

			turn, err := app.Resolver.Resolve(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(out, "registro: %s\nfonte: %s\nchave: %s\n", turn.Category.Label(), turn.Kind, turn.Key)
			}
			fmt.Fprintln(out, turn.Answer)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the register and where the answer came from")
	return cmd
}

func newMemoryCmd(opts *appOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the answer memories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print how many entries each memory holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer app.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORIA\tREGISTRO\tENTRADAS")
			for _, s := range app.StoreList() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Category(), s.Category().Label(), s.Len())
			}
			return tw.Flush()
		},
	})

	return cmd
}
