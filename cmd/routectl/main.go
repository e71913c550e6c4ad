// Command routectl manages route configuration and inspects files from the shell.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	fileservice "filetrack/internal/file/service"
	filestore "filetrack/internal/file/store"
	"filetrack/internal/file/timeline"
	"filetrack/internal/platform/config"
	"filetrack/internal/platform/logger"
	"filetrack/internal/platform/postgres"
	routemodels "filetrack/internal/route/models"
	"filetrack/internal/route/seed"
	routeservice "filetrack/internal/route/service"
	routestore "filetrack/internal/route/store"
	id "filetrack/pkg/domain"
	"filetrack/pkg/requestcontext"
)

var (
	timeout  time.Duration
	verbose  bool
	actingAs string
)

var rootCmd = &cobra.Command{
	Use:           "routectl",
	Short:         "Manage filetrack routes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// validateCmd checks a seed file against the route rules without touching storage
var validateCmd = &cobra.Command{
	Use:   "validate [seed.yaml]",
	Short: "Validate a route seed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

// importCmd applies a seed file to the configured database
var importCmd = &cobra.Command{
	Use:   "import [seed.yaml]",
	Short: "Import administrations and routes into the database",
	Long: `Reads a YAML seed file and upserts every administration and route
into the database named by DATABASE_URL.

Example:
  routectl import deploy/routes.yaml --as admin-root`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var showCmd = &cobra.Command{
	Use:   "show [fileTypeID]",
	Short: "Print the stations of a file type's route",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

// traceCmd prints the reconciled timeline a citizen would see
var traceCmd = &cobra.Command{
	Use:   "trace [trackingNumber]",
	Short: "Print the timeline of a file by tracking number",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for database operations")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	importCmd.Flags().StringVar(&actingAs, "as", "", "administration recorded as the route author")

	rootCmd.AddCommand(validateCmd, importCmd, showCmd, traceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, timeout)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	f, err := seed.Load(args[0])
	if err != nil {
		return err
	}
	mem := routestore.NewInMemory()
	res, err := seed.Apply(ctx, routeservice.New(mem, mem), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d administrations, %d routes\n", res.Administrations, res.Routes)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	f, err := seed.Load(args[0])
	if err != nil {
		return err
	}
	routes, closeDB, err := openRoutes(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if actingAs != "" {
		adminID, err := id.ParseAdministrationID(actingAs)
		if err != nil {
			return err
		}
		ctx = requestcontext.WithAdministrationID(ctx, adminID)
	}
	res, err := seed.Apply(ctx, routes, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d administrations, %d routes\n", res.Administrations, res.Routes)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	fileTypeID, err := id.ParseFileTypeID(args[0])
	if err != nil {
		return err
	}
	routes, closeDB, err := openRoutes(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	route, err := routes.AssignRoute(ctx, fileTypeID)
	if err != nil {
		return err
	}
	return printRoute(cmd.OutOrStdout(), route, routes.AdministrationNames(ctx, route))
}

func runTrace(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	backend := routestore.NewPostgres(db)
	routes := routeservice.New(backend, backend)
	files := fileservice.New(filestore.NewPostgres(db), routes, fileservice.WithDirectory(routes))

	view, err := files.Track(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  status=%s\n", view.File.TrackingNumber, view.File.FileTypeID, view.File.Status)
	return printTimeline(out, view.Timeline)
}

func openDB(ctx context.Context) (*sql.DB, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return postgres.Open(ctx, cfg.Postgres)
}

func openRoutes(ctx context.Context) (*routeservice.Service, func(), error) {
	db, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	backend := routestore.NewPostgres(db)
	svc := routeservice.New(backend, backend, routeservice.WithLogger(logger.NewWithWriter(os.Stderr, level, "text")))
	return svc, func() { _ = db.Close() }, nil
}

func printRoute(w io.Writer, route *routemodels.Route, names map[id.AdministrationID]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "POS\tADMINISTRATION\tNAME\n")
	for i := range route.Len() {
		a := route.At(i)
		marker := ""
		if route.HasClosure() && i == route.Len()-1 {
			marker = " (closure)"
		}
		fmt.Fprintf(tw, "%d\t%s%s\t%s\n", i, a, marker, names[a])
	}
	return tw.Flush()
}

func printTimeline(w io.Writer, views []timeline.StationView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "POS\tADMINISTRATION\tNAME\tSTATUS\t\n")
	for _, v := range views {
		current := ""
		if v.IsCurrent {
			current = "<"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.Position, v.AdministrationID, v.Name, v.DisplayStatus, current)
	}
	return tw.Flush()
}
