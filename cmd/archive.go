package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/emrgen/recall/internal/compress"
	"github.com/emrgen/recall/internal/config"
	"github.com/emrgen/recall/internal/filestore"
	"github.com/emrgen/recall/internal/model"
	"github.com/emrgen/recall/internal/queue"
	"github.com/emrgen/recall/internal/service"
	"github.com/emrgen/recall/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(undoCmd())
}

type services struct {
	store   store.Store
	locator *filestore.Locator
	export  *service.ExportService
	imports *service.ImportService
}

func buildServices() *services {
	cnf := config.LoadConfig()
	gs := store.NewGormStore(config.GetDb(cnf))
	locator := filestore.NewLocator(cnf.StorageRoot)

	var pq queue.PackageQueue = queue.NewNop()
	if cnf.KafkaBrokers != "" {
		kq, err := queue.NewKafka(cnf.KafkaBrokers)
		if err != nil {
			color.Yellow("kafka unavailable, package events disabled: %v", err)
		} else {
			pq = kq
		}
	}

	return &services{
		store:   gs,
		locator: locator,
		export:  service.NewExportService(gs, locator, pq),
		imports: service.NewImportService(gs, locator, pq),
	}
}

func exportCmd() *cobra.Command {
	var user string
	var anchor string
	var out string
	var codecName string

	command := &cobra.Command{
		Use:   "export",
		Short: "export a graph archive",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" || out == "" {
				color.Red("missing: --user and --out")
				return
			}

			// the codec is picked from the output extension; --codec appends
			// the matching extension when the path lacks it
			if codecName != "" {
				ext := "." + compress.ByName(codecName).Name()
				if !strings.HasSuffix(out, ext) {
					out += ext
				}
			}

			svc := buildServices()
			pkg, err := svc.export.Export(cmd.Context(), user, anchor, out)
			if err != nil {
				color.Red("export failed: %v", err)
				return
			}

			color.Green("exported package %s -> %s", pkg.UUID, pkg.Path)
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&anchor, "anchor", "a", "", "anchor node uuid, empty exports everything")
	command.Flags().StringVarP(&out, "out", "o", "", "archive path (.tar.gz, .tar.br or .tar.lz4)")
	command.Flags().StringVar(&codecName, "codec", "", "compression codec: gz, br or lz4")

	return command
}

func importCmd() *cobra.Command {
	var user string
	var pkgID string

	command := &cobra.Command{
		Use:   "import",
		Short: "import a package archive",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" || pkgID == "" {
				color.Red("missing: --user and --package")
				return
			}

			svc := buildServices()
			if err := svc.imports.Import(cmd.Context(), user, pkgID); err != nil {
				color.Red("import failed: %v", err)
				return
			}

			// import runs in the background; poll the package metadata
			for {
				time.Sleep(500 * time.Millisecond)

				pkg, err := svc.store.GetNodeByUUID(context.Background(), user, pkgID)
				if err != nil {
					color.Red("failed to poll package: %v", err)
					return
				}

				state := model.ParsePackageState(pkg.Metadata)
				if state.Importing {
					continue
				}

				if state.Success {
					color.Green("package %s imported", pkgID)
				} else {
					color.Red("package %s import failed, run undo to clean up", pkgID)
				}
				return
			}
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&pkgID, "package", "p", "", "package node uuid")

	return command
}

func undoCmd() *cobra.Command {
	var user string
	var pkgID string

	command := &cobra.Command{
		Use:   "undo",
		Short: "undo a package import",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" || pkgID == "" {
				color.Red("missing: --user and --package")
				return
			}

			svc := buildServices()
			if err := svc.imports.Undo(cmd.Context(), user, pkgID); err != nil {
				color.Red("undo failed: %v", err)
				return
			}

			color.Green("package %s undone", pkgID)
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&pkgID, "package", "p", "", "package node uuid")

	return command
}
