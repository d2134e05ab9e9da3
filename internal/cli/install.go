package cli

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/syssam/recordkit/installer"
)

func newInstallCommand() *cobra.Command {
	var skipContents bool
	cmd := &cobra.Command{
		Use:   "install DIR...",
		Short: "Create the tables of table packages",
		Long: `Create the tables of one or more package directories.

A package directory holds an i/ directory with one <table>.sql file per
table creating it and a d/ directory with one <table>.sql file dropping it.
Statements after /** DATA */ in a create file seed the table.`,
		Example: `  recordkit install ./schema/blog --driver sqlite --dsn file:blog.db`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, dirs []string) error {
			return runInstall(cmd, dirs, func(reg *installer.Registry, s *session) error {
				return reg.Install(s.ctx, s.drv, skipContents)
			})
		},
	}
	cmd.Flags().BoolVar(&skipContents, "skip-contents", false, "Create tables without seed data")
	return cmd
}

func newUninstallCommand() *cobra.Command {
	var truncate bool
	cmd := &cobra.Command{
		Use:   "uninstall DIR...",
		Short: "Drop the tables of table packages",
		Long: `Drop the tables of one or more package directories in reverse order.

With --truncate, tables whose drop file has a /** TRUNCATE */ section are
only emptied.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, dirs []string) error {
			return runInstall(cmd, dirs, func(reg *installer.Registry, s *session) error {
				return reg.Uninstall(s.ctx, s.drv, truncate)
			})
		},
	}
	cmd.Flags().BoolVar(&truncate, "truncate", false, "Empty tables instead of dropping them where possible")
	return cmd
}

func newPackagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "packages DIR...",
		Short: "List the tables of table packages and their state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, dirs []string) (rerr error) {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { rerr = errors.Join(rerr, s.Close()) }()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Package", "Tables", "Installed"})
			for _, dir := range dirs {
				pkg, err := installer.OpenDirectory(dir, s.drv.Dialect())
				if err != nil {
					return err
				}
				reg := installer.NewRegistry(installer.WithLogger(s.logger))
				if err := reg.RegisterPackage(pkg); err != nil {
					return err
				}
				t.AppendRow(table.Row{pkg.Name(), len(pkg.Tables()), reg.IsInstalled(s.ctx, s.drv)})
			}
			t.Render()
			return nil
		},
	}
}

func runInstall(cmd *cobra.Command, dirs []string, op func(*installer.Registry, *session) error) (rerr error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { rerr = errors.Join(rerr, s.Close()) }()

	reg := installer.NewRegistry(installer.WithLogger(s.logger))
	for _, dir := range dirs {
		pkg, err := installer.OpenDirectory(dir, s.drv.Dialect())
		if err != nil {
			return err
		}
		if err := reg.RegisterPackage(pkg); err != nil {
			return err
		}
	}
	if !reg.CanInstall(s.drv.Dialect()) {
		return fmt.Errorf("packages %v have tables without a %s loader", reg.Names(), s.drv.Dialect())
	}
	if err := op(reg, s); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", cmd.Name(), reg.Names())
	return nil
}
