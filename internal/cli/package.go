package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// NewPackageCmd создаёт группу команд для управления packages.
func NewPackageCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Manage installer packages",
	}

	cmd.AddCommand(
		newPackageSubmitCmd(clientFn, outputFn),
		newPackageListCmd(clientFn, outputFn),
		newPackageShowCmd(clientFn, outputFn),
		newPackageStatusCmd(clientFn, outputFn),
		newPackageScriptCmd(clientFn, outputFn),
	)

	return cmd
}

func newPackageSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var notes string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Upload an installer and start processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pkg, err := client.SubmitPackage(args[0], notes)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Package submitted: %s", pkg.ID))

			if wait {
				pkg, err = waitForTerminal(client, pkg.ID)
				if err != nil {
					return err
				}
			}

			out.Print(
				[]string{"ID", "STATUS", "STAGE", "CREATED"},
				[][]string{{pkg.ID, pkg.Status, pkg.Stage, pkg.CreatedAt}},
				pkg,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Extra deployment requirements passed to generation")
	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the package reaches a terminal status")

	return cmd
}

func newPackageListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pkgs, err := client.ListPackages(ListPackagesOpts{
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "VERSION", "STATUS", "STAGE", "CREATED"}
			rows := make([][]string, len(pkgs))
			for i, p := range pkgs {
				rows[i] = []string{p.ID, p.Metadata.Name, p.Metadata.Version, p.Status, p.Stage, p.CreatedAt}
			}

			out.Print(headers, rows, pkgs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, EXTRACTING, GENERATING, RENDERING, LINTING, COMPLETED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newPackageShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show package details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pkg, err := client.GetPackage(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "VERSION", "VENDOR", "KIND", "ARCH", "STATUS", "ERROR"},
				[][]string{{
					pkg.ID, pkg.Metadata.Name, pkg.Metadata.Version, pkg.Metadata.Vendor,
					pkg.Metadata.Kind, pkg.Metadata.Architecture, pkg.Status, pkg.ErrorMessage,
				}},
				pkg,
			)
			return nil
		},
	}
}

func newPackageStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID",
		Short: "Show processing status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			status, err := client.GetStatus(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "STATUS", "STAGE", "ERROR"},
				[][]string{{status.ID, status.Status, status.Stage, status.ErrorMessage}},
				status,
			)
			return nil
		},
	}
}

func newPackageScriptCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "script ID",
		Short: "Fetch the rendered deployment script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			script, err := client.GetScript(args[0])
			if err != nil {
				return err
			}

			for _, w := range script.RenderWarnings {
				out.Error("warning: " + w)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(script.ScriptText), 0o644); err != nil {
					return fmt.Errorf("write script: %w", err)
				}
				out.Success(fmt.Sprintf("Script written to %s", outputPath))
				return nil
			}

			out.Raw(script.ScriptText)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the script to a file instead of stdout")

	return cmd
}

// waitForTerminal опрашивает статус package до терминального состояния.
func waitForTerminal(client *Client, id string) (*PackageResponse, error) {
	for {
		pkg, err := client.GetPackage(id)
		if err != nil {
			return nil, err
		}

		if pkg.Status == "COMPLETED" || pkg.Status == "FAILED" {
			return pkg, nil
		}

		time.Sleep(2 * time.Second)
	}
}
