package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	staffapp "github.com/storefront/backend/internal/application/staff"
)

// NewStaffCommand creates the staff command group
func NewStaffCommand(root *RootOptions) *cobra.Command {
	var req staffapp.CreateStaffRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		Long: `Create a staff account. Use this to bootstrap the first ADMIN, who can
then manage everyone else over the API.

The password is read from standard input when --password is not given:

  echo "$ADMIN_PASSWORD" | shopctl staff create --email ops@shop.test --name Ops`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				password, err := readLine(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read password", err)
				}
				req.Password = password
			}
			if req.Password == "" {
				return NewExitError(ExitCommandError, "a password is required")
			}
			req.Role = strings.ToUpper(req.Role)

			return root.run(cmd, func(ctx context.Context, svc *Services, out *OutputFormatter) error {
				member, err := svc.Staff.Create(ctx, req)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to create staff member", err)
				}
				return out.Report("Staff member created", member, nil,
					Field{"id", member.ID},
					Field{"email", member.Email},
					Field{"role", member.Role},
				)
			})
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "login email (required)")
	create.Flags().StringVar(&req.Name, "name", "", "display name (required)")
	create.Flags().StringVar(&req.Role, "role", "ADMIN", "ADMIN or STAFF")
	create.Flags().StringVar(&req.Password, "password", "", "password; read from stdin when empty")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")

	cmd := &cobra.Command{Use: "staff", Short: "Staff accounts"}
	cmd.AddCommand(create)
	return cmd
}

// NewCatalogCommand creates the catalog command group
func NewCatalogCommand(root *RootOptions) *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Create or update categories, products and stock from a YAML file",
		Long: `Import a catalog file. Categories and products are matched by slug and
variants by SKU. Stock levels in the file are absolute. The whole file is
applied in one transaction, so nothing changes when any entry is invalid.

  shopctl catalog import --file catalog.yaml --dry-run
  cat catalog.yaml | shopctl catalog import --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader
			if file == "-" {
				src = cmd.InOrStdin()
			} else {
				f, err := os.Open(file)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open catalog file", err)
				}
				defer f.Close()
				src = f
			}

			return root.run(cmd, func(ctx context.Context, svc *Services, out *OutputFormatter) error {
				res, err := svc.Catalog.Import(ctx, src, dryRun)
				if err != nil {
					return WrapExitError(ExitFailure, "catalog import failed", err)
				}
				title := "Catalog import"
				if res.DryRun {
					title += " (dry run, nothing saved)"
				}
				return out.Report(title, res, nil,
					Field{"categories created", res.CategoriesCreated},
					Field{"categories updated", res.CategoriesUpdated},
					Field{"products created", res.ProductsCreated},
					Field{"products updated", res.ProductsUpdated},
					Field{"variants created", res.VariantsCreated},
					Field{"variants updated", res.VariantsUpdated},
					Field{"stock adjusted", res.StockAdjusted},
				)
			})
		},
	}
	importCmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog file, or - for stdin (required)")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and report without saving")
	_ = importCmd.MarkFlagRequired("file")

	cmd := &cobra.Command{Use: "catalog", Short: "Catalog maintenance"}
	cmd.AddCommand(importCmd)
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
