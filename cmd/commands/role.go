package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-identity-docstore/internal/application"
	"github.com/oksasatya/go-identity-docstore/internal/container"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

func roleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Create, inspect and change roles",
	}
	cmd.AddCommand(roleCreateCmd(), roleShowCmd(), roleDeleteCmd(), roleClaimCmd())
	return cmd
}

func roleCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				r, err := entity.NewRole(args[0])
				if err != nil {
					return err
				}
				if err := c.Roles.Create(ctx, r); err != nil {
					return err
				}
				return printJSON(r)
			})
		},
	}
}

// findRole accepts an id or a role name.
func findRole(ctx context.Context, s *application.RoleStore, ref string) (*entity.Role, error) {
	r, err := s.FindByID(ctx, ref)
	if err == nil {
		return r, nil
	}
	return s.FindByName(ctx, helpers.UpperInvariant(ref))
}

func roleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Print a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				r, err := findRole(ctx, c.Roles, args[0])
				if err != nil {
					return err
				}
				return printJSON(r)
			})
		},
	}
}

func roleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				r, err := findRole(ctx, c.Roles, args[0])
				if err != nil {
					return err
				}
				if err := c.Roles.Delete(ctx, r); err != nil {
					return err
				}
				fmt.Println("deleted", r.ID())
				return nil
			})
		},
	}
}

func roleClaimCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "claim <id|name> <type> <value>",
		Short: "Add a claim to a role, or remove it with --remove",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				r, err := findRole(ctx, c.Roles, args[0])
				if err != nil {
					return err
				}
				claim := application.Claim{Type: args[1], Value: args[2]}
				if remove {
					err = c.Roles.RemoveClaim(r, claim)
				} else {
					err = c.Roles.AddClaim(r, claim)
				}
				if err != nil {
					return err
				}
				if err := c.Roles.Update(ctx, r); err != nil {
					return err
				}
				return printJSON(r)
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the claim instead of adding it")
	return cmd
}
