package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-identity-docstore/internal/application"
	"github.com/oksasatya/go-identity-docstore/internal/container"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Create, inspect and change users",
	}
	cmd.AddCommand(
		userCreateCmd(),
		userShowCmd(),
		userFindCmd(),
		userDeleteCmd(),
		userAddLoginCmd(),
		userRemoveLoginCmd(),
		userClaimCmd(),
		userConfirmEmailCmd(),
		userUsersForClaimCmd(),
		userCheckPasswordCmd(),
	)
	return cmd
}

func userCreateCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				u, err := entity.NewUser(args[0])
				if err != nil {
					return err
				}
				if email != "" {
					if err := c.Users.SetEmail(u, email); err != nil {
						return err
					}
				}
				if password != "" {
					hash, err := helpers.HashPassword(password)
					if err != nil {
						return err
					}
					if err := c.Users.SetPasswordHash(u, hash); err != nil {
						return err
					}
				}
				if err := c.Users.SetSecurityStamp(u, helpers.NewUUID()); err != nil {
					return err
				}
				if err := c.Users.Create(ctx, u); err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "plain password, stored as a bcrypt hash")
	return cmd
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				u, err := c.Users.FindByID(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	}
}

func userFindCmd() *cobra.Command {
	var name, email, login string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find a user by name, email or login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				var (
					u   *entity.User
					err error
				)
				switch {
				case name != "":
					u, err = c.Users.FindByName(ctx, helpers.UpperInvariant(name))
				case email != "":
					u, err = c.Users.FindByEmail(ctx, helpers.UpperInvariant(email))
				case login != "":
					provider, key, ok := strings.Cut(login, ":")
					if !ok {
						return errors.New("--login takes provider:key")
					}
					u, err = c.Users.FindByLogin(ctx, provider, key)
				default:
					return errors.New("one of --name, --email or --login is required")
				}
				if err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "user name, normalized before lookup")
	cmd.Flags().StringVar(&email, "email", "", "email address, normalized before lookup")
	cmd.Flags().StringVar(&login, "login", "", "external login as provider:key")
	return cmd
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				u, err := c.Users.FindByID(ctx, args[0])
				if err != nil {
					return err
				}
				if err := c.Users.Delete(ctx, u); err != nil {
					return err
				}
				fmt.Println("deleted", u.ID())
				return nil
			})
		},
	}
}

// mutateUser loads a user, applies fn and persists the result.
func mutateUser(cmd *cobra.Command, id string, fn func(*application.UserStore, *entity.User) error) error {
	return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
		u, err := c.Users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(c.Users, u); err != nil {
			return err
		}
		if err := c.Users.Update(ctx, u); err != nil {
			return err
		}
		return printJSON(u)
	})
}

func userAddLoginCmd() *cobra.Command {
	var display string
	cmd := &cobra.Command{
		Use:   "add-login <id> <provider> <key>",
		Short: "Link an external login",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateUser(cmd, args[0], func(s *application.UserStore, u *entity.User) error {
				return s.AddLogin(u, entity.NewLogin(args[1], args[2], display))
			})
		},
	}
	cmd.Flags().StringVar(&display, "display-name", "", "provider display name")
	return cmd
}

func userRemoveLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-login <id> <provider> <key>",
		Short: "Unlink an external login",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateUser(cmd, args[0], func(s *application.UserStore, u *entity.User) error {
				return s.RemoveLogin(u, args[1], args[2])
			})
		},
	}
}

func userClaimCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "claim <id> <type> <value>",
		Short: "Add a claim to a user, or remove it with --remove",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims := []application.Claim{{Type: args[1], Value: args[2]}}
			return mutateUser(cmd, args[0], func(s *application.UserStore, u *entity.User) error {
				if remove {
					return s.RemoveClaims(u, claims)
				}
				return s.AddClaims(u, claims)
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the claim instead of adding it")
	return cmd
}

func userConfirmEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm-email <id>",
		Short: "Mark the user's email as confirmed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateUser(cmd, args[0], func(s *application.UserStore, u *entity.User) error {
				return s.SetEmailConfirmed(u, true)
			})
		},
	}
}

func userUsersForClaimCmd() *cobra.Command {
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "with-claim <type> <value>",
		Short: "List users holding a claim",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				users, err := c.Users.FindUsersForClaimPage(ctx, application.Claim{Type: args[0], Value: args[1]}, offset, limit)
				if err != nil {
					return err
				}
				return printJSON(users)
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "number of users to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default $IDENTITY_CLAIM_QUERY_LIMIT)")
	return cmd
}

func userCheckPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-password <id> <password>",
		Short: "Check a password against the stored hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				u, err := c.Users.FindByID(ctx, args[0])
				if err != nil {
					return err
				}
				hash, err := c.Users.GetPasswordHash(u)
				if err != nil {
					return err
				}
				if hash == "" || !helpers.CompareHashAndPassword(hash, args[1]) {
					return errors.New("password does not match")
				}
				fmt.Println("password matches")
				return nil
			})
		},
	}
}
