// Command share manages the shared-file registry offline: run it while the
// server is stopped, since the server rewrites the registry from memory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli"
	"golang.org/x/crypto/bcrypt"

	"burnbin/internal/config"
	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
	jwtsvc "burnbin/internal/pkg/jwt"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	app := cli.NewApp()
	app.Name = "share"
	app.Usage = "manage shared files and operator credentials"
	app.Commands = []cli.Command{
		{
			Name:      "add",
			Usage:     "share local files",
			ArgsUsage: "<path>...",
			Action:    handleAdd,
		},
		{
			Name:   "list",
			Usage:  "list shared files",
			Action: handleList,
		},
		{
			Name:      "remove",
			Usage:     "stop sharing files (files stay on disk)",
			ArgsUsage: "<id>...",
			Action:    handleRemove,
		},
		{
			Name:   "token",
			Usage:  "print an operator token for the admin API",
			Action: handleToken,
		},
		{
			Name:      "hash-password",
			Usage:     "print a bcrypt hash for OPERATOR_PASSWORD_HASH",
			ArgsUsage: "<password>",
			Action:    handleHashPassword,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openRegistry() (*registry.Registry, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := registry.OpenStore(cfg.DatabaseURL, cfg.SnapshotPath)
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.Load(context.Background(), store, activity.NewQuiet())
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return reg, closeStore, nil
}

func handleAdd(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("give at least one path", 2)
	}
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	for _, arg := range c.Args() {
		path, err := homedir.Expand(arg)
		if err != nil {
			return err
		}
		id, err := reg.Register(path, registry.KindShared)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		fmt.Printf("%s\t%s\n", id, path)
	}
	return nil
}

func handleList(c *cli.Context) error {
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSIZE\tDOWNLOADS\tSHARED AT\tPATH")
	for _, e := range reg.List(registry.KindShared) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", e.ID, e.DisplayName, e.SizeLabel, e.DownloadCount, e.UploadTime(), e.Path)
	}
	return w.Flush()
}

func handleRemove(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("give at least one id", 2)
	}
	reg, closeStore, err := openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	for _, id := range c.Args() {
		if _, err := reg.GetKind(id, registry.KindShared); err != nil && !errors.Is(err, registry.ErrFileMissing) {
			return fmt.Errorf("%s: %w", id, err)
		}
		if err := reg.Remove(id); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Println("removed", id)
	}
	return nil
}

func handleToken(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	token, err := jwtsvc.New(cfg.OperatorSecret, cfg.OperatorTokenTTL).GenerateToken(jwtsvc.RoleOperator, jwtsvc.RoleOperator)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func handleHashPassword(c *cli.Context) error {
	password := c.Args().First()
	if password == "" {
		return cli.NewExitError("give the password to hash", 2)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Println(string(hash))
	return nil
}
