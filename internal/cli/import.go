package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/defs"
	"github.com/matzehuels/techtree/pkg/errors"
)

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var (
		configPath string
		mongoURI   string
	)
	cmd := &cobra.Command{
		Use:   "import <defs>",
		Short: "Copy research definitions into MongoDB",
		Long: `Copy research definitions into MongoDB.

The collection named by mongo.database and mongo.collection is replaced with
the records of <defs>, so 'serve --mongo-uri' picks them up on its next
rebuild.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			if mongoURI != "" {
				s.Mongo.URI = mongoURI
			}
			if !isMongoURI(s.Mongo.URI) {
				return errors.New(errors.ErrCodeInvalidInput, "import needs --mongo-uri or mongo.uri")
			}
			return c.runImport(cmd.Context(), args[0], s)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.toml, .yaml)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI to write to")
	return cmd
}

func (c *CLI) runImport(ctx context.Context, input string, s config.Settings) error {
	if isMongoURI(input) {
		return errors.New(errors.ErrCodeInvalidInput, "import reads a definition file or URL, not %s", input)
	}
	src, release, err := c.openSource(ctx, input, s)
	if err != nil {
		return err
	}
	defer release()

	prog := newProgress(c.Logger)
	records, err := src.Load(ctx)
	if err != nil {
		return err
	}

	dst, err := defs.ConnectMongo(ctx, s.Mongo.URI, s.Mongo.Database, s.Mongo.Collection)
	if err != nil {
		return err
	}
	defer func() {
		if err := dst.Close(context.Background()); err != nil {
			c.Logger.Warn("disconnect mongodb", "err", err)
		}
	}()
	if err := dst.Replace(ctx, records); err != nil {
		return err
	}
	prog.done("Imported records")

	printSuccess("Imported %d records", len(records))
	printDetail("%s → %s", src.Name(), dst.Name())
	return nil
}
