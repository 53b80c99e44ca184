package main

import (
	"fmt"
	"log"
	"os"

	corpus "github.com/harvestra/corpus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "seeder",
		Usage:     "Generate a sample document corpus for demos and testing",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Remove existing files in the target directory first",
			},
		},
		Action: func(c *cli.Context) error {
			dir := c.Args().First()
			if dir == "" {
				return fmt.Errorf("target directory is required")
			}

			if c.Bool("force") {
				if err := os.RemoveAll(dir); err != nil {
					return err
				}
			}

			n, err := corpus.SeedSampleDocuments(dir)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%s is not empty; use --force to replace its contents", dir)
			}
			fmt.Printf("wrote %d sample documents to %s\n", n, dir)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
