package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

func corpusCommands() *cli.Command {
	return &cli.Command{
		Name:  "corpus",
		Usage: "Transaction corpus inspection commands",
		Subcommands: []*cli.Command{
			corpusShowCommand(),
			corpusAddressesCommand(),
		},
	}
}

func corpusShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show corpus contents, optionally filtered with a jq expression",
		ArgsUsage: "[WALLET_ADDRESS]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Value:   "corpus.json",
				Usage:   "Path to a transaction corpus JSON file",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the selected document",
			},
		},
		Action: func(c *cli.Context) error {
			doc, err := readCorpusDocument(c.String("input"))
			if err != nil {
				return err
			}

			// An address argument narrows the document to that
			// wallet's transaction list.
			if c.NArg() > 0 {
				address := c.Args().Get(0)
				byAddress, ok := doc.(map[string]interface{})
				if !ok {
					return fmt.Errorf("corpus file is not an address map")
				}
				doc, ok = byAddress[address]
				if !ok {
					return fmt.Errorf("address %s not found in corpus", address)
				}
			}

			if filter := c.String("jq"); filter != "" {
				return runJQ(filter, doc)
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal corpus: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func corpusAddressesCommand() *cli.Command {
	return &cli.Command{
		Name:  "addresses",
		Usage: "List the wallet addresses present in a corpus file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Value:   "corpus.json",
				Usage:   "Path to a transaction corpus JSON file",
			},
		},
		Action: func(c *cli.Context) error {
			doc, err := readCorpusDocument(c.String("input"))
			if err != nil {
				return err
			}
			byAddress, ok := doc.(map[string]interface{})
			if !ok {
				return fmt.Errorf("corpus file is not an address map")
			}
			// jq gives sorted keys for free.
			return runJQ("keys[]", byAddress)
		},
	}
}

// readCorpusDocument loads a corpus file as a generic JSON document so
// jq expressions can walk it.
func readCorpusDocument(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file: %w", err)
	}
	return doc, nil
}

// runJQ compiles the filter, runs it against the document, and prints
// each result as indented JSON.
func runJQ(filter string, doc interface{}) error {
	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	iter := code.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("jq filter error: %w", err)
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal jq result: %w", err)
		}
		fmt.Println(string(data))
	}
	return nil
}
