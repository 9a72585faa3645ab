// Command factgraph is a thin CLI over the boundary adapter, for driving
// a fact graph from a shell during local development: load a dictionary
// snapshot directory, get/set facts, explain a derivation, and save/load
// a store to disk.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	factgraph "github.com/trueprep/fact-graph"
	"github.com/trueprep/fact-graph/boundary"
)

const dictDirEnv = "FACT_GRAPH_DICTIONARY_DIR"

var (
	dictDir  string
	storeArg string
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "factgraph",
		Short: "Inspect and drive a fact graph from the command line",
	}
	root.PersistentFlags().StringVar(&dictDir, "dict", os.Getenv(dictDirEnv),
		"directory of dictionary JSON snapshots (or set "+dictDirEnv+")")
	root.PersistentFlags().StringVar(&storeArg, "store", "",
		"path to a serialized store JSON file to load before the command runs")

	root.AddCommand(
		newListCmd(),
		newGetCmd(),
		newSetCmd(),
		newExplainCmd(),
		newSaveCmd(),
	)
	return root
}

// loadDictionary reads every *.json file in dictDir, each holding a JSON
// array of fact declarations, concatenates them into one snapshot, and
// parses that as a single frozen Dictionary.
func loadDictionary() (*factgraph.Dictionary, error) {
	if dictDir == "" {
		return nil, fmt.Errorf("no dictionary directory given; pass --dict or set %s", dictDirEnv)
	}
	entries, err := os.ReadDir(dictDir)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary directory %q: %w", dictDir, err)
	}

	var merged []json.RawMessage
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dictDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var part []json.RawMessage
		if err := json.Unmarshal(data, &part); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		merged = append(merged, part...)
	}

	combined, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	d, err := factgraph.LoadDictionarySnapshot(combined)
	if err != nil {
		return nil, err
	}
	d.Freeze()
	return d, nil
}

func newAdapter() (*boundary.Adapter, error) {
	dict, err := loadDictionary()
	if err != nil {
		return nil, err
	}
	migrations, err := factgraph.NewMigrationRegistry()
	if err != nil {
		return nil, err
	}
	a, err := boundary.NewAdapter(dict, migrations, nil)
	if err != nil {
		return nil, err
	}
	if storeArg != "" {
		data, err := os.ReadFile(storeArg)
		if err != nil {
			return nil, fmt.Errorf("reading store %q: %w", storeArg, err)
		}
		if err := a.Load(data); err != nil {
			return nil, fmt.Errorf("loading store %q: %w", storeArg, err)
		}
	}
	return a, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every declared fact path",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAdapter()
			if err != nil {
				return err
			}
			for _, p := range a.ListPaths() {
				desc, err := a.DescribeFact(p)
				if err != nil {
					return err
				}
				kind := "derived"
				if desc.Writable {
					kind = "writable"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", desc.Path, desc.Type, kind)
			}
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Evaluate and print a fact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAdapter()
			if err != nil {
				return err
			}
			values, err := a.Get(args[0])
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", v.Path, v.State, string(v.Value))
			}
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <tagged-json-value>",
		Short: "Set a writable fact to a tagged JSON value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAdapter()
			if err != nil {
				return err
			}
			violations, err := a.Set(args[0], json.RawMessage(args[1]))
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			return nil
		},
	}
}

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <path>",
		Short: "Print a fact's derivation trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAdapter()
			if err != nil {
				return err
			}
			report, err := a.Explain(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newSaveCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Serialize the current store to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAdapter()
			if err != nil {
				return err
			}
			data, err := a.Snapshot()
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "file to write the snapshot to (default: stdout)")
	return cmd
}
