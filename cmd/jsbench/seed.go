package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethpandaops/jsbench/pkg/revision"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedKeepGoing bool

var seedCmd = &cobra.Command{
	Use:   "seed FILE...",
	Short: "Load submissions from YAML or JSON fixture files",
	Long: `Submit every fixture through the regular submission path. A fixture file
holds one or more YAML documents (JSON is accepted as well); each document
is a single submission or a list of submissions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedKeepGoing, "keep-going", false,
		"log rejected submissions and continue with the next one")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	st, svc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Stop() }()

	var stored, rejected int

	for _, path := range args {
		inputs, err := readFixtureFile(path)
		if err != nil {
			return err
		}

		for i, input := range inputs {
			rev, err := svc.Submit(ctx, input, "")
			if err != nil {
				if !seedKeepGoing {
					return fmt.Errorf("%s: submission %d: %w", path, i, err)
				}

				log.WithError(err).
					WithField("file", path).
					WithField("index", i).
					Warn("Submission rejected")

				rejected++

				continue
			}

			log.WithField("slug", rev.Slug).
				WithField("revision", rev.Number).
				Debug("Seeded submission")

			stored++
		}
	}

	log.WithField("stored", stored).
		WithField("rejected", rejected).
		Info("Seeding complete")

	return nil
}

func readFixtureFile(path string) ([]*revision.Revision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer func() { _ = f.Close() }()

	inputs, err := readFixtures(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return inputs, nil
}

// readFixtures decodes every YAML document in r and validates each
// submission it holds.
func readFixtures(r io.Reader) ([]*revision.Revision, error) {
	dec := yaml.NewDecoder(r)

	var inputs []*revision.Revision

	for {
		var doc any

		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return inputs, nil
		}

		if err != nil {
			return nil, fmt.Errorf("decoding fixture: %w", err)
		}

		items, ok := doc.([]any)
		if !ok {
			items = []any{doc}
		}

		for _, item := range items {
			// Round-trip through JSON so the payload has the exact shape of
			// an HTTP submission.
			raw, err := json.Marshal(stringKeys(item))
			if err != nil {
				return nil, fmt.Errorf("encoding submission %d: %w", len(inputs), err)
			}

			input, err := revision.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("submission %d: %w", len(inputs), err)
			}

			inputs = append(inputs, input)
		}
	}
}

// stringKeys converts maps with non-string keys, such as entries keyed by
// plain integers, into JSON objects keyed by the formatted key.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}

		return out
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}

		return t
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}

		return t
	default:
		return v
	}
}
