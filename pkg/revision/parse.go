package revision

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethpandaops/jsbench/pkg/apperr"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Input limits.
const (
	SlugMaxLength        = 255
	TitleMaxLength       = 255
	DescriptionMaxLength = 1000
	MinEntries           = 2
)

// submissionSchema only checks the shape the decoder relies on. Value rules
// (slug, entry count, duplicates) are checked by validate so that every
// problem is reported at once.
const submissionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"entries": {
			"type": ["array", "object", "null"],
			"items": {"$ref": "#/definitions/entry"},
			"additionalProperties": {"$ref": "#/definitions/entry"}
		}
	},
	"definitions": {
		"scalar": {"type": ["string", "number", "boolean", "null"]},
		"entry": {
			"type": "object",
			"properties": {
				"title": {"$ref": "#/definitions/scalar"},
				"code": {"$ref": "#/definitions/scalar"}
			}
		}
	}
}`

var compiledSubmissionSchema = jsonschema.MustCompileString(
	"submission.schema.json", submissionSchema,
)

type submission struct {
	ID             uint              `mapstructure:"id"`
	RevisionNumber int               `mapstructure:"revisionNumber"`
	IsDraft        bool              `mapstructure:"isDraft"`
	Title          string            `mapstructure:"title"`
	Slug           string            `mapstructure:"slug"`
	Status         string            `mapstructure:"status"`
	Description    string            `mapstructure:"description"`
	Harness        submissionHarness `mapstructure:"harness"`
	Env            submissionEnv     `mapstructure:"env"`
	Entries        []submissionEntry `mapstructure:"entries"`
}

type submissionHarness struct {
	HTML     string `mapstructure:"html"`
	SetUp    string `mapstructure:"setUp"`
	TearDown string `mapstructure:"tearDown"`
}

type submissionEnv struct {
	BrowserName    string       `mapstructure:"browserName"`
	BrowserVersion string       `mapstructure:"browserVersion"`
	OS             submissionOS `mapstructure:"os"`
}

type submissionOS struct {
	Architecture string `mapstructure:"architecture"`
	Family       string `mapstructure:"family"`
	Version      string `mapstructure:"version"`
}

type submissionEntry struct {
	Title   string             `mapstructure:"title"`
	Code    string             `mapstructure:"code"`
	Results *submissionResults `mapstructure:"results"`
}

type submissionResults struct {
	OpsPerSec float64 `mapstructure:"opsPerSec"`
}

// Parse validates a raw JSON submission and converts it into a draft
// revision. Every validation problem is collected into a single
// INVALID_REQUEST_BODY error.
func Parse(raw []byte) (*Revision, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, invalidStructure()
	}

	return FromData(payload)
}

// FromData validates an already decoded submission (as produced by
// json.Unmarshal or a YAML decoder) and converts it into a draft revision.
func FromData(payload any) (*Revision, error) {
	data, ok := payload.(map[string]any)
	if !ok {
		return nil, invalidStructure()
	}

	if err := compiledSubmissionSchema.Validate(data); err != nil {
		return nil, invalidStructure()
	}

	normalizePayload(data)

	var sub submission

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &sub,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, invalidStructure()
	}

	if details := sub.validate(); len(details) > 0 {
		return nil, apperr.New(apperr.CodeInvalidRequestBody, "Invalid input.").
			WithDetails(details...)
	}

	return sub.toRevision(), nil
}

func invalidStructure() error {
	return apperr.New(apperr.CodeInvalidRequestBody, "Invalid input.").
		WithDetails(apperr.Detail{
			Reason: "Invalid structure.",
			Code:   apperr.CodeInvalidStructure,
		})
}

// normalizePayload replaces loosely typed parts of the submission with the
// shapes the decoder expects: non-object harness/env/os/results are dropped
// and an entries object is turned into a list ordered by key.
func normalizePayload(data map[string]any) {
	for _, key := range []string{"harness", "env"} {
		if _, ok := data[key].(map[string]any); !ok {
			delete(data, key)
		}
	}

	if env, ok := data["env"].(map[string]any); ok {
		if _, ok := env["os"].(map[string]any); !ok {
			delete(env, "os")
		}
	}

	switch entries := data["entries"].(type) {
	case map[string]any:
		data["entries"] = orderedValues(entries)
	case []any:
	default:
		delete(data, "entries")
	}

	if entries, ok := data["entries"].([]any); ok {
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}

			if _, ok := entry["results"].(map[string]any); !ok {
				delete(entry, "results")
			}
		}
	}
}

// orderedValues returns the values of m ordered by key, numeric keys first
// in numeric order.
func orderedValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])

		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	values := make([]any, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}

	return values
}

// validate normalizes the submission and returns every rule violation in a
// stable order.
func (s *submission) validate() []apperr.Detail {
	var details []apperr.Detail

	if s.RevisionNumber <= 0 {
		s.RevisionNumber = 1
	}

	s.Title = strings.TrimSpace(s.Title)
	s.Slug = strings.TrimSpace(s.Slug)
	s.Description = strings.TrimSpace(s.Description)

	if s.Status != StatusPublic && s.Status != StatusPrivate {
		s.Status = StatusPrivate
	}

	if s.Slug == "" {
		details = append(details, apperr.Detail{
			Reason: "The slug is mandatory and should not be empty.",
			Code:   apperr.CodeNoSlug,
		})
	}

	if s.Title == "" {
		s.Title = s.Slug
	}

	if len(s.Slug) > SlugMaxLength {
		details = append(details, apperr.Detail{
			Reason: fmt.Sprintf(
				"The slug shouldn't be longer than %d chars.", SlugMaxLength,
			),
			Code: apperr.CodeSlugLengthExceeded,
		})
	}

	s.Title = truncate(s.Title, TitleMaxLength)
	s.Description = truncate(s.Description, DescriptionMaxLength)

	if len(s.Entries) < MinEntries {
		details = append(details, apperr.Detail{
			Reason: "At least two entries should be sent.",
			Code:   apperr.CodeEntryCount,
		})
	}

	seen := make(map[string]struct{}, len(s.Entries))

	for _, e := range s.Entries {
		hash := ContentHash(e.Code)

		if _, ok := seen[hash]; ok {
			details = append(details, apperr.Detail{
				Reason: fmt.Sprintf(
					"Duplicate entry code found [sha1: %s]. Only send unique values.",
					hash,
				),
				Code: apperr.CodeDuplicateCodeEntry,
			})
		}

		seen[hash] = struct{}{}
	}

	return details
}

func (s *submission) toRevision() *Revision {
	env := Environment{
		BrowserName:    s.Env.BrowserName,
		BrowserVersion: s.Env.BrowserVersion,
		OSArchitecture: s.Env.OS.Architecture,
		OSFamily:       s.Env.OS.Family,
		OSVersion:      s.Env.OS.Version,
	}

	entries := make([]Entry, 0, len(s.Entries))

	for _, e := range s.Entries {
		entry := Entry{Title: e.Title, Code: e.Code}

		if e.Results != nil {
			entry.Totals = []Metric{{
				Type:        MetricTypeOpsPerSec,
				Value:       e.Results.OpsPerSec,
				RunCount:    1,
				Environment: env,
			}}
		}

		entries = append(entries, entry)
	}

	return &Revision{
		TestCaseID:  s.ID,
		Number:      s.RevisionNumber,
		Title:       s.Title,
		Slug:        s.Slug,
		Status:      s.Status,
		Description: s.Description,
		Harness: Harness{
			HTML:     s.Harness.HTML,
			SetUp:    s.Harness.SetUp,
			TearDown: s.Harness.TearDown,
		},
		Entries: entries,
		Draft:   s.IsDraft,
	}
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes])
}
