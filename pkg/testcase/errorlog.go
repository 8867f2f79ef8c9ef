package testcase

import (
	"context"
	"fmt"

	"github.com/ethpandaops/jsbench/pkg/apperr"
	"github.com/ethpandaops/jsbench/pkg/store"
	"github.com/mitchellh/mapstructure"
)

type errorReport struct {
	Msg    string `mapstructure:"msg"`
	URL    string `mapstructure:"url"`
	LineNo int    `mapstructure:"lineNo"`
	ColNo  int    `mapstructure:"colNo"`
	Trace  string `mapstructure:"trace"`
}

func (r *errorReport) complete() bool {
	return r.Msg != "" && r.LineNo != 0 && r.ColNo != 0 && r.Trace != ""
}

func incompleteErrorReport() *apperr.Error {
	return apperr.New(apperr.CodeInvalidRequestBody, "Invalid input.").
		WithDetails(apperr.Detail{
			Reason: "Invalid entry: msg, lineNo, colNo and trace are required.",
			Code:   apperr.CodeIncompleteError,
		})
}

// AddErrorLogEntry stores a client-side error report. msg, lineNo, colNo and
// trace are required; url is optional.
func (s *service) AddErrorLogEntry(ctx context.Context, payload any) error {
	if _, ok := payload.(map[string]any); !ok {
		return incompleteErrorReport()
	}

	var report errorReport

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &report,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	if err := dec.Decode(payload); err != nil || !report.complete() {
		return incompleteErrorReport()
	}

	entry := &store.ErrorLogEntry{
		Message:      report.Msg,
		URL:          report.URL,
		LineNumber:   report.LineNo,
		ColumnNumber: report.ColNo,
		Trace:        report.Trace,
	}

	if err := s.store.AppendErrorLogEntry(ctx, entry); err != nil {
		return fmt.Errorf("storing error report: %w", err)
	}

	s.log.WithField("url", report.URL).Debug("Stored client error report")

	return nil
}

func (s *service) ListErrorLogEntries(
	ctx context.Context,
) ([]store.ErrorLogEntry, error) {
	entries, err := s.store.ListErrorLogEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing error reports: %w", err)
	}

	if entries == nil {
		entries = make([]store.ErrorLogEntry, 0)
	}

	return entries, nil
}
