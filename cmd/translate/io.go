package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/opencog/question2atomese/internal/storage"
	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/question"
)

// formatFor returns the explicit format or the one implied by name.
func formatFor(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if strings.EqualFold(path.Ext(name), ".json") {
		return question.FormatJSON
	}
	return question.FormatJSONL
}

func loadQuestions(ctx context.Context, in, format string) ([]question.Parsed, error) {
	loc, isS3 := storage.ParseURI(in, util.GetEnv("AWS_BUCKET"))
	if !isS3 {
		f, err := os.Open(in)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return question.Load(f, formatFor(in, format))
	}

	client, err := storage.NewS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return loadS3Questions(ctx, client, loc, format)
}

func loadS3Questions(ctx context.Context, client storage.ObjectAPI, loc storage.Location, format string) ([]question.Parsed, error) {
	keys := []string{loc.Key}
	if loc.IsPrefix() {
		var err error
		keys, err = storage.ListKeys(ctx, client, loc, ".json", ".jsonl")
		if err != nil {
			return nil, err
		}
		logger.Debug("[Translate] Listed question files", "bucket", loc.Bucket, "prefix", loc.Key, "files", len(keys))
	}

	var records []question.Parsed
	for _, key := range keys {
		obj := storage.Location{Bucket: loc.Bucket, Key: key}
		data, err := storage.GetObject(ctx, client, obj)
		if err != nil {
			return nil, err
		}
		parsed, err := question.Load(bytes.NewReader(data), formatFor(key, format))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		records = append(records, parsed...)
	}
	return records, nil
}

func encodeTranslations(translations []common.Translation) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, t := range translations {
		if err := enc.Encode(t); err != nil {
			return nil, fmt.Errorf("failed to encode translation %s: %w", t.ID, err)
		}
	}
	return buf.Bytes(), nil
}

func writeTranslations(ctx context.Context, out string, translations []common.Translation) error {
	data, err := encodeTranslations(translations)
	if err != nil {
		return err
	}

	loc, isS3 := storage.ParseURI(out, util.GetEnv("AWS_BUCKET"))
	if !isS3 {
		return os.WriteFile(out, data, 0o644)
	}
	if loc.IsPrefix() {
		loc.Key += "translations.jsonl"
	}
	client, err := storage.NewS3Client(ctx)
	if err != nil {
		return err
	}
	return storage.PutObject(ctx, client, loc, data, "application/x-ndjson")
}

func printShapes(w io.Writer, shapes []common.ShapeCount) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNT\tTYPE\tSHAPE\tEXAMPLE")
	for _, s := range shapes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Count, s.Type, s.Shape, s.Example)
	}
	tw.Flush()
}
