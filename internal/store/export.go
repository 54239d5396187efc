// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-radar/pkg/types"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ExportDocument is the exported snapshot: run metadata and every paper.
type ExportDocument struct {
	Meta   types.RunMetadata `json:"meta" yaml:"meta"`
	Papers []types.Paper     `json:"papers" yaml:"papers"`
}

// Export writes the current paper set and metadata to w in format.
func (r *Repository) Export(ctx context.Context, w io.Writer, format string) error {
	papers, err := r.ReadPaperSet(ctx)
	if err != nil {
		return err
	}
	meta, err := r.ReadRunMetadata(ctx)
	if err != nil {
		return err
	}
	doc := ExportDocument{Meta: meta, Papers: papers}

	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// ExportFile writes the export to path, replacing it atomically.
func (r *Repository) ExportFile(ctx context.Context, path, format string) error {
	var b strings.Builder
	if err := r.Export(ctx, &b, format); err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// ReadExport decodes an export produced by Export.
func ReadExport(rd io.Reader, format string) (ExportDocument, error) {
	var doc ExportDocument
	var err error
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		err = yaml.NewDecoder(rd).Decode(&doc)
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(&doc)
	default:
		return doc, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return doc, fmt.Errorf("decoding %s export: %w", format, err)
	}
	return doc, nil
}
