package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/vector"
)

func newInsertCmd(a *app) *cobra.Command {
	var (
		content     string
		embedding   string
		contentType string
		referenceID int64
		metadata    string
	)
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert one record",
		Example: `  vecstore insert --content "hello" --embedding '[0.1,0.2,0.3]' --dimensions 3
  vecstore insert --content "faq answer" --content-type faq --embedding @vec.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vec, err := parseEmbedding(embedding, cmd.InOrStdin())
			if err != nil {
				return err
			}
			rec := vector.Record{Content: content, Embedding: vec, ContentType: contentType}
			if cmd.Flags().Changed("reference-id") {
				rec.ReferenceID = &referenceID
			}
			if metadata != "" {
				if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
					return errs.Wrap(err, errs.CodeCLIInputInvalid, "metadata must be a JSON object")
				}
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			id, err := store.Insert(ctx, rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&content, "content", "", "record text")
	flags.StringVar(&embedding, "embedding", "", "JSON array, @file or - for stdin")
	flags.StringVar(&contentType, "content-type", vector.ContentTypeDocumentChunk, "content type tag")
	flags.Int64Var(&referenceID, "reference-id", 0, "knowledge-base entity id")
	flags.StringVar(&metadata, "metadata", "", "JSON object")
	_ = cmd.MarkFlagRequired("embedding")
	return cmd
}
