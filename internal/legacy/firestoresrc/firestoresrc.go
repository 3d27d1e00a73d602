package firestoresrc

import (
	"context"
	"errors"
	"fmt"

	"couponly/internal/normalize"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type Source struct {
	client *firestore.Client
}

// New connects to projectID. credentialsFile may be empty to use the
// ambient Google credentials.
func New(ctx context.Context, projectID, credentialsFile string) (*Source, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Source{client: client}, nil
}

func (s *Source) Rows(ctx context.Context, collection string) ([]normalize.Row, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var rows []normalize.Row
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore %s: %w", collection, err)
		}
		rows = append(rows, toRow(doc.Ref.ID, doc.Data()))
	}
	return rows, nil
}

func (s *Source) Close(context.Context) error {
	return s.client.Close()
}

// toRow keeps document fields as they are and exposes the document id as
// "id" unless the document has its own.
func toRow(id string, data map[string]any) normalize.Row {
	row := make(normalize.Row, len(data)+1)
	for k, v := range data {
		row[k] = v
	}
	if _, ok := row["id"]; !ok {
		row["id"] = id
	}
	return row
}
