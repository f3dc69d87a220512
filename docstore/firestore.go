package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	// EmulatorHost disables authentication; the client itself reads
	// FIRESTORE_EMULATOR_HOST from the environment.
	EmulatorHost string
}

type Firestore struct {
	client *firestore.Client
}

func NewFirestore(ctx context.Context, cfg FirestoreConfig) (*Firestore, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	var opts []option.ClientOption
	switch {
	case cfg.EmulatorHost != "":
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) docRef(path string) (*firestore.DocumentRef, error) {
	if _, _, err := splitDocPath(path); err != nil {
		return nil, err
	}
	ref := f.client.Doc(strings.Trim(path, "/"))
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return ref, nil
}

func (f *Firestore) collectionRef(path string) (*firestore.CollectionRef, error) {
	path, err := checkCollectionPath(path)
	if err != nil {
		return nil, err
	}
	ref := f.client.Collection(path)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return ref, nil
}

func (f *Firestore) List(ctx context.Context, collection string) ([]Document, error) {
	ref, err := f.collectionRef(collection)
	if err != nil {
		return nil, err
	}
	snaps, err := ref.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return snapshotsToDocuments(snaps)
}

func (f *Firestore) Get(ctx context.Context, path string) (Document, error) {
	ref, err := f.docRef(path)
	if err != nil {
		return Document{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Document{}, mapFirestoreError(path, err)
	}
	return snapshotToDocument(snap)
}

func (f *Firestore) Set(ctx context.Context, path string, fields map[string]any) error {
	ref, err := f.docRef(path)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, fields); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func (f *Firestore) Update(ctx context.Context, path string, updates []Update) error {
	ref, err := f.docRef(path)
	if err != nil {
		return err
	}
	if _, err := ref.Update(ctx, toFirestoreUpdates(updates)); err != nil {
		return mapFirestoreError(path, err)
	}
	return nil
}

func (f *Firestore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref, err := f.collectionRef(collection)
	if err != nil {
		return "", err
	}
	doc, _, err := ref.Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return doc.ID, nil
}

func (f *Firestore) Delete(ctx context.Context, path string) error {
	ref, err := f.docRef(path)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (f *Firestore) Query(ctx context.Context, collection string, filters []Filter, order *OrderBy) ([]Document, error) {
	ref, err := f.collectionRef(collection)
	if err != nil {
		return nil, err
	}
	q := ref.Query
	for _, filter := range filters {
		q = q.Where(filter.Field, string(filter.Op), filter.Value)
	}
	if order != nil {
		dir := firestore.Asc
		if order.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(order.Field, dir)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return snapshotsToDocuments(snaps)
}

func (f *Firestore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{store: f, tx: tx})
	})
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

type firestoreTx struct {
	store *Firestore
	tx    *firestore.Transaction
}

func (t *firestoreTx) Get(path string) (Document, error) {
	ref, err := t.store.docRef(path)
	if err != nil {
		return Document{}, err
	}
	snap, err := t.tx.Get(ref)
	if err != nil {
		return Document{}, mapFirestoreError(path, err)
	}
	return snapshotToDocument(snap)
}

func (t *firestoreTx) Set(path string, fields map[string]any) error {
	ref, err := t.store.docRef(path)
	if err != nil {
		return err
	}
	return t.tx.Set(ref, fields)
}

func (t *firestoreTx) Update(path string, updates []Update) error {
	ref, err := t.store.docRef(path)
	if err != nil {
		return err
	}
	return t.tx.Update(ref, toFirestoreUpdates(updates))
}

func (t *firestoreTx) Delete(path string) error {
	ref, err := t.store.docRef(path)
	if err != nil {
		return err
	}
	return t.tx.Delete(ref)
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		value := u.Value
		if inc, ok := value.(increment); ok {
			value = firestore.Increment(inc.delta)
		}
		out = append(out, firestore.Update{Path: u.Path, Value: value})
	}
	return out
}

func snapshotsToDocuments(snaps []*firestore.DocumentSnapshot) ([]Document, error) {
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := snapshotToDocument(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func snapshotToDocument(snap *firestore.DocumentSnapshot) (Document, error) {
	data, err := Encode(snap.Data())
	if err != nil {
		return Document{}, err
	}
	return Document{ID: snap.Ref.ID, Path: relativePath(snap.Ref.Path), Data: data}, nil
}

// relativePath strips the "projects/p/databases/d/documents/" prefix.
func relativePath(path string) string {
	const marker = "/documents/"
	if i := strings.Index(path, marker); i >= 0 {
		return path[i+len(marker):]
	}
	return path
}

func mapFirestoreError(path string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("firestore operation on %s failed: %w", path, err)
}
