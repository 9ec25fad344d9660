package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Collection names.
const (
	ordersCollection    = "orders"
	productsCollection  = "products"
	usersCollection     = "users"
	cartSlotsCollection = "cartSlots"
)

// collection is a typed view over one Firestore collection whose documents
// decode into D.
type collection[D any] struct {
	provider *Provider
	name     string
}

func newCollection[D any](p *Provider, name string) collection[D] {
	return collection[D]{provider: p, name: name}
}

func (c collection[D]) ref(ctx context.Context) (*firestore.CollectionRef, error) {
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

func (c collection[D]) doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (c collection[D]) get(ctx context.Context, id string) (D, error) {
	var out D
	ref, err := c.doc(ctx, id)
	if err != nil {
		return out, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return out, err
	}
	if err := snap.DataTo(&out); err != nil {
		return out, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return out, nil
}

// query runs build against the collection and decodes every result.
func (c collection[D]) query(ctx context.Context, build func(firestore.Query) firestore.Query) ([]D, error) {
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	q := coll.Query
	if build != nil {
		q = build(q)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []D
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var d D
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c.name, snap.Ref.ID, err)
		}
		out = append(out, d)
	}
	return out, nil
}
