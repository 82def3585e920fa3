package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ReactionBucket holds the users who reacted to a post with one category (e.g. "like")
type ReactionBucket struct {
	Category string
	UserIDs  []uint
}

// Reactions maps reaction categories to the ordered list of reacting user ids.
// Category order is insertion order and survives JSON and BSON round trips,
// so "first category" is deterministic.
type Reactions []ReactionBucket

// Get returns the user ids recorded for a category, nil when the category is unknown
func (r Reactions) Get(category string) []uint {
	for _, bucket := range r {
		if bucket.Category == category {
			return bucket.UserIDs
		}
	}
	return nil
}

// Categories returns the category labels in order
func (r Reactions) Categories() []string {
	categories := make([]string, 0, len(r))
	for _, bucket := range r {
		categories = append(categories, bucket.Category)
	}
	return categories
}

// Clone returns a deep copy
func (r Reactions) Clone() Reactions {
	if r == nil {
		return nil
	}
	out := make(Reactions, len(r))
	for i, bucket := range r {
		ids := make([]uint, len(bucket.UserIDs))
		copy(ids, bucket.UserIDs)
		out[i] = ReactionBucket{Category: bucket.Category, UserIDs: ids}
	}
	return out
}

// With returns a copy where userID is appended to the category, creating the category at the end
// when it does not exist yet. Duplicates are not filtered.
func (r Reactions) With(category string, userID uint) Reactions {
	out := r.Clone()
	for i := range out {
		if out[i].Category == category {
			out[i].UserIDs = append(out[i].UserIDs, userID)
			return out
		}
	}
	return append(out, ReactionBucket{Category: category, UserIDs: []uint{userID}})
}

// set replaces the ids of an existing category in place or appends a new one
func (r Reactions) set(category string, ids []uint) Reactions {
	for i := range r {
		if r[i].Category == category {
			r[i].UserIDs = ids
			return r
		}
	}
	return append(r, ReactionBucket{Category: category, UserIDs: ids})
}

// MarshalJSON encodes the reactions as a JSON object keeping category order
func (r Reactions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bucket := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(bucket.Category)
		if err != nil {
			return nil, err
		}
		ids := bucket.UserIDs
		if ids == nil {
			ids = []uint{}
		}
		value, err := json.Marshal(ids)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of category -> user ids keeping the key order of the input
func (r *Reactions) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("reactions: expected JSON object")
	}

	out := Reactions{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		category, ok := tok.(string)
		if !ok {
			return fmt.Errorf("reactions: expected category key, got %v", tok)
		}
		var ids []uint
		if err := dec.Decode(&ids); err != nil {
			return fmt.Errorf("reactions: category %q: %w", category, err)
		}
		out = out.set(category, ids)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}

// MarshalBSONValue stores the reactions as an embedded document whose field order is the category order
func (r Reactions) MarshalBSONValue() (bsontype.Type, []byte, error) {
	doc := make(bson.D, 0, len(r))
	for _, bucket := range r {
		ids := bucket.UserIDs
		if ids == nil {
			ids = []uint{}
		}
		doc = append(doc, bson.E{Key: bucket.Category, Value: ids})
	}
	return bson.MarshalValue(doc)
}

// UnmarshalBSONValue reads an embedded document back in field order
func (r *Reactions) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = nil
		return nil
	case bsontype.EmbeddedDocument:
	default:
		return fmt.Errorf("reactions: cannot decode BSON %s", t)
	}

	elems, err := bson.Raw(data).Elements()
	if err != nil {
		return err
	}
	out := make(Reactions, 0, len(elems))
	for _, elem := range elems {
		var ids []uint
		if err := elem.Value().Unmarshal(&ids); err != nil {
			return fmt.Errorf("reactions: category %q: %w", elem.Key(), err)
		}
		out = append(out, ReactionBucket{Category: elem.Key(), UserIDs: ids})
	}
	*r = out
	return nil
}
