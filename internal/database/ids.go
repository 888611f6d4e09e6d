package database

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Domain types carry ids as hex strings while the stored _id (and references
// such as trending blogId) are ObjectIDs. The driver decodes an ObjectID into
// a string field as its hex form, so only writes and filters need converting.

// IDValue returns the ObjectID for a hex id. Anything else is passed through
// so lookups by a malformed id simply match nothing.
func IDValue(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// IDValues converts ids for an $in filter.
func IDValues(ids []string) bson.A {
	out := make(bson.A, len(ids))
	for i, id := range ids {
		out[i] = IDValue(id)
	}
	return out
}

// IDFilter matches the document with the given id.
func IDFilter(id string) bson.M {
	return bson.M{"_id": IDValue(id)}
}

// ObjectIDDoc encodes v and rewrites _id plus any extra reference keys that
// hold hex strings into ObjectIDs, ready for InsertOne.
func ObjectIDDoc(v interface{}, refs ...string) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	keys := map[string]bool{"_id": true}
	for _, k := range refs {
		keys[k] = true
	}
	for i, e := range doc {
		if !keys[e.Key] {
			continue
		}
		if s, ok := e.Value.(string); ok {
			doc[i].Value = IDValue(s)
		}
	}
	return doc, nil
}
