package mongoclient

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
)

// MakeBsonM turns the set fields of a struct into a document keyed by bson tag.
// Nil pointers and zero values are skipped, a set pointer is dereferenced so a
// pointer to false or "" still lands in the document.
func MakeBsonM(v interface{}) (bson.M, error) {
	val := reflect.Indirect(reflect.ValueOf(v))
	typ := val.Type()

	m := bson.M{}
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanInterface() || field.IsZero() {
			continue
		}
		tag, err := bsoncodec.DefaultStructTagParser(typ.Field(i))
		if err != nil {
			return nil, err
		}
		if tag.Skip {
			continue
		}
		if field.Kind() == reflect.Ptr {
			field = field.Elem()
		}
		m[tag.Name] = field.Interface()
	}
	return m, nil
}
