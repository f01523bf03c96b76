package validators

import "go.mongodb.org/mongo-driver/bson"

var VenueValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "location", "city", "is_active", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"name":     bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"location": bson.M{"bsonType": "string", "maxLength": 200},
			"city":     bson.M{"bsonType": "string", "maxLength": 100},
			"capacity": bson.M{"bsonType": integer, "minimum": 0, "maximum": 200000},
			"amenities": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
			"preferred_genres": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
			"is_active":  bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
