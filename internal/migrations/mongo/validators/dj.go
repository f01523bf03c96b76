package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = []string{"int", "long"}

var DJValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "slug", "genres", "booking_rate", "availability", "is_active", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"name":       bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"stage_name": bson.M{"bsonType": "string", "maxLength": 100},
			"slug": bson.M{
				"bsonType":  "string",
				"maxLength": 120,
				"pattern":   "^[a-z0-9]+(-[a-z0-9]+)*$",
			},
			"genres": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 15,
				"items":    bson.M{"bsonType": "string"},
			},
			"booking_rate": bson.M{"bsonType": integer, "minimum": 0},
			"residencies": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
			"equipment": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
			},
			"social_media": bson.M{"bsonType": "object"},
			"availability": bson.M{"enum": []string{"available", "busy", "booked"}},
			"is_active":    bson.M{"bsonType": "bool"},
			"created_at":   bson.M{"bsonType": "date"},
			"updated_at":   bson.M{"bsonType": "date"},
		},
	},
}
