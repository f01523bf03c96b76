package validators

import "go.mongodb.org/mongo-driver/bson"

var TradeRequestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"requesting_dj_id", "target_dj_id", "message", "status", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":              bson.M{"bsonType": "objectId"},
			"requesting_dj_id": bson.M{"bsonType": "string", "maxLength": 64},
			"target_dj_id":     bson.M{"bsonType": "string", "maxLength": 64},
			"message":          bson.M{"bsonType": "string", "minLength": 1, "maxLength": 2000},
			"status":           bson.M{"enum": []string{"pending", "approved", "rejected"}},
			"created_at":       bson.M{"bsonType": "date"},
			"updated_at":       bson.M{"bsonType": "date"},
		},
	},
}
