package validators

import "go.mongodb.org/mongo-driver/bson"

var InquiryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"type", "name", "email", "message", "status", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"type":       bson.M{"enum": []string{"general", "booking", "dj_application", "trade_request"}},
			"name":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": 100},
			"email":      bson.M{"bsonType": "string", "maxLength": 254},
			"message":    bson.M{"bsonType": "string", "minLength": 1, "maxLength": 5000},
			"status":     bson.M{"enum": []string{"new", "in_progress", "resolved"}},
			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
