package store

import (
	"github.com/pcubed/gradeboard/internal/models"
)

// documentFromData decodes a raw record map defensively: a missing or
// mistyped field becomes its zero value rather than an error, so one
// malformed record can never abort aggregation. An error message is only
// kept while the record is actually in the error state.
func documentFromData(id string, data map[string]interface{}) models.Document {
	doc := models.Document{
		ID:           id,
		DocumentType: models.DocumentType(stringField(data, "documentType")),
		Status:       models.Status(stringField(data, "status")),
		Name:         stringField(data, "name"),
		Error:        stringField(data, "error"),
	}
	if doc.Status != models.StatusError {
		doc.Error = ""
	}
	return doc
}

func stringField(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	v, ok := data[key].(string)
	if !ok {
		return ""
	}
	return v
}
