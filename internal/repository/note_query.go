package repository

import "noteapp-server/internal/domain"

const countBatchSize = 1000

func noteSelector(filter domain.TagFilter) map[string]interface{} {
	selector := map[string]interface{}{
		"doc_type":   noteDocType,
		"created_at": map[string]interface{}{"$gt": nil},
	}
	if len(filter) > 0 {
		selector["tags"] = map[string]interface{}{
			"$elemMatch": map[string]interface{}{"$in": filter},
		}
	}
	return selector
}

// pageQuery returns one page of notes, newest first. The sort spans both
// indexed fields so CouchDB can serve it from the doc_type/created_at index.
func pageQuery(filter domain.TagFilter, page domain.PageRequest) map[string]interface{} {
	return map[string]interface{}{
		"selector": noteSelector(filter),
		"sort": []interface{}{
			map[string]string{"doc_type": "desc"},
			map[string]string{"created_at": "desc"},
		},
		"skip":  page.Offset(),
		"limit": page.Size,
	}
}

// countQuery fetches one batch of matching IDs, resuming after bookmark when
// it is set.
func countQuery(filter domain.TagFilter, bookmark string) map[string]interface{} {
	query := map[string]interface{}{
		"selector": noteSelector(filter),
		"fields":   []string{"_id"},
		"limit":    countBatchSize,
	}
	if bookmark != "" {
		query["bookmark"] = bookmark
	}
	return query
}
