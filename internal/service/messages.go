package service

import (
	"fmt"
	"strconv"

	"noteapp-server/internal/domain"
)

// Field messages shared by the service checks and the request validator.
var (
	MsgNotBlank   = "must not be blank"
	MsgNotNull    = "must not be null"
	MsgMinSize    = "size must be at least 1"
	MsgUnknownTag = "must be one of: " + domain.TagNames()
	MsgPageIndex  = "must be a non-negative integer"
	MsgPageSize   = fmt.Sprintf("must be between 1 and %d", domain.MaxPageSize)
	MsgInvalid    = "is invalid"
)

func indexedField(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
