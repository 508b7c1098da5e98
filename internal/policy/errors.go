// internal/policy/errors.go
package policy

// Field names used in error maps. These match the JSON field names of the
// deal payload so clients can attach messages to the right inputs.
const (
	FieldPicture          = "picture"
	FieldDealType         = "deal_types"
	FieldStore            = "store_id"
	FieldExpireAt         = "expire_at"
	FieldFlashHours       = "flash_deal_expire_hours"
	FieldShortDescription = "short_description"
	FieldOriginalPrice    = "original_price"
	FieldDiscountPrice    = "discount_price"
	FieldPurchaseLink     = "purchase_link"
	FieldDescription      = "description"
)

// Error codes carried by FieldError.
const (
	CodeRequired           = "REQUIRED"
	CodeFlashHoursRequired = "FLASH_HOURS_REQUIRED"
	CodeExpireDateRequired = "EXPIRE_DATE_REQUIRED"
	CodeExpireDateInvalid  = "EXPIRE_DATE_INVALID"
	CodeExpireDatePast     = "EXPIRE_DATE_PAST"
	CodeInvalidURL         = "INVALID_URL"
	CodePriceInvalid       = "PRICE_INVALID"
	CodeDuplicate          = "DUPLICATE"
	CodeChecking           = "CHECKING"
	CodeBatchCollision     = "BATCH_COLLISION"
)

// FieldError is a single rule violation attached to one field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Message
}

// FieldErrors is a partial map from field name to message, one entry per
// violated rule. Rules never short-circuit; a draft collects every
// applicable error.
type FieldErrors map[string]string
