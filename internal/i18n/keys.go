// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Deals
	KeyDealCreated     = "deal.created"
	KeyDealUpdated     = "deal.updated"
	KeyDealDeleted     = "deal.deleted"
	KeyDealNotFound    = "deal.not_found"
	KeyDealApproved    = "deal.approved"
	KeyDealRejected    = "deal.rejected"
	KeyDealDuplicate   = "deal.duplicate"
	KeyDealBatchFailed = "deal.batch_failed"

	// Stores
	KeyStoreCreated  = "store.created"
	KeyStoreNotFound = "store.not_found"

	// Admin
	KeyAdminActionSuccess = "admin.action_success"
	KeyAdminAccessDenied  = "admin.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"
)
