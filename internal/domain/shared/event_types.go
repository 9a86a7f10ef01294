package shared

// AccountEventType defines lifecycle notifications published for downstream services
type AccountEventType string

const (
	AccountEventOpened             AccountEventType = "ACCOUNT_OPENED"
	AccountEventClosed             AccountEventType = "ACCOUNT_CLOSED"
	AccountEventBalanceUpdated     AccountEventType = "BALANCE_UPDATED"
	AccountEventSnapshotsCompleted AccountEventType = "EOD_SNAPSHOT_COMPLETED"
)

// DLQReason defines why a movement message was parked in the dead letter queue
type DLQReason string

const (
	DLQReasonMalformedMessage DLQReason = "MALFORMED_MESSAGE"
	DLQReasonMissingAccountID DLQReason = "MISSING_ACCOUNT_ID"
	DLQReasonAccountNotFound  DLQReason = "ACCOUNT_NOT_FOUND"
)
