package audit

// Audit event actions. Each constant corresponds to one hook lifecycle
// interface and becomes the Action field of the audit event.
const (
	ActionRunStarted       = "run.started"
	ActionRunCompleted     = "run.completed"
	ActionRunFailed        = "run.failed"
	ActionRunSuspended     = "run.suspended"
	ActionStepCompleted    = "run.step_completed"
	ActionStepFailed       = "run.step_failed"
	ActionStepRetrying     = "run.step_retrying"
	ActionNotificationSent = "notification.sent"
)

// Audit event categories group related actions.
const (
	CategoryRun          = "hrflow.run"
	CategoryNotification = "hrflow.notification"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceRun          = "workflow_run"
	ResourceNotification = "notification"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionRunStarted,
		ActionRunCompleted,
		ActionRunFailed,
		ActionRunSuspended,
		ActionStepCompleted,
		ActionStepFailed,
		ActionStepRetrying,
		ActionNotificationSent,
	}
}
