package routes

const (
	// Health
	Health  = "/health"
	Metrics = "/metrics"

	// Public form endpoints
	SubmissionsCreate = "/api/v1/submissions/{kind}"
	SubmissionsCheck  = "/api/v1/submissions/{kind}/check-pending"
	SubmissionsTrack  = "/api/v1/submissions/track/{ack}"
	NOCTypes          = "/api/v1/noc/types"

	// Staff endpoints
	StaffSubmissions       = "/api/v1/staff/submissions"
	StaffSubmission        = "/api/v1/staff/submissions/{id}"
	StaffSubmissionHistory = "/api/v1/staff/submissions/{id}/history"
	StaffEnclosures        = "/api/v1/staff/submissions/{id}/enclosures"
	StaffTransitionStatus  = "/api/v1/staff/submissions/{kind}/{id}/status"
	StaffNOCPayment        = "/api/v1/staff/noc/payment"
	StaffStatistics        = "/api/v1/staff/statistics"
	StaffKindStatistics    = "/api/v1/staff/statistics/{kind}"
)
