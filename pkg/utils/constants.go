package utils

const (
	OrganizationName = "Society Office"

	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"
)
