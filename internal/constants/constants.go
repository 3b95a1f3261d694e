package constants

import "time"

const (
	// Calendar days for acknowledgement numbers are evaluated in this zone.
	BusinessTimezone = "Asia/Kolkata"

	AckDateLayout     = "20060102"
	AckSequenceDigits = 5
	AckNumberPattern  = `^(SC|NOM|NOC)-\d{8}-\d{5}$`

	// Insert attempts when an acknowledgement number collides.
	AckAllocationMaxAttempts = 3

	RedisAckKeyPrefix = "society:ack"
	RedisAckKeyTTL    = 48 * time.Hour

	// Committee digest runs every morning, business time.
	DailyDigestCronSpec   = "0 9 * * *"
	DailyDigestJobTimeout = 2 * time.Minute

	NotificationSendTimeout = 20 * time.Second

	DefaultListPageSize = 25
	MaxListPageSize     = 200

	// Nominee shares must add up to this.
	NomineeShareTotal = 100
)
