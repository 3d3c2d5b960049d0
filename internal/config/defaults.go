// Package config handles application configuration loading and validation.
package config

import "time"

// Default configuration values.
const (
	DefaultWorkers = 1

	DefaultMySQLHost   = "localhost"
	DefaultMySQLPort   = 3306
	DefaultDumpTimeout = 10 * time.Minute

	DefaultLedgerPingTimeout     = 2 * time.Second
	DefaultLedgerMaxOpenConns    = 10
	DefaultLedgerMaxIdleConns    = 5
	DefaultLedgerConnMaxLifetime = 30 * time.Minute

	DefaultRemoteRegion  = "us-east-1"
	DefaultRemoteUseSSL  = true
	DefaultUploadTimeout = 15 * time.Minute

	DefaultRetryMaxAttempts  = 3
	DefaultRetryInitialDelay = 5 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second

	DefaultMetricsEnabled        = false
	DefaultMetricsPushgatewayURL = ""

	DefaultAppriseEnabled = false
	DefaultAppriseURL     = ""
	DefaultAppriseKey     = ""
	DefaultAppriseNotify  = NotifyError

	DefaultLogLevel     = "info"
	DefaultLogMaxSizeMB = 10
)

// NotifyLevel represents when to send notifications.
type NotifyLevel string

const (
	// NotifyError sends notifications only on errors.
	NotifyError NotifyLevel = "error"
	// NotifyAlways sends notifications on every run.
	NotifyAlways NotifyLevel = "always"
)

// IsValid returns true if the notify level is valid.
func (n NotifyLevel) IsValid() bool {
	switch n {
	case NotifyError, NotifyAlways:
		return true
	default:
		return false
	}
}

// String returns the string representation of the notify level.
func (n NotifyLevel) String() string {
	return string(n)
}
