// Package task contains background maintenance jobs. The only job at
// present is the attempt-log sweeper, which enforces the retention
// horizon on session attempts.
package task
