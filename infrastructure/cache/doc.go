// Package cache provides the orchestrator's index-keyed item stores.
package cache
