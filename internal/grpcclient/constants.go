// Package grpcclient calls a running prinsp server over gRPC.
package grpcclient

import "time"

const (
	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second

	HealthCheckTimeout = 2 * time.Second
)
