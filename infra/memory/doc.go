// Package memory provides object pooling for the matching hot path.
// Order records churn quickly under load; recycling them through a
// typed pool keeps allocation pressure off the matching loop.
package memory
