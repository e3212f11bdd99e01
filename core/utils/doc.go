// Package utils provides common utility functions for the dataset streamer.
// It includes loose type-conversion helpers used when parsing query
// parameters and other untyped input.
package utils
