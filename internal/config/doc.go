// Package config provides configuration loading, merging, and validation
// facilities for the checkpoint client.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Environment variables (a .env file is loaded first when present)
//  2. Command-line flags
//  3. JSON config file
//
// The main entry point is [GetConfigWith].
package config
