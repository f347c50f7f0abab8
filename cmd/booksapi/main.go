// Booksapi serves the Distant Reading Archive book catalogue over HTTP and
// exposes Prometheus metrics for every request it handles.
//
// Usage:
//
//	# Start the server with default configuration
//	booksapi run
//
//	# Start with a configuration file and hot-reload the log level
//	booksapi run --config /etc/booksapi/config.yaml --watch
//
//	# Check a configuration file and print the effective settings
//	booksapi validate --config config.yaml --output yaml
//
//	# Show version information
//	booksapi version
package main

func main() {
	Execute()
}
