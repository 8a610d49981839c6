// Package tools probes whether third-party developer tools are installed and
// runnable. Probes never install anything; a tool that is missing, fails, or
// exceeds its timeout is simply reported unavailable.
package tools
