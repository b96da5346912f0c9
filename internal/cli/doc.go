// Package cli implements the rpint command-line interface.
//
// Each Cobra command parses flags and then hands off to a small function
// that takes its dependencies explicitly (an io.Writer, a loaded config, a
// store), so the command logic can be tested without a terminal.
//
// # Command Structure
//
//	rpint run                 - the appliance daemon (LCD, buttons, UPS HAT)
//	rpint run --console       - the same panel drawn in this terminal
//	rpint lldp                - one neighbor discovery, printed
//	rpint status              - what a running daemon last stored (redis)
//	rpint doctor              - health checks for config, lldpd and the HATs
//	rpint config init         - write rpint.toml
//	rpint config show         - print the effective config
//	rpint config lines        - the screen lines in order
//	rpint config validate     - check rpint.toml
//	rpint version             - build information
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color) are defined on the root
// command and available to all subcommands.
//
// # Errors
//
// Commands return structured errors from internal/errors. Execute prints
// them once, in the ✗ layout, and turns them into the process exit code.
// Commands with --format json write the JSON envelope instead and return an
// ExitError so nothing else is printed.
package cli
