// Package driving defines the interfaces through which the outside world
// drives the core: the CLI and the MCP server call these, and core services
// implement them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
